package workerexec

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kzero-xyz/proofbridge/pkg/domain"
)

// snarkjsProof mirrors the on-disk shape snarkjs-style prover binaries emit.
// readProof copies pi_b's inner pairs in file order, without reversing them.
type snarkjsProof struct {
	PiA []string   `json:"pi_a"`
	PiB [][]string `json:"pi_b"`
	PiC []string   `json:"pi_c"`
}

func readProof(path string) (*domain.Groth16Proof, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proof.json: %w", err)
	}
	var sp snarkjsProof
	if err := json.Unmarshal(b, &sp); err != nil {
		return nil, fmt.Errorf("parse proof.json: %w", err)
	}
	if len(sp.PiA) < 3 || len(sp.PiB) < 3 || len(sp.PiC) < 3 {
		return nil, fmt.Errorf("proof.json: malformed point arrays")
	}
	proof := &domain.Groth16Proof{
		PiA: [3]string{sp.PiA[0], sp.PiA[1], sp.PiA[2]},
		PiC: [3]string{sp.PiC[0], sp.PiC[1], sp.PiC[2]},
	}
	for i := 0; i < 3; i++ {
		if len(sp.PiB[i]) < 2 {
			return nil, fmt.Errorf("proof.json: malformed pi_b[%d]", i)
		}
		proof.PiB[i] = [2]string{sp.PiB[i][0], sp.PiB[i][1]}
	}
	return proof, nil
}

func readPublic(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public.json: %w", err)
	}
	var public []string
	if err := json.Unmarshal(b, &public); err != nil {
		return nil, fmt.Errorf("parse public.json: %w", err)
	}
	return public, nil
}
