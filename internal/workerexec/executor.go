// Package workerexec materializes a dispatched proof job to disk and
// invokes the witness+prover pipeline, selected by PROOF_MODE (spec.md §6).
package workerexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/kzero-xyz/proofbridge/internal/channelhub"
	"github.com/kzero-xyz/proofbridge/internal/providers"
	"github.com/kzero-xyz/proofbridge/pkg/domain"
)

// Engine runs the witness+prover pipeline over materialized input/witness
// files and returns the parsed proof/public signals.
type Engine interface {
	Run(ctx context.Context, dir string) (*domain.Groth16Proof, []string, error)
}

// Executor is the per-task entry point wired into workerclient.Handler.
type Executor struct {
	store  providers.ArtifactStore
	engine Engine
}

func NewExecutor(store providers.ArtifactStore, engine Engine) *Executor {
	return &Executor{store: store, engine: engine}
}

// Execute materializes inputs to <address_seed>/input.json and runs the
// configured engine, returning the task results to reply with.
func (e *Executor) Execute(ctx context.Context, proofID string, payload channelhub.TaskPayload) (channelhub.TaskResults, error) {
	addressSeed := payload.Fields.AddressSeed
	if addressSeed == "" {
		return channelhub.TaskResults{}, errors.New("workerexec: missing address_seed in task payload")
	}

	inputJSON, err := json.Marshal(payload.Inputs)
	if err != nil {
		return channelhub.TaskResults{}, fmt.Errorf("marshal inputs: %w", err)
	}
	if _, err := e.store.Put(ctx, filepath.Join(addressSeed, "input.json"), inputJSON); err != nil {
		return channelhub.TaskResults{}, fmt.Errorf("write input.json: %w", err)
	}

	dir := e.jobDir(addressSeed)
	proof, public, err := e.engine.Run(ctx, dir)
	if err != nil {
		return channelhub.TaskResults{}, err
	}
	return channelhub.TaskResults{Proof: proof, Public: public}, nil
}

func (e *Executor) jobDir(addressSeed string) string {
	return filepath.Join(e.store.Root(), addressSeed)
}

// NativeEngine spawns the out-of-process witness and prover binaries per
// spec.md §4.5 "Worker-side execution" option (b).
type NativeEngine struct {
	WitnessBin string
	ProverBin  string
	ZkeyPath   string
}

func (n *NativeEngine) Run(ctx context.Context, dir string) (*domain.Groth16Proof, []string, error) {
	input := filepath.Join(dir, "input.json")
	witness := filepath.Join(dir, "witness.wtns")
	proofPath := filepath.Join(dir, "proof.json")
	publicPath := filepath.Join(dir, "public.json")

	if err := runBin(ctx, n.WitnessBin, input, witness); err != nil {
		return nil, nil, fmt.Errorf("witness generation: %w", err)
	}
	if err := runBin(ctx, n.ProverBin, n.ZkeyPath, witness, proofPath, publicPath); err != nil {
		return nil, nil, fmt.Errorf("proof generation: %w", err)
	}

	proof, err := readProof(proofPath)
	if err != nil {
		return nil, nil, err
	}
	public, err := readPublic(publicPath)
	if err != nil {
		return nil, nil, err
	}
	return proof, public, nil
}

func runBin(ctx context.Context, bin string, args ...string) error {
	if bin == "" {
		return fmt.Errorf("binary path not configured")
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", bin, err, out)
	}
	return nil
}
