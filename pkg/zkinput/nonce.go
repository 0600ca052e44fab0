package zkinput

import (
	"math/big"

	"github.com/kzero-xyz/proofbridge/pkg/poseidon"
)

// GenerateNonce derives the OAuth nonce bound to an ephemeral key pair, a
// max epoch, and a caller-supplied randomness value. It is the symmetric
// counterpart of all_inputs_hash's own nonce-binding inputs: both consume
// the same ephemeral key halves and max_epoch, so a proof can only be
// generated for the JWT that was actually requested with this nonce.
//
// keyStr is the same "0x" + 64 hex char Ed25519 public key format accepted
// by GenerateZKInput; randomness is a decimal string.
func GenerateNonce(keyStr string, maxEpoch uint64, randomness string) (string, error) {
	hi, lo, err := ephemeralPublicKeyHalves(keyStr)
	if err != nil {
		return "", err
	}
	r, ok := new(big.Int).SetString(randomness, 10)
	if !ok {
		return "", ErrInvalidDecimalString
	}

	digest, err := poseidon.Hash([]*big.Int{hi, lo, new(big.Int).SetUint64(maxEpoch), r})
	if err != nil {
		return "", err
	}
	return digest.String(), nil
}
