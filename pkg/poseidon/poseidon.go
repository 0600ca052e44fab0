package poseidon

import (
	"errors"
	"fmt"
	"math/big"

	iden3poseidon "github.com/iden3/go-iden3-crypto/poseidon"
)

// ErrEmptyInput is returned by Hash when called with zero inputs.
var ErrEmptyInput = errors.New("poseidon: empty input")

// ErrUnsupportedArity is returned by Hash when called with more than 32 inputs.
var ErrUnsupportedArity = errors.New("poseidon: unsupported arity")

const maxDirectArity = 16
const maxRecursiveArity = 32

// Hash computes the Poseidon sponge hash of inputs over the BN254 scalar
// field. Arity 1..16 is a single direct permutation against go-iden3-crypto's
// pinned circomlib round-constant/MDS tables (the same library the iden3/
// Polygon ID ecosystem uses, and the authority spec.md's golden vectors are
// drawn from). Arity 17..32 splits the input at floor(n/2), hashes each half
// recursively, then combines the two results with an arity-2 permutation, per
// spec.md §8's recursive case. Arity 0 and arity > 32 are errors.
func Hash(inputs []*big.Int) (*big.Int, error) {
	n := len(inputs)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	if n > maxRecursiveArity {
		return nil, fmt.Errorf("%w: unable to hash length %d", ErrUnsupportedArity, n)
	}
	if n <= maxDirectArity {
		return iden3poseidon.Hash(inputs)
	}
	mid := n / 2
	left, err := Hash(inputs[:mid])
	if err != nil {
		return nil, err
	}
	right, err := Hash(inputs[mid:])
	if err != nil {
		return nil, err
	}
	return iden3poseidon.Hash([]*big.Int{left, right})
}
