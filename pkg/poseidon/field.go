// Package poseidon wraps the pinned circomlib-compatible Poseidon
// permutation (github.com/iden3/go-iden3-crypto) with the variable-arity
// sponge spec.md §8 requires, and the base-conversion bridge between byte
// vectors and field-element vectors the ZK input builder depends on.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Modulus returns the BN254 scalar field modulus.
func Modulus() *big.Int {
	m := fr.Modulus()
	return new(big.Int).Set(m)
}
