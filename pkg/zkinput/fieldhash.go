package zkinput

import (
	"math/big"

	"github.com/kzero-xyz/proofbridge/pkg/poseidon"
)

// textFieldHash implements poseidon_hash(convert_base(pad_ascii(s, pad, 0).reverse(), 8, 248)):
// zero-pad s's ASCII bytes to padLen, reverse byte order, repack as 248-bit
// field elements, and Poseidon-hash the result.
func textFieldHash(s string, padLen int) (*big.Int, error) {
	b := []byte(s)
	if len(b) > padLen {
		return nil, ErrValueTooLong
	}
	padded := make([]byte, padLen)
	copy(padded, b)

	digits := make([]*big.Int, padLen)
	for i := 0; i < padLen; i++ {
		digits[i] = big.NewInt(int64(padded[padLen-1-i]))
	}

	packed, err := poseidon.ConvertBase(digits, InBase, OutBase)
	if err != nil {
		return nil, err
	}
	return poseidon.Hash(packed)
}

// limbFieldHash implements modulus_F = poseidon_hash(convert_base(modulus_limbs_BE, 64, 248)):
// the limbs passed to the circuit's modulus[] array are little-endian; the
// field-hash of the modulus instead consumes them in big-endian limb order.
func limbFieldHash(limbsLE []*big.Int) (*big.Int, error) {
	be := make([]*big.Int, len(limbsLE))
	for i, v := range limbsLE {
		be[len(limbsLE)-1-i] = v
	}
	packed, err := poseidon.ConvertBase(be, RSALimbBits, OutBase)
	if err != nil {
		return nil, err
	}
	return poseidon.Hash(packed)
}
