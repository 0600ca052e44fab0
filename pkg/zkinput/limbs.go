package zkinput

import (
	"encoding/hex"
	"math/big"
	"strings"
)

// SuiEd25519Flag is the one-byte scheme prefix Sui prepends to a raw
// Ed25519 public key to form its canonical 33-byte "Sui public key".
const SuiEd25519Flag = 0x00

// getLimbs decomposes n into little-endian limbs of the given bit width.
// Always returns at least one limb, even for n == 0.
func getLimbs(n *big.Int, bitWidth uint) []*big.Int {
	if n.Sign() == 0 {
		return []*big.Int{big.NewInt(0)}
	}
	bitLen := uint(n.BitLen())
	count := (bitLen + bitWidth - 1) / bitWidth
	if count == 0 {
		count = 1
	}
	mask := new(big.Int).Lsh(big.NewInt(1), bitWidth)
	mask.Sub(mask, big.NewInt(1))

	rem := new(big.Int).Set(n)
	limbs := make([]*big.Int, count)
	for i := uint(0); i < count; i++ {
		limb := new(big.Int).And(rem, mask)
		limbs[i] = limb
		rem.Rsh(rem, bitWidth)
	}
	return limbs
}

// ephemeralPublicKeyHalves parses a "0x" + 64 hex char Ed25519 public key,
// forms its Sui public key byte string (flag || raw key), and splits the
// resulting big-endian integer into high/low 128-bit halves.
func ephemeralPublicKeyHalves(keyStr string) (hi, lo *big.Int, err error) {
	s := strings.TrimPrefix(keyStr, "0x")
	if len(s) != 64 {
		return nil, nil, ErrInvalidEphemeralKey
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return nil, nil, ErrInvalidEphemeralKey
	}

	suiKey := make([]byte, 0, 33)
	suiKey = append(suiKey, SuiEd25519Flag)
	suiKey = append(suiKey, raw...)

	k := new(big.Int).SetBytes(suiKey)
	two128 := new(big.Int).Lsh(big.NewInt(1), 128)
	lo = new(big.Int).Mod(k, two128)
	hi = new(big.Int).Rsh(k, 128)
	return hi, lo, nil
}
