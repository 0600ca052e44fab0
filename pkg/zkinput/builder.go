package zkinput

import (
	"encoding/base64"
	"math/big"
	"strconv"

	"github.com/kzero-xyz/proofbridge/pkg/domain"
	"github.com/kzero-xyz/proofbridge/pkg/jwtdissect"
	"github.com/kzero-xyz/proofbridge/pkg/poseidon"
)

// GenerateZKInput is the pure entrypoint of the ZK input builder: given a
// JWT, the identity salt, the ephemeral key material the OAuth flow bound
// into the nonce, and the issuer's JWKS, it produces the full witness input
// map plus the address-derivation fields. Calling it twice with identical
// arguments must produce bitwise identical output.
func GenerateZKInput(p Params) (*Output, error) {
	d, err := jwtdissect.Dissect(p.JWT)
	if err != nil {
		return nil, err
	}

	jwks, err := findJWKSEntry(p.JWKS, d.Header.Kid)
	if err != nil {
		return nil, err
	}
	modulus, err := decodeBigEndianB64(jwks.N)
	if err != nil {
		return nil, ErrInvalidJWKSEntry
	}
	signature, err := decodeBigEndianB64(d.SignatureB64)
	if err != nil {
		return nil, ErrInvalidJWKSEntry
	}
	modulusLimbs := getLimbs(modulus, RSALimbBits)
	signatureLimbs := getLimbs(signature, RSALimbBits)

	sha := buildShaPaddedJWT(d.HeaderB64, d.PayloadB64)

	ephHi, ephLo, err := ephemeralPublicKeyHalves(p.EphemeralPublicKey)
	if err != nil {
		return nil, err
	}

	maxEpoch, ok := new(big.Int).SetString(p.MaxEpoch, 10)
	if !ok {
		return nil, ErrInvalidDecimalString
	}
	if _, ok := new(big.Int).SetString(p.Randomness, 10); !ok {
		return nil, ErrInvalidDecimalString
	}

	issSubstr := p.JWT[d.Iss.B64Start : d.Iss.B64Start+d.Iss.B64Length]
	issFieldF, err := textFieldHash(issSubstr, IssHashPad)
	if err != nil {
		return nil, err
	}
	kcNameF, err := textFieldHash("sub", KcNameHashPad)
	if err != nil {
		return nil, err
	}
	kcValueF, err := textFieldHash(d.Payload.Sub, KcValueHashPad)
	if err != nil {
		return nil, err
	}
	audValueF, err := textFieldHash(d.Payload.Aud, AudValueHashPad)
	if err != nil {
		return nil, err
	}
	headerF, err := textFieldHash(d.HeaderB64, HeaderHashPad)
	if err != nil {
		return nil, err
	}
	modulusF, err := limbFieldHash(modulusLimbs)
	if err != nil {
		return nil, err
	}

	saltInt := new(big.Int).SetBytes([]byte(p.Salt))
	saltHash, err := poseidon.Hash([]*big.Int{saltInt})
	if err != nil {
		return nil, err
	}
	addressSeed, err := poseidon.Hash([]*big.Int{kcNameF, kcValueF, audValueF, saltHash})
	if err != nil {
		return nil, err
	}

	issModLabel := ((d.Iss.B64Start - sha.PayloadStartIndex) % 4)
	if issModLabel < 0 {
		issModLabel += 4
	}
	issMod4 := big.NewInt(int64(issModLabel))

	allInputsHash, err := poseidon.Hash([]*big.Int{
		ephHi, ephLo, addressSeed, maxEpoch, issFieldF, issMod4, headerF, modulusF,
	})
	if err != nil {
		return nil, err
	}

	inputs := CircuitInputs{
		AllInputsHash: allInputsHash.String(),
		Salt:          saltInt.String(),
		MaxEpoch:      p.MaxEpoch,
		JWTRandomness: p.Randomness,

		EphPublicKey: [2]string{ephHi.String(), ephLo.String()},

		Modulus:   bigIntsToDecimalStrings(modulusLimbs),
		Signature: bigIntsToDecimalStrings(signatureLimbs),

		PaddedUnsignedJWT: bytesToDecimalStrings(sha.Padded),
		PayloadLen:        strconv.Itoa(sha.PayloadLen),
		NumSha2Blocks:     strconv.Itoa(sha.NumSha2Blocks),
		PayloadStartIndex: strconv.Itoa(sha.PayloadStartIndex),

		ExtKc:         bytesToDecimalStrings(d.Sub.ValuePadded),
		ExtKcLength:   strconv.Itoa(len(d.Sub.Value)),
		KcIndexB64:    strconv.Itoa(d.Sub.B64Start),
		KcLengthB64:   strconv.Itoa(d.Sub.B64Length),
		KcNameLength:  strconv.Itoa(d.Sub.NameLength),
		KcColonIndex:  strconv.Itoa(d.Sub.ColonIndex),
		KcValueIndex:  strconv.Itoa(d.Sub.ValueIndex),
		KcValueLength: strconv.Itoa(d.Sub.ValueLength),

		ExtNonce:        bytesToDecimalStrings(d.Nonce.ValuePadded),
		ExtNonceLength:  strconv.Itoa(len(d.Nonce.Value)),
		NonceIndexB64:   strconv.Itoa(d.Nonce.B64Start),
		NonceLengthB64:  strconv.Itoa(d.Nonce.B64Length),
		NonceColonIndex: strconv.Itoa(d.Nonce.ColonIndex),
		NonceValueIndex: strconv.Itoa(d.Nonce.ValueIndex),

		ExtEv:         bytesToDecimalStrings(d.Ev.ValuePadded),
		ExtEvLength:   strconv.Itoa(len(d.Ev.Value)),
		EvIndexB64:    strconv.Itoa(d.Ev.B64Start),
		EvLengthB64:   strconv.Itoa(d.Ev.B64Length),
		EvNameLength:  strconv.Itoa(d.Ev.NameLength),
		EvColonIndex:  strconv.Itoa(d.Ev.ColonIndex),
		EvValueIndex:  strconv.Itoa(d.Ev.ValueIndex),
		EvValueLength: strconv.Itoa(d.Ev.ValueLength),

		ExtAud:         bytesToDecimalStrings(d.Aud.ValuePadded),
		ExtAudLength:   strconv.Itoa(len(d.Aud.Value)),
		AudIndexB64:    strconv.Itoa(d.Aud.B64Start),
		AudLengthB64:   strconv.Itoa(d.Aud.B64Length),
		AudColonIndex:  strconv.Itoa(d.Aud.ColonIndex),
		AudValueIndex:  strconv.Itoa(d.Aud.ValueIndex),
		AudValueLength: strconv.Itoa(d.Aud.ValueLength),

		IssIndexB64:  strconv.Itoa(d.Iss.B64Start),
		IssLengthB64: strconv.Itoa(d.Iss.B64Length),
	}

	fields := domain.SuiProofFields{
		AddressSeed: addressSeed.String(),
		Header:      headerF.String(),
		IssBase64Details: domain.IssBase64Details{
			Value:     issFieldF.String(),
			IndexMod4: int(issModLabel),
		},
	}

	return &Output{Inputs: inputs, Fields: fields}, nil
}

func findJWKSEntry(entries []JWKSEntry, kid string) (JWKSEntry, error) {
	for _, e := range entries {
		if e.Kid == kid {
			return e, nil
		}
	}
	return JWKSEntry{}, ErrUnknownKid
}

func decodeBigEndianB64(s string) (*big.Int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
	}
	return new(big.Int).SetBytes(raw), nil
}

func bigIntsToDecimalStrings(in []*big.Int) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.String()
	}
	return out
}

func bytesToDecimalStrings(in []byte) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strconv.Itoa(int(v))
	}
	return out
}
