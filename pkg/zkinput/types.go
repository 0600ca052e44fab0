package zkinput

import "github.com/kzero-xyz/proofbridge/pkg/domain"

// JWKSEntry is one RSA signing key as published at a provider's JWKS
// endpoint, in the shape returned by every OIDC provider (Google, Facebook,
// Apple, ...).
type JWKSEntry struct {
	Kid string `json:"kid"`
	N   string `json:"n_b64url"`
	E   string `json:"e"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
}

// Params is the full input to GenerateZKInput: the JWT plus every piece of
// caller-supplied context the circuit needs and cannot derive on its own.
type Params struct {
	JWT                 string
	Salt                string
	EphemeralPublicKey  string // "0x" + 64 hex chars
	MaxEpoch            string // decimal string
	Randomness          string // decimal string
	JWKS                []JWKSEntry
}

// Output is GenerateZKInput's return value: the witness-ready circuit
// inputs plus the non-circuit fields the caller persists alongside the
// proof (address derivation material).
type Output struct {
	Inputs CircuitInputs       `json:"inputs"`
	Fields domain.SuiProofFields `json:"fields"`
}
