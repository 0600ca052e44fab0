package domain

import "time"

// NonceRecord is created during OAuth initiation (an external collaborator,
// out of scope per spec.md §1) and consumed once at callback when a
// ProofJob is created from the matching JWT. Both EphemeralPublicKey and
// Nonce are unique across records.
type NonceRecord struct {
	EphemeralPublicKey string    `json:"ephemeralPublicKey"` // 32-byte Ed25519, hex-encoded
	Nonce              string    `json:"nonce"`              // Poseidon-derived opaque string
	Randomness         string    `json:"randomness"`         // decimal string
	MaxEpoch           uint64    `json:"maxEpoch"`
	AuthState          string    `json:"authState"` // 32 random bytes, base64url CSRF token
	CreatedAt          time.Time `json:"createdAt"`
}
