package zkinput

import "errors"

// ErrUnknownKid is returned when no JWKS entry matches the JWT header's kid.
// This is fatal: there is no key to verify the signature against.
var ErrUnknownKid = errors.New("zkinput: no jwks entry for kid")

// ErrInvalidEphemeralKey is returned when the ephemeral public key string is
// not a well-formed "0x" + 64 hex character Ed25519 public key.
var ErrInvalidEphemeralKey = errors.New("zkinput: invalid ephemeral public key")

// ErrInvalidJWKSEntry is returned when a matched JWKS entry's n/e fields do
// not decode as base64url.
var ErrInvalidJWKSEntry = errors.New("zkinput: invalid jwks entry")

// ErrInvalidDecimalString is returned when max_epoch or randomness is not a
// base-10 integer string.
var ErrInvalidDecimalString = errors.New("zkinput: expected a decimal string")

// ErrValueTooLong is returned when a claim or literal value does not fit in
// its circuit-fixed field-hash pad length.
var ErrValueTooLong = errors.New("zkinput: value exceeds field-hash pad length")

