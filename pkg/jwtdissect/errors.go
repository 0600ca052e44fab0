package jwtdissect

import "errors"

// ErrInvalidJwtShape is returned when the token does not split into three
// non-empty dot-separated segments, or a segment is not valid base64url /
// valid JSON where one is required.
var ErrInvalidJwtShape = errors.New("jwtdissect: invalid jwt shape")

// ErrMissingClaim is returned when a required claim (sub, aud, iss, nonce)
// is absent from the payload, or a claim locator cannot find the claim's
// literal occurrence in the raw payload bytes.
var ErrMissingClaim = errors.New("jwtdissect: missing claim")

// ErrClaimTooLong is returned when a claim's quoted fragment does not fit
// in its circuit-fixed pad length.
var ErrClaimTooLong = errors.New("jwtdissect: claim exceeds pad length")
