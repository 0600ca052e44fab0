package jwtdissect

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Header is the decoded JWT header; alg and kid are required.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// Payload is the decoded JWT payload. Raw carries every claim (including
// ones the circuit never consumes, e.g. exp/iat) for audit/logging.
type Payload struct {
	Iss   string         `json:"iss"`
	Aud   string         `json:"aud"`
	Sub   string         `json:"sub"`
	Nonce string         `json:"nonce"`
	Raw   map[string]any `json:"-"`
}

// Dissected is the full output of Dissect: the literal base64 segments plus
// the decoded payload bytes, parsed header/payload, and a claim locator for
// each claim the ZK input builder needs.
type Dissected struct {
	HeaderB64    string
	PayloadB64   string
	SignatureB64 string
	PayloadBin   []byte

	Header  Header
	Payload Payload

	Sub   ClaimLocator
	Nonce ClaimLocator // pad 44, used for nonce signals
	Ev    ClaimLocator // same nonce occurrence, pad 53, used for ext_ev signals
	Aud   ClaimLocator
	Iss   ClaimLocator // only B64Start/B64Length consumed
}

// Dissect parses a full JWT string and locates every claim the ZK input
// builder needs. Claims are assumed to be JSON strings (double-quoted).
func Dissect(jwt string) (*Dissected, error) {
	segments := strings.Split(jwt, ".")
	if len(segments) != 3 {
		return nil, ErrInvalidJwtShape
	}
	headerB64, payloadB64, sigB64 := segments[0], segments[1], segments[2]
	if headerB64 == "" || payloadB64 == "" || sigB64 == "" {
		return nil, ErrInvalidJwtShape
	}

	headerBin, err := decodeB64(headerB64)
	if err != nil {
		return nil, ErrInvalidJwtShape
	}
	payloadBin, err := decodeB64(payloadB64)
	if err != nil {
		return nil, ErrInvalidJwtShape
	}

	var header Header
	if err := json.Unmarshal(headerBin, &header); err != nil {
		return nil, ErrInvalidJwtShape
	}
	if header.Alg == "" || header.Kid == "" {
		return nil, ErrInvalidJwtShape
	}

	var rawPayload map[string]any
	if err := json.Unmarshal(payloadBin, &rawPayload); err != nil {
		return nil, ErrInvalidJwtShape
	}
	payload := Payload{Raw: rawPayload}
	payload.Iss, _ = rawPayload["iss"].(string)
	payload.Aud, _ = rawPayload["aud"].(string)
	payload.Sub, _ = rawPayload["sub"].(string)
	payload.Nonce, _ = rawPayload["nonce"].(string)
	if payload.Iss == "" || payload.Aud == "" || payload.Sub == "" || payload.Nonce == "" {
		return nil, ErrMissingClaim
	}

	headerLen := len(headerB64)

	sub, err := extractClaim(payloadBin, headerLen, "sub", subPadLen)
	if err != nil {
		return nil, err
	}
	nonce, err := extractClaim(payloadBin, headerLen, "nonce", noncePadLen)
	if err != nil {
		return nil, err
	}
	ev, err := extractClaim(payloadBin, headerLen, "nonce", evPadLen)
	if err != nil {
		return nil, err
	}
	aud, err := extractClaim(payloadBin, headerLen, "aud", audPadLen)
	if err != nil {
		return nil, err
	}
	iss, err := extractClaim(payloadBin, headerLen, "iss", audPadLen)
	if err != nil {
		return nil, err
	}

	return &Dissected{
		HeaderB64:    headerB64,
		PayloadB64:   payloadB64,
		SignatureB64: sigB64,
		PayloadBin:   payloadBin,
		Header:       header,
		Payload:      payload,
		Sub:          sub,
		Nonce:        nonce,
		Ev:           ev,
		Aud:          aud,
		Iss:          iss,
	}, nil
}

// decodeB64 decodes a JWT segment, which is always base64url; padding is
// inferred by trying the unpadded encoding first.
func decodeB64(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

// These pad lengths mirror the ZK input builder's constants (spec.md §4.3)
// and are duplicated here only so claim locators can be built standalone;
// pkg/zkinput is the source of truth for the circuit-facing values.
const (
	subPadLen   = 126
	noncePadLen = 44
	evPadLen    = 53
	audPadLen   = 160
)
