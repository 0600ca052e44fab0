package jwtdissect

import "bytes"

// ClaimLocator is everything the ZK input builder needs to prove a claim's
// literal byte range inside the signed JWT: the ASCII value itself, its
// base64 span within header.payload (so the circuit can check it against
// the signed bytes), and the offsets of the value within its own
// "name":"value" fragment.
type ClaimLocator struct {
	// Value is the literal claim fragment from its opening quote through the
	// separator that follows it, i.e. `"name":"value",` (or `}` for the last
	// claim); this is the builder's final_val.
	Value []byte
	// ValuePadded is Value zero-padded (or truncated, which is a caller
	// error) to the circuit's fixed-length slot.
	ValuePadded []byte

	// B64Start/B64Length locate Value inside the jwt string's
	// header.payload span (already offset past "header_b64.").
	B64Start  int
	B64Length int

	NameLength  int
	ColonIndex  int
	ValueIndex  int
	ValueLength int
}

// extractClaim locates the literal `"name":"value"` fragment for name within
// payloadBin and computes its base64 span within header_b64 + "." + payload_b64,
// per the claim locator algorithm: find the claim's position, walk forward to
// the next separator, then convert the resulting byte range into a base64
// character range via the floor(o/3)*4 + (o mod 3) correspondence.
func extractClaim(payloadBin []byte, headerB64Len int, name string, padLen int) (ClaimLocator, error) {
	needle := []byte(name)
	pos := bytes.Index(payloadBin, needle)
	if pos < 0 {
		return ClaimLocator{}, ErrMissingClaim
	}
	start := pos - 2
	if start < 0 {
		return ClaimLocator{}, ErrMissingClaim
	}

	tail := payloadBin[pos+1:]
	relEnd := bytes.IndexByte(tail, ',')
	if relEnd < 0 {
		relEnd = bytes.IndexByte(tail, '}')
	}
	if relEnd < 0 {
		return ClaimLocator{}, ErrMissingClaim
	}
	end := pos + relEnd + 2
	if end > len(payloadBin) {
		end = len(payloadBin)
	}

	slice := payloadBin[start:end]
	if len(slice) < 1 {
		return ClaimLocator{}, ErrMissingClaim
	}
	finalVal := slice[1:]

	o := start + 1
	l := len(finalVal)
	b64Start := (o/3)*4 + (o % 3)
	b64End := ((o+l)/3)*4 + align(o+l)
	b64Start += headerB64Len + 1
	b64End += headerB64Len + 1

	colonIdx := bytes.IndexByte(finalVal, ':')
	if colonIdx < 0 {
		return ClaimLocator{}, ErrMissingClaim
	}
	valueIdx := colonIdx + 1
	if valueIdx+1 > len(finalVal) {
		return ClaimLocator{}, ErrMissingClaim
	}
	closingQuote := indexOfFrom(finalVal, '"', valueIdx+1)
	if closingQuote < 0 {
		return ClaimLocator{}, ErrMissingClaim
	}
	valueLength := closingQuote + 2

	padded, err := padASCII(finalVal, padLen)
	if err != nil {
		return ClaimLocator{}, err
	}

	return ClaimLocator{
		Value:       finalVal,
		ValuePadded: padded,
		B64Start:    b64Start,
		B64Length:   b64End - b64Start,
		NameLength:  len(name) + 2,
		ColonIndex:  colonIdx,
		ValueIndex:  valueIdx,
		ValueLength: valueLength,
	}, nil
}

// align mirrors the base64 "leftover bytes" remainder used by b64End: a
// 3-byte group maps onto 4 base64 characters exactly; 1 or 2 leftover bytes
// still consume base64 characters and must round up.
func align(x int) int {
	switch x % 3 {
	case 0:
		return 0
	case 1:
		return 2
	default:
		return 3
	}
}

// indexOfFrom mirrors String.indexOf(needle, from): the first occurrence of
// needle at or after from, as an absolute index into s, or -1.
func indexOfFrom(s []byte, needle byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(s) {
		return -1
	}
	rel := bytes.IndexByte(s[from:], needle)
	if rel < 0 {
		return -1
	}
	return from + rel
}

// padASCII zero-pads b out to n bytes. A value longer than its circuit slot
// is a caller/configuration error, not a runtime data condition to absorb.
func padASCII(b []byte, n int) ([]byte, error) {
	if len(b) > n {
		return nil, ErrClaimTooLong
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}
