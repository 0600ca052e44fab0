package zkinput

import "encoding/binary"

// shaPaddedResult is the byte-level SHA-256 padding of header_b64 + "." +
// payload_b64, right-padded out to the circuit's fixed witness array length.
type shaPaddedResult struct {
	Padded             []byte // length ShaPaddedJWTLen
	NumSha2Blocks      int    // blocks of 512 bits actually hashed
	PayloadLen         int
	PayloadStartIndex  int
}

// buildShaPaddedJWT implements the standard SHA-256 message padding over
// the unsigned JWT (header.payload), then right-pads with zero bytes out to
// ShaPaddedJWTLen so the witness array has a fixed shape regardless of the
// real token's length.
func buildShaPaddedJWT(headerB64, payloadB64 string) shaPaddedResult {
	unsigned := headerB64 + "." + payloadB64
	msg := []byte(unsigned)
	bitLen := uint64(8 * len(msg))

	padded := make([]byte, 0, len(msg)+9+64)
	padded = append(padded, msg...)
	padded = append(padded, 0x80)
	for len(padded)%64 != 56 {
		padded = append(padded, 0)
	}
	var lenBytes [8]byte
	binary.BigEndian.PutUint64(lenBytes[:], bitLen)
	padded = append(padded, lenBytes[:]...)

	numBlocks := len(padded) / 64

	full := make([]byte, ShaPaddedJWTLen)
	copy(full, padded)

	return shaPaddedResult{
		Padded:            full,
		NumSha2Blocks:     numBlocks,
		PayloadLen:        len(payloadB64),
		PayloadStartIndex: len(headerB64) + 1,
	}
}
