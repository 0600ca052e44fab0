package jwtdissect

import (
	"encoding/base64"
	"strings"
	"testing"
)

func buildJWT(t *testing.T, header, payload string) string {
	t.Helper()
	h := base64.RawURLEncoding.EncodeToString([]byte(header))
	p := base64.RawURLEncoding.EncodeToString([]byte(payload))
	s := base64.RawURLEncoding.EncodeToString([]byte("signature-bytes-not-checked-here"))
	return h + "." + p + "." + s
}

func sampleJWT(t *testing.T) string {
	t.Helper()
	header := `{"alg":"RS256","kid":"abc123","typ":"JWT"}`
	payload := `{"iss":"https://accounts.google.com","aud":"client-id-123.apps.googleusercontent.com","sub":"110169484474386276334","nonce":"hTBgaAdvtm0OyOkDpyEdyPGvmiw","iat":1700000000,"exp":1700003600}`
	return buildJWT(t, header, payload)
}

func TestDissectHappyPath(t *testing.T) {
	jwt := sampleJWT(t)
	d, err := Dissect(jwt)
	if err != nil {
		t.Fatalf("Dissect() error = %v", err)
	}
	if d.Header.Alg != "RS256" || d.Header.Kid != "abc123" {
		t.Errorf("header = %+v, unexpected", d.Header)
	}
	if d.Payload.Sub != "110169484474386276334" {
		t.Errorf("sub = %q, unexpected", d.Payload.Sub)
	}
	if d.Payload.Nonce != "hTBgaAdvtm0OyOkDpyEdyPGvmiw" {
		t.Errorf("nonce = %q, unexpected", d.Payload.Nonce)
	}
	if d.Payload.Aud != "client-id-123.apps.googleusercontent.com" {
		t.Errorf("aud = %q, unexpected", d.Payload.Aud)
	}
}

func TestDissectRejectsMalformedShape(t *testing.T) {
	cases := []string{
		"",
		"onlyonepart",
		"two.parts",
		"a..c",
		"..",
	}
	for _, c := range cases {
		if _, err := Dissect(c); err != ErrInvalidJwtShape {
			t.Errorf("Dissect(%q) error = %v, want ErrInvalidJwtShape", c, err)
		}
	}
}

func TestDissectRejectsMissingClaims(t *testing.T) {
	header := `{"alg":"RS256","kid":"abc123"}`
	payload := `{"iss":"https://accounts.google.com","sub":"110169484474386276334"}`
	jwt := buildJWT(t, header, payload)
	if _, err := Dissect(jwt); err != ErrMissingClaim {
		t.Errorf("error = %v, want ErrMissingClaim", err)
	}
}

func TestClaimLocatorValueMatchesClaim(t *testing.T) {
	jwt := sampleJWT(t)
	d, err := Dissect(jwt)
	if err != nil {
		t.Fatalf("Dissect() error = %v", err)
	}

	got := string(d.Sub.Value)
	want := `"sub":"110169484474386276334",`
	if got != want {
		t.Errorf("sub locator value = %q, want %q", got, want)
	}

	if d.Sub.ColonIndex != strings.Index(got, ":") {
		t.Errorf("colon index = %d, want %d", d.Sub.ColonIndex, strings.Index(got, ":"))
	}
	if d.Sub.ValueIndex != d.Sub.ColonIndex+1 {
		t.Errorf("value index = %d, want colon+1 = %d", d.Sub.ValueIndex, d.Sub.ColonIndex+1)
	}
}

func TestClaimLocatorPaddingRespectsLimit(t *testing.T) {
	jwt := sampleJWT(t)
	d, err := Dissect(jwt)
	if err != nil {
		t.Fatalf("Dissect() error = %v", err)
	}
	if len(d.Sub.ValuePadded) != subPadLen {
		t.Errorf("len(ValuePadded) = %d, want %d", len(d.Sub.ValuePadded), subPadLen)
	}
	if !strings.HasPrefix(string(d.Sub.ValuePadded), string(d.Sub.Value)) {
		t.Errorf("padded value does not start with the unpadded value")
	}
	for i := len(d.Sub.Value); i < len(d.Sub.ValuePadded); i++ {
		if d.Sub.ValuePadded[i] != 0 {
			t.Fatalf("expected zero padding at byte %d", i)
		}
	}
}

func TestClaimTooLongForPad(t *testing.T) {
	header := `{"alg":"RS256","kid":"abc123"}`
	longSub := strings.Repeat("x", subPadLen+10)
	payload := `{"iss":"https://accounts.google.com","aud":"client","sub":"` + longSub + `","nonce":"n"}`
	jwt := buildJWT(t, header, payload)
	if _, err := Dissect(jwt); err != ErrClaimTooLong {
		t.Errorf("error = %v, want ErrClaimTooLong", err)
	}
}

func TestB64SpanPointsIntoJWT(t *testing.T) {
	jwt := sampleJWT(t)
	d, err := Dissect(jwt)
	if err != nil {
		t.Fatalf("Dissect() error = %v", err)
	}
	if d.Sub.B64Start < len(d.HeaderB64) {
		t.Errorf("sub b64 span starts inside the header segment: %d < %d", d.Sub.B64Start, len(d.HeaderB64))
	}
	if d.Sub.B64Start+d.Sub.B64Length > len(d.HeaderB64)+1+len(d.PayloadB64) {
		t.Errorf("sub b64 span overruns header.payload length")
	}
}
