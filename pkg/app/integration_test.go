package app

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kzero-xyz/proofbridge/pkg/auth"
	"github.com/kzero-xyz/proofbridge/pkg/config"
	"github.com/kzero-xyz/proofbridge/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// stubValidator authenticates tokens carrying its expected prefix as the
// same fixed claims and rejects everything else; the HTTP surface tests
// exercise routing/wiring, not token verification (that is pkg/auth's job).
type stubValidator struct {
	prefix string
	claims *auth.Claims
}

func (s *stubValidator) Validate(token string) (*auth.Claims, error) {
	if token == "" || !strings.HasPrefix(token, s.prefix) {
		return nil, fmt.Errorf("stub: token rejected")
	}
	return s.claims, nil
}

const testKid = "test-kid-1"

func unsignedTestJWT(t *testing.T, iss, aud, sub, nonce string) string {
	t.Helper()
	header := map[string]any{"alg": "RS256", "typ": "JWT", "kid": testKid}
	payload := map[string]any{
		"iss":   iss,
		"aud":   aud,
		"sub":   sub,
		"nonce": nonce,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	// The builder only extracts limbs from this, it never verifies the RSA
	// signature cryptographically, so any opaque base64 segment works here.
	return enc(header) + "." + enc(payload) + "." + base64.RawURLEncoding.EncodeToString([]byte("sig"))
}

func TestHTTPIntegrationSubmitAndFetch(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	jwksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{
				"kty": "RSA", "kid": testKid,
				"n": base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x02, 0x03, 0x04}),
				"e": base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
			}},
		})
	}))
	t.Cleanup(jwksSrv.Close)

	discovery := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jwks_uri": jwksSrv.URL})
	}))
	t.Cleanup(discovery.Close)

	cfg := &config.Config{
		Port:                0,
		RedisAddr:           mr.Addr(),
		Timezone:            "UTC",
		LogLevel:            "error",
		LogFormat:           "json",
		Env:                 "dev",
		ProofMode:           "wasm",
		PollIntervalMs:      20,
		ProofTimeoutMs:      5_000,
		PongTimeoutMs:       5_000,
		ConnectionTimeoutMs: 35_000,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}

	producerClaims := &auth.Claims{Subject: "producer-1", Email: "producer@example.test", Scopes: []string{"proofbridge:admin"}, Raw: map[string]any{"role": "ADMIN"}}

	application, err := NewApplication(cfg,
		WithProducerValidator(&stubValidator{prefix: "producer-", claims: producerClaims}),
		WithWorkerValidator(&stubValidator{prefix: "worker-", claims: &auth.Claims{Subject: "worker-1", Scopes: []string{"proofbridge:worker"}}}),
	)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	SetupMappings(application)
	server := httptest.NewServer(application.Engine)
	t.Cleanup(server.Close)

	// The issuer is the discovery stub's own URL: jwksfetch treats it as the
	// OIDC base and derives jwks_uri from its well-known document.
	jwt := unsignedTestJWT(t, discovery.URL, "client-123", "user-abc", "nonce-1")

	submitBody := map[string]any{
		"jwt":                jwt,
		"salt":               "123456789",
		"ephemeralPublicKey": "0x" + fmt100Hex(),
		"maxEpoch":           "10",
		"randomness":         "987654321",
	}

	status, bodyStr, jobID := submitProof(t, server.URL, "producer-token", submitBody)
	if status != http.StatusAccepted {
		t.Fatalf("submit status %d body=%s", status, bodyStr)
	}
	if jobID == "" {
		t.Fatalf("missing job id in response: %s", bodyStr)
	}

	status, bodyStr, _ = submitProof(t, server.URL, "producer-token", submitBody)
	if status != http.StatusConflict {
		t.Fatalf("expected duplicate nonce conflict, got %d body=%s", status, bodyStr)
	}

	status, bodyStr = getJSON(t, server.URL+"/v1/proof/jobs/"+jobID, "producer-token")
	if status != http.StatusOK {
		t.Fatalf("get job status %d body=%s", status, bodyStr)
	}
	var job domain.ProofJob
	if err := json.Unmarshal([]byte(bodyStr), &job); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}
	if job.Status != domain.StatusWaiting {
		t.Fatalf("expected waiting status, got %s", job.Status)
	}

	status, bodyStr = getJSON(t, server.URL+"/v1/proof/admin/stats", "producer-token")
	if status != http.StatusOK {
		t.Fatalf("admin stats status %d body=%s", status, bodyStr)
	}
}

func fmt100Hex() string {
	b := make([]byte, 32)
	for i := range b {
		b[i] = byte(i)
	}
	out := ""
	for _, v := range b {
		out += fmt.Sprintf("%02x", v)
	}
	return out
}

func submitProof(t *testing.T, baseURL, token string, body map[string]any) (int, string, string) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/v1/proof/requests", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(resp.Body)
	var parsed struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(rb, &parsed)
	return resp.StatusCode, string(rb), parsed.ID
}

func getJSON(t *testing.T, url, token string) (int, string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	rb, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(rb)
}
