package workerexec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kzero-xyz/proofbridge/pkg/domain"
)

// WasmEngine runs spec.md §4.5 "Worker-side execution" option (a): the
// witness and prover run as a WASM circuit artifact rather than spawned
// binaries. The WASM runtime itself lives behind a dedicated proof server
// this process dials over a websocket, the same transport idiom the C5
// channel runtime uses between scheduler and worker (internal/workerclient).
//
// input.json is sent as the single request frame; the server streams back
// one JSON frame with either {proof, public} or {error}.
type WasmEngine struct {
	ServerURL string
	Dialer    *websocket.Dialer
	Timeout   time.Duration
}

func NewWasmEngine(serverURL string) *WasmEngine {
	return &WasmEngine{ServerURL: serverURL, Dialer: websocket.DefaultDialer, Timeout: 2 * time.Minute}
}

type wasmProveResponse struct {
	Proof  *domain.Groth16Proof `json:"proof"`
	Public []string             `json:"public"`
	Error  string               `json:"error"`
}

func (w *WasmEngine) Run(ctx context.Context, dir string) (*domain.Groth16Proof, []string, error) {
	if w.ServerURL == "" {
		return nil, nil, fmt.Errorf("wasm engine: PROOF_SERVER_WS_URL not configured")
	}
	input, err := os.ReadFile(filepath.Join(dir, "input.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("read input.json: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	conn, _, err := w.Dialer.DialContext(dialCtx, w.ServerURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial proof server: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(w.Timeout)
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, input); err != nil {
		return nil, nil, fmt.Errorf("send input.json: %w", err)
	}

	_ = conn.SetReadDeadline(deadline)
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, nil, fmt.Errorf("read proof server reply: %w", err)
	}

	var resp wasmProveResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		return nil, nil, fmt.Errorf("parse proof server reply: %w", err)
	}
	if resp.Error != "" {
		return nil, nil, fmt.Errorf("proof server: %s", resp.Error)
	}
	if resp.Proof == nil || resp.Public == nil {
		return nil, nil, fmt.Errorf("proof server: incomplete reply")
	}

	// Persist for the audit trail spec.md §6 "Persisted artifacts" describes,
	// matching what NativeEngine leaves on disk from proof.json/public.json.
	if proofBytes, err := json.Marshal(resp.Proof); err == nil {
		_ = os.WriteFile(filepath.Join(dir, "proof.json"), proofBytes, 0o644)
	}
	if publicBytes, err := json.Marshal(resp.Public); err == nil {
		_ = os.WriteFile(filepath.Join(dir, "public.json"), publicBytes, 0o644)
	}

	return resp.Proof, resp.Public, nil
}
