// Package channelhub is the server side of the worker channel runtime (C5):
// it accepts long-lived websocket connections from provers, tracks their
// liveness, and lets the scheduler acquire an idle one to dispatch a proof
// job to.
package channelhub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kzero-xyz/proofbridge/internal/metrics"
)

var ErrNoIdleWorker = errors.New("channelhub: no idle worker available")

type connState int

const (
	stateOpen connState = iota
	stateClosed
)

// worker is a single accepted connection. live is reset on every ping
// received from the remote peer (worker ping or server-observed pong);
// connectionTimer force-closes the socket if it fires without a reset.
type worker struct {
	id    string
	conn  *websocket.Conn
	hub   *Hub
	logger *slog.Logger

	mu    sync.Mutex
	state connState
	live  bool

	connectionTimer *time.Timer
	writeMu         sync.Mutex
}

// Hub is the connected-worker registry. Single-writer from accept/close
// handlers, per spec's "Connected-worker map" shared-state note.
type Hub struct {
	mu      sync.Mutex
	workers map[string]*worker
	order   []string // insertion order, for first-idle selection

	connectionTimeout time.Duration
	pongTimeout       time.Duration
	logger            *slog.Logger

	upgrader websocket.Upgrader

	onResult func(proofID string, results TaskResults)
}

func NewHub(connectionTimeout, pongTimeout time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		workers:           make(map[string]*worker),
		connectionTimeout: connectionTimeout,
		pongTimeout:       pongTimeout,
		logger:            logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// OnResult registers the callback invoked whenever a worker reply frame
// (`task:"generateProof", results`) arrives. The scheduler wires its
// RecordResult here.
func (h *Hub) OnResult(fn func(proofID string, results TaskResults)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onResult = fn
}

// Accept upgrades an HTTP request to a websocket connection, registers the
// new worker, and blocks reading frames until the connection closes.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	wk := &worker{
		id:     uuid.New().String(),
		conn:   conn,
		hub:    h,
		logger: h.logger.With("workerId", ""),
		state:  stateOpen,
		live:   true,
	}
	wk.logger = h.logger.With("workerId", wk.id)

	h.mu.Lock()
	h.workers[wk.id] = wk
	h.order = append(h.order, wk.id)
	h.mu.Unlock()
	metrics.WorkersConnectedGauge.Inc()
	wk.logger.Info("worker connected")

	wk.armConnectionTimer(h.connectionTimeout)
	wk.readLoop()

	h.remove(wk.id)
	return nil
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.workers[id]; !ok {
		return
	}
	delete(h.workers, id)
	for i, wid := range h.order {
		if wid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	metrics.WorkersConnectedGauge.Dec()
}

// AcquireIdleWorker returns the first connected worker whose liveness flag
// is true and whose channel is open, per spec's worker-selection policy.
func (h *Hub) AcquireIdleWorker() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range h.order {
		wk := h.workers[id]
		wk.mu.Lock()
		ok := wk.state == stateOpen && wk.live
		wk.mu.Unlock()
		if ok {
			return id, true
		}
	}
	return "", false
}

// Dispatch sends a task frame to the given worker.
func (h *Hub) Dispatch(workerID string, msg TaskMessage) error {
	h.mu.Lock()
	wk, ok := h.workers[workerID]
	h.mu.Unlock()
	if !ok {
		return ErrNoIdleWorker
	}
	return wk.writeJSON(msg)
}

func (wk *worker) writeJSON(v any) error {
	wk.writeMu.Lock()
	defer wk.writeMu.Unlock()
	return wk.conn.WriteJSON(v)
}

func (wk *worker) armConnectionTimer(d time.Duration) {
	wk.mu.Lock()
	defer wk.mu.Unlock()
	if wk.connectionTimer != nil {
		wk.connectionTimer.Stop()
	}
	wk.connectionTimer = time.AfterFunc(d, func() {
		wk.logger.Warn("worker liveness timer fired, closing")
		wk.close()
	})
}

func (wk *worker) resetConnectionTimer() {
	wk.mu.Lock()
	defer wk.mu.Unlock()
	wk.live = true
	if wk.connectionTimer != nil {
		wk.connectionTimer.Reset(wk.hub.connectionTimeout)
	}
}

func (wk *worker) close() {
	wk.mu.Lock()
	if wk.state == stateClosed {
		wk.mu.Unlock()
		return
	}
	wk.state = stateClosed
	wk.live = false
	if wk.connectionTimer != nil {
		wk.connectionTimer.Stop()
	}
	wk.mu.Unlock()
	_ = wk.conn.Close()
}

// readLoop dispatches every inbound frame by its "task" discriminator.
// Unknown task values are logged and discarded per spec.md §4.5.
func (wk *worker) readLoop() {
	defer wk.close()
	for {
		_, raw, err := wk.conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			wk.logger.Warn("malformed frame", "err", err)
			continue
		}
		switch env.Task {
		case TaskPing:
			wk.resetConnectionTimer()
			_ = wk.writeJSON(PongMessage{Task: TaskPong})
		case TaskPong:
			wk.resetConnectionTimer()
		case TaskGenerateProof:
			var rm ResultMessage
			if err := json.Unmarshal(raw, &rm); err != nil {
				wk.logger.Warn("malformed result frame", "err", err)
				continue
			}
			wk.hub.mu.Lock()
			cb := wk.hub.onResult
			wk.hub.mu.Unlock()
			if cb != nil {
				cb(rm.ProofID, rm.Results)
			}
		default:
			wk.logger.Info("unknown task, discarding", "task", env.Task)
		}
	}
}
