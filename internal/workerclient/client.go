// Package workerclient is the worker side of the channel runtime (C5): it
// dials the scheduler's websocket endpoint, reconnects with exponential
// backoff on any disconnect, and runs an independent ping/pong heartbeat so
// a slow proof computation never starves the liveness check.
package workerclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kzero-xyz/proofbridge/internal/backoff"
	"github.com/kzero-xyz/proofbridge/internal/channelhub"
)

// Handler processes a dispatched task and returns the reply payload to send
// back. It runs on its own goroutine so a blocking witness/prover
// invocation never stalls the ping/pong loop (spec.md §5).
type Handler func(ctx context.Context, proofID string, payload channelhub.TaskPayload) (channelhub.TaskResults, error)

type Client struct {
	url          string
	header       http.Header
	pingInterval time.Duration
	pongTimeout  time.Duration
	reconnectMs  int
	logger       *slog.Logger
	handler      Handler

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(url string, header http.Header, pingInterval, pongTimeout time.Duration, reconnectBaseMs int, handler Handler, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:          url,
		header:       header,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		reconnectMs:  reconnectBaseMs,
		logger:       logger,
		handler:      handler,
	}
}

// Run connects and reconnects forever until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		opened, err := c.runOnce(ctx)
		if err != nil {
			c.logger.Warn("channel closed", "err", err, "attempt", attempt)
		}
		if opened {
			attempt = 0
		}
		if ctx.Err() != nil {
			return
		}
		delay := backoff.ReconnectDelay(c.reconnectMs, attempt)
		c.logger.Info("reconnecting", "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		attempt++
	}
}

// runOnce reports whether the dial succeeded, along with the error that
// ended the connection.
func (c *Client) runOnce(ctx context.Context) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return false, err
	}
	c.setConn(conn)
	defer func() {
		c.setConn(nil)
		_ = conn.Close()
	}()
	c.logger.Info("channel open")

	var wg sync.WaitGroup
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(connCtx, conn)
	}()

	err = c.readLoop(connCtx, conn)
	cancel()
	wg.Wait()
	return true, err
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
}

func (c *Client) writeJSON(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	return conn.WriteJSON(v)
}

// pingLoop sends an app-level ping every pingInterval and closes the
// connection only when a ping cannot be written. Pongs are not tracked:
// pongTimeout is not consulted, so a peer that stops answering is not
// detected here.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeJSON(channelhub.PingMessage{Task: channelhub.TaskPing}); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env struct {
			Task    string `json:"task"`
			ProofID string `json:"proofId"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("malformed frame", "err", err)
			continue
		}
		switch env.Task {
		case channelhub.TaskPing:
			if err := c.writeJSON(channelhub.PongMessage{Task: channelhub.TaskPong}); err != nil {
				return err
			}
		case channelhub.TaskPong:
			// liveness observed; nothing further to do
		case channelhub.TaskGenerateProof:
			var tm channelhub.TaskMessage
			if err := json.Unmarshal(raw, &tm); err != nil {
				c.logger.Warn("malformed task frame", "err", err)
				continue
			}
			go c.handleTask(ctx, tm)
		default:
			c.logger.Info("unknown task, discarding", "task", env.Task)
		}
	}
}

func (c *Client) handleTask(ctx context.Context, tm channelhub.TaskMessage) {
	if c.handler == nil {
		return
	}
	results, err := c.handler(ctx, tm.ProofID, tm.Payload)
	if err != nil {
		// Per spec.md §4.5 "On any step failure, do not reply"; the
		// scheduler's timeout handles cleanup.
		c.logger.Warn("task failed, not replying", "proofId", tm.ProofID, "err", err)
		return
	}
	reply := channelhub.ResultMessage{Task: channelhub.TaskGenerateProof, ProofID: tm.ProofID, Results: results}
	if err := c.writeJSON(reply); err != nil {
		c.logger.Warn("failed to send result", "proofId", tm.ProofID, "err", err)
	}
}
