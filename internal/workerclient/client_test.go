package workerclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kzero-xyz/proofbridge/internal/channelhub"
)

func TestClientRepliesToDispatchedTask(t *testing.T) {
	upgrader := websocket.Upgrader{}
	taskSent := make(chan struct{})
	resultReceived := make(chan channelhub.ResultMessage, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteJSON(channelhub.TaskMessage{Task: channelhub.TaskGenerateProof, ProofID: "job-1"}); err != nil {
			t.Errorf("write: %v", err)
			return
		}
		close(taskSent)

		var rm channelhub.ResultMessage
		if err := conn.ReadJSON(&rm); err != nil {
			return
		}
		resultReceived <- rm
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	handler := func(ctx context.Context, proofID string, payload channelhub.TaskPayload) (channelhub.TaskResults, error) {
		return channelhub.TaskResults{Public: []string{"42"}}, nil
	}
	client := New(wsURL, nil, time.Hour, time.Hour, 5000, handler, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case <-taskSent:
	case <-time.After(time.Second):
		t.Fatal("task was never sent")
	}

	select {
	case rm := <-resultReceived:
		if rm.ProofID != "job-1" {
			t.Errorf("ProofID = %q, want job-1", rm.ProofID)
		}
		if len(rm.Results.Public) != 1 || rm.Results.Public[0] != "42" {
			t.Errorf("Results = %+v", rm.Results)
		}
	case <-time.After(time.Second):
		t.Fatal("result was never received")
	}
}

func TestClientDoesNotReplyOnHandlerError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotAnotherFrame := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(channelhub.TaskMessage{Task: channelhub.TaskGenerateProof, ProofID: "job-2"})

		conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
		var rm channelhub.ResultMessage
		if err := conn.ReadJSON(&rm); err == nil {
			t.Errorf("unexpected reply for a failed task: %+v", rm)
		}
		close(gotAnotherFrame)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	handler := func(ctx context.Context, proofID string, payload channelhub.TaskPayload) (channelhub.TaskResults, error) {
		return channelhub.TaskResults{}, context.DeadlineExceeded
	}
	client := New(wsURL, nil, time.Hour, time.Hour, 5000, handler, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)

	select {
	case <-gotAnotherFrame:
	case <-time.After(2 * time.Second):
		t.Fatal("server handler never finished")
	}
}
