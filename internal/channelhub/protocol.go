package channelhub

import "github.com/kzero-xyz/proofbridge/pkg/domain"

// TaskMessage is the scheduler-to-worker dispatch frame.
type TaskMessage struct {
	Task    string      `json:"task"`
	ProofID string      `json:"proofId"`
	Payload TaskPayload `json:"payload"`
}

type TaskPayload struct {
	Inputs any                   `json:"inputs"`
	Fields domain.SuiProofFields `json:"fields"`
}

// ResultMessage is the worker-to-scheduler reply frame.
type ResultMessage struct {
	Task    string      `json:"task"`
	ProofID string      `json:"proofId"`
	Results TaskResults `json:"results"`
}

type TaskResults struct {
	Proof  *domain.Groth16Proof `json:"proof"`
	Public []string             `json:"public"`
}

// PingMessage / PongMessage carry the channel's application-level heartbeat,
// independent of the websocket protocol's own control frames so either side
// can observe liveness without depending on the transport library's ping
// handler being wired up identically on both ends.
type PingMessage struct {
	Task string `json:"task"`
}

type PongMessage struct {
	Task string `json:"task"`
}

const (
	TaskGenerateProof = "generateProof"
	TaskPing          = "ping"
	TaskPong          = "pong"
)

// envelope is used only to sniff the "task" discriminator before deciding
// which concrete message to unmarshal into.
type envelope struct {
	Task string `json:"task"`
}
