package domain

import "testing"

func TestProofStatusMarshalBinary(t *testing.T) {
	tests := []struct {
		name   string
		status ProofStatus
		want   string
	}{
		{"waiting", StatusWaiting, "waiting"},
		{"generating", StatusGenerating, "generating"},
		{"generated", StatusGenerated, "generated"},
		{"failed", StatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.status.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalBinary() = %v, want %v", string(got), tt.want)
			}
		})
	}
}

func TestProofStatusMarshalText(t *testing.T) {
	got, err := StatusGenerating.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(got) != "generating" {
		t.Errorf("MarshalText() = %v, want generating", string(got))
	}
}

func TestProofStatusTerminal(t *testing.T) {
	tests := []struct {
		status ProofStatus
		want   bool
	}{
		{StatusWaiting, false},
		{StatusGenerating, false},
		{StatusGenerated, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestProofJobFields(t *testing.T) {
	job := ProofJob{
		ID:     "job-123",
		Nonce:  "nonce-abc",
		JWT:    "header.payload.sig",
		Status: StatusWaiting,
		Fields: &SuiProofFields{
			AddressSeed: "123456",
			Header:      "654321",
			IssBase64Details: IssBase64Details{
				Value:     "111",
				IndexMod4: 2,
			},
		},
	}
	if job.ID != "job-123" {
		t.Errorf("expected ID 'job-123', got %s", job.ID)
	}
	if job.Status != StatusWaiting {
		t.Errorf("expected status waiting, got %s", job.Status)
	}
	if job.Fields.IssBase64Details.IndexMod4 != 2 {
		t.Errorf("expected index_mod_4 2, got %d", job.Fields.IssBase64Details.IndexMod4)
	}
}
