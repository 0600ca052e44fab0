package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kzero-xyz/proofbridge/internal/jwksfetch"
	"github.com/kzero-xyz/proofbridge/internal/metrics"
	"github.com/kzero-xyz/proofbridge/internal/repository"
	"github.com/kzero-xyz/proofbridge/pkg/domain"
	"github.com/kzero-xyz/proofbridge/pkg/jwtdissect"
	"github.com/kzero-xyz/proofbridge/pkg/zkinput"
)

// SubmitRequest is everything a producer supplies when submitting a JWT for
// proof generation (spec.md §1/§4.3): the signed ID token plus the
// zkLogin-style ephemeral key material the circuit binds the proof to.
type SubmitRequest struct {
	JWT                string
	Salt               string
	EphemeralPublicKey string
	MaxEpoch           string
	Randomness         string
}

// SubmitService is C3+C4's front door: it turns a JWT into a CircuitInputs
// witness via the ZK input builder, then persists a waiting ProofJob for the
// scheduler to pick up.
type SubmitService interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.ProofJob, error)
}

type submitService struct {
	repo   repository.ProofJobRepository
	jwks   *jwksfetch.Fetcher
	logger *slog.Logger
}

func NewSubmitService(repo repository.ProofJobRepository, jwks *jwksfetch.Fetcher, logger *slog.Logger) SubmitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &submitService{repo: repo, jwks: jwks, logger: logger}
}

func (s *submitService) Submit(ctx context.Context, req SubmitRequest) (*domain.ProofJob, error) {
	dissected, err := jwtdissect.Dissect(req.JWT)
	if err != nil {
		return nil, fmt.Errorf("dissect jwt: %w", err)
	}

	// The Bloom filter lets an obvious retry (same nonce, same producer) skip
	// the JWKS fetch and Poseidon hashing below entirely.
	seen, err := s.repo.SeenNonce(ctx, dissected.Payload.Nonce)
	if err != nil {
		s.logger.Warn("SeenNonce check failed, proceeding to authoritative insert", "err", err)
	} else if seen {
		return nil, repository.ErrDuplicateNonce
	}

	entries, err := s.jwks.Entries(ctx, dissected.Payload.Iss)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks for issuer %q: %w", dissected.Payload.Iss, err)
	}

	out, err := zkinput.GenerateZKInput(zkinput.Params{
		JWT:                req.JWT,
		Salt:               req.Salt,
		EphemeralPublicKey: req.EphemeralPublicKey,
		MaxEpoch:           req.MaxEpoch,
		Randomness:         req.Randomness,
		JWKS:               entries,
	})
	if err != nil {
		return nil, fmt.Errorf("generate zk input: %w", err)
	}

	inputsJSON, err := json.Marshal(out.Inputs)
	if err != nil {
		return nil, fmt.Errorf("marshal circuit inputs: %w", err)
	}

	job := &domain.ProofJob{
		ID:     uuid.New().String(),
		Nonce:  dissected.Payload.Nonce,
		JWT:    req.JWT,
		Inputs: inputsJSON,
		Fields: &out.Fields,
		Status: domain.StatusWaiting,
	}
	if err := s.repo.Insert(ctx, job); err != nil {
		return nil, err
	}
	metrics.ProofsSubmittedTotal.WithLabelValues().Inc()
	return job, nil
}
