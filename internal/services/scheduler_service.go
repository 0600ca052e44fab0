package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kzero-xyz/proofbridge/internal/channelhub"
	"github.com/kzero-xyz/proofbridge/internal/metrics"
	"github.com/kzero-xyz/proofbridge/internal/repository"
	"github.com/kzero-xyz/proofbridge/pkg/domain"
)

// WorkerDispatcher is the C5 surface the scheduler depends on: select an
// idle worker and ship it a task frame.
type WorkerDispatcher interface {
	AcquireIdleWorker() (string, bool)
	Dispatch(workerID string, msg channelhub.TaskMessage) error
}

// SchedulerService runs the C4 tick loop: pull the oldest waiting job,
// dispatch it to an idle worker, and arm a timeout. Worker replies are fed
// back in via RecordResult.
type SchedulerService interface {
	Start(ctx context.Context)
	RecordResult(proofID string, proof *domain.Groth16Proof, public []string)
	GetJob(ctx context.Context, id string) (*domain.ProofJob, error)
	QueueStats(ctx context.Context) (*domain.QueueStats, error)
	CleanupExpired(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type schedulerService struct {
	repo     repository.ProofJobRepository
	hub      WorkerDispatcher
	logger   *slog.Logger
	pollTick time.Duration
	timeout  time.Duration

	mu         sync.Mutex
	processing map[string]struct{}
}

func NewSchedulerService(repo repository.ProofJobRepository, hub WorkerDispatcher, pollTick, timeout time.Duration, logger *slog.Logger) SchedulerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &schedulerService{
		repo:       repo,
		hub:        hub,
		logger:     logger,
		pollTick:   pollTick,
		timeout:    timeout,
		processing: make(map[string]struct{}),
	}
}

// Start runs the periodic tick until ctx is cancelled. One scheduler
// instance owns the in-memory processing set (spec.md §5); running more
// than one against the same store is out of scope.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *schedulerService) tick(ctx context.Context) {
	job, err := s.repo.FindOldestWaiting(ctx)
	if err != nil {
		s.logger.Warn("tick: FindOldestWaiting failed", "err", err)
		return
	}
	if job == nil {
		return
	}

	s.mu.Lock()
	if _, claimed := s.processing[job.ID]; claimed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	workerID, ok := s.hub.AcquireIdleWorker()
	if !ok {
		return
	}

	s.mu.Lock()
	s.processing[job.ID] = struct{}{}
	s.mu.Unlock()

	if err := s.repo.UpdateStatus(ctx, job.ID, domain.StatusGenerating, nil, nil); err != nil {
		s.logger.Warn("tick: UpdateStatus(generating) failed", "jobId", job.ID, "err", err)
		s.releaseProcessing(job.ID)
		return
	}

	msg := channelhub.TaskMessage{
		Task:    channelhub.TaskGenerateProof,
		ProofID: job.ID,
		Payload: channelhub.TaskPayload{Inputs: job.Inputs, Fields: *job.Fields},
	}
	if err := s.hub.Dispatch(workerID, msg); err != nil {
		s.logger.Warn("tick: dispatch failed", "jobId", job.ID, "workerId", workerID, "err", err)
		s.failJob(context.Background(), job.ID)
		return
	}
	metrics.ProofsDispatchedTotal.WithLabelValues().Inc()

	jobID := job.ID
	time.AfterFunc(s.timeout, func() {
		s.onTimeout(jobID)
	})
}

// onTimeout fails the job if it is still generating when its timer fires.
// The timer closure armed in tick captures the scheduler along with the job
// ID, so a pending timer keeps the scheduler reachable until it fires, and
// it still runs after Start's context is cancelled: no running flag is
// checked.
func (s *schedulerService) onTimeout(jobID string) {
	defer s.releaseProcessing(jobID)
	ctx := context.Background()
	current, err := s.repo.Get(ctx, jobID)
	if err != nil {
		s.logger.Warn("timeout: Get failed", "jobId", jobID, "err", err)
		return
	}
	if current.Status != domain.StatusGenerating {
		return
	}
	if err := s.repo.UpdateStatus(ctx, jobID, domain.StatusFailed, nil, nil); err != nil {
		s.logger.Warn("timeout: UpdateStatus(failed) failed", "jobId", jobID, "err", err)
		return
	}
	metrics.ProofTimeoutsTotal.WithLabelValues().Inc()
	metrics.ProofsCompletedTotal.WithLabelValues(string(domain.StatusFailed)).Inc()
}

func (s *schedulerService) failJob(ctx context.Context, jobID string) {
	defer s.releaseProcessing(jobID)
	if err := s.repo.UpdateStatus(ctx, jobID, domain.StatusFailed, nil, nil); err != nil {
		s.logger.Warn("failJob: UpdateStatus failed", "jobId", jobID, "err", err)
	}
}

func (s *schedulerService) releaseProcessing(jobID string) {
	s.mu.Lock()
	delete(s.processing, jobID)
	s.mu.Unlock()
}

// RecordResult is the on_result path (spec.md §4.4): the first of {worker
// reply, timeout} to run the update wins because terminal states are
// sinks, so a late reply for an already-failed job is a harmless no-op.
func (s *schedulerService) RecordResult(proofID string, proof *domain.Groth16Proof, public []string) {
	defer s.releaseProcessing(proofID)
	ctx := context.Background()
	err := s.repo.UpdateStatus(ctx, proofID, domain.StatusGenerated, proof, public)
	if err == nil {
		metrics.ProofsCompletedTotal.WithLabelValues(string(domain.StatusGenerated)).Inc()
		return
	}
	if err == repository.ErrTerminalStatus {
		s.logger.Info("result arrived for a job already terminal, ignoring", "proofId", proofID)
		return
	}
	s.logger.Warn("RecordResult: UpdateStatus failed, marking failed", "proofId", proofID, "err", err)
	if ferr := s.repo.UpdateStatus(ctx, proofID, domain.StatusFailed, nil, nil); ferr != nil && ferr != repository.ErrTerminalStatus {
		s.logger.Warn("RecordResult: fallback UpdateStatus(failed) failed", "proofId", proofID, "err", ferr)
	}
}

func (s *schedulerService) GetJob(ctx context.Context, id string) (*domain.ProofJob, error) {
	return s.repo.Get(ctx, id)
}

func (s *schedulerService) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	return s.repo.QueueStats(ctx)
}

func (s *schedulerService) CleanupExpired(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	return s.repo.CleanupExpired(ctx, olderThan, limit)
}
