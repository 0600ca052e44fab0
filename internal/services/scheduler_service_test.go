package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/kzero-xyz/proofbridge/internal/channelhub"
	"github.com/kzero-xyz/proofbridge/internal/repository"
	"github.com/kzero-xyz/proofbridge/pkg/domain"
)

type fakeDispatcher struct {
	mu          sync.Mutex
	idleID      string
	idleOK      bool
	dispatched  []channelhub.TaskMessage
	dispatchErr error
}

func (f *fakeDispatcher) AcquireIdleWorker() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idleID, f.idleOK
}

func (f *fakeDispatcher) Dispatch(workerID string, msg channelhub.TaskMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatched = append(f.dispatched, msg)
	return nil
}

func setupSchedulerTest(t *testing.T) (context.Context, repository.ProofJobRepository, *fakeDispatcher, *schedulerService) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewProofJobRepository(rdb)
	dispatcher := &fakeDispatcher{}
	svc := NewSchedulerService(repo, dispatcher, 10*time.Millisecond, 200*time.Millisecond, nil).(*schedulerService)
	return context.Background(), repo, dispatcher, svc
}

func insertJob(t *testing.T, ctx context.Context, repo repository.ProofJobRepository, id string) {
	t.Helper()
	job := &domain.ProofJob{
		ID:     id,
		Nonce:  "nonce-" + id,
		JWT:    "header.payload.sig",
		Fields: &domain.SuiProofFields{AddressSeed: "seed-" + id},
		Status: domain.StatusWaiting,
	}
	if err := repo.Insert(ctx, job); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}

func TestTickNoOpWhenNoWorkerAvailable(t *testing.T) {
	ctx, repo, dispatcher, svc := setupSchedulerTest(t)
	insertJob(t, ctx, repo, "job-1")
	dispatcher.idleOK = false

	svc.tick(ctx)

	got, err := repo.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.StatusWaiting {
		t.Errorf("Status = %s, want it to remain waiting", got.Status)
	}
}

func TestTickDispatchesToIdleWorkerAndMarksGenerating(t *testing.T) {
	ctx, repo, dispatcher, svc := setupSchedulerTest(t)
	insertJob(t, ctx, repo, "job-2")
	dispatcher.idleID = "worker-1"
	dispatcher.idleOK = true

	svc.tick(ctx)

	got, err := repo.Get(ctx, "job-2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.StatusGenerating {
		t.Errorf("Status = %s, want generating", got.Status)
	}
	if len(dispatcher.dispatched) != 1 || dispatcher.dispatched[0].ProofID != "job-2" {
		t.Errorf("dispatched = %+v", dispatcher.dispatched)
	}
}

func TestRecordResultTransitionsToGenerated(t *testing.T) {
	ctx, repo, dispatcher, svc := setupSchedulerTest(t)
	insertJob(t, ctx, repo, "job-3")
	dispatcher.idleID = "worker-1"
	dispatcher.idleOK = true
	svc.tick(ctx)

	proof := &domain.Groth16Proof{PiA: [3]string{"1", "2", "3"}}
	svc.RecordResult("job-3", proof, []string{"7"})

	got, err := repo.Get(ctx, "job-3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.StatusGenerated {
		t.Errorf("Status = %s, want generated", got.Status)
	}
	svc.mu.Lock()
	_, stillProcessing := svc.processing["job-3"]
	svc.mu.Unlock()
	if stillProcessing {
		t.Error("job-3 was not released from the processing set")
	}
}

func TestTimeoutFailsStillGeneratingJob(t *testing.T) {
	ctx, repo, dispatcher, svc := setupSchedulerTest(t)
	insertJob(t, ctx, repo, "job-4")
	dispatcher.idleID = "worker-1"
	dispatcher.idleOK = true
	svc.tick(ctx)

	svc.onTimeout("job-4")

	got, err := repo.Get(ctx, "job-4")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Errorf("Status = %s, want failed", got.Status)
	}
}

func TestLateResultAfterTimeoutIsIgnored(t *testing.T) {
	ctx, repo, dispatcher, svc := setupSchedulerTest(t)
	insertJob(t, ctx, repo, "job-5")
	dispatcher.idleID = "worker-1"
	dispatcher.idleOK = true
	svc.tick(ctx)
	svc.onTimeout("job-5")

	svc.RecordResult("job-5", &domain.Groth16Proof{}, []string{"1"})

	got, err := repo.Get(ctx, "job-5")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.StatusFailed {
		t.Errorf("Status = %s, want it to remain failed", got.Status)
	}
}

func TestProcessingSetPreventsDoubleDispatch(t *testing.T) {
	ctx, repo, dispatcher, svc := setupSchedulerTest(t)
	insertJob(t, ctx, repo, "job-6")
	dispatcher.idleID = "worker-1"
	dispatcher.idleOK = true

	svc.mu.Lock()
	svc.processing["job-6"] = struct{}{}
	svc.mu.Unlock()

	svc.tick(ctx)

	got, err := repo.Get(ctx, "job-6")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != domain.StatusWaiting {
		t.Errorf("Status = %s, want it to remain waiting (already claimed this tick)", got.Status)
	}
}
