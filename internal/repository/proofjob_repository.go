package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kzero-xyz/proofbridge/pkg/domain"
)

// ErrNotFound is returned when a job ID has no corresponding row.
var ErrNotFound = errors.New("repository: job not found")

// ErrTerminalStatus is returned by UpdateStatus when the row is already in
// a terminal status; terminal states are sinks and the update is a no-op.
var ErrTerminalStatus = errors.New("repository: job is already in a terminal status")

// ErrDuplicateNonce is returned by Insert when a ProofJob already exists for
// the given nonce, enforcing spec.md's "at most one ProofJob per nonce"
// invariant.
var ErrDuplicateNonce = errors.New("repository: a proof job already exists for this nonce")

// ProofJobRepository is the state store contract C4 is built on: atomic
// insert, FIFO oldest-waiting lookup, and single-row compare-and-set status
// transitions.
type ProofJobRepository interface {
	Insert(ctx context.Context, job *domain.ProofJob) error
	FindOldestWaiting(ctx context.Context) (*domain.ProofJob, error)
	UpdateStatus(ctx context.Context, id string, newStatus domain.ProofStatus, proof *domain.Groth16Proof, public []string) error
	Get(ctx context.Context, id string) (*domain.ProofJob, error)
	QueueStats(ctx context.Context) (*domain.QueueStats, error)
	CleanupExpired(ctx context.Context, olderThan time.Duration, limit int) (int, error)
	// SeenNonce reports whether a ProofJob already exists for nonce. It
	// consults the in-process Bloom filter first so a submit handler can skip
	// an authoritative Redis round trip (and the JWKS fetch + Poseidon work
	// that follows it) whenever the filter can prove the nonce is new.
	SeenNonce(ctx context.Context, nonce string) (bool, error)
}

type proofJobRedisRepo struct {
	rdb   *redis.Client
	bloom *idempotencyBloom
}

// NewProofJobRepository builds a Redis-backed ProofJobRepository. Every job
// row lives in a single hash keyed by ID; a waiting ZSET (scored by
// creation time, for FIFO pop) and a retention ZSET (scored by terminal
// time, for CleanupExpired) index it, mirroring the hash+ZSET shape of the
// teacher's task store generalized from lease-TTL retention to terminal-job
// retention.
func NewProofJobRepository(rdb *redis.Client) ProofJobRepository {
	return &proofJobRedisRepo{rdb: rdb, bloom: newIdempotencyBloom(0, 0, 0)}
}

func (r *proofJobRedisRepo) SeenNonce(ctx context.Context, nonce string) (bool, error) {
	if nonce == "" {
		return false, nil
	}
	if !r.bloom.MaybeHas(nonce) {
		return false, nil
	}
	return r.rdb.HExists(ctx, r.keyNonces(), nonce).Result()
}

func (r *proofJobRedisRepo) keyJobs() string      { return "proofbridge:jobs" }
func (r *proofJobRedisRepo) keyWaiting() string   { return "proofbridge:jobs:waiting" }
func (r *proofJobRedisRepo) keyRetention() string { return "proofbridge:jobs:retention" }
func (r *proofJobRedisRepo) keyNonces() string    { return "proofbridge:jobs:by-nonce" }

// insertScript atomically claims job.nonce (if set) in the nonce index
// before writing the job row, so two concurrent submissions for the same
// nonce cannot both succeed.
//
// KEYS[1] = jobs hash, KEYS[2] = nonce index hash
// ARGV[1] = job id, ARGV[2] = job JSON, ARGV[3] = nonce (may be empty)
var insertScript = redis.NewScript(`
if ARGV[3] ~= "" then
  local claimed = redis.call("HSETNX", KEYS[2], ARGV[3], ARGV[1])
  if claimed == 0 then
    local owner = redis.call("HGET", KEYS[2], ARGV[3])
    if owner ~= ARGV[1] then
      return redis.error_reply("duplicate_nonce")
    end
  end
end
redis.call("HSETNX", KEYS[1], ARGV[1], ARGV[2])
return "OK"
`)

func (r *proofJobRedisRepo) Insert(ctx context.Context, job *domain.ProofJob) error {
	if job.Status == "" {
		job.Status = domain.StatusWaiting
	}
	now := job.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	_, err = insertScript.Run(ctx, r.rdb, []string{r.keyJobs(), r.keyNonces()}, job.ID, string(payload), job.Nonce).Result()
	if err != nil {
		if err.Error() == "duplicate_nonce" {
			return ErrDuplicateNonce
		}
		return err
	}

	if job.Status == domain.StatusWaiting {
		if err := r.rdb.ZAdd(ctx, r.keyWaiting(), &redis.Z{Score: float64(now.UnixNano()), Member: job.ID}).Err(); err != nil {
			return err
		}
	}
	r.bloom.Add(job.Nonce)
	return nil
}

func (r *proofJobRedisRepo) Get(ctx context.Context, id string) (*domain.ProofJob, error) {
	js, err := r.rdb.HGet(ctx, r.keyJobs(), id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return unmarshalJob(js)
}

// FindOldestWaiting returns the job with the smallest creation score still
// present in the waiting index, or nil if none. It does not itself claim
// the job; the caller is expected to race-check against its in-memory
// processing set before committing to it (spec's "processing set" guard).
func (r *proofJobRedisRepo) FindOldestWaiting(ctx context.Context) (*domain.ProofJob, error) {
	ids, err := r.rdb.ZRange(ctx, r.keyWaiting(), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	job, err := r.Get(ctx, ids[0])
	if errors.Is(err, ErrNotFound) {
		// Row was deleted out from under the index; drop the stale member
		// and report no job this tick rather than erroring the scheduler.
		r.rdb.ZRem(ctx, r.keyWaiting(), ids[0])
		return nil, nil
	}
	return job, err
}

// updateStatusScript performs the single-row compare-and-set the scheduler
// depends on for its exactly-once terminal transition: it reads the current
// row, refuses to move a terminal status anywhere, and otherwise replaces
// the row with newJSON.
//
// KEYS[1] = jobs hash
// ARGV[1] = job id
// ARGV[2] = new JSON row
// The caller's view of the current status is not passed; Lua re-reads the
// authoritative row instead.
var updateStatusScript = redis.NewScript(`
local existing = redis.call("HGET", KEYS[1], ARGV[1])
if not existing then
  return redis.error_reply("not_found")
end
local job = cjson.decode(existing)
if job.status == "generated" or job.status == "failed" then
  return redis.error_reply("terminal")
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return "OK"
`)

func (r *proofJobRedisRepo) UpdateStatus(ctx context.Context, id string, newStatus domain.ProofStatus, proof *domain.Groth16Proof, public []string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	wasWaiting := current.Status == domain.StatusWaiting
	current.Status = newStatus
	current.UpdatedAt = time.Now().UTC()
	if proof != nil {
		current.Proof = proof
	}
	if public != nil {
		current.Public = public
	}

	payload, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	res, err := updateStatusScript.Run(ctx, r.rdb, []string{r.keyJobs()}, id, string(payload)).Result()
	if err != nil {
		if err.Error() == "terminal" {
			return ErrTerminalStatus
		}
		if err.Error() == "not_found" {
			return ErrNotFound
		}
		return err
	}
	_ = res

	pipe := r.rdb.TxPipeline()
	if wasWaiting && newStatus != domain.StatusWaiting {
		pipe.ZRem(ctx, r.keyWaiting(), id)
	}
	if newStatus.Terminal() {
		pipe.ZAdd(ctx, r.keyRetention(), &redis.Z{Score: float64(current.UpdatedAt.UnixNano()), Member: id})
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *proofJobRedisRepo) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	ids, err := r.rdb.HKeys(ctx, r.keyJobs()).Result()
	if err != nil {
		return nil, err
	}
	stats := &domain.QueueStats{}
	if len(ids) == 0 {
		return stats, nil
	}
	vals, err := r.rdb.HMGet(ctx, r.keyJobs(), ids...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		job, err := unmarshalJob(s)
		if err != nil {
			continue
		}
		switch job.Status {
		case domain.StatusWaiting:
			stats.Waiting++
		case domain.StatusGenerating:
			stats.Generating++
		case domain.StatusGenerated:
			stats.Generated++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// CleanupExpired removes terminal jobs whose terminal transition happened
// before olderThan ago, up to limit rows per call. This reuses the
// teacher's TTL-ZSET retention idea, repurposed from lease expiry to
// terminal-job retention.
func (r *proofJobRedisRepo) CleanupExpired(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	maxScore := fmt.Sprintf("%d", time.Now().Add(-olderThan).UnixNano())
	ids, err := r.rdb.ZRangeByScore(ctx, r.keyRetention(), &redis.ZRangeBy{
		Min: "-inf", Max: maxScore, Offset: 0, Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := r.rdb.TxPipeline()
	for _, id := range ids {
		pipe.HDel(ctx, r.keyJobs(), id)
		pipe.ZRem(ctx, r.keyRetention(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func unmarshalJob(js string) (*domain.ProofJob, error) {
	var job domain.ProofJob
	if err := json.Unmarshal([]byte(js), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
