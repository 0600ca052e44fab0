package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// redisCollector reports the proof job store's queue depths on each scrape
// rather than tracking them incrementally, mirroring the teacher's
// pipelined-read collector shape.
type redisCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	jobsByStatusDesc *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:    rdb,
		logger: logger,
		jobsByStatusDesc: prometheus.NewDesc(
			"proofbridge_jobs_by_status",
			"Current proof job count by lifecycle status.",
			[]string{"status"},
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.jobsByStatusDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ids, err := c.rdb.HKeys(ctx, "proofbridge:jobs").Result()
	if err != nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	vals, err := c.rdb.HMGet(ctx, "proofbridge:jobs", ids...).Result()
	if err != nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}

	counts := map[string]int{"waiting": 0, "generating": 0, "generated": 0, "failed": 0}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		status := extractStatus(s)
		if status == "" {
			continue
		}
		counts[status]++
	}
	for status, n := range counts {
		m, err := prometheus.NewConstMetric(c.jobsByStatusDesc, prometheus.GaugeValue, float64(n), status)
		if err != nil {
			continue
		}
		ch <- m
	}
}

// extractStatus pulls the "status" field out of a job row without paying
// for a full JSON unmarshal on every scrape.
func extractStatus(js string) string {
	const key = `"status":"`
	idx := indexOf(js, key)
	if idx < 0 {
		return ""
	}
	start := idx + len(key)
	end := indexOf(js[start:], `"`)
	if end < 0 {
		return ""
	}
	return js[start : start+end]
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, logger))
	})
}
