package agent

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	failed     bool
}

// StatsSnapshot is a point-in-time aggregate of one agent's latency samples.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Stats tracks recent agent call latencies within a rolling window, keyed by
// agent name.
type Stats struct {
	mu      sync.Mutex
	samples map[string][]sample
	maxAge  time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make(map[string][]sample),
		maxAge:  maxAge,
	}
}

func (s *Stats) Record(agent string, durationMs int64, failed bool) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples[agent] = append(s.pruneLocked(agent, now), sample{
		timestamp:  now,
		durationMs: durationMs,
		failed:     failed,
	})
}

// Snapshot aggregates every agent seen within the window.
func (s *Stats) Snapshot() map[string]StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.samples))
	for agent := range s.samples {
		kept := s.pruneLocked(agent, now)
		s.samples[agent] = kept
		if len(kept) == 0 {
			delete(s.samples, agent)
			continue
		}
		out[agent] = aggregate(kept)
	}
	return out
}

func aggregate(samples []sample) StatsSnapshot {
	values := make([]int64, 0, len(samples))
	var sum int64
	var failures int
	for _, sm := range samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		if sm.failed {
			failures++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count:    len(values),
		Failures: failures,
		MinMs:    values[0],
		MaxMs:    values[len(values)-1],
		AvgMs:    float64(sum) / float64(len(values)),
		P50Ms:    percentile(values, 50),
		P95Ms:    percentile(values, 95),
		P99Ms:    percentile(values, 99),
	}
}

func (s *Stats) pruneLocked(agent string, now time.Time) []sample {
	cutoff := now.Add(-s.maxAge)
	samples := s.samples[agent]
	writeIdx := 0
	for _, sm := range samples {
		if !sm.timestamp.Before(cutoff) {
			samples[writeIdx] = sm
			writeIdx++
		}
	}
	return samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
