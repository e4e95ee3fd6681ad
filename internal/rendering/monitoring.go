package rendering

import (
	"sync"
	"time"
)

// Stats tracks render throughput for the health endpoint
type Stats struct {
	mu            sync.Mutex
	maxConcurrent int
	active        int
	total         int64
	failed        int64
	totalDuration time.Duration
	startTime     time.Time
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Status            string   `json:"status"` // "healthy", "busy" or "degraded"
	ActiveRenders     int      `json:"active_renders"`
	MaxConcurrent     int      `json:"max_concurrent"`
	TotalRenders      int64    `json:"total_renders"`
	FailedRenders     int64    `json:"failed_renders"`
	SuccessRate       float64  `json:"success_rate"`
	AverageDurationMs *float64 `json:"average_duration_ms,omitempty"`
	UptimeSeconds     float64  `json:"uptime_seconds"`
}

func newStats(maxConcurrent int) *Stats {
	return &Stats{maxConcurrent: maxConcurrent, startTime: time.Now()}
}

func (s *Stats) begin() {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
}

func (s *Stats) end(d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	s.total++
	if err != nil {
		s.failed++
		return
	}
	s.totalDuration += d
}

// Snapshot returns the current counters
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Status:        "healthy",
		ActiveRenders: s.active,
		MaxConcurrent: s.maxConcurrent,
		TotalRenders:  s.total,
		FailedRenders: s.failed,
		SuccessRate:   1,
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	}

	if s.total > 0 {
		succeeded := s.total - s.failed
		snap.SuccessRate = float64(succeeded) / float64(s.total)
		if succeeded > 0 {
			avg := float64(s.totalDuration.Milliseconds()) / float64(succeeded)
			snap.AverageDurationMs = &avg
		}
	}

	switch {
	case s.total >= 10 && snap.SuccessRate < 0.5:
		snap.Status = "degraded"
	case s.active >= s.maxConcurrent:
		snap.Status = "busy"
	}
	return snap
}
