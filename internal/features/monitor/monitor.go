package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HealthStatus represents the current health state
type HealthStatus string

const (
	StatusUnknown  HealthStatus = "unknown"
	StatusUp       HealthStatus = "up"
	StatusDown     HealthStatus = "down"
	StatusSlow     HealthStatus = "slow"
	StatusRecovery HealthStatus = "recovery"
)

const (
	DefaultSchedule = "*/5 * * * *"
	SlowThreshold   = 5 * time.Second
)

// Snapshot is the result of the latest instance probe
type Snapshot struct {
	Status    HealthStatus `json:"status"`
	LatencyMs int64        `json:"latencyMs"`
	CheckedAt *time.Time   `json:"checkedAt,omitempty"`
	DownSince *time.Time   `json:"downSince,omitempty"`
	SlowCount int          `json:"slowCount"`
	Error     string       `json:"error,omitempty"`
}

// MonitorService probes the remote instance service on a schedule
type MonitorService struct {
	instanceURL string
	schedule    string
	client      *http.Client
	cron        *cron.Cron

	// SlowAfter is the latency above which the instance counts as slow
	SlowAfter time.Duration

	// OnChange is called after a check whose status differs from the previous one
	OnChange func(Snapshot)

	mu       sync.Mutex
	snapshot Snapshot
}

// NewMonitorService creates a monitor for the instance base URL
func NewMonitorService(instanceURL, schedule string, timeout time.Duration) *MonitorService {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &MonitorService{
		instanceURL: instanceURL,
		schedule:    schedule,
		client:      &http.Client{Timeout: timeout},
		cron:        cron.New(),
		SlowAfter:   SlowThreshold,
		snapshot:    Snapshot{Status: StatusUnknown},
	}
}

// Start schedules the health check. Without an instance URL it does nothing.
func (s *MonitorService) Start() error {
	if s.instanceURL == "" {
		zap.S().Warn("⚠️ [MONITOR] Instance URL not configured, monitor disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.checkHealth(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule monitor: %w", err)
	}

	s.cron.Start()
	zap.S().Infof("✅ [MONITOR] Instance health check scheduled (%s)", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running check
func (s *MonitorService) Stop() {
	<-s.cron.Stop().Done()
}

// Status returns the latest snapshot
func (s *MonitorService) Status() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	if snap.CheckedAt != nil {
		t := *snap.CheckedAt
		snap.CheckedAt = &t
	}
	if snap.DownSince != nil {
		t := *snap.DownSince
		snap.DownSince = &t
	}
	return snap
}

func (s *MonitorService) checkHealth(ctx context.Context) Snapshot {
	now := time.Now()
	status, latency, err := s.pingHealth(ctx)
	zap.S().Infof("🏥 [MONITOR] Instance check: %s (latency: %dms)", status, latency)

	s.mu.Lock()
	prev := s.snapshot
	next := Snapshot{
		Status:    status,
		LatencyMs: latency,
		CheckedAt: &now,
		DownSince: prev.DownSince,
		SlowCount: prev.SlowCount,
	}
	if err != nil {
		next.Error = err.Error()
	}

	switch status {
	case StatusDown:
		if prev.Status != StatusDown {
			next.DownSince = &now
		}
		next.SlowCount = 0
	case StatusSlow:
		next.SlowCount++
		next.DownSince = nil
	case StatusUp:
		if prev.Status == StatusDown {
			next.Status = StatusRecovery
			zap.S().Infof("✅ [MONITOR] Instance recovered after %s", now.Sub(*prev.DownSince).Round(time.Second))
		}
		next.SlowCount = 0
		next.DownSince = nil
	}

	s.snapshot = next
	changed := next.Status != prev.Status
	onChange := s.OnChange
	s.mu.Unlock()

	if changed && onChange != nil {
		onChange(next)
	}
	return next
}

func (s *MonitorService) pingHealth(ctx context.Context) (HealthStatus, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.instanceURL, nil)
	if err != nil {
		return StatusDown, 0, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)

	if err != nil {
		zap.S().Warnf("❌ [MONITOR] Instance check failed: %v", err)
		return StatusDown, latency.Milliseconds(), err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 500 {
		return StatusDown, latency.Milliseconds(), fmt.Errorf("instance returned status %d", resp.StatusCode)
	}
	if latency > s.SlowAfter {
		return StatusSlow, latency.Milliseconds(), nil
	}
	return StatusUp, latency.Milliseconds(), nil
}
