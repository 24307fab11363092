package upstream

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is a coarser classification than ConnectionState, folding in
// response-time and consecutive-failure signal.
type Status string

const (
	StatusHealthy      Status = "healthy"
	StatusDegraded     Status = "degraded"
	StatusUnhealthy    Status = "unhealthy"
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
)

// Health is one server's latest health snapshot.
type Health struct {
	Server              string
	Status              Status
	LastCheck           time.Time
	ResponseTimeMS      int64
	ErrorCount          int
	ConsecutiveFailures int
	LastError           string
	ToolCount           int
}

// HealthMonitor periodically polls every fleet session's ListTools as a
// liveness probe and classifies the result.
type HealthMonitor struct {
	fleet  *Fleet
	logger *zap.Logger

	mu     sync.RWMutex
	health map[string]*Health

	ticker *time.Ticker
	done   chan struct{}
}

// NewHealthMonitor constructs a monitor bound to fleet.
func NewHealthMonitor(fleet *Fleet, logger *zap.Logger) *HealthMonitor {
	return &HealthMonitor{
		fleet:  fleet,
		logger: logger,
		health: make(map[string]*Health),
	}
}

// Start begins periodic polling at interval, performing one check
// immediately. Start is not safe to call twice without an intervening Stop.
func (hm *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	hm.ticker = time.NewTicker(interval)
	hm.done = make(chan struct{})

	hm.checkAll(ctx)

	go func() {
		for {
			select {
			case <-hm.ticker.C:
				hm.checkAll(ctx)
			case <-hm.done:
				return
			}
		}
	}()
}

// Stop halts periodic polling. Stop is idempotent.
func (hm *HealthMonitor) Stop() {
	if hm.ticker != nil {
		hm.ticker.Stop()
	}
	if hm.done != nil {
		close(hm.done)
		hm.done = nil
	}
}

func (hm *HealthMonitor) checkAll(ctx context.Context) {
	hm.fleet.mu.RLock()
	sessions := make([]*Session, 0, len(hm.fleet.sessions))
	for _, s := range hm.fleet.sessions {
		sessions = append(sessions, s)
	}
	hm.fleet.mu.RUnlock()

	for _, s := range sessions {
		hm.checkOne(ctx, s)
	}
}

func (hm *HealthMonitor) checkOne(ctx context.Context, s *Session) {
	if s.State() != StateConnected {
		hm.mu.Lock()
		hm.health[s.Name] = &Health{Server: s.Name, Status: StatusDisconnected, LastCheck: time.Now()}
		hm.mu.Unlock()
		return
	}

	start := time.Now()
	toolCount, err := s.Ping(ctx)
	elapsed := time.Since(start).Milliseconds()

	hm.mu.Lock()
	defer hm.mu.Unlock()

	h, ok := hm.health[s.Name]
	if !ok {
		h = &Health{Server: s.Name}
		hm.health[s.Name] = h
	}
	h.LastCheck = time.Now()
	h.ResponseTimeMS = elapsed

	if err != nil {
		h.ErrorCount++
		h.ConsecutiveFailures++
		h.LastError = err.Error()
		switch {
		case h.ConsecutiveFailures >= 5:
			h.Status = StatusDisconnected
			s.MarkFailed()
		case h.ConsecutiveFailures >= 3:
			h.Status = StatusUnhealthy
		default:
			h.Status = StatusDegraded
		}
		hm.logger.Warn("upstream health check failed",
			zap.String("server", s.Name), zap.Error(err), zap.Int("consecutiveFailures", h.ConsecutiveFailures))
		return
	}

	h.ConsecutiveFailures = 0
	h.LastError = ""
	h.ToolCount = toolCount
	if elapsed > 2000 {
		h.Status = StatusDegraded
	} else {
		h.Status = StatusHealthy
	}
}

// Snapshot returns the current health of every monitored server.
func (hm *HealthMonitor) Snapshot() []Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	out := make([]Health, 0, len(hm.health))
	for _, h := range hm.health {
		out = append(out, *h)
	}
	return out
}
