package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/applypilot/applypilot-api/internal/automation"
	"github.com/google/uuid"
)

// Config holds pool tuning knobs.
type Config struct {
	// IdleTimeout is how long a session may sit idle before the reaper
	// destroys it.
	IdleTimeout time.Duration

	// ReapInterval is how often the reaper scans for idle sessions.
	ReapInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:  30 * time.Minute,
		ReapInterval: time.Minute,
	}
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	GlobalLive  int               `json:"global_live"`
	Idle        int               `json:"idle"`
	PerUserLive map[uuid.UUID]int `json:"per_user_live"`
}

// Pool owns every live session handle. All registry state (per-user handle
// lists, live count) is guarded by a single mutex; the critical section spans
// only the check/create/mark-busy step, never a running automation body.
type Pool struct {
	cfg    Config
	opener automation.SessionOpener
	logger *slog.Logger

	mu     sync.Mutex
	byUser map[uuid.UUID][]*Handle
	live   int
	closed bool

	reapCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewPool creates a session pool. Call Start to run the idle reaper.
func NewPool(opener automation.SessionOpener, cfg Config, logger *slog.Logger) *Pool {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = DefaultConfig().ReapInterval
	}
	return &Pool{
		cfg:    cfg,
		opener: opener,
		logger: logger.With("component", "session_pool"),
		byUser: make(map[uuid.UUID][]*Handle),
	}
}

// Acquire returns an exclusive session for the user. An idle handle for the
// same user is reused; otherwise a new session is created if both the user's
// quota and the global cap leave headroom. When capacity is saturated Acquire
// fails fast with ErrResourceExhausted rather than blocking.
func (p *Pool) Acquire(ctx context.Context, userID uuid.UUID, quota Quota) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	for _, h := range p.byUser[userID] {
		if !h.busy {
			h.busy = true
			h.lastActive = time.Now()
			p.logger.Debug("reusing idle session",
				"session_id", h.id,
				"user_id", userID)
			return h, nil
		}
	}

	if len(p.byUser[userID]) >= quota.PerUser || p.live >= quota.Global {
		return nil, fmt.Errorf("%w: user=%d/%d global=%d/%d",
			ErrResourceExhausted,
			len(p.byUser[userID]), quota.PerUser,
			p.live, quota.Global)
	}

	// Creation happens inside the critical section so the quota
	// check-and-increment stays atomic against concurrent acquires.
	driver, err := p.opener.OpenSession(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open automation session: %w", err)
	}

	now := time.Now()
	h := &Handle{
		id:         uuid.New(),
		userID:     userID,
		driver:     driver,
		createdAt:  now,
		lastActive: now,
		busy:       true,
	}
	p.byUser[userID] = append(p.byUser[userID], h)
	p.live++

	p.logger.Info("created session",
		"session_id", h.id,
		"user_id", userID,
		"global_live", p.live)
	return h, nil
}

// Release returns a handle to the pool. With recycle true the handle becomes
// idle and reusable for the user's next task; with recycle false the
// underlying connection is destroyed and the handle deregistered, used when
// the session itself is suspect (authentication lost, structure drift).
func (p *Pool) Release(h *Handle, recycle bool) {
	p.mu.Lock()
	if p.closed && recycle {
		// Nothing will reuse it; fall through to destroy.
		recycle = false
	}
	if recycle {
		h.busy = false
		h.lastActive = time.Now()
		p.mu.Unlock()
		p.logger.Debug("session recycled", "session_id", h.id, "user_id", h.userID)
		return
	}
	p.deregisterLocked(h)
	p.mu.Unlock()

	p.destroy(h)
}

// Start launches the background reaper.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.reapCancel = cancel
	p.wg.Add(1)
	go p.reaper(ctx)
}

// Stop shuts the pool down: the reaper exits, every idle handle is destroyed,
// and further Acquire calls fail with ErrPoolClosed. Busy handles are
// destroyed when their borrowers release them.
func (p *Pool) Stop() {
	if p.reapCancel != nil {
		p.reapCancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	p.closed = true
	var idle []*Handle
	for _, handles := range p.byUser {
		for _, h := range handles {
			if !h.busy {
				idle = append(idle, h)
			}
		}
	}
	for _, h := range idle {
		p.deregisterLocked(h)
	}
	p.mu.Unlock()

	for _, h := range idle {
		p.destroy(h)
	}
	p.logger.Info("session pool stopped", "destroyed_idle", len(idle))
}

// Stats returns a snapshot of pool occupancy for observability surfaces.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		GlobalLive:  p.live,
		PerUserLive: make(map[uuid.UUID]int, len(p.byUser)),
	}
	for userID, handles := range p.byUser {
		s.PerUserLive[userID] = len(handles)
		for _, h := range handles {
			if !h.busy {
				s.Idle++
			}
		}
	}
	return s
}

// reaper periodically destroys sessions idle longer than the configured
// timeout, bounding resource usage from abandoned sessions.
func (p *Pool) reaper(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reapIdle(time.Now())
		}
	}
}

// reapIdle destroys every handle idle since before now-IdleTimeout. Split out
// from the ticker loop so tests can drive it deterministically.
func (p *Pool) reapIdle(now time.Time) {
	cutoff := now.Add(-p.cfg.IdleTimeout)

	p.mu.Lock()
	var expired []*Handle
	for _, handles := range p.byUser {
		for _, h := range handles {
			if !h.busy && h.lastActive.Before(cutoff) {
				expired = append(expired, h)
			}
		}
	}
	for _, h := range expired {
		p.deregisterLocked(h)
	}
	p.mu.Unlock()

	for _, h := range expired {
		p.logger.Info("reaped idle session",
			"session_id", h.id,
			"user_id", h.userID,
			"idle_for", now.Sub(h.lastActive).String())
		p.destroy(h)
	}
}

// deregisterLocked removes h from the registry. Caller holds p.mu.
func (p *Pool) deregisterLocked(h *Handle) {
	handles := p.byUser[h.userID]
	for i, cur := range handles {
		if cur == h {
			p.byUser[h.userID] = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	if len(p.byUser[h.userID]) == 0 {
		delete(p.byUser, h.userID)
	}
	p.live--
}

// destroy closes the underlying driver outside the pool lock.
func (p *Pool) destroy(h *Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := h.driver.Close(ctx); err != nil {
		p.logger.Warn("failed to close automation session",
			"session_id", h.id,
			"user_id", h.userID,
			"error", err)
	}
}
