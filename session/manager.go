package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/pkg/logging"
)

// Manager wraps a Store with per-session locking and scheduled expiry.
// Turns for the same session are serialized; turns for different
// sessions proceed concurrently.
type Manager struct {
	store Store
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock

	logger *slog.Logger
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithTTL sets how long idle sessions live before the sweeper removes them.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session manager requires a store")
	}
	m := &Manager{
		store:  store,
		ttl:    30 * time.Minute,
		locks:  make(map[string]*sessionLock),
		logger: logging.WithComponent("session.manager"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create makes a new session record and persists it.
func (m *Manager) Create(ctx context.Context) (*Record, error) {
	record := NewRecord(m.ttl)
	if err := m.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save new session: %w", err)
	}
	m.logger.Info("session created", "session_id", record.ID)
	return record, nil
}

// Get loads a session record. Expired records are treated as missing.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	record, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Expired(time.Now()) {
		_ = m.store.Delete(ctx, id)
		return nil, fmt.Errorf("session %s expired: %w", id, agerrors.ErrSessionNotFound)
	}
	return record, nil
}

// Save persists a record and refreshes its expiry.
func (m *Manager) Save(ctx context.Context, record *Record) error {
	record.Touch(m.ttl)
	return m.store.Save(ctx, record)
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Lock acquires the per-session mutex and returns the unlock func.
// Callers must hold the lock for the whole turn so concurrent turns on
// one session apply one at a time.
func (m *Manager) Lock(id string) func() {
	m.mu.Lock()
	sl, ok := m.locks[id]
	if !ok {
		sl = &sessionLock{}
		m.locks[id] = sl
	}
	sl.refs++
	m.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		m.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// StartSweeper runs expiry sweeps until ctx is done. Expiry is enforced
// by this scheduled pass, not by store-level eviction, so terminal
// summaries still get a chance to run elsewhere before removal.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(ctx)
			}
		}
	}()
}

// Sweep removes expired sessions and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	ids, err := m.store.List(ctx)
	if err != nil {
		m.logger.Warn("sweep failed to list sessions", "error", err)
		return 0
	}

	now := time.Now()
	removed := 0
	for _, id := range ids {
		record, err := m.store.Load(ctx, id)
		if err != nil {
			continue
		}
		if record.Expired(now) {
			unlock := m.Lock(id)
			if err := m.store.Delete(ctx, id); err == nil {
				removed++
			}
			unlock()
		}
	}
	if removed > 0 {
		m.logger.Info("swept expired sessions", "removed", removed)
	}
	return removed
}
