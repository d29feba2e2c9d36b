package session

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"centromedico/models"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned when a call id has no live session.
var ErrSessionNotFound = errors.New("call session not found")

const shardCount = 16

// DefaultIdleTimeout is how long a session may go untouched before it is reclaimed.
const DefaultIdleTimeout = 10 * time.Minute

type entry struct {
	mu      sync.Mutex
	session models.CallSession
	removed bool
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Store keeps the conversation state of every active call in memory.
// Distinct call ids live in independent shards; a single session is only ever
// mutated while holding its own lock, and the idle sweeper skips locked sessions.
type Store struct {
	shards      [shardCount]*shard
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty Store whose sessions expire after idleTimeout.
func NewStore(idleTimeout time.Duration, opts ...Option) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	s := &Store{
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) shardFor(callID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(callID))
	return s.shards[h.Sum32()%shardCount]
}

func (s *Store) expired(sess models.CallSession, now time.Time) bool {
	return now.Sub(sess.LastActivity) > s.idleTimeout
}

// GetOrCreate returns the session for callID, creating one with an empty history
// on first use. init runs once on creation while the new session is still private.
func (s *Store) GetOrCreate(callID, callerNumber string, init func(*models.CallSession)) models.CallSession {
	sh := s.shardFor(callID)
	now := s.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.entries[callID]; ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.removed && !s.expired(e.session, now) {
			e.session.LastActivity = now
			return e.session.Clone()
		}
		e.removed = true
		delete(sh.entries, callID)
	}

	e := &entry{session: models.CallSession{
		CallID:       callID,
		CallerNumber: callerNumber,
		CreatedAt:    now,
		LastActivity: now,
	}}
	if init != nil {
		init(&e.session)
	}
	sh.entries[callID] = e
	return e.session.Clone()
}

// Get returns a copy of the session for callID.
func (s *Store) Get(callID string) (models.CallSession, bool) {
	sh := s.shardFor(callID)
	sh.mu.RLock()
	e, ok := sh.entries[callID]
	sh.mu.RUnlock()
	if !ok {
		return models.CallSession{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || s.expired(e.session, s.now()) {
		return models.CallSession{}, false
	}
	return e.session.Clone(), true
}

// Update runs fn on the live session for callID while holding that session's lock
// and refreshes its activity time. The returned copy reflects fn's changes.
func (s *Store) Update(callID string, fn func(*models.CallSession) error) (models.CallSession, error) {
	sh := s.shardFor(callID)
	sh.mu.RLock()
	e, ok := sh.entries[callID]
	sh.mu.RUnlock()
	if !ok {
		return models.CallSession{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	now := s.now()
	if e.removed || s.expired(e.session, now) {
		return models.CallSession{}, ErrSessionNotFound
	}
	if err := fn(&e.session); err != nil {
		return e.session.Clone(), err
	}
	e.session.LastActivity = s.now()
	return e.session.Clone(), nil
}

// AppendTurn adds turns to the end of the session history.
func (s *Store) AppendTurn(callID string, turns ...models.Turn) error {
	_, err := s.Update(callID, func(sess *models.CallSession) error {
		sess.Turns = append(sess.Turns, turns...)
		return nil
	})
	return err
}

// Remove drops the session for callID. It waits for any in-flight mutation.
func (s *Store) Remove(callID string) {
	sh := s.shardFor(callID)
	sh.mu.Lock()
	e, ok := sh.entries[callID]
	if ok {
		delete(sh.entries, callID)
	}
	sh.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
}

// Len returns the number of sessions currently held, expired or not.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Active lists the live sessions, oldest first.
func (s *Store) Active() []models.CallSummary {
	now := s.now()
	var out []models.CallSummary
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			e.mu.Lock()
			if !e.removed && !s.expired(e.session, now) {
				out = append(out, models.CallSummary{
					CallID:       e.session.CallID,
					CallerNumber: e.session.CallerNumber,
					Turns:        len(e.session.Turns),
					OutOfHours:   e.session.OutOfHours,
					CreatedAt:    e.session.CreatedAt,
					LastActivity: e.session.LastActivity,
				})
			}
			e.mu.Unlock()
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Sweep removes every session idle for longer than the timeout and returns how
// many were removed. Sessions being mutated are left for the next sweep.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			if !e.mu.TryLock() {
				continue
			}
			if e.removed || s.expired(e.session, now) {
				e.removed = true
				delete(sh.entries, id)
				removed++
			}
			e.mu.Unlock()
		}
		sh.mu.Unlock()
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.idleTimeout / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.logger.Info("Reclaimed idle call sessions", zap.Int("count", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
