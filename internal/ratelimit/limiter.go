package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"card-service/pkg/config"
)

// Class selects a rate limit profile
type Class string

const (
	// ClassAuth guards credential checks: login and password reverification
	ClassAuth Class = "auth"
	// ClassAPI guards the authenticated dashboard API
	ClassAPI Class = "api"
)

// Limit is a fixed-window profile
type Limit struct {
	Max    int
	Window time.Duration
}

// Result reports a single rate limit decision
type Result struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// Store counts attempts per key within fixed windows. The in-process store
// serves a single instance; multi-instance deployments use the redis store so
// the lockout stays authoritative across replicas.
type Store interface {
	Check(ctx context.Context, key string, limit Limit) (Result, error)
}

// Limiter applies class profiles over a store, keying entries {class}:{id}
type Limiter struct {
	store  Store
	limits map[Class]Limit
}

// New builds a limiter with the configured auth and api profiles
func New(store Store, cfg *config.RateLimitConfig) *Limiter {
	return &Limiter{
		store: store,
		limits: map[Class]Limit{
			ClassAuth: {Max: cfg.AuthMax, Window: cfg.AuthWindow},
			ClassAPI:  {Max: cfg.APIMax, Window: cfg.APIWindow},
		},
	}
}

// Check records an attempt for identifier under the class profile and returns
// the decision. Unknown classes are denied outright.
func (l *Limiter) Check(ctx context.Context, class Class, identifier string) (Result, error) {
	limit, ok := l.limits[class]
	if !ok {
		return Result{}, fmt.Errorf("unknown rate limit class %q", class)
	}
	key := fmt.Sprintf("%s:%s", class, identifier)
	return l.store.Check(ctx, key, limit)
}

type entry struct {
	count       int
	windowStart time.Time
	window      time.Duration
}

func (e *entry) resetTime() time.Time {
	return e.windowStart.Add(e.window)
}

// MemoryStore is the in-process fixed-window counter. A background sweep
// evicts expired windows to bound memory; Stop cancels it.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates the store and starts the sweeper. The clock is
// injected so the window logic is testable.
func NewMemoryStore(now func() time.Time, sweepInterval time.Duration) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	s := &MemoryStore{
		entries: make(map[string]*entry),
		now:     now,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweep(sweepInterval)
	}
	return s
}

// Check implements Store
func (s *MemoryStore) Check(_ context.Context, key string, limit Limit) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]

	// No entry, or the previous window elapsed: start a fresh one
	if !ok || !now.Before(e.resetTime()) {
		e = &entry{count: 1, windowStart: now, window: limit.Window}
		s.entries[key] = e
		return Result{Allowed: true, Remaining: limit.Max - 1, ResetTime: e.resetTime()}, nil
	}

	if e.count < limit.Max {
		e.count++
		return Result{Allowed: true, Remaining: limit.Max - e.count, ResetTime: e.resetTime()}, nil
	}

	// At the cap: deny without incrementing further
	return Result{Allowed: false, Remaining: 0, ResetTime: e.resetTime()}, nil
}

// Stop cancels the background sweeper
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *MemoryStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.resetTime()) {
			delete(s.entries, key)
		}
	}
}
