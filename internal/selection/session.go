package selection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned by Sessions.Select when a newer run (or a Clear)
// for the same slot started before this one finished.
var ErrSuperseded = errors.New("selection superseded by a newer run")

// Runner is implemented by Engine.
type Runner interface {
	Select(ctx context.Context, category Category, cfg Config) (*Result, error)
}

type slotKey struct {
	owner    string
	category Category
}

type slot struct {
	gen      uint64
	cancel   context.CancelFunc
	result   *Result
	lastUsed time.Time
}

// Sessions keeps one selection slot per owner and category. Starting a run
// cancels the slot's in-flight run and only the latest run may publish.
// Slots of different categories or owners never interact.
type Sessions struct {
	runner Runner
	now    func() time.Time
	mu     sync.Mutex
	slots  map[slotKey]*slot
}

func NewSessions(runner Runner) *Sessions {
	return &Sessions{runner: runner, now: time.Now, slots: make(map[slotKey]*slot)}
}

func (s *Sessions) slot(k slotKey) *slot {
	sl, ok := s.slots[k]
	if !ok {
		sl = &slot{}
		s.slots[k] = sl
	}
	sl.lastUsed = s.now()
	return sl
}

// Select cancels any in-flight run for (owner, category), runs a new one and
// publishes its result unless it was superseded meanwhile.
func (s *Sessions) Select(ctx context.Context, owner string, category Category, cfg Config) (*Result, error) {
	k := slotKey{owner: owner, category: category}

	s.mu.Lock()
	sl := s.slot(k)
	if sl.cancel != nil {
		sl.cancel()
	}
	sl.gen++
	gen := sl.gen
	runCtx, cancel := context.WithCancel(ctx)
	sl.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	res, err := s.runner.Select(runCtx, category, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl.gen != gen {
		return nil, ErrSuperseded
	}
	sl.cancel = nil
	sl.lastUsed = s.now()
	if err != nil {
		return nil, err
	}
	sl.result = res
	return res, nil
}

// Current returns the last published result, or nil.
func (s *Sessions) Current(owner string, category Category) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[slotKey{owner: owner, category: category}]; ok {
		return sl.result
	}
	return nil
}

// Clear cancels any in-flight run and drops the published result. Calling it
// on an empty slot is a no-op.
func (s *Sessions) Clear(owner string, category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(slotKey{owner: owner, category: category})
}

func (s *Sessions) clearLocked(k slotKey) {
	sl, ok := s.slots[k]
	if !ok {
		return
	}
	if sl.cancel != nil {
		sl.cancel()
		sl.cancel = nil
	}
	sl.gen++
	sl.result = nil
}

// Switch clears every other category of owner.
func (s *Sessions) Switch(owner string, category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range Categories() {
		if c != category {
			s.clearLocked(slotKey{owner: owner, category: c})
		}
	}
}

// Release forgets the owner's idle slots. A slot with a run in flight belongs
// to another job of the same owner; it is left alone and that job's own
// Release, or EvictIdle, removes it later.
func (s *Sessions) Release(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sl := range s.slots {
		if k.owner == owner && sl.cancel == nil {
			delete(s.slots, k)
		}
	}
}

// EvictIdle forgets every slot without a run in flight that was last used
// more than maxIdle ago and returns how many were removed.
func (s *Sessions) EvictIdle(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	evicted := 0
	for k, sl := range s.slots {
		if sl.cancel == nil && sl.lastUsed.Before(cutoff) {
			delete(s.slots, k)
			evicted++
		}
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (s *Sessions) RunEviction(ctx context.Context, interval, maxIdle time.Duration, onEvict func(n int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}

// Len reports how many slots are held.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
