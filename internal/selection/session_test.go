package selection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner blocks the first call per category until its context ends.
type blockingRunner struct {
	mu      sync.Mutex
	calls   map[Category]int
	started chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{calls: map[Category]int{}, started: make(chan struct{}, 4)}
}

func (r *blockingRunner) Select(ctx context.Context, category Category, cfg Config) (*Result, error) {
	r.mu.Lock()
	r.calls[category]++
	n := r.calls[category]
	r.mu.Unlock()

	if n == 1 {
		r.started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &Result{Category: category, Status: StatusSuccess, Item: &Item{Candidate: Candidate{ID: n}}}, nil
}

type instantRunner struct{}

func (instantRunner) Select(ctx context.Context, category Category, cfg Config) (*Result, error) {
	return &Result{
		Category:   category,
		Status:     StatusSuccess,
		Item:       &Item{Candidate: Candidate{ID: 1}},
		AgeWarning: "Filme indicado para maiores de 18 anos.",
		Providers:  map[int][]Provider{1: {{ID: 8, Kind: KindStreaming}}},
	}, nil
}

func TestSessions_NewRunCancelsInFlight(t *testing.T) {
	runner := newBlockingRunner()
	sessions := NewSessions(runner)

	firstErr := make(chan error, 1)
	go func() {
		_, err := sessions.Select(context.Background(), "user", CategoryMovie, Config{})
		firstErr <- err
	}()

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}

	res, err := sessions.Select(context.Background(), "user", CategoryMovie, Config{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Item.ID)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("stale run was not cancelled")
	}

	assert.Same(t, res, sessions.Current("user", CategoryMovie))
}

func TestSessions_ClearIsIdempotent(t *testing.T) {
	sessions := NewSessions(instantRunner{})

	sessions.Clear("user", CategoryMovie)
	assert.Nil(t, sessions.Current("user", CategoryMovie))

	_, err := sessions.Select(context.Background(), "user", CategoryMovie, Config{})
	require.NoError(t, err)
	require.NotNil(t, sessions.Current("user", CategoryMovie))

	sessions.Clear("user", CategoryMovie)
	sessions.Clear("user", CategoryMovie)
	assert.Nil(t, sessions.Current("user", CategoryMovie))
}

func TestSessions_ClearCancelsInFlight(t *testing.T) {
	runner := newBlockingRunner()
	sessions := NewSessions(runner)

	errCh := make(chan error, 1)
	go func() {
		_, err := sessions.Select(context.Background(), "user", CategoryAnime, Config{})
		errCh <- err
	}()
	<-runner.started

	sessions.Clear("user", CategoryAnime)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("clear did not cancel the run")
	}
	assert.Nil(t, sessions.Current("user", CategoryAnime))
}

func TestSessions_SwitchClearsOtherCategories(t *testing.T) {
	sessions := NewSessions(instantRunner{})
	ctx := context.Background()

	for _, c := range Categories() {
		_, err := sessions.Select(ctx, "user", c, Config{})
		require.NoError(t, err)
	}

	sessions.Switch("user", CategorySeries)
	assert.Nil(t, sessions.Current("user", CategoryMovie))
	assert.Nil(t, sessions.Current("user", CategoryAnime))
	assert.NotNil(t, sessions.Current("user", CategorySeries))
}

func TestSessions_CategoriesAreIndependent(t *testing.T) {
	runner := newBlockingRunner()
	sessions := NewSessions(runner)

	errCh := make(chan error, 1)
	go func() {
		_, err := sessions.Select(context.Background(), "a", CategoryMovie, Config{})
		errCh <- err
	}()
	<-runner.started

	// the series run blocks as well, bound it with a deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := sessions.Select(ctx, "a", CategorySeries, Config{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-errCh:
		t.Fatal("movie run must not be cancelled by a series run")
	default:
	}

	sessions.Clear("a", CategoryMovie)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
}

func TestSessions_OwnersAreIndependent(t *testing.T) {
	sessions := NewSessions(instantRunner{})
	ctx := context.Background()

	_, err := sessions.Select(ctx, "a", CategoryMovie, Config{})
	require.NoError(t, err)
	_, err = sessions.Select(ctx, "b", CategoryMovie, Config{})
	require.NoError(t, err)

	sessions.Clear("a", CategoryMovie)
	assert.Nil(t, sessions.Current("a", CategoryMovie))
	assert.NotNil(t, sessions.Current("b", CategoryMovie))
}

func TestSessions_Release(t *testing.T) {
	sessions := NewSessions(instantRunner{})
	_, err := sessions.Select(context.Background(), "job-1", CategoryMovie, Config{})
	require.NoError(t, err)

	sessions.Release("job-1")
	assert.Nil(t, sessions.Current("job-1", CategoryMovie))
}

func TestSessions_ReleaseKeepsInFlightRun(t *testing.T) {
	runner := newBlockingRunner()
	sessions := NewSessions(runner)

	errCh := make(chan error, 1)
	go func() {
		_, err := sessions.Select(context.Background(), "pi-1", CategoryAnime, Config{})
		errCh <- err
	}()
	<-runner.started

	sessions.Release("pi-1")
	assert.Equal(t, 1, sessions.Len(), "a running slot is not forgotten")

	sessions.Clear("pi-1", CategoryAnime)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)

	sessions.Release("pi-1")
	assert.Equal(t, 0, sessions.Len())
}

// ==========================
// Idle eviction
// ==========================

func TestSessions_EvictIdle(t *testing.T) {
	sessions := NewSessions(instantRunner{})
	clock := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return clock }
	ctx := context.Background()

	_, err := sessions.Select(ctx, "caller-a", CategoryMovie, Config{})
	require.NoError(t, err)

	clock = clock.Add(45 * time.Minute)
	_, err = sessions.Select(ctx, "caller-b", CategorySeries, Config{})
	require.NoError(t, err)

	clock = clock.Add(30 * time.Minute)
	assert.Equal(t, 1, sessions.EvictIdle(time.Hour))
	assert.Nil(t, sessions.Current("caller-a", CategoryMovie))
	assert.NotNil(t, sessions.Current("caller-b", CategorySeries))

	assert.Equal(t, 0, sessions.EvictIdle(time.Hour))
	assert.Equal(t, 1, sessions.Len())
}

func TestSessions_EvictIdleSkipsInFlight(t *testing.T) {
	runner := newBlockingRunner()
	sessions := NewSessions(runner)
	clock := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	sessions.now = func() time.Time { mu.Lock(); defer mu.Unlock(); return clock }

	errCh := make(chan error, 1)
	go func() {
		_, err := sessions.Select(context.Background(), "caller", CategoryMovie, Config{})
		errCh <- err
	}()
	<-runner.started

	mu.Lock()
	clock = clock.Add(24 * time.Hour)
	mu.Unlock()
	assert.Equal(t, 0, sessions.EvictIdle(time.Minute))

	sessions.Clear("caller", CategoryMovie)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	assert.Equal(t, 1, sessions.EvictIdle(time.Minute))
}

func TestSessions_RunEviction(t *testing.T) {
	sessions := NewSessions(instantRunner{})
	_, err := sessions.Select(context.Background(), "caller", CategoryMovie, Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	evicted := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		sessions.RunEviction(ctx, 5*time.Millisecond, 0, func(n int) { evicted <- n })
		close(done)
	}()

	select {
	case n := <-evicted:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("idle slot was never evicted")
	}
	cancel()
	<-done
	assert.Equal(t, 0, sessions.Len())
}
