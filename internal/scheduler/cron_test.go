package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePool() matching.Pool {
	return matching.Pool{
		Requests: []model.HiringRequest{
			{ID: "r1", JobTitle: "Driver", Quantity: 2, Status: model.RequestPending},
			{ID: "r2", JobTitle: "Pilot", Quantity: 1, Status: model.RequestInProgress},
		},
		Candidates: []model.Candidate{
			{ID: "c1", Profession: "Driver", Verified: true, Available: true},
			{ID: "c2", Profession: "Truck Driver", Verified: true, Available: true},
		},
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{pool: samplePool()}
	n := &stubNotifier{}
	sched := NewScheduler(loader, n, Config{Interval: "1h", Timeout: "5s"}, nil)

	count, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.EqualValues(t, 1, loader.calls.Load())
	require.Len(t, n.last(), 2)
	assert.Equal(t, model.MatchSummary{RequestID: "r1", JobTitle: "Driver", Quantity: 2, Matches: 2}, n.last()[0])
	assert.Equal(t, 0, n.last()[1].Matches)
}

func TestSchedulerSkipsEmptyPool(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	sched := NewScheduler(&stubLoader{}, n, Config{}, nil)

	count, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.EqualValues(t, 0, n.calls.Load())
}

func TestSchedulerRunOnceLoadError(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{err: matching.ErrPoolLoad}
	sched := NewScheduler(loader, &stubNotifier{}, Config{}, nil)

	_, err := sched.RunOnce(context.Background())
	require.ErrorIs(t, err, matching.ErrPoolLoad)
}

func TestSchedulerMissingDependencies(t *testing.T) {
	t.Parallel()

	sched := NewScheduler(nil, nil, Config{}, nil)
	_, err := sched.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrMissingDependencies)
	require.ErrorIs(t, sched.Start(context.Background()), ErrMissingDependencies)
}

func TestSchedulerNoOverlap(t *testing.T) {
	t.Parallel()

	loader := &stubLoader{pool: samplePool(), block: make(chan struct{}), entered: make(chan struct{}, 1)}
	sched := NewScheduler(loader, &stubNotifier{}, Config{Interval: "1h", Timeout: "5s"}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sched.RunOnce(context.Background())
	}()
	<-loader.entered

	count, err := sched.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	close(loader.block)
	<-done
	assert.EqualValues(t, 1, loader.calls.Load())
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	t.Parallel()

	tickCh := make(chan time.Time)
	st := &stubTicker{ch: tickCh}

	loader := &stubLoader{pool: samplePool()}
	n := &stubNotifier{err: errors.New("smtp down")}
	sched := NewScheduler(loader, n, Config{Interval: "100ms", Timeout: "5s"}, nil)
	sched.newTicker = func(d time.Duration) ticker { return st }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sched.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		select {
		case tickCh <- time.Now():
		default:
		}
		return loader.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.GreaterOrEqual(t, n.calls.Load(), int32(1))
}

// --- stubs ---

type stubLoader struct {
	pool    matching.Pool
	err     error
	calls   atomic.Int32
	block   chan struct{}
	entered chan struct{}
}

func (s *stubLoader) LoadPool(ctx context.Context) (matching.Pool, error) {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return s.pool, s.err
}

type stubTicker struct {
	ch chan time.Time
}

func (s *stubTicker) C() <-chan time.Time { return s.ch }
func (s *stubTicker) Stop()               {}

type stubNotifier struct {
	calls     atomic.Int32
	err       error
	mu        sync.Mutex
	summaries []model.MatchSummary
}

func (n *stubNotifier) NotifyDigest(ctx context.Context, summaries []model.MatchSummary) error {
	n.calls.Add(1)
	n.mu.Lock()
	n.summaries = summaries
	n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	return ctx.Err()
}

func (n *stubNotifier) last() []model.MatchSummary {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.summaries
}
