package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls map[int64]int
	fail  map[int64]bool
	done  chan int64
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{calls: map[int64]int{}, fail: map[int64]bool{}, done: make(chan int64, 64)}
}

func (f *fakeRunner) Reconcile(ctx context.Context, venueID int64) (*Report, error) {
	f.mu.Lock()
	f.calls[venueID]++
	fail := f.fail[venueID]
	f.mu.Unlock()
	f.done <- venueID
	if fail {
		return nil, errors.New("boom")
	}
	return &Report{VenueID: venueID}, nil
}

func (f *fakeRunner) count(venueID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[venueID]
}

func waitFor(t *testing.T, ch <-chan int64) int64 {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconcile")
		return 0
	}
}

func TestDispatcher_RunsSignalledVenues(t *testing.T) {
	runner := newFakeRunner()
	d := NewDispatcher(runner, 2, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()

	d.VenueChanged(1)
	d.VenueChanged(2)
	got := map[int64]bool{waitFor(t, runner.done): true, waitFor(t, runner.done): true}
	assert.Equal(t, map[int64]bool{1: true, 2: true}, got)

	cancel()
	<-stopped
}

func TestDispatcher_CoalescesQueuedSignals(t *testing.T) {
	runner := newFakeRunner()
	d := NewDispatcher(runner, 1, 8, nil)

	d.VenueChanged(7)
	d.VenueChanged(7)
	d.VenueChanged(7)
	require.Len(t, d.queue, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Equal(t, 1, runner.count(7))
}

func TestDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	runner := newFakeRunner()
	d := NewDispatcher(runner, 1, 2, nil)

	done := make(chan struct{})
	go func() {
		for id := int64(1); id <= 10; id++ {
			d.VenueChanged(id)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("VenueChanged blocked on a full queue")
	}
	assert.Len(t, d.queue, 2)
}

func TestDispatcher_FailureDoesNotStopWorker(t *testing.T) {
	runner := newFakeRunner()
	runner.fail[1] = true
	d := NewDispatcher(runner, 1, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.VenueChanged(1)
	assert.Equal(t, int64(1), waitFor(t, runner.done))
	d.VenueChanged(2)
	assert.Equal(t, int64(2), waitFor(t, runner.done))
}

type fakeLister struct {
	ids []int64
	err error
}

func (f fakeLister) ListIDs(context.Context) ([]int64, error) { return f.ids, f.err }

func TestSweeper_ReconcileAll(t *testing.T) {
	runner := newFakeRunner()
	runner.fail[3] = true
	s := NewSweeper(fakeLister{ids: []int64{1, 2, 3, 4}}, runner, 2, nil)

	reports, err := s.ReconcileAll(context.Background())
	assert.Error(t, err)
	assert.Len(t, reports, 3)
	for _, id := range []int64{1, 2, 3, 4} {
		assert.Equal(t, 1, runner.count(id))
	}
}

func TestSweeper_ListFailure(t *testing.T) {
	s := NewSweeper(fakeLister{err: errors.New("db down")}, newFakeRunner(), 2, nil)
	_, err := s.ReconcileAll(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestSweeper_Schedule(t *testing.T) {
	s := NewSweeper(fakeLister{}, newFakeRunner(), 1, nil)

	c, err := s.Schedule(context.Background(), "@every 1h")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = s.Schedule(context.Background(), "not a schedule")
	assert.Error(t, err)
}
