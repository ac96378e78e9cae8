package processing

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
)

const tick = 5 * time.Millisecond

// scriptedLookup answers with a fixed sequence, repeating the last entry.
type scriptedLookup struct {
	mu      sync.Mutex
	script  []types.StatusReport
	err     error
	calls   int
	started chan struct{} // receives one value per call, when non-nil
	release chan struct{} // each call waits on it, when non-nil
}

func (s *scriptedLookup) TransactionStatus(ctx context.Context, handle types.Handle) (*types.StatusReport, error) {
	s.mu.Lock()
	s.calls++
	idx := s.calls - 1
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	r := s.script[idx]
	return &r, nil
}

func (s *scriptedLookup) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func statuses(pairs ...string) []types.StatusReport {
	out := make([]types.StatusReport, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.StatusReport{Status: pairs[i], TransactionID: pairs[i+1]})
	}
	return out
}

func TestTrackerResolvesOnAccepted(t *testing.T) {
	lookup := &scriptedLookup{script: statuses("Pending", "", "Pending", "", "Accepted", "tx_42")}
	tr := NewTracker(lookup, tick, time.Second, nil)

	id, err := tr.Await(context.Background(), "tmp_1")
	require.NoError(t, err)
	assert.Equal(t, "tx_42", id)
	assert.Equal(t, 3, lookup.Calls())
}

func TestTrackerRejectsOnFailedFirstPoll(t *testing.T) {
	lookup := &scriptedLookup{script: statuses("Failed", "")}
	tr := NewTracker(lookup, tick, time.Second, nil)

	_, err := tr.Await(context.Background(), "tmp_1")
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "Failed", txErr.Status)
	assert.Equal(t, types.Handle("tmp_1"), txErr.Handle)
	assert.Equal(t, 1, lookup.Calls())
}

func TestTrackerTerminalFailureStates(t *testing.T) {
	for _, status := range []string{"Aborted", "rejected"} {
		lookup := &scriptedLookup{script: statuses(status, "")}
		_, err := NewTracker(lookup, tick, time.Second, nil).Await(context.Background(), "h")
		var txErr *TransactionError
		assert.ErrorAs(t, err, &txErr, status)
	}
}

func TestTrackerKeepsPollingOnIncompleteAnswers(t *testing.T) {
	lookup := &scriptedLookup{script: statuses("Accepted", "", "", "", "Mempool", "", "Accepted", "at1")}
	id, err := NewTracker(lookup, tick, time.Second, nil).Await(context.Background(), "h")
	require.NoError(t, err)
	assert.Equal(t, "at1", id)
	assert.Equal(t, 4, lookup.Calls())
}

func TestTrackerCancelAfterFirstPoll(t *testing.T) {
	lookup := &scriptedLookup{
		script:  statuses("Pending", "", "Accepted", "tx_42"),
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	task := NewTracker(lookup, tick, time.Second, nil).Track(context.Background(), "tmp_1")

	<-lookup.started
	task.Cancel()
	close(lookup.release)

	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCanceled)

	time.Sleep(10 * tick)
	assert.Equal(t, 1, lookup.Calls())
}

func TestTrackerTimeout(t *testing.T) {
	lookup := &scriptedLookup{script: statuses("Pending", "")}
	_, err := NewTracker(lookup, tick, 40*time.Millisecond, nil).Await(context.Background(), "tmp_1")

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 40*time.Millisecond, timeout.After)
}

func TestTrackerLookupErrorRejectsImmediately(t *testing.T) {
	boom := errors.New("wallet disconnected")
	lookup := &scriptedLookup{err: boom}
	_, err := NewTracker(lookup, tick, time.Second, nil).Await(context.Background(), "tmp_1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, lookup.Calls())
}

func TestTrackerParentContextCancels(t *testing.T) {
	lookup := &scriptedLookup{script: statuses("Pending", "")}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewTracker(lookup, tick, time.Second, nil).Await(ctx, "tmp_1")
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTasksAreIndependent(t *testing.T) {
	ok := &scriptedLookup{script: statuses("Pending", "", "Accepted", "a")}
	bad := &scriptedLookup{script: statuses("Pending", "", "Pending", "", "Failed", "")}

	t1 := NewTracker(ok, tick, time.Second, nil).Track(context.Background(), "one")
	t2 := NewTracker(bad, tick, time.Second, nil).Track(context.Background(), "two")

	id, err := t1.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	_, err = t2.Wait(context.Background())
	var txErr *TransactionError
	assert.ErrorAs(t, err, &txErr)

	// Canceling a finished task keeps its outcome.
	t1.Cancel()
	id, err = t1.Result()
	require.NoError(t, err)
	assert.Equal(t, "a", id)
}

func TestWaitGivesUpWithoutCanceling(t *testing.T) {
	lookup := &scriptedLookup{script: statuses("Pending", "", "Pending", "", "Accepted", "late")}
	task := NewTracker(lookup, 10*time.Millisecond, time.Second, nil).Track(context.Background(), "h")

	short, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := task.Wait(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	id, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", id)
}

func TestNewTrackerFromConfig(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	tr := NewTrackerFromConfig(&scriptedLookup{}, config.TrackerConfig{PollInterval: "250ms", Timeout: "2m"}, logger)
	assert.Equal(t, 250*time.Millisecond, tr.interval)
	assert.Equal(t, 2*time.Minute, tr.timeout)

	tr = NewTrackerFromConfig(&scriptedLookup{}, config.TrackerConfig{PollInterval: "soon", Timeout: ""}, logger)
	assert.Equal(t, DefaultPollInterval, tr.interval)
	assert.Equal(t, DefaultTimeout, tr.timeout)
}
