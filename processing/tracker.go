// Package processing follows dispatched ledger transactions to a terminal outcome.
package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/blockend-dev/AleoWhistle/blockchain/types"
	"github.com/blockend-dev/AleoWhistle/config"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultTimeout      = 5 * time.Minute
)

// ErrCanceled is returned by a task that was canceled before reaching a terminal state.
var ErrCanceled = errors.New("confirmation tracking canceled")

// StatusLookup is the part of the ledger client a tracker needs.
type StatusLookup interface {
	TransactionStatus(ctx context.Context, handle types.Handle) (*types.StatusReport, error)
}

// TransactionError reports a terminal failure state (failed, aborted or rejected).
type TransactionError struct {
	Handle types.Handle
	Status string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s %s", e.Handle, e.Status)
}

// TimeoutError reports that no terminal state was seen in time.
type TimeoutError struct {
	Handle types.Handle
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed after %s", e.Handle, e.After)
}

// Tracker polls transaction status at a fixed interval. Trackers share no state, so one
// Tracker can run any number of tasks concurrently.
type Tracker struct {
	lookup   StatusLookup
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
}

// NewTracker creates a tracker. Non-positive interval or timeout fall back to 3s and 5m.
func NewTracker(lookup StatusLookup, interval, timeout time.Duration, logger *log.Logger) *Tracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Tracker{lookup: lookup, interval: interval, timeout: timeout, logger: logger}
}

// NewTrackerFromConfig parses the configured durations, falling back to the defaults.
func NewTrackerFromConfig(lookup StatusLookup, cfg config.TrackerConfig, logger *log.Logger) *Tracker {
	interval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil {
		logger.Printf("Warning: Invalid tracker.poll_interval '%s', using default %s", cfg.PollInterval, DefaultPollInterval)
		interval = DefaultPollInterval
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		logger.Printf("Warning: Invalid tracker.timeout '%s', using default %s", cfg.Timeout, DefaultTimeout)
		timeout = DefaultTimeout
	}
	return NewTracker(lookup, interval, timeout, logger)
}

// Task is one running confirmation. It resolves or rejects exactly once.
type Task struct {
	handle types.Handle
	cancel context.CancelFunc
	done   chan struct{}

	finalID string
	err     error
}

// Track starts polling handle in the background. Canceling ctx cancels the task.
func (t *Tracker) Track(ctx context.Context, handle types.Handle) *Task {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task{handle: handle, cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, task)
	return task
}

// Await tracks handle and blocks until the outcome.
func (t *Tracker) Await(ctx context.Context, handle types.Handle) (string, error) {
	task := t.Track(ctx, handle)
	defer task.Cancel()
	<-task.Done()
	return task.Result()
}

func (t *Tracker) run(ctx context.Context, task *Task) {
	defer close(task.done)
	defer task.cancel()

	deadline := time.NewTimer(t.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			task.err = canceled(ctx)
			return
		case <-deadline.C:
			t.logger.Printf("Transaction %s: no terminal status after %s", task.handle, t.timeout)
			task.err = &TimeoutError{Handle: task.handle, After: t.timeout}
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			task.err = canceled(ctx)
			return
		}

		report, err := t.lookup.TransactionStatus(ctx, task.handle)
		if ctx.Err() != nil {
			// Whatever arrived after cancellation is discarded.
			task.err = canceled(ctx)
			return
		}
		if err != nil {
			task.err = fmt.Errorf("status lookup for %s: %w", task.handle, err)
			return
		}
		if report == nil {
			continue
		}

		switch report.State() {
		case types.StateAccepted:
			if report.TransactionID == "" {
				continue
			}
			t.logger.Printf("Transaction %s accepted as %s", task.handle, report.TransactionID)
			task.finalID = report.TransactionID
			return
		case types.StateFailed, types.StateAborted, types.StateRejected:
			t.logger.Printf("Transaction %s ended with status %s", task.handle, report.Status)
			task.err = &TransactionError{Handle: task.handle, Status: report.Status}
			return
		}
	}
}

func canceled(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	}
	return ErrCanceled
}

// Handle returns the tracked provisional id.
func (task *Task) Handle() types.Handle { return task.handle }

// Done is closed once the task has an outcome.
func (task *Task) Done() <-chan struct{} { return task.done }

// Cancel stops polling. A task that already finished keeps its outcome.
func (task *Task) Cancel() {
	task.cancel()
}

// Wait blocks until the outcome or until ctx ends. Giving up on ctx does not cancel the task.
func (task *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-task.done:
		return task.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Result returns the outcome of a finished task.
func (task *Task) Result() (string, error) {
	select {
	case <-task.done:
		return task.finalID, task.err
	default:
		return "", errors.New("confirmation still in progress")
	}
}
