// Package taskqueue implements a durable, bounded-concurrency task queue engine.
//
// A Loader repeatedly peeks runnable records from a Store, executes them through a
// Runner and commits each verdict back before peeking again. The loader never decides
// whether a failure is retryable; that is the runner's job.
package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is a persisted unit of work
type Record interface {
	TaskID() int64
	RetryCount() int
	NextRetryAt() int64
	Class() string
}

// Store persists records in priority order
type Store[R Record] interface {
	// Peek returns up to count records that are runnable at now, in priority order
	Peek(ctx context.Context, count int, now time.Time) ([]R, error)
	// NextRetryTime returns the earliest retry time after now among queued records
	NextRetryTime(ctx context.Context, now time.Time) (time.Time, bool, error)
	// RemoveRecord drops a record once it has succeeded, failed permanently or been cancelled
	RemoveRecord(ctx context.Context, record R) error
}

// Runner executes records and applies domain side effects for each verdict
type Runner[R Record] interface {
	RunTask(ctx context.Context, record R) Result
	DidSucceed(ctx context.Context, record R) error
	DidFail(ctx context.Context, record R, err error, retryable bool) error
	DidCancel(ctx context.Context, record R) error
	DidDrainQueue(ctx context.Context) error
}

// Options configures a Loader
type Options struct {
	// MaxConcurrentTasks bounds the number of tasks running at once
	MaxConcurrentTasks int
	// ClassLimits optionally caps concurrency per record class
	ClassLimits map[string]int
	// MaxRetries turns retryable failures into unretryable ones once a record has been retried this often; zero disables the ceiling
	MaxRetries int
	// OnRetryScheduled, when set, makes a run end as soon as only future retries remain.
	// It receives the earliest retry time so the owner can start another run then.
	// Without it the run sleeps until that time.
	OnRetryScheduled func(next time.Time)
	Clock            func() time.Time
	Logger           *slog.Logger
}

// Loader drives a Store through a Runner
type Loader[R Record] struct {
	name   string
	store  Store[R]
	runner Runner[R]
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	active *run
}

type run struct {
	id      string
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	mu      sync.Mutex
	stopped bool
}

func (r *run) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()
}

func (r *run) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

type taskResult[R Record] struct {
	record R
	result Result
}

// New creates a Loader. It panics if MaxConcurrentTasks is not positive.
func New[R Record](name string, store Store[R], runner Runner[R], opts Options) *Loader[R] {
	if opts.MaxConcurrentTasks <= 0 {
		panic(fmt.Sprintf("taskqueue %s: MaxConcurrentTasks must be positive", name))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader[R]{
		name:   name,
		store:  store,
		runner: runner,
		opts:   opts,
		logger: logger.With("queue", name),
	}
}

// IsRunning reports whether a run is in progress
func (l *Loader[R]) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active != nil
}

// LoadAndRunTasks runs tasks until the queue drains or Stop is called. A caller arriving
// while a run is in progress waits for that run and shares its result.
func (l *Loader[R]) LoadAndRunTasks(ctx context.Context) error {
	l.mu.Lock()
	if r := l.active; r != nil {
		l.mu.Unlock()
		select {
		case <-r.done:
			return r.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{id: uuid.NewString(), cancel: cancel, done: make(chan struct{})}
	l.active = r
	l.mu.Unlock()

	r.err = l.execute(runCtx, r)
	cancel()

	l.mu.Lock()
	l.active = nil
	l.mu.Unlock()
	close(r.done)

	return r.err
}

// Stop cancels the current run. In-flight tasks observe cancellation through their context;
// their verdicts are still committed. Stop never blocks and may be called from inside a task.
func (l *Loader[R]) Stop() {
	l.mu.Lock()
	r := l.active
	l.mu.Unlock()
	if r != nil {
		r.stop()
	}
}

func (l *Loader[R]) execute(ctx context.Context, r *run) error {
	logger := l.logger.With("run_id", r.id)
	commitCtx := context.WithoutCancel(ctx)

	results := make(chan taskResult[R], l.opts.MaxConcurrentTasks)
	inflight := make(map[int64]R)
	classCounts := make(map[string]int)
	deferred := make(map[int64]struct{})
	var runErr error

	fail := func(err error) {
		if runErr == nil {
			runErr = err
		}
		r.stop()
	}

	logger.Debug("Task queue run starting")

	for {
		accepting := !r.isStopped() && ctx.Err() == nil
		if accepting && len(inflight) < l.opts.MaxConcurrentTasks {
			started, pending, err := l.startTasks(ctx, results, inflight, classCounts, deferred)
			switch {
			case err != nil:
				if ctx.Err() == nil {
					logger.Error("Failed to load tasks", "error", err)
					fail(err)
				}
			case started == 0 && pending == 0 && len(inflight) == 0:
				state, err := l.idle(ctx, logger, deferred)
				if err != nil {
					if ctx.Err() == nil {
						fail(err)
					}
					continue
				}
				switch state {
				case idleDrained:
					if err := l.runner.DidDrainQueue(commitCtx); err != nil {
						logger.Error("Failed to handle drained queue", "error", err)
						return fmt.Errorf("failed to handle drained queue: %w", err)
					}
					logger.Info("Task queue drained")
					return nil
				case idleDeferredOnly:
					logger.Debug("Task queue run ending with deferred records", "deferred", len(deferred))
					return nil
				case idleRetryScheduled:
					logger.Debug("Task queue run ending until the next retry")
					return nil
				}
				continue
			}
		}

		if len(inflight) == 0 {
			switch {
			case runErr != nil:
				return runErr
			case r.isStopped():
				logger.Info("Task queue stopped")
				return ErrStopped
			default:
				return ctx.Err()
			}
		}

		res := <-results
		delete(inflight, res.record.TaskID())
		classCounts[res.record.Class()]--

		if err := l.commit(commitCtx, logger, res, deferred); err != nil {
			logger.Error("Failed to commit task result",
				"record_id", res.record.TaskID(),
				"error", err)
			fail(err)
		}
	}
}

type idleState int

const (
	idleRetryDue idleState = iota
	idleDrained
	idleDeferredOnly
	idleRetryScheduled
)

// startTasks peeks and launches as many tasks as capacity allows. pending is the number of
// peeked records that were neither in flight nor deferred.
func (l *Loader[R]) startTasks(
	ctx context.Context,
	results chan<- taskResult[R],
	inflight map[int64]R,
	classCounts map[string]int,
	deferred map[int64]struct{},
) (started, pending int, err error) {
	capacity := l.opts.MaxConcurrentTasks - len(inflight)
	records, err := l.store.Peek(ctx, capacity+len(inflight)+len(deferred), l.opts.Clock())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to peek records: %w", err)
	}

	for _, record := range records {
		id := record.TaskID()
		if _, ok := inflight[id]; ok {
			continue
		}
		if _, ok := deferred[id]; ok {
			continue
		}
		pending++
		if started >= capacity {
			continue
		}
		class := record.Class()
		if limit, ok := l.opts.ClassLimits[class]; ok && classCounts[class] >= limit {
			continue
		}

		inflight[id] = record
		classCounts[class]++
		started++

		go func(record R) {
			results <- taskResult[R]{record: record, result: l.runner.RunTask(ctx, record)}
		}(record)
	}

	if started == 0 && pending > 0 && len(inflight) == 0 {
		return 0, pending, fmt.Errorf("no runnable record fits the class limits")
	}
	return started, pending, nil
}

// idle is called when nothing is runnable and nothing is in flight. It hands the next
// scheduled retry to OnRetryScheduled, or waits for it when no hook is set.
func (l *Loader[R]) idle(ctx context.Context, logger *slog.Logger, deferred map[int64]struct{}) (idleState, error) {
	now := l.opts.Clock()
	next, ok, err := l.store.NextRetryTime(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to get next retry time: %w", err)
	}
	if !ok {
		if len(deferred) == 0 {
			return idleDrained, nil
		}
		return idleDeferredOnly, nil
	}

	wait := next.Sub(now)
	if l.opts.OnRetryScheduled != nil {
		logger.Debug("Next retry scheduled", "at", next, "wait", wait)
		l.opts.OnRetryScheduled(next)
		return idleRetryScheduled, nil
	}
	logger.Debug("Waiting for next retry", "wait", wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}

	// Records retried during this run become runnable again once their cursor passes
	clear(deferred)
	return idleRetryDue, nil
}

func (l *Loader[R]) commit(ctx context.Context, logger *slog.Logger, res taskResult[R], deferred map[int64]struct{}) error {
	record := res.record
	result := res.result

	if result.Outcome == OutcomeRetryable && l.opts.MaxRetries > 0 && record.RetryCount() >= l.opts.MaxRetries {
		result = Unretryable(fmt.Errorf("%w: %w", ErrRetriesExhausted, result.Err))
	}

	switch result.Outcome {
	case OutcomeSuccess:
		if err := l.runner.DidSucceed(ctx, record); err != nil {
			return err
		}
		return l.store.RemoveRecord(ctx, record)

	case OutcomeRetryable:
		logger.Debug("Task failed, will retry",
			"record_id", record.TaskID(),
			"retries", record.RetryCount(),
			"error", result.Err)
		deferred[record.TaskID()] = struct{}{}
		return l.runner.DidFail(ctx, record, result.Err, true)

	case OutcomeUnretryable:
		logger.Warn("Task failed permanently",
			"record_id", record.TaskID(),
			"retries", record.RetryCount(),
			"error", result.Err)
		if err := l.runner.DidFail(ctx, record, result.Err, false); err != nil {
			return err
		}
		return l.store.RemoveRecord(ctx, record)

	case OutcomeCancelled:
		if err := l.runner.DidCancel(ctx, record); err != nil {
			return err
		}
		return l.store.RemoveRecord(ctx, record)

	default:
		return errors.New("unknown task outcome " + result.Outcome.String())
	}
}
