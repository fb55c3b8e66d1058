// Package status folds device and account signals into a single gating status per queue mode
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"time"

	"backup-media-sync/internal/backoff"
	"backup-media-sync/internal/device"
	"backup-media-sync/internal/events"
	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

const (
	lowBatteryLevel = 0.1

	minNetworkBackoff = time.Second
	maxNetworkBackoff = 5 * 24 * time.Hour
)

// GatingError reports that the queue may not run in its current status
type GatingError struct {
	Queue  models.QueueKind
	Status models.QueueStatus
}

func (e *GatingError) Error() string {
	return fmt.Sprintf("%s queue is not running: %s", e.Queue, e.Status)
}

// Store provides the persisted facts folded into the status
type Store interface {
	HasPending(ctx context.Context, mode models.QueueMode) (bool, error)
	IsSuspended(ctx context.Context) (bool, error)
	BackupPlan(ctx context.Context) (models.BackupPlan, error)
}

// Options configures a Manager
type Options struct {
	Kind   models.QueueKind
	Store  Store
	Source device.Source
	Bus    *events.Bus
	// DiskSpace returns the bytes available for attachment data
	DiskSpace         func() (uint64, error)
	RequiredDiskSpace uint64
	// TrackAppBackgrounded pauses the queue while the app is in the background
	TrackAppBackgrounded bool
	// TrackConsumedCapacity pauses the queue once remote storage is exhausted
	TrackConsumedCapacity bool
	// RequirePaidPlan pauses the queue unless the backup plan is paid
	RequirePaidPlan bool
	Clock           func() time.Time
	Logger          *slog.Logger
}

// Token captures the network error generation a job started under
type Token struct {
	lastNetworkError time.Time
}

// Snapshot is a point-in-time view of the manager for display
type Snapshot struct {
	Queue              models.QueueKind
	Statuses           map[models.QueueMode]models.QueueStatus
	Observing          bool
	Signals            device.Signals
	AvailableDiskSpace *uint64
	RequiredDiskSpace  uint64
	NetworkErrorCount  int
}

type state struct {
	signalsKnown     bool
	signals          device.Signals
	empty            map[models.QueueMode]bool
	suspended        bool
	planPaid         bool
	allowCellular    bool
	available        *uint64
	outOfSpace       bool
	consumedCapacity bool

	networkErrorCount int
	lastNetworkError  time.Time
	networkRestartAt  time.Time

	statuses map[models.QueueMode]models.QueueStatus
}

func (s *state) isEmpty(mode models.QueueMode) bool {
	empty, known := s.empty[mode]
	return !known || empty
}

func (s *state) allEmpty() bool {
	for _, mode := range models.AllModes {
		if !s.isEmpty(mode) {
			return false
		}
	}
	return true
}

// Manager owns the status of one queue. All state is confined to a single goroutine;
// public methods submit closures to it.
type Manager struct {
	opts   Options
	logger *slog.Logger

	ops       chan func(*state)
	done      chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	// obsMu serializes starting and stopping the device source
	obsMu     sync.Mutex
	observing bool
}

// New creates a Manager and starts its goroutine
func New(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Source == nil {
		opts.Source = &device.StaticSource{Signals: device.DefaultSignals()}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		opts:   opts,
		logger: opts.Logger.With("queue", opts.Kind),
		ops:    make(chan func(*state)),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	s := &state{
		empty:    make(map[models.QueueMode]bool),
		statuses: make(map[models.QueueMode]models.QueueStatus),
	}
	for _, mode := range models.AllModes {
		s.statuses[mode] = models.QueueEmpty
	}
	go m.loop(s)
	return m
}

func (m *Manager) loop(s *state) {
	for {
		select {
		case op := <-m.ops:
			op(s)
		case <-m.done:
			return
		}
	}
}

// Close stops observation and the manager goroutine
func (m *Manager) Close() {
	m.obsMu.Lock()
	m.stopObservingLocked()
	m.obsMu.Unlock()

	m.closeOnce.Do(func() {
		m.cancel()
		close(m.done)
	})
}

// do runs fn on the manager goroutine and waits for it. It returns false once closed.
func (m *Manager) do(fn func(*state)) bool {
	finished := make(chan struct{})
	select {
	case m.ops <- func(s *state) {
		defer close(finished)
		fn(s)
	}:
	case <-m.done:
		return false
	}
	<-finished
	return true
}

// mutate applies fn and republishes any status that changed
func (m *Manager) mutate(fn func(*state)) {
	m.do(func(s *state) {
		fn(s)
		m.refresh(s)
	})
}

func (m *Manager) refresh(s *state) {
	for _, mode := range models.AllModes {
		next := m.compute(s, mode)
		prev := s.statuses[mode]
		if next == prev {
			continue
		}
		s.statuses[mode] = next
		m.logger.Info("Queue status changed", "mode", mode, "from", prev, "to", next)
		if m.opts.Bus != nil {
			m.opts.Bus.Publish(events.StatusChanged{Queue: m.opts.Kind, Mode: mode, Status: next})
		}
	}
}

func (m *Manager) compute(s *state, mode models.QueueMode) models.QueueStatus {
	if s.isEmpty(mode) {
		return models.QueueEmpty
	}
	if m.opts.RequirePaidPlan && !s.planPaid {
		return models.QueueSuspended
	}
	if !s.signalsKnown || !s.signals.Registered || !s.signals.AppReady {
		return models.QueueNotRegisteredAndReady
	}
	if s.suspended {
		return models.QueueSuspended
	}
	if s.outOfSpace || (s.available != nil && *s.available < m.opts.RequiredDiskSpace) {
		return models.QueueLowDiskSpace
	}
	if !s.allowCellular && !s.signals.Wifi {
		return models.QueueNoWifiReachability
	}
	if !s.signals.Reachable {
		return models.QueueNoReachability
	}
	if s.signals.BatteryLevel < lowBatteryLevel || s.signals.LowPower {
		return models.QueueLowBattery
	}
	if m.opts.TrackAppBackgrounded && !s.signals.Foreground {
		return models.QueueAppBackgrounded
	}
	if m.opts.TrackConsumedCapacity && s.consumedCapacity {
		return models.QueueHasConsumedCapacity
	}
	if !s.lastNetworkError.IsZero() && !m.opts.Clock().After(s.networkRestartAt) {
		return models.QueueNoReachability
	}
	return models.QueueRunning
}

// Status returns the current status of mode
func (m *Manager) Status(mode models.QueueMode) models.QueueStatus {
	status, _ := m.StatusAndToken(mode)
	return status
}

// StatusAndToken returns the current status of mode and a token for reporting job outcomes
func (m *Manager) StatusAndToken(mode models.QueueMode) (models.QueueStatus, Token) {
	status := models.QueueEmpty
	var token Token
	m.do(func(s *state) {
		status = s.statuses[mode]
		token = Token{lastNetworkError: s.lastNetworkError}
	})
	return status, token
}

// Snapshot returns a copy of the manager's view
func (m *Manager) Snapshot() Snapshot {
	m.obsMu.Lock()
	observing := m.observing
	m.obsMu.Unlock()

	snap := Snapshot{
		Queue:             m.opts.Kind,
		Statuses:          make(map[models.QueueMode]models.QueueStatus),
		Observing:         observing,
		RequiredDiskSpace: m.opts.RequiredDiskSpace,
	}
	m.do(func(s *state) {
		for mode, status := range s.statuses {
			snap.Statuses[mode] = status
		}
		snap.Signals = s.signals
		if s.available != nil {
			available := *s.available
			snap.AvailableDiskSpace = &available
		}
		snap.NetworkErrorCount = s.networkErrorCount
	})
	return snap
}

// BeginObservingIfNecessary loads queue facts from the store and starts watching device
// signals when there is work to do. It returns the resulting status of mode.
func (m *Manager) BeginObservingIfNecessary(ctx context.Context, mode models.QueueMode) (models.QueueStatus, error) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	pending := make(map[models.QueueMode]bool, len(models.AllModes))
	for _, md := range models.AllModes {
		has, err := m.opts.Store.HasPending(ctx, md)
		if err != nil {
			return "", fmt.Errorf("failed to check pending %s records: %w", md, err)
		}
		pending[md] = has
	}
	suspended, err := m.opts.Store.IsSuspended(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read suspension: %w", err)
	}
	planPaid := true
	if m.opts.RequirePaidPlan {
		plan, err := m.opts.Store.BackupPlan(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read backup plan: %w", err)
		}
		planPaid = plan.Kind == models.PlanPaid
	}

	anyPending := false
	for _, has := range pending {
		anyPending = anyPending || has
	}

	if anyPending && !m.observing {
		if err := m.opts.Source.Start(m.ctx, m.onSignals); err != nil {
			return "", fmt.Errorf("failed to start device observation: %w", err)
		}
		m.observing = true
		m.logger.Debug("Started observing device signals")
	}

	available := m.readDiskSpace()
	m.mutate(func(s *state) {
		for md, has := range pending {
			s.empty[md] = !has
		}
		s.suspended = suspended
		s.planPaid = planPaid
		if available != nil {
			s.available = available
		}
	})

	if !anyPending {
		m.stopObservingLocked()
	}

	return m.Status(mode), nil
}

func (m *Manager) stopObservingLocked() {
	if !m.observing {
		return
	}
	m.opts.Source.Stop()
	m.observing = false
	m.logger.Debug("Stopped observing device signals")
}

func (m *Manager) onSignals(signals device.Signals) {
	var available *uint64
	if signals.Foreground {
		available = m.readDiskSpace()
	}
	m.mutate(func(s *state) {
		s.signals = signals
		s.signalsKnown = true
		if available != nil {
			s.available = available
		}
	})
}

// DidEmptyQueue marks mode as drained and stops observation once every mode is empty
func (m *Manager) DidEmptyQueue(mode models.QueueMode) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	allEmpty := false
	m.mutate(func(s *state) {
		s.empty[mode] = true
		if mode == models.ModeFullsize {
			// Cellular was allowed for this batch of work only
			s.allowCellular = false
		}
		allEmpty = s.allEmpty()
	})
	if allEmpty {
		m.stopObservingLocked()
	}
}

// JobDidExperienceError folds a job failure into the status and returns the new status of mode
func (m *Manager) JobDidExperienceError(mode models.QueueMode, token Token, err error) models.QueueStatus {
	status := models.QueueEmpty
	m.do(func(s *state) {
		defer func() { status = s.statuses[mode] }()

		switch {
		case errors.Is(err, syscall.ENOSPC):
			s.outOfSpace = true
		case transfer.IsNetworkOr5xx(err):
			if !s.lastNetworkError.Equal(token.lastNetworkError) {
				// Another job already recorded this outage
				break
			}
			now := m.opts.Clock()
			delay := backoff.Delay(s.networkErrorCount, minNetworkBackoff, maxNetworkBackoff)
			s.networkErrorCount++
			s.lastNetworkError = now
			s.networkRestartAt = now.Add(delay)
			m.logger.Warn("Pausing queue after network error",
				"failures", s.networkErrorCount,
				"restart_in", delay,
				"error", err)
			time.AfterFunc(delay+time.Millisecond, func() {
				m.mutate(func(s *state) {
					if s.lastNetworkError.Equal(now) {
						s.lastNetworkError = time.Time{}
					}
				})
			})
		default:
			return
		}
		m.refresh(s)
	})
	return status
}

// JobDidSucceed clears network error backoff recorded under token
func (m *Manager) JobDidSucceed(token Token) {
	if token.lastNetworkError.IsZero() {
		return
	}
	m.mutate(func(s *state) {
		if !s.lastNetworkError.Equal(token.lastNetworkError) {
			return
		}
		s.lastNetworkError = time.Time{}
		s.networkErrorCount = 0
	})
}

// QuickCheckDiskSpace stats the filesystem and only updates the status when headroom is short
func (m *Manager) QuickCheckDiskSpace() {
	available := m.readDiskSpace()
	if available == nil || *available >= m.opts.RequiredDiskSpace {
		return
	}
	m.mutate(func(s *state) {
		s.available = available
	})
}

// ReattemptDiskSpaceChecks rereads available space and forgets earlier out-of-space errors
func (m *Manager) ReattemptDiskSpaceChecks() {
	available := m.readDiskSpace()
	m.mutate(func(s *state) {
		if available != nil {
			s.available = available
		}
		s.outOfSpace = false
	})
}

// SetAllowCellular lets the queue run without wifi until the fullsize mode drains
func (m *Manager) SetAllowCellular(allow bool) {
	m.mutate(func(s *state) { s.allowCellular = allow })
}

// SetConsumedCapacity records whether remote storage is exhausted
func (m *Manager) SetConsumedCapacity(consumed bool) {
	m.mutate(func(s *state) { s.consumedCapacity = consumed })
}

// SetSuspended records the user's suspension toggle
func (m *Manager) SetSuspended(suspended bool) {
	m.mutate(func(s *state) { s.suspended = suspended })
}

// SetPlanPaid records whether the current plan allows the queue to run
func (m *Manager) SetPlanPaid(paid bool) {
	m.mutate(func(s *state) { s.planPaid = paid })
}

func (m *Manager) readDiskSpace() *uint64 {
	if m.opts.DiskSpace == nil {
		return nil
	}
	available, err := m.opts.DiskSpace()
	if err != nil {
		m.logger.Warn("Failed to read available disk space", "error", err)
		return nil
	}
	return &available
}
