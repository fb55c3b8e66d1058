// Package coordinator sequences restore, backup and offload rounds
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"backup-media-sync/internal/events"
	"backup-media-sync/pkg/models"
)

// Options configures a Coordinator
type Options struct {
	Restorer  Restorer
	Backups   BackupRunner
	Offloader Offloader
	Bus       *events.Bus
	Interval  time.Duration
	Logger    *slog.Logger
}

// Coordinator runs a round on a ticker, on demand and whenever a queue drains or starts running
type Coordinator struct {
	opts   Options
	logger *slog.Logger
	kick   chan struct{}

	mu        sync.Mutex
	lastRound time.Time
	lastErr   error
}

// New creates a Coordinator
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Coordinator{
		opts:   opts,
		logger: opts.Logger.With("component", "coordinator"),
		kick:   make(chan struct{}, 1),
	}
}

// RunRound restores, then backs up, then offloads. A failing step does not skip the later ones.
func (c *Coordinator) RunRound(ctx context.Context) error {
	start := time.Now()
	c.logger.Debug("Starting round")

	var errs []error
	if err := c.opts.Restorer.RestoreAttachmentsIfNeeded(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore attachments: %w", err))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := c.opts.Backups.BackUpAllAttachments(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to back up attachments: %w", err))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if c.opts.Offloader != nil {
		result, err := c.opts.Offloader.OffloadAttachments(ctx)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("failed to offload attachments: %w", err))
		case result != nil && result.Offloaded > 0:
			c.logger.Info("Offloaded attachments", "count", result.Offloaded, "freed", result.FreedDisplay)
		}
	}

	err := errors.Join(errs...)

	c.mu.Lock()
	c.lastRound = start
	c.lastErr = err
	c.mu.Unlock()

	c.logger.Debug("Round finished", "duration", time.Since(start), "errors", len(errs))
	return err
}

// LastRound returns when the last round started and how it ended
func (c *Coordinator) LastRound() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRound, c.lastErr
}

// Kick requests a round as soon as the current one finishes
func (c *Coordinator) Kick() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done, running one round at start and one per trigger
func (c *Coordinator) Run(ctx context.Context) {
	var triggers <-chan events.Event
	if c.opts.Bus != nil {
		triggers = c.opts.Bus.Subscribe(ctx, events.KindQueueDrained, events.KindStatusChanged)
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	c.round(ctx)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Coordinator shutting down")
			return
		case <-ticker.C:
		case <-c.kick:
		case e, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
			if !c.shouldRunFor(e) {
				continue
			}
		}
		c.round(ctx)
	}
}

// shouldRunFor filters bus events down to the ones that can unblock a step
func (c *Coordinator) shouldRunFor(e events.Event) bool {
	switch e := e.(type) {
	case events.QueueDrained:
		c.logger.Debug("Queue drained", "queue", e.Queue)
		return true
	case events.StatusChanged:
		return e.Status == models.QueueRunning
	default:
		return false
	}
}

func (c *Coordinator) round(ctx context.Context) {
	if err := c.RunRound(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error("Round failed", "error", err)
	}
}
