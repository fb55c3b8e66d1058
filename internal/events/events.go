// Package events provides a process-scoped publish/subscribe bus for sync engine events
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cheggaaa/mb/v3"

	"backup-media-sync/pkg/models"
)

// Kind identifies an event type
type Kind string

const (
	KindStatusChanged   Kind = "status_changed"
	KindQueueDrained    Kind = "queue_drained"
	KindProgressUpdated Kind = "progress_updated"
)

// Event is anything published on the bus
type Event interface {
	Kind() Kind
}

// StatusChanged is published when the aggregate status of one queue mode changes
type StatusChanged struct {
	Queue  models.QueueKind
	Mode   models.QueueMode
	Status models.QueueStatus
}

func (StatusChanged) Kind() Kind { return KindStatusChanged }

// QueueDrained is published when a queue has no runnable records left
type QueueDrained struct {
	Queue models.QueueKind
}

func (QueueDrained) Kind() Kind { return KindQueueDrained }

// ProgressUpdated carries a queue's byte progress
type ProgressUpdated struct {
	Queue     models.QueueKind
	Completed int64
	Total     int64
}

func (ProgressUpdated) Kind() Kind { return KindProgressUpdated }

type subscriber struct {
	kinds map[Kind]struct{}
	box   *mb.MB[Event]
}

func (s *subscriber) wants(k Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Bus fans events out to subscribers. Each subscriber has its own unbounded mailbox so a
// slow consumer never blocks publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	closed bool
	logger *slog.Logger
}

// NewBus creates an empty bus
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]*subscriber),
		logger: logger,
	}
}

// Publish delivers e to every subscriber interested in its kind
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, sub := range b.subs {
		if !sub.wants(e.Kind()) {
			continue
		}
		if err := sub.box.Add(context.Background(), e); err != nil && !errors.Is(err, mb.ErrClosed) {
			b.logger.Warn("Failed to deliver event", "subscriber", id, "kind", e.Kind(), "error", err)
		}
	}
}

// Subscribe returns a channel of events of the given kinds, or of every kind when none
// are given. The channel is closed when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, kinds ...Kind) <-chan Event {
	sub := &subscriber{
		kinds: make(map[Kind]struct{}, len(kinds)),
		box:   mb.New[Event](0),
	}
	for _, k := range kinds {
		sub.kinds[k] = struct{}{}
	}

	out := make(chan Event)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(out)
		return out
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go func() {
		defer close(out)
		defer b.unsubscribe(id)
		for {
			e, err := sub.box.WaitOne(ctx)
			if err != nil {
				return
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if ok {
		_ = sub.box.Close()
	}
}

// Close shuts every subscription down
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		_ = sub.box.Close()
	}
}
