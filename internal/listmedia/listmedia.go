// Package listmedia reconciles local media tier metadata with what the CDN actually holds
package listmedia

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"backup-media-sync/pkg/models"
)

// ErrNeedsQuery is returned by queue runners that stop because media tier metadata is stale
var ErrNeedsQuery = errors.New("remote media listing is out of date")

// Lister lists the objects stored on the media tier
type Lister interface {
	ListMedia(ctx context.Context) ([]models.RemoteMedia, error)
}

// Store persists the needs-query flag and the attachment metadata being reconciled
type Store interface {
	NeedsListMedia(ctx context.Context) (bool, error)
	SetNeedsListMedia(ctx context.Context, needs bool) error
	ListAttachmentsOnMediaTier(ctx context.Context) ([]*models.Attachment, error)
	SetMediaTierInfo(ctx context.Context, id int64, info models.MediaTierInfo) error
	SetThumbnailMediaTierInfo(ctx context.Context, id int64, info models.MediaTierInfo) error
	ClearMediaTierInfo(ctx context.Context, id int64) error
	ClearThumbnailMediaTierInfo(ctx context.Context, id int64) error
}

// Result summarizes one reconciliation pass
type Result struct {
	Remote  int
	Updated int
	Cleared int
}

// Manager runs reconciliation passes, one at a time
type Manager struct {
	store  Store
	lister Lister
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a Manager
func New(store Store, lister Lister, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		lister: lister,
		logger: logger.With("component", "list_media"),
	}
}

// NeedsQuery reports whether a reconciliation pass is pending
func (m *Manager) NeedsQuery(ctx context.Context) (bool, error) {
	return m.store.NeedsListMedia(ctx)
}

// SetNeedsQuery schedules or cancels a reconciliation pass
func (m *Manager) SetNeedsQuery(ctx context.Context, needs bool) error {
	return m.store.SetNeedsListMedia(ctx, needs)
}

// QueryIfNeeded lists remote media and reconciles local metadata if a pass is pending.
// Media tier info pointing at objects the CDN no longer holds is cleared so the
// attachment gets uploaded again; objects found remotely get their CDN number recorded.
func (m *Manager) QueryIfNeeded(ctx context.Context) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needs, err := m.store.NeedsListMedia(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read list media flag: %w", err)
	}
	if !needs {
		return Result{}, nil
	}

	remote, err := m.lister.ListMedia(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list remote media: %w", err)
	}

	type key struct {
		name      string
		thumbnail bool
	}
	index := make(map[key]int, len(remote))
	for _, media := range remote {
		index[key{media.MediaName, media.Thumbnail}] = media.CDNNumber
	}

	attachments, err := m.store.ListAttachmentsOnMediaTier(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list local media tier attachments: %w", err)
	}

	result := Result{Remote: len(remote)}
	for _, att := range attachments {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if att.MediaTier != nil {
			cdn, found := index[key{att.MediaName, false}]
			changed, err := m.reconcile(ctx, att.ID, *att.MediaTier, cdn, found,
				m.store.SetMediaTierInfo, m.store.ClearMediaTierInfo)
			if err != nil {
				return result, err
			}
			result.count(changed, found)
		}

		if att.ThumbnailMediaTier != nil {
			cdn, found := index[key{att.MediaName, true}]
			changed, err := m.reconcile(ctx, att.ID, *att.ThumbnailMediaTier, cdn, found,
				m.store.SetThumbnailMediaTierInfo, m.store.ClearThumbnailMediaTierInfo)
			if err != nil {
				return result, err
			}
			result.count(changed, found)
		}
	}

	if err := m.store.SetNeedsListMedia(ctx, false); err != nil {
		return result, fmt.Errorf("failed to clear list media flag: %w", err)
	}

	m.logger.Info("Reconciled remote media",
		"remote", result.Remote,
		"updated", result.Updated,
		"cleared", result.Cleared)
	return result, nil
}

func (r *Result) count(changed, found bool) {
	switch {
	case changed && found:
		r.Updated++
	case changed:
		r.Cleared++
	}
}

func (m *Manager) reconcile(
	ctx context.Context,
	id int64,
	info models.MediaTierInfo,
	cdn int,
	found bool,
	setInfo func(context.Context, int64, models.MediaTierInfo) error,
	clearInfo func(context.Context, int64) error,
) (bool, error) {
	if !found {
		if err := clearInfo(ctx, id); err != nil {
			return false, fmt.Errorf("failed to clear media tier info for attachment %d: %w", id, err)
		}
		return true, nil
	}
	if info.CDNNumber != nil && *info.CDNNumber == cdn {
		return false, nil
	}
	info.CDNNumber = &cdn
	if err := setInfo(ctx, id, info); err != nil {
		return false, fmt.Errorf("failed to update media tier info for attachment %d: %w", id, err)
	}
	return true, nil
}
