// Package cleanup offloads local media that is safely backed up on the media tier
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"backup-media-sync/pkg/models"

	"github.com/dustin/go-humanize"
)

// Store is the attachment metadata the offloader reads and updates
type Store interface {
	BackupPlan(ctx context.Context) (models.BackupPlan, error)
	UploadEra(ctx context.Context) (string, error)
	OffloadCandidates(ctx context.Context, era string, olderThanMs int64) ([]*models.Attachment, error)
	ClearLocalFullsize(ctx context.Context, id int64) error
}

// Service deletes local fullsize copies under optimize storage
type Service struct {
	store     Store
	logger    *slog.Logger
	mediaPath string
	threshold time.Duration
	clock     func() time.Time
}

// NewService creates a new offload service rooted at mediaPath
func NewService(store Store, mediaPath string, threshold time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		logger:    logger.With("component", "cleanup"),
		mediaPath: mediaPath,
		threshold: threshold,
		clock:     time.Now,
	}
}

// Result summarizes one offload pass
type Result struct {
	Offloaded    int    `json:"offloaded"`
	FreedBytes   int64  `json:"freed_bytes"`
	Skipped      int    `json:"skipped"`
	RemovedDirs  int    `json:"removed_dirs"`
	FreedDisplay string `json:"freed_display"`
}

// OffloadAttachments deletes the local fullsize files of attachments whose newest owner is older
// than the offloading threshold and whose fullsize is uploaded in the current era. Thumbnails stay.
func (s *Service) OffloadAttachments(ctx context.Context) (*Result, error) {
	result := &Result{}

	candidates, ok, err := s.candidates(ctx)
	if err != nil || !ok {
		return result, err
	}
	if len(candidates) == 0 {
		s.logger.Debug("No attachments to offload")
		return result, nil
	}

	s.logger.Info("Offloading attachments", "candidates", len(candidates))

	var errs []error
	for _, att := range candidates {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if !s.isPathSafe(att.LocalFullsize.Path) {
			s.logger.Warn("Skipping file outside media path", "attachment_id", att.ID, "file", att.LocalFullsize.Path)
			result.Skipped++
			continue
		}

		freed, err := s.offload(ctx, att)
		if err != nil {
			s.logger.Warn("Failed to offload attachment", "attachment_id", att.ID, "error", err)
			errs = append(errs, fmt.Errorf("attachment %d: %w", att.ID, err))
			continue
		}
		result.Offloaded++
		result.FreedBytes += freed
	}

	removed, err := s.CleanupEmptyDirectories()
	if err != nil {
		s.logger.Warn("Failed to remove empty directories", "error", err)
	}
	result.RemovedDirs = removed
	result.FreedDisplay = humanize.Bytes(uint64(result.FreedBytes))

	s.logger.Info("Offload completed",
		"offloaded", result.Offloaded,
		"freed", result.FreedDisplay,
		"skipped", result.Skipped,
		"errors", len(errs))

	if len(errs) > 0 {
		return result, fmt.Errorf("offload completed with %d errors: %w", len(errs), errors.Join(errs...))
	}
	return result, nil
}

// Stats reports what OffloadAttachments would free without touching any file
func (s *Service) Stats(ctx context.Context) (*Result, error) {
	result := &Result{}
	candidates, ok, err := s.candidates(ctx)
	if err != nil || !ok {
		return result, err
	}
	for _, att := range candidates {
		if !s.isPathSafe(att.LocalFullsize.Path) {
			result.Skipped++
			continue
		}
		result.Offloaded++
		result.FreedBytes += fileSize(att.LocalFullsize)
	}
	result.FreedDisplay = humanize.Bytes(uint64(result.FreedBytes))
	return result, nil
}

// candidates returns the offloadable attachments, or false when the plan does not optimize storage
func (s *Service) candidates(ctx context.Context) ([]*models.Attachment, bool, error) {
	plan, err := s.store.BackupPlan(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read backup plan: %w", err)
	}
	if !plan.Optimizing() {
		return nil, false, nil
	}

	era, err := s.store.UploadEra(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read upload era: %w", err)
	}
	if era == "" {
		return nil, false, nil
	}

	threshold := s.clock().Add(-s.threshold).UnixMilli()
	candidates, err := s.store.OffloadCandidates(ctx, era, threshold)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list offload candidates: %w", err)
	}
	return candidates, true, nil
}

// offload removes the local file and forgets it, returning the bytes freed
func (s *Service) offload(ctx context.Context, att *models.Attachment) (int64, error) {
	path := att.LocalFullsize.Path
	size := fileSize(att.LocalFullsize)

	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("failed to delete file: %w", err)
		}
		s.logger.Debug("File already deleted", "attachment_id", att.ID, "file", path)
		size = 0
	}

	if err := s.store.ClearLocalFullsize(ctx, att.ID); err != nil {
		return 0, fmt.Errorf("failed to clear local fullsize: %w", err)
	}

	s.logger.Debug("Offloaded attachment", "attachment_id", att.ID, "file", path, "size", humanize.Bytes(uint64(size)))
	return size, nil
}

func fileSize(file *models.LocalFile) int64 {
	if stat, err := os.Stat(file.Path); err == nil {
		return stat.Size()
	}
	return file.ByteCount
}

// isPathSafe checks that a path is inside, and not equal to, the media directory
func (s *Service) isPathSafe(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(s.mediaPath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(absPath, absBase+string(os.PathSeparator))
}

// CleanupEmptyDirectories removes empty directories below the media path, deepest first
func (s *Service) CleanupEmptyDirectories() (int, error) {
	var dirs []string
	err := filepath.WalkDir(s.mediaPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() && path != s.mediaPath {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk media path: %w", err)
	}

	removed := 0
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dirs[i]); err != nil {
			s.logger.Warn("Failed to remove empty directory", "directory", dirs[i], "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
