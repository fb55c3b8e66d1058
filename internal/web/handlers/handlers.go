// Package handlers provides HTTP handlers for the status page and control API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"backup-media-sync/internal/downloader"
	"backup-media-sync/internal/progress"
	"backup-media-sync/internal/status"
	"backup-media-sync/internal/web/templates"
	"backup-media-sync/pkg/models"

	"github.com/a-h/templ"
)

// Options holds the dependencies of Handlers
type Options struct {
	Store            Store
	DownloadStatus   StatusManager
	UploadStatus     StatusManager
	Downloads        DownloadManager
	Uploads          UploadManager
	DownloadProgress DownloadProgress
	Coordinator      Coordinator
	Offloader        Offloader
	IsPrimaryDevice  bool
	Logger           *slog.Logger
}

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	opts   Options
	logger *slog.Logger
	clock  func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		opts:   opts,
		logger: logger,
		clock:  time.Now,
	}
}

// Home renders the status page
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	page, err := h.buildStatus(r.Context())
	if err != nil {
		h.logger.Error("Failed to build status", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ctx := templ.WithChildren(r.Context(), templates.Status(*page))
	if err := templates.Base("Backup Media Sync").Render(ctx, w); err != nil {
		h.logger.Error("Failed to render status template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

// GetStatus returns the status page model as JSON
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	page, err := h.buildStatus(r.Context())
	if err != nil {
		h.logger.Error("Failed to build status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build status")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// SetQueueSuspension suspends or resumes the queue named in the path
func (h *Handlers) SetQueueSuspension(w http.ResponseWriter, r *http.Request) {
	queue := models.QueueKind(r.PathValue("queue"))
	action := r.PathValue("action")

	var suspended bool
	switch action {
	case "suspend":
		suspended = true
	case "resume":
		suspended = false
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action %q", action))
		return
	}

	var err error
	switch queue {
	case models.QueueDownload:
		err = h.opts.Downloads.SetSuspended(r.Context(), suspended)
	case models.QueueUpload:
		err = h.opts.Uploads.SetSuspended(r.Context(), suspended)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown queue %q", queue))
		return
	}
	if err != nil {
		h.logger.Error("Failed to set queue suspension", "queue", queue, "suspended", suspended, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update queue")
		return
	}

	h.logger.Info("Queue suspension updated", "queue", queue, "suspended", suspended)
	writeJSON(w, http.StatusOK, map[string]any{"queue": queue, "suspended": suspended})
}

// RunBackup asks the coordinator for an immediate round
func (h *Handlers) RunBackup(w http.ResponseWriter, r *http.Request) {
	h.opts.Coordinator.Kick()
	h.logger.Info("Backup round requested")
	writeJSON(w, http.StatusAccepted, map[string]any{"requested": true})
}

// RecheckDiskSpace rereads free space and clears earlier out-of-space verdicts
func (h *Handlers) RecheckDiskSpace(w http.ResponseWriter, r *http.Request) {
	h.opts.DownloadStatus.ReattemptDiskSpaceChecks()
	snap := h.opts.DownloadStatus.Snapshot()
	h.opts.Coordinator.Kick()
	writeJSON(w, http.StatusOK, map[string]any{
		"statuses":             snap.Statuses,
		"available_disk_space": snap.AvailableDiskSpace,
		"required_disk_space":  snap.RequiredDiskSpace,
	})
}

// SetPlan stores a new backup plan and updates both queues for the transition
func (h *Handlers) SetPlan(w http.ResponseWriter, r *http.Request) {
	var newPlan models.BackupPlan
	if err := json.NewDecoder(r.Body).Decode(&newPlan); err != nil {
		writeError(w, http.StatusBadRequest, "invalid plan body")
		return
	}
	if err := newPlan.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	oldPlan, err := h.opts.Store.BackupPlan(ctx)
	if err != nil {
		h.logger.Error("Failed to read backup plan", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read backup plan")
		return
	}

	if err := h.applyPlan(ctx, oldPlan, newPlan); err != nil {
		if errors.Is(err, downloader.ErrUnexpectedPlanTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Failed to change backup plan", "old", oldPlan, "new", newPlan, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to change backup plan")
		return
	}

	h.opts.Coordinator.Kick()
	writeJSON(w, http.StatusOK, newPlan)
}

func (h *Handlers) applyPlan(ctx context.Context, oldPlan, newPlan models.BackupPlan) error {
	if err := h.opts.Store.SetBackupPlan(ctx, newPlan); err != nil {
		return err
	}
	if err := h.opts.Downloads.BackupPlanDidChange(ctx, oldPlan, newPlan); err != nil {
		return err
	}

	h.opts.UploadStatus.SetPlanPaid(newPlan.Kind == models.PlanPaid)
	switch {
	case newPlan.Kind == models.PlanPaid && oldPlan.Kind != models.PlanPaid:
		return h.opts.Uploads.EnqueueAllEligibleAttachments(ctx)
	case !newPlan.IsPaidFamily() && oldPlan.IsPaidFamily():
		return h.opts.Uploads.CancelPendingUploads(ctx)
	}
	return nil
}

func (h *Handlers) buildStatus(ctx context.Context) (*templates.StatusPage, error) {
	plan, err := h.opts.Store.BackupPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup plan: %w", err)
	}

	download, err := h.queueView(ctx, models.QueueDownload, h.opts.DownloadStatus.Snapshot())
	if err != nil {
		return nil, err
	}
	download.Progress = h.opts.DownloadProgress.Snapshot()

	upload, err := h.queueView(ctx, models.QueueUpload, h.opts.UploadStatus.Snapshot())
	if err != nil {
		return nil, err
	}
	remaining, done, err := h.opts.Store.UploadByteSums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload progress: %w", err)
	}
	upload.Progress = progress.Snapshot{Completed: done, Total: remaining + done}

	page := &templates.StatusPage{
		Plan:        plan,
		IsPrimary:   h.opts.IsPrimaryDevice,
		Download:    *download,
		Upload:      *upload,
		GeneratedAt: h.clock(),
	}

	if h.opts.Offloader != nil {
		stats, err := h.opts.Offloader.Stats(ctx)
		if err != nil {
			h.logger.Warn("Failed to read offload stats", "error", err)
		} else if stats != nil {
			page.OffloadFiles = stats.Offloaded
			page.OffloadBytes = stats.FreedBytes
		}
	}

	lastRound, lastErr := h.opts.Coordinator.LastRound()
	page.LastRound = lastRound
	if lastErr != nil {
		page.LastRoundErr = lastErr.Error()
	}
	return page, nil
}

func (h *Handlers) queueView(ctx context.Context, kind models.QueueKind, snap status.Snapshot) (*templates.QueueView, error) {
	records, err := h.opts.Store.QueueStats(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s queue stats: %w", kind, err)
	}
	return &templates.QueueView{
		Kind:               kind,
		Statuses:           snap.Statuses,
		Observing:          snap.Observing,
		Records:            records,
		AvailableDiskSpace: snap.AvailableDiskSpace,
		RequiredDiskSpace:  snap.RequiredDiskSpace,
		NetworkErrorCount:  snap.NetworkErrorCount,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
