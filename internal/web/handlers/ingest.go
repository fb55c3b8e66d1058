package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"backup-media-sync/pkg/models"
)

// AttachmentRequest carries one attachment and, optionally, the owner referencing it
type AttachmentRequest struct {
	Attachment *models.Attachment          `json:"attachment"`
	Reference  *models.AttachmentReference `json:"reference,omitempty"`
}

// RestoreRequest carries attachments found while restoring a backup
type RestoreRequest struct {
	Attachments      []AttachmentRequest `json:"attachments"`
	RestoreStartedAt *time.Time          `json:"restore_started_at,omitempty"`
}

func (req *AttachmentRequest) validate() error {
	if req.Attachment == nil {
		return errors.New("attachment is required")
	}
	if req.Attachment.MediaName == "" {
		return errors.New("attachment media_name is required")
	}
	if req.Reference == nil {
		return nil
	}
	switch req.Reference.OwnerType {
	case models.OwnerMessage, models.OwnerThreadWallpaper, models.OwnerStory:
		return nil
	default:
		return fmt.Errorf("unknown owner type %q", req.Reference.OwnerType)
	}
}

// IngestAttachment records a local attachment and its owner, then schedules its upload
func (h *Handlers) IngestAttachment(w http.ResponseWriter, r *http.Request) {
	var req AttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid attachment body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.saveAttachment(ctx, &req); err != nil {
		h.logger.Error("Failed to save attachment", "media_name", req.Attachment.MediaName, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save attachment")
		return
	}
	if err := h.opts.Uploads.EnqueueIfNeeded(ctx, req.Attachment, req.Reference); err != nil {
		h.logger.Error("Failed to schedule upload", "attachment_id", req.Attachment.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to schedule upload")
		return
	}
	h.opts.Uploads.Kick()

	h.logger.Info("Attachment ingested", "attachment_id", req.Attachment.ID, "media_name", req.Attachment.MediaName)
	writeJSON(w, http.StatusCreated, req)
}

// RestoreAttachments records attachments from a restored backup and schedules their downloads
func (h *Handlers) RestoreAttachments(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid restore body")
		return
	}
	if len(req.Attachments) == 0 {
		writeError(w, http.StatusBadRequest, "no attachments to restore")
		return
	}
	for i := range req.Attachments {
		if err := req.Attachments[i].validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("attachment %d: %v", i, err))
			return
		}
	}

	restoreStart := h.clock()
	if req.RestoreStartedAt != nil {
		restoreStart = *req.RestoreStartedAt
	}

	ctx := r.Context()
	for i := range req.Attachments {
		item := &req.Attachments[i]
		if err := h.saveAttachment(ctx, item); err != nil {
			h.logger.Error("Failed to save restored attachment", "media_name", item.Attachment.MediaName, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save attachment")
			return
		}
		if err := h.opts.Downloads.EnqueueFromBackupIfNeeded(ctx, item.Attachment, item.Reference, restoreStart); err != nil {
			h.logger.Error("Failed to schedule download", "attachment_id", item.Attachment.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to schedule download")
			return
		}
	}
	h.opts.Downloads.Kick()

	h.logger.Info("Restored attachments scheduled", "count", len(req.Attachments))
	writeJSON(w, http.StatusAccepted, map[string]any{"scheduled": len(req.Attachments)})
}

func (h *Handlers) saveAttachment(ctx context.Context, req *AttachmentRequest) error {
	if err := h.opts.Store.UpsertAttachment(ctx, req.Attachment); err != nil {
		return err
	}
	if req.Reference == nil {
		return nil
	}
	req.Reference.AttachmentID = req.Attachment.ID
	return h.opts.Store.AddReference(ctx, req.Reference)
}
