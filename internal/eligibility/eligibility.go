// Package eligibility computes per-tier transfer states for attachments.
//
// Every function here is pure. Callers evaluate it when deciding whether to enqueue a
// record and again right before running one, because plan, recency and tier metadata
// can change in between.
package eligibility

import (
	"time"

	"backup-media-sync/pkg/models"
)

// Download is the per-tier download state of one attachment. A nil field means the
// tier has no copy of the data and can never be downloaded from.
type Download struct {
	ThumbnailMediaTier  *models.QueueRecordState
	TransitTierFullsize *models.QueueRecordState
	MediaTierFullsize   *models.QueueRecordState
}

// FullsizeState aggregates the transit and media tier states
func (d Download) FullsizeState() *models.QueueRecordState {
	return Combine(d.TransitTierFullsize, d.MediaTierFullsize)
}

// CanDownloadMediaTierFullsize reports whether the media tier fullsize is ready to fetch
func (d Download) CanDownloadMediaTierFullsize() bool {
	return is(d.MediaTierFullsize, models.StateReady)
}

// CanDownloadTransitTierFullsize reports whether the transit tier fullsize is ready to fetch
func (d Download) CanDownloadTransitTierFullsize() bool {
	return is(d.TransitTierFullsize, models.StateReady)
}

// Combine returns the highest ranked state, Done > Ready > Ineligible, or nil when no
// state is present.
func Combine(states ...*models.QueueRecordState) *models.QueueRecordState {
	var best *models.QueueRecordState
	for _, s := range states {
		if s == nil {
			continue
		}
		if best == nil || s.Rank() > best.Rank() {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	return models.StatePtr(*best)
}

func is(s *models.QueueRecordState, want models.QueueRecordState) bool {
	return s != nil && *s == want
}

// ForDownload evaluates every download tier for att. ownerTimestamp is the newest owner
// timestamp in unix ms; nil means the owner has no date and counts as recent.
func ForDownload(
	att *models.Attachment,
	ownerTimestamp *int64,
	now time.Time,
	plan models.BackupPlan,
	rc models.RemoteConfig,
	isPrimary bool,
) Download {
	return Download{
		ThumbnailMediaTier:  thumbnailState(att, plan),
		TransitTierFullsize: transitTierState(att, ownerTimestamp, now, plan, rc, isPrimary),
		MediaTierFullsize:   mediaTierState(att, ownerTimestamp, now, plan, rc),
	}
}

func thumbnailState(att *models.Attachment, plan models.BackupPlan) *models.QueueRecordState {
	if att.LocalThumbnail != nil || att.LocalFullsize != nil {
		return models.StatePtr(models.StateDone)
	}
	if !att.CanBeThumbnailed || att.ThumbnailMediaTier == nil {
		return nil
	}
	if plan.IsDisabledFamily() {
		return models.StatePtr(models.StateIneligible)
	}
	return models.StatePtr(models.StateReady)
}

func mediaTierState(
	att *models.Attachment,
	ownerTimestamp *int64,
	now time.Time,
	plan models.BackupPlan,
	rc models.RemoteConfig,
) *models.QueueRecordState {
	if att.LocalFullsize != nil {
		return models.StatePtr(models.StateDone)
	}
	if att.MediaTier == nil {
		return nil
	}
	return planState(ownerTimestamp, now, plan, rc, false)
}

func transitTierState(
	att *models.Attachment,
	ownerTimestamp *int64,
	now time.Time,
	plan models.BackupPlan,
	rc models.RemoteConfig,
	isPrimary bool,
) *models.QueueRecordState {
	if att.LocalFullsize != nil {
		return models.StatePtr(models.StateDone)
	}
	if att.TransitTier == nil || att.TransitTier.Expired {
		return nil
	}
	uploaded := att.TransitTier.UploadTimestamp
	if !within(&uploaded, now, rc.TransitTierMaxAge) && !within(ownerTimestamp, now, rc.TransitTierMaxAge) {
		return nil
	}
	// Linked devices still fetch from the transit tier so link'n'sync works without a plan
	return planState(ownerTimestamp, now, plan, rc, !isPrimary)
}

func planState(
	ownerTimestamp *int64,
	now time.Time,
	plan models.BackupPlan,
	rc models.RemoteConfig,
	allowWhenDisabled bool,
) *models.QueueRecordState {
	switch {
	case plan.IsDisabledFamily():
		if allowWhenDisabled {
			return models.StatePtr(models.StateReady)
		}
		return models.StatePtr(models.StateIneligible)
	case plan.Optimizing():
		if within(ownerTimestamp, now, rc.OffloadingThreshold) {
			return models.StatePtr(models.StateReady)
		}
		return models.StatePtr(models.StateIneligible)
	default:
		return models.StatePtr(models.StateReady)
	}
}

// within reports whether ts is no older than window before now. A nil timestamp is
// treated as maximal.
func within(ts *int64, now time.Time, window time.Duration) bool {
	if ts == nil {
		return true
	}
	return now.Sub(time.UnixMilli(*ts)) <= window
}

// IsRecent reports whether an owner timestamp falls inside the recency window
func IsRecent(ownerTimestamp *int64, now time.Time, window time.Duration) bool {
	return within(ownerTimestamp, now, window)
}

// NeedsMediaTierUpload reports whether the fullsize data lacks an upload in the current era
func NeedsMediaTierUpload(att *models.Attachment, era string) bool {
	return att.MediaTier == nil || att.MediaTier.UploadEra != era
}

// NeedsThumbnailUpload reports whether a thumbnail can be made and lacks an upload in the current era
func NeedsThumbnailUpload(att *models.Attachment, era string) bool {
	if !att.CanBeThumbnailed {
		return false
	}
	return att.ThumbnailMediaTier == nil || att.ThumbnailMediaTier.UploadEra != era
}

// Upload is the upload need of one attachment
type Upload struct {
	Fullsize  bool
	Thumbnail bool
}

// Any reports whether anything needs uploading
func (u Upload) Any() bool {
	return u.Fullsize || u.Thumbnail
}

// ShouldEnqueueUpload decides which uploads to enqueue. Uploads only run on the plain
// paid plan and need the fullsize data on this device.
func ShouldEnqueueUpload(att *models.Attachment, era string, plan models.BackupPlan) Upload {
	if plan.Kind != models.PlanPaid || att.LocalFullsize == nil {
		return Upload{}
	}
	return Upload{
		Fullsize:  NeedsMediaTierUpload(att, era),
		Thumbnail: NeedsThumbnailUpload(att, era),
	}
}
