package downloader

import (
	"errors"
	"fmt"
	"time"

	"backup-media-sync/pkg/models"
)

var (
	// ErrNoLongerEligible parks a record whose eligibility changed after it was queued
	ErrNoLongerEligible = errors.New("download is no longer eligible")
	// ErrUnexpectedPlanTransition is returned for backup plan changes that cannot happen
	ErrUnexpectedPlanTransition = errors.New("unexpected backup plan transition")
)

// RetryMediaTierError schedules another media tier attempt after a 404 on a linked device,
// giving the primary time to finish its upload
type RetryMediaTierError struct {
	NextRetryAt time.Time
	Err         error
}

func (e *RetryMediaTierError) Error() string {
	return fmt.Sprintf("retry media tier at %s: %v", e.NextRetryAt.Format(time.RFC3339), e.Err)
}

func (e *RetryMediaTierError) Unwrap() error { return e.Err }

// RetryAsTransitTierError retries a failed media tier download from the transit tier right away
type RetryAsTransitTierError struct {
	// WipeMediaTierInfo forgets the media tier metadata so the attachment gets uploaded again
	WipeMediaTierInfo bool
	Err               error
}

func (e *RetryAsTransitTierError) Error() string {
	return fmt.Sprintf("retry as transit tier (wipe media tier info: %t): %v", e.WipeMediaTierInfo, e.Err)
}

func (e *RetryAsTransitTierError) Unwrap() error { return e.Err }

// RetryTransientError backs off a record after a network failure, 5xx or rate limit
type RetryTransientError struct {
	NextRetryAt time.Time
	Err         error
}

func (e *RetryTransientError) Error() string {
	return fmt.Sprintf("retry at %s: %v", e.NextRetryAt.Format(time.RFC3339), e.Err)
}

func (e *RetryTransientError) Unwrap() error { return e.Err }

// Unretryable404Error reports that the remote object is gone from Source
type Unretryable404Error struct {
	Source models.DownloadSource
	Err    error
}

func (e *Unretryable404Error) Error() string {
	return fmt.Sprintf("%s object not found: %v", e.Source, e.Err)
}

func (e *Unretryable404Error) Unwrap() error { return e.Err }
