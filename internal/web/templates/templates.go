// Package templates renders the status page
//
//go:generate templ generate
package templates

import (
	"fmt"
	"slices"
	"time"

	"backup-media-sync/internal/progress"
	"backup-media-sync/pkg/models"

	"github.com/dustin/go-humanize"
)

// QueueView is what the page shows for one transfer queue
type QueueView struct {
	Kind               models.QueueKind                        `json:"kind"`
	Statuses           map[models.QueueMode]models.QueueStatus `json:"statuses"`
	Observing          bool                                    `json:"observing"`
	Records            map[models.QueueRecordState]int         `json:"records"`
	Progress           progress.Snapshot                       `json:"progress"`
	AvailableDiskSpace *uint64                                 `json:"available_disk_space,omitempty"`
	RequiredDiskSpace  uint64                                  `json:"required_disk_space"`
	NetworkErrorCount  int                                     `json:"network_error_count"`
}

// StatusPage is the full page model, also served as JSON
type StatusPage struct {
	Plan         models.BackupPlan `json:"plan"`
	IsPrimary    bool              `json:"is_primary"`
	Download     QueueView         `json:"download"`
	Upload       QueueView         `json:"upload"`
	OffloadFiles int               `json:"offload_files"`
	OffloadBytes int64             `json:"offload_bytes"`
	LastRound    time.Time         `json:"last_round"`
	LastRoundErr string            `json:"last_round_error,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

func roleLabel(isPrimary bool) string {
	if isPrimary {
		return "primary device"
	}
	return "linked device"
}

func offloadLabel(page StatusPage) string {
	return fmt.Sprintf("Ready to offload: %d files, %s", page.OffloadFiles, humanize.Bytes(uint64(page.OffloadBytes)))
}

func lastRoundLabel(page StatusPage) string {
	if page.LastRound.IsZero() {
		return "never"
	}
	return humanize.RelTime(page.LastRound, page.GeneratedAt, "ago", "from now")
}

func sortedStates(records map[models.QueueRecordState]int) []models.QueueRecordState {
	states := make([]models.QueueRecordState, 0, len(records))
	for state := range records {
		states = append(states, state)
	}
	slices.Sort(states)
	return states
}

func recordLabel(state models.QueueRecordState, count int) string {
	return fmt.Sprintf("%s: %d", state, count)
}

func progressLabel(snap progress.Snapshot) string {
	label := fmt.Sprintf("%s of %s (%.0f%%)",
		humanize.Bytes(uint64(snap.Completed)), humanize.Bytes(uint64(snap.Total)), snap.Fraction()*100)
	if snap.BytesPerSecond > 0 {
		label += fmt.Sprintf(" at %s/s", humanize.Bytes(uint64(snap.BytesPerSecond)))
	}
	return label
}

func diskLabel(view QueueView) string {
	if view.AvailableDiskSpace == nil {
		return ""
	}
	return fmt.Sprintf("Disk: %s free, %s required",
		humanize.Bytes(*view.AvailableDiskSpace), humanize.Bytes(view.RequiredDiskSpace))
}
