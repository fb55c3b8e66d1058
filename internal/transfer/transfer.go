// Package transfer defines the collaborators that move attachment bytes to and from the CDN
package transfer

import (
	"context"

	"backup-media-sync/pkg/models"
)

// AuthLevel is the service level granted by a backup credential
type AuthLevel string

const (
	AuthLevelFree AuthLevel = "free"
	AuthLevelPaid AuthLevel = "paid"
)

// Auth is a backup service credential
type Auth struct {
	Level      AuthLevel
	Credential string
}

// Sink receives byte progress for a single transfer
type Sink interface {
	Update(completedBytes int64)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(completedBytes int64)

// Update implements Sink
func (f SinkFunc) Update(completedBytes int64) { f(completedBytes) }

type nopSink struct{}

func (nopSink) Update(int64) {}

// NopSink discards progress
var NopSink Sink = nopSink{}

// Downloader fetches attachment data from a remote tier
type Downloader interface {
	// Download stores the data locally and returns the resulting file. Thumbnail sources
	// return the thumbnail file.
	Download(ctx context.Context, att *models.Attachment, source models.DownloadSource, sink Sink) (*models.LocalFile, error)
}

// Uploader copies attachment data to the media tier
type Uploader interface {
	// Upload returns the media tier info describing the new upload
	Upload(ctx context.Context, att *models.Attachment, thumbnail bool, era string, auth Auth, sink Sink) (*models.MediaTierInfo, error)
}

// AuthProvider fetches backup service credentials
type AuthProvider interface {
	FetchServiceAuth(ctx context.Context, forceRefresh bool) (Auth, error)
}
