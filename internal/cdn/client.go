// Package cdn provides the HTTP client for the backup CDN
package cdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"backup-media-sync/internal/transfer"
	"backup-media-sync/pkg/models"
)

const (
	apiTimeout      = 30 * time.Second
	transferTimeout = time.Hour
	copyBufferSize  = 32 * 1024
	progressEvery   = 250 * time.Millisecond
)

// Error codes returned in the API error envelope
const (
	codeSourceObjectNotFound = "source_object_not_found"
	codeOutOfCapacity        = "out_of_capacity"
)

// Client talks to the backup CDN
type Client struct {
	apiKey     string
	baseURL    string
	mediaPath  string
	apiClient  *http.Client
	dataClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// APIResponse is the envelope every JSON endpoint returns
type APIResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *APIError       `json:"error,omitempty"`
}

// APIError is the error part of the envelope
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (code: %s)", e.Message, e.Code)
	}
	return e.Message
}

type authResult struct {
	Level      string `json:"level"`
	Credential string `json:"credential"`
}

type uploadResult struct {
	CDNNumber            int    `json:"cdn_number"`
	UploadEra            string `json:"upload_era"`
	UnencryptedByteCount int64  `json:"unencrypted_byte_count"`
}

type listResult struct {
	Media []models.RemoteMedia `json:"media"`
}

// New creates a CDN client. requestsPerSecond paces every request; zero means unlimited.
func New(baseURL, apiKey, mediaPath string, requestsPerSecond float64, logger *slog.Logger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		mediaPath:  mediaPath,
		apiClient:  &http.Client{Timeout: apiTimeout},
		dataClient: &http.Client{Timeout: transferTimeout},
		limiter:    rate.NewLimiter(limit, max(1, int(requestsPerSecond))),
		logger:     logger.With("component", "cdn"),
	}
}

// FetchServiceAuth implements transfer.AuthProvider
func (c *Client) FetchServiceAuth(ctx context.Context, forceRefresh bool) (transfer.Auth, error) {
	params := c.params()
	if forceRefresh {
		params.Set("refresh", "1")
	}

	var result authResult
	if err := c.getJSON(ctx, "/v1/auth", params, &result); err != nil {
		return transfer.Auth{}, err
	}

	level := transfer.AuthLevel(result.Level)
	if level != transfer.AuthLevelFree && level != transfer.AuthLevelPaid {
		return transfer.Auth{}, fmt.Errorf("unknown auth level %q", result.Level)
	}
	return transfer.Auth{Level: level, Credential: result.Credential}, nil
}

// ListMedia returns every object stored on the media tier
func (c *Client) ListMedia(ctx context.Context) ([]models.RemoteMedia, error) {
	var result listResult
	if err := c.getJSON(ctx, "/v1/media", c.params(), &result); err != nil {
		return nil, err
	}
	return result.Media, nil
}

// Download implements transfer.Downloader. Partial files are resumed with a range request.
func (c *Client) Download(ctx context.Context, att *models.Attachment, source models.DownloadSource, sink transfer.Sink) (*models.LocalFile, error) {
	if sink == nil {
		sink = transfer.NopSink
	}

	params := c.params()
	params.Set("source", string(source))
	if source == models.SourceTransitTier {
		if att.TransitTier == nil {
			return nil, errors.New("attachment has no transit tier info")
		}
		params.Set("cdn", strconv.Itoa(att.TransitTier.CDNNumber))
		params.Set("key", att.TransitTier.CDNKey)
	}

	finalPath := c.localPath(att, source == models.SourceMediaTierThumbnail)
	tempPath := finalPath + ".tmp"

	req, err := c.newRequest(ctx, http.MethodGet, c.mediaURL(att, params), nil)
	if err != nil {
		return nil, err
	}

	var resumeFrom int64
	if stat, err := os.Stat(tempPath); err == nil && stat.Size() > 0 {
		resumeFrom = stat.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
		c.logger.Debug("Resuming download", "attachment_id", att.ID, "resume_from", resumeFrom)
	}

	resp, err := c.do(ctx, c.dataClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		// The server ignored the range, start over
		resumeFrom = 0
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, c.responseError(resp)
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resumeFrom > 0 {
		flags = os.O_APPEND | os.O_WRONLY
	}
	file, err := os.OpenFile(tempPath, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := copyWithProgress(ctx, file, resp.Body, resumeFrom, sink)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		return nil, fmt.Errorf("failed to move completed file: %w", err)
	}

	c.logger.Debug("Download completed", "attachment_id", att.ID, "source", source, "path", finalPath, "bytes", written)
	return &models.LocalFile{Path: finalPath, ByteCount: written}, nil
}

// Upload implements transfer.Uploader
func (c *Client) Upload(ctx context.Context, att *models.Attachment, thumbnail bool, era string, auth transfer.Auth, sink transfer.Sink) (*models.MediaTierInfo, error) {
	if sink == nil {
		sink = transfer.NopSink
	}

	local := att.LocalFullsize
	if thumbnail && att.LocalThumbnail != nil {
		local = att.LocalThumbnail
	}
	if local == nil {
		return nil, transfer.ErrMissingFile
	}
	file, err := os.Open(local.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", transfer.ErrMissingFile, local.Path)
		}
		return nil, fmt.Errorf("failed to open upload source: %w", err)
	}
	defer file.Close()

	params := c.params()
	params.Set("era", era)
	if thumbnail {
		params.Set("thumbnail", "1")
	}

	body := &progressReader{r: file, sink: sink}
	req, err := c.newRequest(ctx, http.MethodPost, c.mediaURL(att, params), body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = local.ByteCount
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+auth.Credential)

	resp, err := c.do(ctx, c.dataClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result uploadResult
	if err := c.decode(resp, &result); err != nil {
		return nil, err
	}
	cdn := result.CDNNumber
	return &models.MediaTierInfo{
		CDNNumber:            &cdn,
		UploadEra:            result.UploadEra,
		UnencryptedByteCount: result.UnencryptedByteCount,
	}, nil
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("agent", "backup-media-sync")
	params.Set("apikey", c.apiKey)
	return params
}

func (c *Client) mediaURL(att *models.Attachment, params url.Values) string {
	return fmt.Sprintf("%s/v1/media/%s?%s", c.baseURL, url.PathEscape(mediaKey(att)), params.Encode())
}

// localPath places files under a two character fan-out directory
func (c *Client) localPath(att *models.Attachment, thumbnail bool) string {
	key := mediaKey(att)
	name := key
	if thumbnail {
		name += ".thumb"
	}
	return filepath.Join(c.mediaPath, key[:min(2, len(key))], name)
}

func mediaKey(att *models.Attachment) string {
	if att.MediaName != "" {
		return att.MediaName
	}
	return strconv.FormatInt(att.ID, 10)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// do paces the request and classifies transport failures
func (c *Client) do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed waiting for rate limiter: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, transfer.NetworkError(fmt.Errorf("failed to make request: %w", err))
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, c.apiClient, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp, out)
}

func (c *Client) decode(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp)
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Status != "success" {
		if apiResp.Error != nil {
			return apiErrorCause(apiResp.Error)
		}
		return fmt.Errorf("API returned status: %s", apiResp.Status)
	}
	if out == nil || len(apiResp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// responseError converts a non-2xx response into a classified transfer error
func (c *Client) responseError(resp *http.Response) error {
	te := transfer.HTTPError(resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))

	var apiResp APIResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if json.Unmarshal(body, &apiResp) == nil && apiResp.Error != nil {
		te.Err = apiErrorCause(apiResp.Error)
	}
	return te
}

// apiErrorCause maps well known API error codes onto transfer sentinels
func apiErrorCause(apiErr *APIError) error {
	switch apiErr.Code {
	case codeSourceObjectNotFound:
		return fmt.Errorf("%w: %s", transfer.ErrSourceObjectNotFound, apiErr.Message)
	case codeOutOfCapacity:
		return fmt.Errorf("%w: %s", transfer.ErrOutOfCapacity, apiErr.Message)
	default:
		return apiErr
	}
}

// parseRetryAfter accepts both delay-seconds and HTTP-date forms
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// copyWithProgress copies src into dst, reporting cumulative bytes to sink
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, resumeFrom int64, sink transfer.Sink) (int64, error) {
	buffer := make([]byte, copyBufferSize)
	total := resumeFrom
	lastUpdate := time.Now()
	sink.Update(total)

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := src.Read(buffer)
		if n > 0 {
			if _, writeErr := dst.Write(buffer[:n]); writeErr != nil {
				return total, fmt.Errorf("failed to write to file: %w", writeErr)
			}
			total += int64(n)
			if now := time.Now(); now.Sub(lastUpdate) >= progressEvery {
				sink.Update(total)
				lastUpdate = now
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				sink.Update(total)
				return total, nil
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			return total, transfer.NetworkError(fmt.Errorf("failed to read from response: %w", err))
		}
	}
}

type progressReader struct {
	r    io.Reader
	sink transfer.Sink
	read int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.sink.Update(p.read)
	}
	return n, err
}
