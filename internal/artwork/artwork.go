// Package artwork downloads album cover images.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nerudesu/PlayPulse/internal/logging"
)

const (
	userAgent = "playpulse/1.0"

	// MaxImageBytes caps the size of a downloaded cover.
	MaxImageBytes = 10 << 20
)

// ErrArtworkUnavailable is returned for any download failure: bad URL,
// transport error, non-2xx status, or an oversized body.
var ErrArtworkUnavailable = errors.New("album artwork unavailable")

// Fetcher downloads images over plain HTTP(S). It is safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		if hc != nil {
			f.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.OrDefault(l)
	}
}

// NewFetcher creates a Fetcher with a 10 second timeout.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the image at url and returns its raw bytes.
// Failures are logged and wrapped in ErrArtworkUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := f.fetch(ctx, url)
	if err != nil {
		f.logger.Error("error fetching album art", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrArtworkUnavailable, err)
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > MaxImageBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxImageBytes)
	}

	return body, nil
}
