// Package card renders the 320x84 "now playing" PNG.
package card

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF covers
	_ "image/jpeg" // register JPEG covers
	"image/png"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp" // register WebP covers

	"github.com/nerudesu/PlayPulse/internal/artwork"
	"github.com/nerudesu/PlayPulse/internal/logging"
	"github.com/nerudesu/PlayPulse/internal/spotify"
)

var (
	// ErrNoTrack is returned by Render when there is nothing to draw.
	ErrNoTrack = errors.New("no track to render")

	// ErrArtworkUnavailable is returned when the cover cannot be downloaded or decoded.
	ErrArtworkUnavailable = artwork.ErrArtworkUnavailable

	// ErrRender is returned when composing or encoding the card fails.
	ErrRender = errors.New("rendering card failed")
)

// ArtworkFetcher downloads album art.
type ArtworkFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Renderer turns a Track into PNG bytes. It is safe for concurrent use.
type Renderer struct {
	art    ArtworkFetcher
	font   *opentype.Font
	logger *log.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFont sets the font used for all text.
func WithFont(f *opentype.Font) Option {
	return func(r *Renderer) {
		if f != nil {
			r.font = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		r.logger = logging.OrDefault(l)
	}
}

// NewRenderer creates a Renderer that downloads covers with art.
// Without WithFont it draws with DefaultFont.
func NewRenderer(art ArtworkFetcher, opts ...Option) *Renderer {
	r := &Renderer{
		art:    art,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.font == nil {
		r.font = DefaultFont()
	}
	return r
}

// Render downloads the cover for track and returns the encoded card.
// A nil track returns ErrNoTrack without touching the network. A cover that
// fails to download or decode aborts the card with ErrArtworkUnavailable.
func (r *Renderer) Render(ctx context.Context, track *spotify.Track) ([]byte, error) {
	if track == nil {
		return nil, ErrNoTrack
	}

	data, err := r.art.Fetch(ctx, track.ArtURL)
	if err != nil {
		if errors.Is(err, ErrArtworkUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrArtworkUnavailable, err)
	}

	art, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		r.logger.Error("error decoding album art", "url", track.ArtURL, "error", err)
		return nil, fmt.Errorf("%w: decoding image: %w", ErrArtworkUnavailable, err)
	}
	r.logger.Debug("album art decoded", "format", format, "size", art.Bounds().Size())

	img, err := Compose(track, art, r.font)
	if err != nil {
		r.logger.Error("error composing card", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		r.logger.Error("error encoding card", "error", err)
		return nil, fmt.Errorf("%w: encoding png: %w", ErrRender, err)
	}

	return buf.Bytes(), nil
}
