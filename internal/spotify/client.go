// Package spotify fetches the user's currently playing track from the Spotify Web API.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/nerudesu/PlayPulse/internal/logging"
)

const (
	baseURL = "https://api.spotify.com/v1/"

	// artImageIndex selects the medium resolution cover; Spotify lists images largest first.
	artImageIndex = 1
)

// Sentinel errors. Every failure of CurrentTrack wraps exactly one of them.
var (
	// ErrNothingPlaying is returned when no track is playing (204, null item, or an episode/ad).
	ErrNothingPlaying = errors.New("nothing playing")

	// ErrIncompleteTrack is returned when the playing item lacks a field the card needs.
	ErrIncompleteTrack = errors.New("incomplete track in response")

	// ErrFetchFailed is returned for auth, transport, status and decoding errors.
	ErrFetchFailed = errors.New("fetching currently playing track failed")
)

// TokenProvider supplies bearer tokens for API calls.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Client is the Track Fetcher. It wraps the Spotify API client and is safe
// for concurrent use.
type Client struct {
	tokens     TokenProvider
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client whose transport and timeout carry API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrDefault(l)
	}
}

// New creates a Client that authorizes requests with tokens.
func New(tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// api returns a Spotify client whose requests fetch their token with ctx.
func (c *Client) api(ctx context.Context) *spotify.Client {
	hc := &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: contextTokenSource{ctx: ctx, tokens: c.tokens},
			Base:   c.httpClient.Transport,
		},
	}
	return spotify.New(hc, spotify.WithBaseURL(c.baseURL))
}

// CurrentTrack returns the track the user is playing right now.
// Errors are logged here and returned wrapped in ErrNothingPlaying,
// ErrIncompleteTrack or ErrFetchFailed; callers only need errors.Is.
func (c *Client) CurrentTrack(ctx context.Context) (*Track, error) {
	// Spotify answers 204 No Content when nothing is playing; the client
	// decodes that as an empty result.
	playing, err := c.api(ctx).PlayerCurrentlyPlaying(ctx)
	if err != nil {
		c.logger.Error("failed to get currently playing track", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if playing == nil || playing.Item == nil ||
		(playing.Item.Type != "" && playing.Item.Type != "track") {
		c.logger.Info("no track currently playing")
		return nil, ErrNothingPlaying
	}

	track, err := convertTrack(playing.Item)
	if err != nil {
		c.logger.Warn("currently playing track is incomplete", "error", err)
		return nil, err
	}

	c.logger.Debug("currently playing", "title", track.Title, "artists", track.Artists)
	return track, nil
}

// convertTrack validates item and flattens it into a Track.
func convertTrack(item *spotify.FullTrack) (*Track, error) {
	if item.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrIncompleteTrack)
	}
	if item.Album.Name == "" {
		return nil, fmt.Errorf("%w: missing album name", ErrIncompleteTrack)
	}
	if len(item.Artists) == 0 {
		return nil, fmt.Errorf("%w: missing artists", ErrIncompleteTrack)
	}

	artists := make([]string, len(item.Artists))
	for i, a := range item.Artists {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: artist %d has no name", ErrIncompleteTrack, i)
		}
		artists[i] = a.Name
	}

	if len(item.Album.Images) <= artImageIndex || item.Album.Images[artImageIndex].URL == "" {
		return nil, fmt.Errorf("%w: missing medium album image", ErrIncompleteTrack)
	}

	year := releaseYear(item.Album.ReleaseDate)
	if year == "" {
		return nil, fmt.Errorf("%w: missing release date", ErrIncompleteTrack)
	}

	return &Track{
		Title:       item.Name,
		Album:       item.Album.Name,
		Artists:     artists,
		ArtURL:      item.Album.Images[artImageIndex].URL,
		ReleaseYear: year,
	}, nil
}

// releaseYear returns the first four characters of a YYYY[-MM[-DD]] date.
func releaseYear(date string) string {
	if len(date) > 4 {
		return date[:4]
	}
	return date
}

// contextTokenSource adapts TokenProvider to oauth2.TokenSource for one call.
type contextTokenSource struct {
	ctx    context.Context
	tokens TokenProvider
}

func (s contextTokenSource) Token() (*oauth2.Token, error) {
	return s.tokens.Token(s.ctx)
}
