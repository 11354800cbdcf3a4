package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/nerudesu/PlayPulse/internal/spotify"
)

// notFoundMessage is the only failure detail a caller ever sees.
const notFoundMessage = "No track currently playing or error generating image"

// TrackFetcher returns the currently playing track.
type TrackFetcher interface {
	CurrentTrack(ctx context.Context) (*spotify.Track, error)
}

// CardRenderer renders a track as PNG bytes.
type CardRenderer interface {
	Render(ctx context.Context, track *spotify.Track) ([]byte, error)
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	tracks TrackFetcher
	cards  CardRenderer
	logger *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tracks TrackFetcher, cards CardRenderer, logger *log.Logger) *Handlers {
	return &Handlers{
		tracks: tracks,
		cards:  cards,
		logger: logger,
	}
}

// NowPlaying renders the current track card (GET /now_playing).
// Every failure, whether nothing is playing or an upstream error, is a 404.
func (h *Handlers) NowPlaying(w http.ResponseWriter, r *http.Request) {
	track, err := h.tracks.CurrentTrack(r.Context())
	if err != nil || track == nil {
		h.logger.Debug("no track for card", "error", err)
		http.Error(w, notFoundMessage, http.StatusNotFound)
		return
	}

	png, err := h.cards.Render(r.Context(), track)
	if err != nil || len(png) == 0 {
		h.logger.Debug("card not rendered", "title", track.Title, "error", err)
		http.Error(w, notFoundMessage, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="now_playing.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Warn("failed to write card response", "error", err)
	}
}
