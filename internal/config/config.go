// Package config loads PlayPulse settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/nerudesu/PlayPulse/internal/logging"
)

const (
	// DefaultAddr is the listen address when PLAYPULSE_ADDR is unset.
	DefaultAddr = "127.0.0.1:5000"

	// DefaultFontPath points at the bundled CJK font. The file is optional.
	DefaultFontPath = "font/NotoSansCJKjp-Regular.otf"

	configDirName = "playpulse"
	tokenFileName = "token.json"
)

var (
	// ErrMissingCredentials is returned when any of the Spotify app settings is unset.
	ErrMissingCredentials = errors.New("missing SPOTIPY_CLIENT_ID, SPOTIPY_CLIENT_SECRET or SPOTIPY_REDIRECT_URI environment variable")

	// ErrInvalidRedirectURI is returned when SPOTIPY_REDIRECT_URI is not an absolute URL.
	ErrInvalidRedirectURI = errors.New("SPOTIPY_REDIRECT_URI must be an absolute http(s) URL")
)

// Config holds the application configuration.
type Config struct {
	Addr        string
	FontPath    string
	TokenCache  string
	DatabaseURL string
	LogLevel    log.Level
	Spotify     struct {
		ClientID     string
		ClientSecret string
		RedirectURI  string
	}
}

// Load reads configuration from environment variables, loading a .env file
// first when one exists. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := &Config{}

	cfg.Spotify.ClientID = os.Getenv("SPOTIPY_CLIENT_ID")
	cfg.Spotify.ClientSecret = os.Getenv("SPOTIPY_CLIENT_SECRET")
	cfg.Spotify.RedirectURI = os.Getenv("SPOTIPY_REDIRECT_URI")

	if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" || cfg.Spotify.RedirectURI == "" {
		return nil, ErrMissingCredentials
	}

	u, err := url.Parse(cfg.Spotify.RedirectURI)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidRedirectURI
	}

	cfg.Addr = getenv("PLAYPULSE_ADDR", DefaultAddr)
	cfg.FontPath = getenv("PLAYPULSE_FONT", DefaultFontPath)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LogLevel = logging.ParseLevel(os.Getenv("LOG_LEVEL"))

	cfg.TokenCache = os.Getenv("PLAYPULSE_TOKEN_CACHE")
	if cfg.TokenCache == "" {
		path, err := DefaultTokenCachePath()
		if err != nil {
			return nil, err
		}
		cfg.TokenCache = path
	}

	return cfg, nil
}

// DefaultTokenCachePath returns ~/.config/playpulse/token.json (or the
// platform equivalent).
func DefaultTokenCachePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(configDir, configDirName, tokenFileName), nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
