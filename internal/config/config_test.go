package config

import (
	"errors"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

func setCredentials(t *testing.T, id, secret, redirect string) {
	t.Helper()
	t.Setenv("SPOTIPY_CLIENT_ID", id)
	t.Setenv("SPOTIPY_CLIENT_SECRET", secret)
	t.Setenv("SPOTIPY_REDIRECT_URI", redirect)
}

func TestLoad_MissingCredentials(t *testing.T) {
	chdir(t, t.TempDir())

	tests := []struct {
		name     string
		id       string
		secret   string
		redirect string
	}{
		{"all missing", "", "", ""},
		{"id missing", "", "secret", "http://127.0.0.1:8080/callback"},
		{"secret missing", "id", "", "http://127.0.0.1:8080/callback"},
		{"redirect missing", "id", "secret", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t, tt.id, tt.secret, tt.redirect)

			cfg, err := Load()
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("Load() error = %v, want ErrMissingCredentials", err)
			}
			if cfg != nil {
				t.Error("Load() returned non-nil config with error")
			}
		})
	}
}

func TestLoad_InvalidRedirectURI(t *testing.T) {
	chdir(t, t.TempDir())

	for _, redirect := range []string{"not a url", "/callback", "ftp://host/callback"} {
		t.Run(redirect, func(t *testing.T) {
			setCredentials(t, "id", "secret", redirect)

			if _, err := Load(); !errors.Is(err, ErrInvalidRedirectURI) {
				t.Errorf("Load() error = %v, want ErrInvalidRedirectURI", err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	setCredentials(t, "id", "secret", "http://127.0.0.1:8080/callback")
	t.Setenv("PLAYPULSE_ADDR", "")
	t.Setenv("PLAYPULSE_FONT", "")
	t.Setenv("PLAYPULSE_TOKEN_CACHE", "/tmp/playpulse-token.json")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.FontPath != DefaultFontPath {
		t.Errorf("FontPath = %q, want %q", cfg.FontPath, DefaultFontPath)
	}
	if cfg.TokenCache != "/tmp/playpulse-token.json" {
		t.Errorf("TokenCache = %q", cfg.TokenCache)
	}
	if cfg.LogLevel != log.InfoLevel {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.Spotify.ClientID != "id" || cfg.Spotify.ClientSecret != "secret" {
		t.Errorf("Spotify credentials = %+v", cfg.Spotify)
	}
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	setCredentials(t, "id", "secret", "https://example.com/callback")
	t.Setenv("PLAYPULSE_ADDR", ":9000")
	t.Setenv("PLAYPULSE_FONT", "/fonts/custom.ttf")
	t.Setenv("PLAYPULSE_TOKEN_CACHE", "/var/lib/playpulse/token.json")
	t.Setenv("DATABASE_URL", "postgres://localhost/playpulse")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Addr)
	}
	if cfg.FontPath != "/fonts/custom.ttf" {
		t.Errorf("FontPath = %q", cfg.FontPath)
	}
	if cfg.TokenCache != "/var/lib/playpulse/token.json" {
		t.Errorf("TokenCache = %q", cfg.TokenCache)
	}
	if cfg.DatabaseURL != "postgres://localhost/playpulse" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != log.DebugLevel {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
