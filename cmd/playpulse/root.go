package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nerudesu/PlayPulse/internal/auth"
	"github.com/nerudesu/PlayPulse/internal/config"
	"github.com/nerudesu/PlayPulse/internal/db"
	"github.com/nerudesu/PlayPulse/internal/logging"
)

// Version information (set via ldflags during build)
var version = "dev"

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "playpulse",
		Short: "Now playing card for Spotify",
		Long: `playpulse renders the track currently playing on your Spotify account
as a small PNG card and serves it at GET /now_playing.

Run 'playpulse login' once to authorize the app, then 'playpulse serve'.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newLoginCmd(), newLogoutCmd(), newRenderCmd())
	return root
}

// app holds the pieces every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	auth   *auth.Provider
	close  func()
}

// setup loads configuration and builds the token provider.
// Tokens live in Postgres when DATABASE_URL is set, otherwise in the cache file.
func setup(ctx context.Context, opts ...auth.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	closeFn := func() {}

	var store auth.TokenStore
	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		store = auth.NewDBStore(database, cfg.Spotify.ClientID)
		closeFn = database.Close
		logger.Debug("using database token store")
	} else {
		store = auth.NewFileStore(cfg.TokenCache)
		logger.Debug("using file token store", "path", cfg.TokenCache)
	}

	opts = append([]auth.Option{auth.WithStore(store), auth.WithLogger(logger)}, opts...)
	provider, err := auth.New(auth.Credentials{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURI:  cfg.Spotify.RedirectURI,
	}, opts...)
	if err != nil {
		closeFn()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, auth: provider, close: closeFn}, nil
}
