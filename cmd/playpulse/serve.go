package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerudesu/PlayPulse/internal/artwork"
	"github.com/nerudesu/PlayPulse/internal/auth"
	"github.com/nerudesu/PlayPulse/internal/card"
	"github.com/nerudesu/PlayPulse/internal/spotify"
	"github.com/nerudesu/PlayPulse/internal/web"
)

func newServeCmd() *cobra.Command {
	var login bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the now playing card over HTTP",
		Long: `Serve GET /now_playing on PLAYPULSE_ADDR (default 127.0.0.1:5000).

Without a stored token every request answers 404 until 'playpulse login'
has been run. Pass --login to run the browser flow at startup instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, auth.WithInteractiveLogin(login))
			if err != nil {
				return err
			}
			defer a.close()

			// With --login this runs the browser flow when nothing is stored.
			if _, err := a.auth.Token(ctx); errors.Is(err, auth.ErrNotAuthenticated) {
				a.logger.Warn("no spotify token stored; run 'playpulse login' first")
			} else if err != nil {
				if login {
					return err
				}
				a.logger.Warn("stored spotify token unusable", "error", err)
			}

			renderer := card.NewRenderer(
				artwork.NewFetcher(artwork.WithLogger(a.logger)),
				card.WithFont(card.FontOrDefault(a.cfg.FontPath, a.logger)),
				card.WithLogger(a.logger),
			)

			server, err := web.NewServer(web.ServerConfig{
				Addr:   a.cfg.Addr,
				Tracks: spotify.New(a.auth, spotify.WithLogger(a.logger)),
				Cards:  renderer,
				Logger: a.logger,
			})
			if err != nil {
				return err
			}

			return server.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&login, "login", false, "run the browser login when no token is stored")
	return cmd
}
