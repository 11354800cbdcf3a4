package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerudesu/PlayPulse/internal/artwork"
	"github.com/nerudesu/PlayPulse/internal/card"
	"github.com/nerudesu/PlayPulse/internal/spotify"
)

func newRenderCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the current now playing card to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			track, err := spotify.New(a.auth, spotify.WithLogger(a.logger)).CurrentTrack(ctx)
			if err != nil {
				return err
			}

			renderer := card.NewRenderer(
				artwork.NewFetcher(artwork.WithLogger(a.logger)),
				card.WithFont(card.FontOrDefault(a.cfg.FontPath, a.logger)),
				card.WithLogger(a.logger),
			)

			png, err := renderer.Render(ctx, track)
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, png, 0644); err != nil {
				return fmt.Errorf("writing card: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s - %s -> %s\n", track.Title, track.Artists[0], output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "now_playing.png", "file to write the PNG card to")
	return cmd
}
