package main

import (
	"fmt"

	"github.com/spf13/cobra"
	spotifyapi "github.com/zmb3/spotify/v2"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize PlayPulse with your Spotify account",
		Long: `Open the Spotify authorize URL, wait for the redirect on
SPOTIPY_REDIRECT_URI and store the resulting token.

The redirect URI must point at this machine and be registered in the
Spotify developer dashboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.auth.Login(ctx); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			user, err := spotifyapi.New(a.auth.Client(ctx)).CurrentUser(ctx)
			if err != nil {
				return fmt.Errorf("getting current user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.DisplayName, user.ID)
			return nil
		},
	}
}
