package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nerudesu/PlayPulse/internal/config"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "login", "logout", "render"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	if root.Flags().Lookup("login") == nil {
		t.Error("root command does not accept the serve --login flag")
	}
	if f := mustFind(t, root, "render").Flags().ShorthandLookup("o"); f == nil || f.DefValue != "now_playing.png" {
		t.Errorf("render -o flag = %+v, want default now_playing.png", f)
	}
}

func TestRootCmd_MissingCredentials(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SPOTIPY_CLIENT_ID", "")
	t.Setenv("SPOTIPY_CLIENT_SECRET", "")
	t.Setenv("SPOTIPY_REDIRECT_URI", "")

	for _, args := range [][]string{{}, {"serve"}, {"logout"}, {"render"}} {
		root := newRootCmd()
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})

		if err := root.Execute(); !errors.Is(err, config.ErrMissingCredentials) {
			t.Errorf("playpulse %v error = %v, want ErrMissingCredentials", args, err)
		}
	}
}

func TestLogoutCmd_RemovesTokenFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	tokenPath := filepath.Join(dir, "token.json")
	if err := os.WriteFile(tokenPath, []byte(`{"access_token":"a"}`), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SPOTIPY_CLIENT_ID", "id")
	t.Setenv("SPOTIPY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIPY_REDIRECT_URI", "http://127.0.0.1:8888/callback")
	t.Setenv("PLAYPULSE_TOKEN_CACHE", tokenPath)
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"logout"})
	root.SetOut(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if _, err := os.Stat(tokenPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("token file still present: %v", err)
	}
	if out.String() != "Logged out\n" {
		t.Errorf("output = %q", out.String())
	}
}

func mustFind(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find([]string{name})
	if err != nil {
		t.Fatalf("Find(%q) error = %v", name, err)
	}
	return cmd
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
