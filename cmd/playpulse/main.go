// Command playpulse serves a PNG card of the track playing on Spotify.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
