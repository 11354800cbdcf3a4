package spotify

// Track is the normalized "now playing" descriptor handed to the card renderer.
// A Track returned by the Client always has every field populated.
type Track struct {
	Title       string
	Album       string
	Artists     []string // in the order Spotify lists them
	ArtURL      string   // medium resolution album image
	ReleaseYear string
}
