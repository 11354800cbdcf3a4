package card

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/nerudesu/PlayPulse/internal/spotify"
)

// Card geometry in pixels.
const (
	Width  = 320
	Height = 84

	ArtSize   = 64
	ArtRadius = 10
	ArtX      = 10
	ArtY      = 10

	TextX    = 90
	TitleY   = 15
	ArtistsY = 35
	AlbumY   = 55

	// MaxTitleWidth is the width the title is shrunk to fit.
	MaxTitleWidth = 220

	DefaultFontSize = 14.0
	MinFontSize     = 10.0
)

// Measurer reports the rendered width in pixels of text at size.
type Measurer func(size float64, text string) int

// FitFontSize shrinks the font one point at a time while text is wider than
// MaxTitleWidth, stopping at MinFontSize.
func FitFontSize(text string, measure Measurer) float64 {
	size := DefaultFontSize
	for measure(size, text) > MaxTitleWidth && size > MinFontSize {
		size--
	}
	return size
}

// Lines returns the three text lines of a card: title, artists, album with year.
func Lines(track *spotify.Track) (title, artists, album string) {
	return track.Title,
		strings.Join(track.Artists, ", "),
		fmt.Sprintf("%s (%s)", track.Album, track.ReleaseYear)
}

// RoundCorners resizes art to ArtSize x ArtSize and replaces its alpha with a
// rounded-rectangle mask covering the whole image.
func RoundCorners(art image.Image) *image.NRGBA {
	img := imaging.Resize(art, ArtSize, ArtSize, imaging.CatmullRom)
	mask := roundedMask(ArtSize, ArtSize, ArtRadius)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+3] = mask.AlphaAt(x-b.Min.X, y-b.Min.Y).A
		}
	}
	return img
}

// roundedMask returns an opaque rounded rectangle of size w x h with corner
// radius r. A pixel is inside when its center lies within the shape.
func roundedMask(w, h, r int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	radius := float64(r)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			cx := clamp(px, radius, float64(w)-radius)
			cy := clamp(py, radius, float64(h)-radius)
			dx, dy := px-cx, py-cy
			if dx*dx+dy*dy <= radius*radius {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Compose draws the card for track with the decoded album art using face f.
// Only the title is fitted; the artist and album lines reuse its size and may overflow.
func Compose(track *spotify.Track, art image.Image, f *opentype.Font) (*image.NRGBA, error) {
	canvas := imaging.New(Width, Height, color.White)
	canvas = imaging.Overlay(canvas, RoundCorners(art), image.Pt(ArtX, ArtY), 1.0)

	title, artists, album := Lines(track)

	var faceErr error
	size := FitFontSize(title, func(size float64, text string) int {
		face, err := newFace(f, size)
		if err != nil {
			faceErr = err
			return 0
		}
		defer face.Close()
		return measureString(face, text)
	})
	if faceErr != nil {
		return nil, fmt.Errorf("creating font face: %w", faceErr)
	}

	face, err := newFace(f, size)
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	drawText(canvas, face, TextX, TitleY, title)
	drawText(canvas, face, TextX, ArtistsY, artists)
	drawText(canvas, face, TextX, AlbumY, album)

	return canvas, nil
}

// measureString returns the pixel width of the inked bounds of text.
func measureString(face font.Face, text string) int {
	bounds, _ := font.BoundString(face, text)
	return (bounds.Max.X - bounds.Min.X).Ceil()
}

// drawText draws black text whose ascender line sits at y.
func drawText(dst *image.NRGBA, face font.Face, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(x, y).Add(fixed.Point26_6{Y: face.Metrics().Ascent}),
	}
	d.DrawString(text)
}
