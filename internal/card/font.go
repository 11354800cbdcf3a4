package card

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	defaultFontOnce sync.Once
	defaultFont     *opentype.Font
)

// DefaultFont returns the built-in Go Regular font used when no CJK font is available.
func DefaultFont() *opentype.Font {
	defaultFontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("card: parsing embedded goregular font: %v", err))
		}
		defaultFont = f
	})
	return defaultFont
}

// LoadFont parses the OpenType/TrueType font at path. Collections (.ttc/.otc)
// resolve to their first face.
func LoadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}

	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", path, err)
	}
	f, err := coll.Font(0)
	if err != nil {
		return nil, fmt.Errorf("reading first font of %s: %w", path, err)
	}
	return f, nil
}

// FontOrDefault loads the font at path, falling back to DefaultFont when the
// file is missing or unreadable. A missing font is never fatal.
func FontOrDefault(path string, logger *log.Logger) *opentype.Font {
	if path != "" {
		f, err := LoadFont(path)
		if err == nil {
			return f
		}
		if logger != nil {
			logger.Warn("falling back to built-in font", "path", path, "error", err)
		}
	}
	return DefaultFont()
}

// newFace creates a face at size pixels (72 DPI, so points equal pixels).
func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
