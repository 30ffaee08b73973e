package imaging

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Common system font locations tried when no font is configured.
var systemFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
}

// loadFace resolves the font face for a given size: the configured path if
// set, then well-known system fonts, then the embedded Go Regular face. Only
// an explicitly configured path that fails to load is an error.
func loadFace(fontPath string, size int) (font.Face, error) {
	if fontPath != "" {
		face, err := faceFromFile(fontPath, size)
		if err != nil {
			return nil, fmt.Errorf("failed to load configured font %s: %w", fontPath, err)
		}
		return face, nil
	}

	for _, path := range systemFontPaths {
		if face, err := faceFromFile(path, size); err == nil {
			return face, nil
		}
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	return newFace(parsed, size)
}

func faceFromFile(path string, size int) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return newFace(parsed, size)
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
