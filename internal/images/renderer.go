// Package images renders pet portraits by compositing layered part sprites
// and tinting them with the pet's color. Rendering never fails outward:
// when an asset is missing or unreadable the fixed placeholder image is
// returned instead, keeping the minting and merging APIs available even
// with a broken asset set.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/petmint/petmint/internal/genetics"
)

const canvasSize = 200

// placeholderColor is the solid fill used when compositing fails.
var placeholderColor = color.NRGBA{R: 0, G: 255, B: 0, A: 255}

// Compositor renders pet images from part sprites in an asset directory.
// Assets are named BaseBody.png and {Animal}{Upper,Face,Down}Part.png.
type Compositor struct {
	dir    string
	logger *slog.Logger
}

// NewCompositor creates a compositor reading sprites from dir.
func NewCompositor(dir string, logger *slog.Logger) *Compositor {
	return &Compositor{dir: dir, logger: logger}
}

// Render produces a 200x200 PNG for the given trait triple and #rrggbb
// color. The layers stack base, down, upper, face, and the result is tinted
// by multiplying each channel with the pet color. Any compositing failure
// is logged and answered with the placeholder image.
func (c *Compositor) Render(upper, face, down, colorHex string) ([]byte, error) {
	img, err := c.compose(upper, face, down, colorHex)
	if err != nil {
		c.logger.Warn("image compositing failed, using placeholder",
			"upper", upper, "face", face, "down", down, "error", err)
		img = Placeholder()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) compose(upper, face, down, colorHex string) (image.Image, error) {
	r, g, b, err := genetics.ParseColor(colorHex)
	if err != nil {
		return nil, err
	}

	layers := []string{
		filepath.Join(c.dir, "BaseBody.png"),
		c.partPath(down, "Down"),
		c.partPath(upper, "Upper"),
		c.partPath(face, "Face"),
	}

	canvas := imaging.New(canvasSize, canvasSize, color.NRGBA{})
	for _, path := range layers {
		layer, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loading layer %s: %w", filepath.Base(path), err)
		}
		fitted := imaging.Fit(layer, canvasSize, canvasSize, imaging.Lanczos)
		canvas = imaging.OverlayCenter(canvas, fitted, 1.0)
	}

	// Multiply tint with the pet color.
	tinted := imaging.AdjustFunc(canvas, func(px color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: uint8(uint16(px.R) * uint16(r) / 255),
			G: uint8(uint16(px.G) * uint16(g) / 255),
			B: uint8(uint16(px.B) * uint16(b) / 255),
			A: px.A,
		}
	})
	return tinted, nil
}

func (c *Compositor) partPath(animal, part string) string {
	return filepath.Join(c.dir, capitalize(animal)+part+"Part.png")
}

// CheckAssets verifies the asset directory holds a sprite for every part of
// every animal in the vocabulary, plus the base body.
func (c *Compositor) CheckAssets(animals []string) error {
	var missing []string

	paths := []string{filepath.Join(c.dir, "BaseBody.png")}
	for _, animal := range animals {
		for _, part := range []string{"Upper", "Face", "Down"} {
			paths = append(paths, c.partPath(animal, part))
		}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, filepath.Base(path))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing assets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Placeholder returns the fixed solid-color image substituted when
// compositing fails.
func Placeholder() image.Image {
	return imaging.New(canvasSize, canvasSize, placeholderColor)
}

// DataURI wraps encoded PNG bytes as a data URI for storage and transport.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
