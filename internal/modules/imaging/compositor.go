package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/config"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	// Text is drawn at 70% opacity (179 of 255).
	textAlpha = 179
	// Background boxes at 50%.
	boxAlpha = 128
	// Vertical gap between label lines, in pixels.
	lineSpacing = 5

	jpegQuality = 95
)

// Compositor renders the configured watermark label onto still images. All
// drawing happens on a transparent overlay which is alpha-composited onto
// the source in a single final blend, so a failure part-way never leaves the
// source pixels half-mutated.
type Compositor struct {
	spec   config.Watermark
	face   font.Face
	logger *zap.Logger
}

// NewCompositor loads the configured font (falling back to common system
// fonts and finally the embedded face) and returns a ready compositor.
func NewCompositor(spec config.Watermark, logger *zap.Logger) (*Compositor, error) {
	face, err := loadFace(spec.FontPath, spec.FontSize)
	if err != nil {
		return nil, err
	}
	return NewCompositorWithFace(spec, face, logger), nil
}

// NewCompositorWithFace injects an explicit font face. Used by tests with
// fixed-metric faces.
func NewCompositorWithFace(spec config.Watermark, face font.Face, logger *zap.Logger) *Compositor {
	return &Compositor{
		spec:   spec,
		face:   face,
		logger: logger,
	}
}

// layout holds the computed geometry for one render.
type layout struct {
	lineHeight int
	labelW     int
	labelH     int
	bgRect     image.Rectangle // zero when no background is configured
	textX      int
	textY      int // top edge of the first line
}

// computeLayout measures the label and places it inside bounds. Label width
// is the widest line; label height is the sum of line heights plus the fixed
// inter-line spacing. Whitespace-only lines still reserve their full height.
func computeLayout(bounds image.Rectangle, lines []string, face font.Face, w config.Watermark) layout {
	metrics := face.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()

	labelW := 0
	for _, line := range lines {
		if width := font.MeasureString(face, line).Ceil(); width > labelW {
			labelW = width
		}
	}
	labelH := len(lines)*lineHeight + (len(lines)-1)*lineSpacing

	l := layout{
		lineHeight: lineHeight,
		labelW:     labelW,
		labelH:     labelH,
	}

	imgW, imgH := bounds.Dx(), bounds.Dy()

	if w.BackgroundColor != nil {
		bgW := labelW + 2*w.Padding
		bgH := labelH + 2*w.Padding

		var bgX, bgY int
		if w.Position == config.PositionCenter {
			bgX = (imgW - bgW) / 2
			bgY = (imgH - bgH) / 2
		} else {
			bgX = imgW - bgW - w.Margin
			bgY = imgH - bgH - w.Margin
		}

		l.bgRect = image.Rect(bgX, bgY, bgX+bgW, bgY+bgH).Add(bounds.Min)
		l.textX = bgX + w.Padding
		l.textY = bgY + w.Padding
		return l
	}

	// No background: text goes directly at the anchor, no padding applied.
	if w.Position == config.PositionCenter {
		l.textX = (imgW - labelW) / 2
		l.textY = (imgH - labelH) / 2
	} else {
		l.textX = imgW - labelW - w.Margin
		l.textY = imgH - labelH - w.Margin
	}
	return l
}

// Render returns a watermarked copy of src. The source image is never
// written to.
func (c *Compositor) Render(src image.Image) (image.Image, error) {
	bounds := src.Bounds()
	base := image.NewNRGBA(bounds)
	draw.Draw(base, bounds, src, bounds.Min, draw.Src)

	overlay := image.NewNRGBA(bounds)
	l := computeLayout(bounds, c.spec.Lines(), c.face, c.spec)

	if c.spec.BackgroundColor != nil {
		bg := c.spec.BackgroundColor
		fill := color.NRGBA{bg.R, bg.G, bg.B, boxAlpha}
		draw.Draw(overlay, l.bgRect, image.NewUniform(fill), image.Point{}, draw.Src)
	}

	fc := c.spec.FontColor
	drawer := font.Drawer{
		Dst:  overlay,
		Src:  image.NewUniform(color.NRGBA{fc.R, fc.G, fc.B, textAlpha}),
		Face: c.face,
	}

	ascent := c.face.Metrics().Ascent.Ceil()
	y := l.textY
	for _, line := range c.spec.Lines() {
		drawer.Dot = fixed.P(bounds.Min.X+l.textX, bounds.Min.Y+y+ascent)
		drawer.DrawString(line)
		y += l.lineHeight + lineSpacing
	}

	draw.Draw(base, bounds, overlay, bounds.Min, draw.Over)
	return base, nil
}

// Apply decodes the source file, renders the watermark, and writes the
// result to outputPath in the source's format. Sources without an alpha
// channel (JPEG) come back opaque because the encoder flattens the result.
// The caller owns the output path and removes it on failure.
func (c *Compositor) Apply(inputPath, outputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", inputPath, err)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode image %s: %w", inputPath, err)
	}

	rendered, err := c.Render(src)
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", outputPath, err)
	}
	defer out.Close()

	switch format {
	case "png":
		err = png.Encode(out, rendered)
	case "gif":
		err = gif.Encode(out, rendered, nil)
	default:
		err = jpeg.Encode(out, rendered, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return fmt.Errorf("failed to encode output %s: %w", outputPath, err)
	}

	c.logger.Info("Watermarked image",
		zap.String("source", inputPath),
		zap.String("output", outputPath),
	)
	return nil
}
