// Package preprocess normalizes raster images so that a recognition engine
// can read them more reliably.
//
// The Standard preprocessor applies, in order: flattening onto a white
// background with grayscale conversion,
// contrast normalization, sharpening, a linear contrast boost, median
// denoising and conditional upscaling. It never fails: when anything goes
// wrong the original bytes are returned untouched so recognition can still
// be attempted.
//
// Preprocessing is an optional capability. Callers pick Standard or Identity
// once at startup rather than checking for availability per request.
package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"log/slog"
	"time"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Image is the result of preprocessing.
type Image struct {
	// Data is the image payload handed to the recognition engine. It is PNG
	// encoded when Applied is true and the caller's original bytes otherwise.
	Data []byte
	// Width and Height are the dimensions of the ORIGINAL image, zero when
	// the original could not be decoded.
	Width  int
	Height int
	// Scale is the upscaling factor applied, 1 when the image was not upscaled.
	Scale int
	// Applied reports whether the transform pipeline ran successfully.
	Applied bool
}

// Preprocessor transforms raw image bytes into a form more legible to a
// recognition engine.
type Preprocessor interface {
	Preprocess(ctx context.Context, data []byte) Image
}

// Identity is the no-op Preprocessor.
type Identity struct{}

// Preprocess returns data unchanged.
func (Identity) Preprocess(_ context.Context, data []byte) Image {
	return original(data)
}

// IsIdentity reports whether p is the no-op preprocessor, by value or by pointer.
func IsIdentity(p Preprocessor) bool {
	switch p.(type) {
	case Identity, *Identity:
		return true
	}
	return false
}

// Config controls the Standard preprocessor.
type Config struct {
	// MinWidth is the width below which images are upscaled.
	MinWidth int
	// MaxPixels caps the pixel count of an upscaled image.
	MaxPixels int64
	// Slope and Intercept define the linear contrast boost v' = Slope*v + Intercept.
	Slope     float64
	Intercept float64
}

// DefaultConfig returns the default preprocessing configuration. The
// intercept keeps mid-gray (128) fixed under the 1.2 slope.
func DefaultConfig() Config {
	return Config{
		MinWidth:  1000,
		MaxPixels: 40_000_000,
		Slope:     1.2,
		Intercept: 128 - 1.2*128,
	}
}

// Standard is the full preprocessing pipeline.
type Standard struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Standard preprocessor. Zero fields in cfg take their defaults.
func New(cfg Config, logger *slog.Logger) *Standard {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = def.MinWidth
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = def.MaxPixels
	}
	if cfg.Slope == 0 {
		cfg.Slope = def.Slope
		cfg.Intercept = def.Intercept
	}
	return &Standard{cfg: cfg, logger: logger}
}

// Preprocess runs the pipeline, returning the original image on any failure.
func (p *Standard) Preprocess(ctx context.Context, data []byte) Image {
	start := time.Now()
	img, err := p.transform(ctx, data)
	if err != nil {
		p.logger.Warn("preprocessing failed, using original image",
			"bytes", len(data),
			"error", err,
		)
		return original(data)
	}
	p.logger.Debug("preprocessed image",
		"width", img.Width,
		"height", img.Height,
		"scale", img.Scale,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return img
}

var errEmptyImage = errors.New("image has no pixels")

func (p *Standard) transform(ctx context.Context, data []byte) (out Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("preprocess panic: %v", r)
		}
	}()

	if len(data) == 0 {
		return Image{}, errEmptyImage
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return Image{}, errEmptyImage
	}

	g := grayscale(src)
	g = normalize(g)
	g = sharpen(g)
	g = linear(g, p.cfg.Slope, p.cfg.Intercept)
	g = median(g)

	if err := ctx.Err(); err != nil {
		return Image{}, err
	}

	scale := UpscaleFactor(width, height, p.cfg.MinWidth, p.cfg.MaxPixels)
	if scale > 1 {
		g = upscale(g, scale)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, toGray(g)); err != nil {
		return Image{}, fmt.Errorf("encode png: %w", err)
	}

	return Image{
		Data:    buf.Bytes(),
		Width:   width,
		Height:  height,
		Scale:   scale,
		Applied: true,
	}, nil
}

// UpscaleFactor returns the integer scale factor for an image of the given
// size: 1 when width >= minWidth, otherwise ceil(minWidth/width) with a
// minimum of 2, reduced until the result fits in maxPixels. If even a factor
// of 2 would exceed maxPixels, no upscaling is done.
func UpscaleFactor(width, height, minWidth int, maxPixels int64) int {
	if width <= 0 || height <= 0 || width >= minWidth {
		return 1
	}
	f := (minWidth + width - 1) / width
	if f < 2 {
		f = 2
	}
	for f >= 2 && int64(width*f)*int64(height*f) > maxPixels {
		f--
	}
	if f < 2 {
		return 1
	}
	return f
}

func original(data []byte) Image {
	img := Image{Data: data, Scale: 1}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img
}
