//go:build !ocr

package ocr

import (
	"context"
	"log/slog"
)

var _ Engine = (*Gosseract)(nil)

// Gosseract is a stub engine used when the "ocr" build tag is not set.
// All operations return ErrOCRNotEnabled.
type Gosseract struct{}

// NewGosseract returns an error indicating OCR support is not enabled.
// To enable it, rebuild with: go build -tags ocr
func NewGosseract(GosseractConfig, *slog.Logger) (*Gosseract, error) {
	return nil, ErrOCRNotEnabled
}

// Name returns "gosseract".
func (g *Gosseract) Name() string { return "gosseract" }

// Recognize returns ErrOCRNotEnabled.
func (g *Gosseract) Recognize(context.Context, Image, Profile) (Recognition, error) {
	return Recognition{}, ErrOCRNotEnabled
}

// Close is a no-op for the stub engine.
// It is safe to call on a nil engine.
func (g *Gosseract) Close() error {
	return nil
}
