// Package ocr runs a Tesseract recognition engine over an image, once per
// recognition profile.
//
// Two engines are provided. TesseractCLI drives the tesseract binary and is
// always available. Gosseract binds libtesseract through cgo and is only
// compiled with the "ocr" build tag:
//
//	go build -tags ocr
//
// Both require Tesseract to be installed. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/scanlift/internal/hocr"
)

// ErrOCRNotEnabled is returned when the cgo engine is requested but was not
// compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// ErrNoImagePath is returned by engines that read the image from disk when
// Image.Path is empty.
var ErrNoImagePath = errors.New("image has no staged path")

// Image is the input to a recognition engine.
type Image struct {
	// Data is the encoded image.
	Data []byte
	// Path is a file holding Data, for engines that read from disk.
	Path string
}

// Recognition is the output of one engine invocation.
type Recognition struct {
	// Text is the recognized text, trimmed.
	Text string
	// Confidence is the mean word confidence in [0,100], zero when the engine
	// reports none. TesseractCLI sets it only in hOCR output mode; Gosseract
	// sets it in both modes.
	Confidence float64
}

// Engine recognizes text in an image under a profile. An Engine holds
// per-invocation parameters and must not be used by two goroutines at once;
// use a Pool to share engines.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img Image, p Profile) (Recognition, error)
	Close() error
}

// OutputMode selects the engine output format.
type OutputMode string

// Output modes.
const (
	OutputText OutputMode = "text"
	OutputHOCR OutputMode = "hocr"
)

// ParseOutputMode parses an output mode name. An empty string selects OutputText.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputHOCR:
		return OutputHOCR, nil
	default:
		return "", fmt.Errorf("unknown OCR output mode %q", s)
	}
}

// DefaultLanguage is the recognition language used when none is configured.
const DefaultLanguage = "eng"

// GosseractConfig configures the cgo engine.
type GosseractConfig struct {
	Language    string
	TessdataDir string
	Output      OutputMode
	// ConfigDir holds the generated engine-mode config files. Empty selects
	// a fresh directory under os.TempDir.
	ConfigDir string
}

// recognitionFromOutput converts raw engine output into a Recognition.
func recognitionFromOutput(out string, mode OutputMode) (Recognition, error) {
	if mode != OutputHOCR {
		return Recognition{Text: strings.TrimSpace(out)}, nil
	}
	doc, err := hocr.ParseString(out)
	if err != nil {
		return Recognition{}, err
	}
	rec := Recognition{Text: strings.TrimSpace(doc.Text())}
	if conf, ok := doc.MeanConfidence(); ok {
		rec.Confidence = conf
	}
	return rec, nil
}
