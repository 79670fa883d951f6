// Package scanlift recovers machine-usable text from uploaded documents:
// PDFs with a text layer and raster images (PNG, JPEG) that need OCR.
//
// Basic usage:
//
//	ex := scanlift.New()
//	defer ex.Close()
//
//	res, err := ex.ExtractFile(ctx, "receipt.png")
//	if err != nil {
//	    var fe *failure.Error
//	    if errors.As(err, &fe) {
//	        log.Println(fe.Kind, fe.Suggestion)
//	    }
//	    return err
//	}
//	fmt.Println(res.Text)
//
// PDFs are read from their text layer, with a relaxed retry that rebuilds a
// damaged cross-reference table. Images go through preprocessing, several
// recognition profiles, noise cleaning and quality scoring; the best scoring
// candidate wins.
package scanlift

import (
	"log/slog"
	"time"

	"github.com/tsawler/scanlift/format"
)

// Version is the scanlift release.
const Version = "0.3.0"

// Input is a document to extract text from.
type Input struct {
	// Name is the original file name. Its extension selects the extraction path.
	Name string
	// ContentType is an optional MIME hint, used when Name has no extension.
	ContentType string
	Data        []byte
}

// Method names the extraction path that produced a Result.
type Method string

// Extraction methods.
const (
	MethodPDFText Method = "pdf-text"
	MethodOCR     Method = "ocr"
)

// Result is the text recovered from a document. Text is never blank.
type Result struct {
	Text   string
	Kind   format.Format
	Method Method
	// Profile is the winning recognition profile, empty for PDFs.
	Profile string
	// Score is the quality score of the winning OCR candidate.
	Score float64
	// Confidence is the engine's mean word confidence, zero when unknown.
	Confidence float64
	Pages      int
	// Retried reports whether a PDF needed the relaxed cross-reference rebuild.
	Retried  bool
	Warnings []string
	Duration time.Duration
}

// LogValue implements slog.LogValuer.
func (r *Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", r.Kind.String()),
		slog.String("method", string(r.Method)),
		slog.String("profile", r.Profile),
		slog.Float64("score", r.Score),
		slog.Int("pages", r.Pages),
		slog.Bool("retried", r.Retried),
		slog.Int("chars", len(r.Text)),
	)
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	res := scanlift.Must(ex.ExtractFile(ctx, "scan.png"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
