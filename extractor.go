package scanlift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/scanlift/failure"
	"github.com/tsawler/scanlift/format"
	"github.com/tsawler/scanlift/ocr"
	"github.com/tsawler/scanlift/pdftext"
	"github.com/tsawler/scanlift/pipeline"
	"github.com/tsawler/scanlift/preprocess"
)

// Extractor dispatches documents to PDF text extraction or the OCR pipeline.
// It is safe for concurrent use; each image extraction checks out its own
// recognition engine from the pool.
type Extractor struct {
	opts     options
	pool     *ocr.Pool
	ownsPool bool
	pipeline *pipeline.Pipeline
	pdf      *pdftext.Extractor
}

// New creates an Extractor. Without WithPool it drives a single tesseract
// binary found on $PATH.
func New(opts ...Option) *Extractor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Extractor{opts: o, pool: o.pool}
	if e.pool == nil {
		// The CLI engine never fails to construct.
		e.pool, _ = ocr.NewPool(1, func() (ocr.Engine, error) {
			return ocr.NewTesseractCLI(ocr.CLIConfig{}, o.logger), nil
		})
		e.ownsPool = true
	}

	pre := o.preprocessor
	if pre == nil {
		pre = preprocess.New(preprocess.DefaultConfig(), o.logger)
	}
	e.pipeline = pipeline.New(pipeline.Config{
		Preprocessor: pre,
		Profiles:     o.profiles,
		Cleaner:      o.cleaner,
		Scorer:       o.scorer,
		TempDir:      o.tempDir,
		Logger:       o.logger,
	})
	parse := o.pdfParser
	if parse == nil {
		parse = pdftext.NewParser(o.logger)
	}
	e.pdf = pdftext.NewWithParser(parse, o.logger)
	return e
}

// Close releases the engine pool if the Extractor created it.
// It is safe to call Close multiple times.
func (e *Extractor) Close() error {
	if e.ownsPool && e.pool != nil {
		return e.pool.Close()
	}
	return nil
}

// Profiles returns the recognition profiles in tie-break order.
func (e *Extractor) Profiles() []ocr.Profile {
	return e.pipeline.Profiles()
}

// ExtractFile reads the file at path and extracts its text.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.Extract(ctx, Input{Name: filepath.Base(path), Data: data})
}

// Extract recovers the text of in. Extraction failures are returned as
// *failure.Error; a cancelled or expired ctx is returned as ctx.Err().
func (e *Extractor) Extract(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	logger := e.opts.logger.With("request_id", uuid.NewString(), "name", in.Name)

	if e.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.timeout)
		defer cancel()
	}

	kind := format.Resolve(in.Name, in.ContentType)
	var warnings []string
	if sniffed := format.DetectFromMagic(in.Data); sniffed != format.Unknown && kind != format.Unknown && sniffed != kind {
		w := fmt.Sprintf("content looks like %s but the file is named as %s", sniffed, kind)
		logger.Warn("format mismatch", "declared", kind.String(), "detected", sniffed.String())
		warnings = append(warnings, w)
	}

	var (
		res *Result
		err error
	)
	switch {
	case kind == format.PDF:
		res, err = e.extractPDF(ctx, in.Data)
	case kind.IsImage():
		res, err = e.extractImage(ctx, in.Data, logger)
	default:
		ext := strings.ToLower(filepath.Ext(in.Name))
		if ext == "" {
			ext = in.ContentType
		}
		err = failure.Newf(failure.UnsupportedFileType, nil, "unsupported file type %q", ext)
	}

	if err != nil {
		logger.Warn("extraction failed",
			"kind", kind.String(),
			"error_kind", errorKind(err),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	res.Kind = kind
	res.Warnings = append(warnings, res.Warnings...)
	res.Duration = time.Since(start)
	logger.Info("extraction complete", "result", res, "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (*Result, error) {
	out, err := e.pdf.Extract(ctx, data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:    out.Text,
		Method:  MethodPDFText,
		Pages:   out.Pages,
		Retried: out.Retried(),
	}, nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, logger *slog.Logger) (*Result, error) {
	if len(data) == 0 {
		return nil, failure.New(failure.NoExtractableText, "image payload is empty", nil)
	}

	engine, err := e.pool.Acquire(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, failure.New(failure.ExtractionEngineFailure, "no recognition engine available", err)
	}
	defer e.pool.Release(engine)

	// Request-scoped fields flow into the pipeline's log records.
	p := e.pipeline.WithLogger(logger)
	out, err := p.Recognize(ctx, engine, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && failure.IsKind(err, failure.ExtractionEngineFailure) {
			return nil, ctxErr
		}
		return nil, err
	}

	var warnings []string
	if !out.Image.Applied && !preprocess.IsIdentity(e.opts.preprocessor) {
		warnings = append(warnings, "image preprocessing failed; recognized the original image")
	}

	return &Result{
		Text:       out.Best.CleanedText,
		Method:     MethodOCR,
		Profile:    out.Best.ProfileName,
		Score:      out.Best.QualityScore,
		Confidence: out.Best.EngineConfidence,
		Pages:      1,
		Warnings:   warnings,
	}, nil
}

func errorKind(err error) string {
	if k, ok := failure.KindOf(err); ok {
		return k.String()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Cancelled"
	}
	return failure.Unknown.String()
}
