// Package pipeline recovers text from a raster image by running every
// recognition profile over a preprocessed copy of it, cleaning and scoring
// each result and keeping the best one.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/tsawler/scanlift/failure"
	"github.com/tsawler/scanlift/format"
	"github.com/tsawler/scanlift/internal/tempfile"
	"github.com/tsawler/scanlift/ocr"
	"github.com/tsawler/scanlift/preprocess"
	"github.com/tsawler/scanlift/quality"
	"github.com/tsawler/scanlift/sanitize"
)

// Config configures a Pipeline. Zero fields take their defaults.
type Config struct {
	// Preprocessor defaults to preprocess.Identity.
	Preprocessor preprocess.Preprocessor
	// Profiles defaults to ocr.DefaultProfiles.
	Profiles []ocr.Profile
	Cleaner  *sanitize.Cleaner
	Scorer   *quality.Scorer
	// TempDir is where the preprocessed image is staged. Empty selects os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

// Pipeline is the multi-profile OCR pipeline. It is safe for concurrent use;
// each call to Recognize brings its own engine.
type Pipeline struct {
	pre      preprocess.Preprocessor
	profiles []ocr.Profile
	cleaner  *sanitize.Cleaner
	scorer   *quality.Scorer
	tempDir  string
	logger   *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	p := &Pipeline{
		pre:      cfg.Preprocessor,
		profiles: cfg.Profiles,
		cleaner:  cfg.Cleaner,
		scorer:   cfg.Scorer,
		tempDir:  cfg.TempDir,
		logger:   cfg.Logger,
	}
	if p.pre == nil {
		p.pre = preprocess.Identity{}
	}
	if len(p.profiles) == 0 {
		p.profiles = ocr.DefaultProfiles()
	}
	if p.cleaner == nil {
		p.cleaner = sanitize.NewCleaner(sanitize.DefaultConfig())
	}
	if p.scorer == nil {
		p.scorer = quality.NewScorer(quality.DefaultConfig())
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// WithLogger returns a copy of p that logs to logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	c := *p
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// Profiles returns the profiles the pipeline runs, in order.
func (p *Pipeline) Profiles() []ocr.Profile {
	return append([]ocr.Profile(nil), p.profiles...)
}

// Outcome is the result of a successful Recognize call.
type Outcome struct {
	Best Candidate
	// Candidates holds every successful profile's candidate in profile order.
	Candidates []Candidate
	Attempts   []ocr.Attempt
	Image      preprocess.Image
	Duration   time.Duration
}

// Recognize extracts text from the encoded image data using engine.
//
// An empty payload fails with failure.NoExtractableText before the engine is
// invoked. When every profile fails the error kind is
// failure.ExtractionEngineFailure; when profiles ran but produced nothing
// usable it is failure.NoExtractableText.
func (p *Pipeline) Recognize(ctx context.Context, engine ocr.Engine, data []byte) (*Outcome, error) {
	start := time.Now()
	if len(data) == 0 {
		return nil, failure.New(failure.NoExtractableText, "image payload is empty", nil)
	}

	img := p.pre.Preprocess(ctx, data)

	scope := tempfile.NewScope(p.tempDir)
	defer func() {
		if err := scope.Cleanup(); err != nil {
			p.logger.Warn("temporary file cleanup failed", "error", err)
		}
	}()

	path, err := scope.Write("scanlift-*"+stagedExtension(img), img.Data)
	if err != nil {
		return nil, failure.New(failure.ExtractionEngineFailure, "could not stage image for recognition", err)
	}

	attempts := ocr.Run(ctx, engine, ocr.Image{Data: img.Data, Path: path}, p.profiles, p.logger)
	succeeded := ocr.Succeeded(attempts)
	if len(succeeded) == 0 {
		return nil, failure.Newf(failure.ExtractionEngineFailure, ocr.FirstError(attempts),
			"all %d recognition profiles failed", len(attempts))
	}

	cands := make([]Candidate, 0, len(succeeded))
	for i, a := range attempts {
		if !a.OK() {
			continue
		}
		cleaned := p.cleaner.Clean(a.Recognition.Text)
		cands = append(cands, Candidate{
			RawText:          a.Recognition.Text,
			CleanedText:      cleaned,
			QualityScore:     p.scorer.Score(cleaned),
			ProfileName:      a.Profile.Name,
			Order:            i,
			EngineConfidence: a.Recognition.Confidence,
		})
	}

	best, err := Select(cands)
	if err != nil {
		return nil, err
	}

	p.logger.Info("selected recognition candidate",
		"engine", engine.Name(),
		"profile", best.ProfileName,
		"score", best.QualityScore,
		"confidence", best.EngineConfidence,
		"candidates", len(cands),
		"upscale", img.Scale,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Outcome{
		Best:       best,
		Candidates: cands,
		Attempts:   attempts,
		Image:      img,
		Duration:   time.Since(start),
	}, nil
}

func stagedExtension(img preprocess.Image) string {
	if img.Applied {
		return ".png"
	}
	if ext := format.DetectFromMagic(img.Data).Extension(); ext != "" {
		return ext
	}
	return ".img"
}
