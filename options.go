package scanlift

import (
	"log/slog"
	"time"

	"github.com/tsawler/scanlift/ocr"
	"github.com/tsawler/scanlift/pdftext"
	"github.com/tsawler/scanlift/preprocess"
	"github.com/tsawler/scanlift/quality"
	"github.com/tsawler/scanlift/sanitize"
)

// options holds Extractor configuration.
type options struct {
	logger       *slog.Logger
	pool         *ocr.Pool
	preprocessor preprocess.Preprocessor
	profiles     []ocr.Profile
	tempDir      string
	scorer       *quality.Scorer
	cleaner      *sanitize.Cleaner
	pdfParser    pdftext.ParseFunc
	timeout      time.Duration
}

// defaultOptions returns the default Extractor options.
func defaultOptions() options {
	return options{
		logger:       slog.Default(),
		pool:         nil, // nil means a single tesseract CLI engine
		preprocessor: nil, // nil means preprocess.Standard with defaults
		profiles:     nil, // nil means ocr.DefaultProfiles
		pdfParser:    nil, // nil means pdftext.NewParser with the Extractor's logger
	}
}

// Option configures an Extractor.
type Option func(*options)

// WithLogger sets the logger. Each extraction logs with a request_id attribute.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPool sets the recognition engine pool. The Extractor does not close a
// pool supplied this way.
func WithPool(p *ocr.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithPreprocessor sets the image preprocessor. Use preprocess.Identity{} to
// disable preprocessing.
func WithPreprocessor(p preprocess.Preprocessor) Option {
	return func(o *options) { o.preprocessor = p }
}

// WithProfiles sets the recognition profiles, in tie-break order.
func WithProfiles(profiles ...ocr.Profile) Option {
	return func(o *options) {
		o.profiles = append([]ocr.Profile(nil), profiles...)
	}
}

// WithTempDir sets the directory preprocessed images are staged in.
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

// WithScorer sets the candidate quality scorer.
func WithScorer(s *quality.Scorer) Option {
	return func(o *options) { o.scorer = s }
}

// WithCleaner sets the recognized text cleaner.
func WithCleaner(c *sanitize.Cleaner) Option {
	return func(o *options) { o.cleaner = c }
}

// WithPDFParser replaces the PDF text parser used by both extraction passes.
func WithPDFParser(parse pdftext.ParseFunc) Option {
	return func(o *options) { o.pdfParser = parse }
}

// WithTimeout bounds each extraction. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}
