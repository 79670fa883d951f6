package scanlift

import (
	"fmt"
	"log/slog"

	"github.com/tsawler/scanlift/config"
	"github.com/tsawler/scanlift/ocr"
	"github.com/tsawler/scanlift/preprocess"
)

// NewFromConfig builds an Extractor from cfg: an engine pool of the
// configured kind and size, and preprocessing when enabled. The Extractor
// owns the pool; Close releases it.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	output, err := ocr.ParseOutputMode(cfg.OCR.Output)
	if err != nil {
		return nil, err
	}

	var newEngine func() (ocr.Engine, error)
	switch cfg.OCR.Engine {
	case config.EngineGosseract:
		newEngine = func() (ocr.Engine, error) {
			g, err := ocr.NewGosseract(ocr.GosseractConfig{
				Language:    cfg.OCR.Language,
				TessdataDir: cfg.OCR.TessdataDir,
				Output:      output,
			}, logger)
			if err != nil {
				return nil, err
			}
			return g, nil
		}
	default:
		newEngine = func() (ocr.Engine, error) {
			return ocr.NewTesseractCLI(ocr.CLIConfig{
				Path:        cfg.OCR.TesseractPath,
				Language:    cfg.OCR.Language,
				TessdataDir: cfg.OCR.TessdataDir,
				Output:      output,
			}, logger), nil
		}
	}

	pool, err := ocr.NewPool(cfg.OCR.PoolSize, newEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s engines: %w", cfg.OCR.Engine, err)
	}

	var pre preprocess.Preprocessor = preprocess.Identity{}
	if cfg.Preprocess.Enabled {
		pre = preprocess.New(preprocess.Config{
			MinWidth:  cfg.Preprocess.MinWidth,
			MaxPixels: cfg.Preprocess.MaxPixels,
		}, logger)
	}

	ex := New(
		WithLogger(logger),
		WithPool(pool),
		WithPreprocessor(pre),
		WithTempDir(cfg.TempDir),
		WithTimeout(cfg.Timeout),
	)
	ex.ownsPool = true
	return ex, nil
}
