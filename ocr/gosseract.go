//go:build ocr

package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

var _ Engine = (*Gosseract)(nil)

// Gosseract is an Engine backed by libtesseract through gosseract.
//
// The engine mode is an init-only Tesseract variable, so it is applied
// through a generated config file per mode; switching profiles re-initializes
// the underlying API when the mode changes.
type Gosseract struct {
	client    *gosseract.Client
	cfg       GosseractConfig
	configDir string
	ownsDir   bool
	modeFiles map[EngineMode]string
	logger    *slog.Logger
}

// NewGosseract creates a Gosseract engine.
// The engine should be closed when no longer needed to release resources.
func NewGosseract(cfg GosseractConfig, logger *slog.Logger) (*Gosseract, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Output == "" {
		cfg.Output = OutputText
	}

	g := &Gosseract{
		cfg:       cfg,
		configDir: cfg.ConfigDir,
		modeFiles: make(map[EngineMode]string),
		logger:    logger,
	}
	if g.configDir == "" {
		dir, err := os.MkdirTemp("", "scanlift-oem-*")
		if err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
		g.configDir, g.ownsDir = dir, true
	}

	client := gosseract.NewClient()
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			client.Close()
			g.removeConfigDir()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		g.removeConfigDir()
		return nil, fmt.Errorf("set language: %w", err)
	}
	g.client = client
	return g, nil
}

// Name returns "gosseract".
func (g *Gosseract) Name() string { return "gosseract" }

// Recognize runs libtesseract on img under profile p.
func (g *Gosseract) Recognize(ctx context.Context, img Image, p Profile) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}

	if err := g.client.SetPageSegMode(gosseract.PageSegMode(p.PageSegMode)); err != nil {
		return Recognition{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	cfgFile, err := g.modeFile(p.EngineMode)
	if err != nil {
		return Recognition{}, err
	}
	if err := g.client.SetConfigFile(cfgFile); err != nil {
		return Recognition{}, fmt.Errorf("set engine mode: %w", err)
	}

	switch {
	case len(img.Data) > 0:
		err = g.client.SetImageFromBytes(img.Data)
	case img.Path != "":
		err = g.client.SetImage(img.Path)
	default:
		err = errors.New("image is empty")
	}
	if err != nil {
		return Recognition{}, fmt.Errorf("failed to set image: %w", err)
	}

	if g.cfg.Output == OutputHOCR {
		out, err := g.client.HOCRText()
		if err != nil {
			return Recognition{}, fmt.Errorf("OCR failed: %w", err)
		}
		return recognitionFromOutput(out, OutputHOCR)
	}

	text, err := g.client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("OCR failed: %w", err)
	}
	return Recognition{
		Text:       strings.TrimSpace(text),
		Confidence: g.meanWordConfidence(),
	}, nil
}

func (g *Gosseract) meanWordConfidence() float64 {
	boxes, err := g.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}

// modeFile returns the config file that selects engine mode m, writing it on
// first use.
func (g *Gosseract) modeFile(m EngineMode) (string, error) {
	if path, ok := g.modeFiles[m]; ok {
		return path, nil
	}
	path := filepath.Join(g.configDir, fmt.Sprintf("oem%d.config", int(m)))
	content := fmt.Sprintf("tessedit_ocr_engine_mode %d\n", int(m))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write engine mode config: %w", err)
	}
	g.modeFiles[m] = path
	return path, nil
}

// Close releases OCR resources.
func (g *Gosseract) Close() error {
	var err error
	if g.client != nil {
		err = g.client.Close()
	}
	g.removeConfigDir()
	return err
}

func (g *Gosseract) removeConfigDir() {
	if !g.ownsDir {
		return
	}
	if err := os.RemoveAll(g.configDir); err != nil {
		g.logger.Warn("failed to remove engine config dir", "dir", g.configDir, "error", err)
	}
}
