package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner lets us stub external commands in tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), maxStderr),
		)
	} else {
		r.logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

const maxStderr = 8 << 10

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

// CLIConfig configures TesseractCLI.
type CLIConfig struct {
	// Path is the tesseract binary. Empty selects "tesseract" on $PATH.
	Path        string
	Language    string
	TessdataDir string
	Output      OutputMode
	// Runner executes the binary. Nil selects os/exec.
	Runner CommandRunner
}

// TesseractCLI is an Engine backed by the tesseract command line tool.
type TesseractCLI struct {
	cfg    CLIConfig
	logger *slog.Logger
}

// NewTesseractCLI creates a TesseractCLI engine.
func NewTesseractCLI(cfg CLIConfig, logger *slog.Logger) *TesseractCLI {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		cfg.Path = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Output == "" {
		cfg.Output = OutputText
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner{logger: logger}
	}
	return &TesseractCLI{cfg: cfg, logger: logger}
}

// Name returns "tesseract-cli".
func (e *TesseractCLI) Name() string { return "tesseract-cli" }

// Available reports whether the configured binary can be found.
func (e *TesseractCLI) Available() error {
	if _, err := exec.LookPath(e.cfg.Path); err != nil {
		return fmt.Errorf("tesseract binary %q not found: %w", e.cfg.Path, err)
	}
	return nil
}

// Args returns the command line arguments used to recognize the image at
// path under profile p.
func (e *TesseractCLI) Args(path string, p Profile) []string {
	args := []string{
		path, "stdout",
		"-l", e.cfg.Language,
		"--psm", strconv.Itoa(int(p.PageSegMode)),
		"--oem", strconv.Itoa(int(p.EngineMode)),
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if e.cfg.Output == OutputHOCR {
		args = append(args, "hocr")
	}
	return args
}

// Recognize runs tesseract on img.Path.
func (e *TesseractCLI) Recognize(ctx context.Context, img Image, p Profile) (Recognition, error) {
	if img.Path == "" {
		return Recognition{}, ErrNoImagePath
	}

	stdout, stderr, err := e.cfg.Runner.Run(ctx, e.cfg.Path, e.Args(img.Path, p)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Recognition{}, ctxErr
		}
		msg := strings.TrimSpace(truncate(string(stderr), maxStderr))
		if msg != "" {
			return Recognition{}, fmt.Errorf("tesseract %s: %w: %s", p.Name, err, msg)
		}
		return Recognition{}, fmt.Errorf("tesseract %s: %w", p.Name, err)
	}

	rec, err := recognitionFromOutput(string(stdout), e.cfg.Output)
	if err != nil {
		return Recognition{}, fmt.Errorf("tesseract %s: %w", p.Name, err)
	}
	return rec, nil
}

// Close is a no-op; each invocation runs a fresh process.
func (e *TesseractCLI) Close() error { return nil }
