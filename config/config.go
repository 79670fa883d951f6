// Package config loads scanlift settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Engine names.
const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// Config holds all scanlift configuration
type Config struct {
	OCR        OCRConfig
	Preprocess PreprocessConfig
	Log        LogConfig
	// TempDir is where preprocessed images are staged. Empty selects os.TempDir.
	TempDir string
	// Timeout bounds a single extraction. Zero disables the limit.
	Timeout time.Duration
}

// OCRConfig holds recognition engine configuration
type OCRConfig struct {
	Engine        string
	TesseractPath string
	Language      string
	TessdataDir   string
	Output        string
	PoolSize      int
}

// PreprocessConfig holds image preprocessing configuration
type PreprocessConfig struct {
	Enabled   bool
	MinWidth  int
	MaxPixels int64
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:        strings.ToLower(getEnv("SCANLIFT_ENGINE", EngineCLI)),
			TesseractPath: getEnv("TESSERACT_PATH", "tesseract"),
			Language:      getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			Output:        strings.ToLower(getEnv("SCANLIFT_OCR_OUTPUT", "text")),
			PoolSize:      getEnvAsInt("SCANLIFT_POOL_SIZE", 2),
		},
		Preprocess: PreprocessConfig{
			Enabled:   getEnvAsBool("SCANLIFT_PREPROCESS", true),
			MinWidth:  getEnvAsInt("SCANLIFT_MIN_WIDTH", 1000),
			MaxPixels: getEnvAsInt64("SCANLIFT_MAX_PIXELS", 40_000_000),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
		TempDir: getEnv("SCANLIFT_TEMP_DIR", ""),
		Timeout: getEnvAsDuration("SCANLIFT_TIMEOUT", 2*time.Minute),
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.OCR.Engine {
	case EngineCLI, EngineGosseract:
	default:
		errs = append(errs, fmt.Errorf("SCANLIFT_ENGINE: unknown engine %q (want %s or %s)", c.OCR.Engine, EngineCLI, EngineGosseract))
	}
	switch c.OCR.Output {
	case "text", "hocr":
	default:
		errs = append(errs, fmt.Errorf("SCANLIFT_OCR_OUTPUT: unknown output %q (want text or hocr)", c.OCR.Output))
	}
	if c.OCR.Language == "" {
		errs = append(errs, errors.New("TESSERACT_LANG: must not be empty"))
	}
	if c.OCR.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("SCANLIFT_POOL_SIZE: must be at least 1, got %d", c.OCR.PoolSize))
	}
	if c.Preprocess.MinWidth < 1 {
		errs = append(errs, fmt.Errorf("SCANLIFT_MIN_WIDTH: must be positive, got %d", c.Preprocess.MinWidth))
	}
	if c.Preprocess.MaxPixels < 1 {
		errs = append(errs, fmt.Errorf("SCANLIFT_MAX_PIXELS: must be positive, got %d", c.Preprocess.MaxPixels))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q (want text or json)", c.Log.Format))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("SCANLIFT_TIMEOUT: must not be negative, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds a logger writing to w in the configured format and level.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
