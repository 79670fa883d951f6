package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tsawler/scanlift"
	"github.com/tsawler/scanlift/config"
)

// extractor is the part of *scanlift.Extractor the commands use.
type extractor interface {
	ExtractFile(ctx context.Context, path string) (*scanlift.Result, error)
	Close() error
}

// app carries state shared by the commands.
type app struct {
	cfg       *config.Config
	logLevel  string
	logFormat string

	// newExtractor is replaced in tests.
	newExtractor func(cfg *config.Config, logger *slog.Logger) (extractor, error)
}

func newApp() *app {
	return &app{
		newExtractor: func(cfg *config.Config, logger *slog.Logger) (extractor, error) {
			return scanlift.NewFromConfig(cfg, logger)
		},
	}
}

// newRootCmd builds the command tree.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "scanlift",
		Short: "Recover text from PDFs and scanned images",
		Long: "scanlift reads the text layer of PDFs, rebuilding damaged cross-reference\n" +
			"tables when needed, and runs OCR over PNG and JPEG images with several\n" +
			"recognition profiles, keeping the best scoring result.\n\n" +
			"Settings come from the environment (SCANLIFT_*, TESSERACT_*, LOG_*);\n" +
			"flags override them.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if a.logLevel != "" {
				a.cfg.Log.Level = a.logLevel
			}
			if a.logFormat != "" {
				a.cfg.Log.Format = a.logFormat
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (env LOG_FORMAT)")

	root.AddCommand(
		newExtractCmd(a),
		newProfilesCmd(),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// logger builds the logger for a command. Logs go to stderr so stdout
// carries only extracted text.
func (a *app) logger(w io.Writer) *slog.Logger {
	return a.cfg.Log.NewLogger(w)
}
