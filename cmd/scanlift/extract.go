package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/scanlift"
	"github.com/tsawler/scanlift/config"
	"github.com/tsawler/scanlift/failure"
)

type extractFlags struct {
	json         bool
	engine       string
	lang         string
	tessdata     string
	output       string
	pool         int
	noPreprocess bool
	timeout      time.Duration
}

// fileResult is the JSON form of one extraction.
type fileResult struct {
	File       string       `json:"file"`
	Text       string       `json:"text,omitempty"`
	Kind       string       `json:"kind,omitempty"`
	Method     string       `json:"method,omitempty"`
	Profile    string       `json:"profile,omitempty"`
	Score      float64      `json:"score,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Pages      int          `json:"pages,omitempty"`
	Retried    bool         `json:"retried,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
	DurationMS int64        `json:"duration_ms"`
	Error      *errorResult `json:"error,omitempty"`
}

type errorResult struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func newExtractCmd(a *app) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Extract text from one or more files",
		Example: "  scanlift extract invoice.pdf\n" +
			"  scanlift extract --json --lang deu scan1.png scan2.jpg",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			return a.runExtract(cmd, args, f.json)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.json, "json", false, "print results as JSON lines")
	fl.StringVar(&f.engine, "engine", "", "recognition engine: cli or gosseract (env SCANLIFT_ENGINE)")
	fl.StringVar(&f.lang, "lang", "", "tesseract language, e.g. eng or eng+deu (env TESSERACT_LANG)")
	fl.StringVar(&f.tessdata, "tessdata", "", "tessdata directory (env TESSDATA_PREFIX)")
	fl.StringVar(&f.output, "output", "", "engine output: text or hocr (env SCANLIFT_OCR_OUTPUT)")
	fl.IntVar(&f.pool, "pool", 0, "number of recognition engines (env SCANLIFT_POOL_SIZE)")
	fl.BoolVar(&f.noPreprocess, "no-preprocess", false, "recognize images as uploaded")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-file time limit (env SCANLIFT_TIMEOUT)")
	return cmd
}

// apply copies explicitly set flags over the environment configuration.
func (f *extractFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("engine") {
		cfg.OCR.Engine = f.engine
	}
	if fl.Changed("lang") {
		cfg.OCR.Language = f.lang
	}
	if fl.Changed("tessdata") {
		cfg.OCR.TessdataDir = f.tessdata
	}
	if fl.Changed("output") {
		cfg.OCR.Output = f.output
	}
	if fl.Changed("pool") {
		cfg.OCR.PoolSize = f.pool
	}
	if f.noPreprocess {
		cfg.Preprocess.Enabled = false
	}
	if fl.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
}

func (a *app) runExtract(cmd *cobra.Command, files []string, asJSON bool) error {
	logger := a.logger(cmd.ErrOrStderr())
	ex, err := a.newExtractor(a.cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ex.Close(); cerr != nil {
			logger.Warn("failed to close extractor", "error", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	failed := 0
	for _, path := range files {
		res, err := ex.ExtractFile(cmd.Context(), path)
		if err != nil {
			failed++
		}
		if asJSON {
			if eerr := enc.Encode(toFileResult(path, res, err)); eerr != nil {
				return eerr
			}
			continue
		}
		printText(out, cmd.ErrOrStderr(), path, res, err, len(files) > 1)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func toFileResult(path string, res *scanlift.Result, err error) fileResult {
	fr := fileResult{File: path}
	if err != nil {
		fr.Error = toErrorResult(err)
		return fr
	}
	fr.Text = res.Text
	fr.Kind = res.Kind.String()
	fr.Method = string(res.Method)
	fr.Profile = res.Profile
	fr.Score = res.Score
	fr.Confidence = res.Confidence
	fr.Pages = res.Pages
	fr.Retried = res.Retried
	fr.Warnings = res.Warnings
	fr.DurationMS = res.Duration.Milliseconds()
	return fr
}

func toErrorResult(err error) *errorResult {
	var fe *failure.Error
	if errors.As(err, &fe) {
		msg := fe.Message
		if fe.Cause != nil {
			msg += ": " + fe.Cause.Error()
		}
		return &errorResult{Kind: fe.Kind.String(), Message: msg, Suggestion: fe.Suggestion}
	}
	return &errorResult{Kind: failure.Unknown.String(), Message: err.Error()}
}

func printText(out, errOut io.Writer, path string, res *scanlift.Result, err error, header bool) {
	name := filepath.Base(path)
	if err != nil {
		e := toErrorResult(err)
		fmt.Fprintf(errOut, "%s: %s\n", name, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(errOut, "  suggestion: %s\n", e.Suggestion)
		}
		return
	}
	if header {
		fmt.Fprintf(out, "==> %s <==\n", name)
	}
	fmt.Fprintln(out, res.Text)
	for _, w := range res.Warnings {
		fmt.Fprintf(errOut, "%s: warning: %s\n", name, w)
	}
}
