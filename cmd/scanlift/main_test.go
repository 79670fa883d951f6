package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/scanlift"
	"github.com/tsawler/scanlift/config"
	"github.com/tsawler/scanlift/failure"
	"github.com/tsawler/scanlift/format"
)

type fakeExtractor struct {
	results map[string]*scanlift.Result
	errs    map[string]error
	closed  bool
}

func (f *fakeExtractor) ExtractFile(_ context.Context, path string) (*scanlift.Result, error) {
	name := filepath.Base(path)
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	return f.results[name], nil
}

func (f *fakeExtractor) Close() error {
	f.closed = true
	return nil
}

// run executes the command tree with args and returns stdout, stderr and the
// configuration the extractor was built with.
func run(t *testing.T, fake *fakeExtractor, args ...string) (string, string, *config.Config, error) {
	t.Helper()
	for _, k := range []string{"SCANLIFT_ENGINE", "TESSERACT_LANG", "SCANLIFT_OCR_OUTPUT", "SCANLIFT_POOL_SIZE", "SCANLIFT_PREPROCESS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	var got *config.Config
	a := newApp()
	a.newExtractor = func(cfg *config.Config, _ *slog.Logger) (extractor, error) {
		got = cfg
		return fake, nil
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), got, err
}

func TestExtract_Text(t *testing.T) {
	fake := &fakeExtractor{results: map[string]*scanlift.Result{
		"a.png": {Text: "Hello World", Kind: format.PNG, Method: scanlift.MethodOCR, Warnings: []string{"looks off"}},
	}}
	stdout, stderr, _, err := run(t, fake, "extract", "testdata/a.png")
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if stdout != "Hello World\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "a.png: warning: looks off") {
		t.Errorf("stderr = %q, want the warning", stderr)
	}
	if !fake.closed {
		t.Error("extractor was not closed")
	}
}

func TestExtract_MultipleFilesWithHeaders(t *testing.T) {
	fake := &fakeExtractor{results: map[string]*scanlift.Result{
		"a.pdf": {Text: "first"},
		"b.pdf": {Text: "second"},
	}}
	stdout, _, _, err := run(t, fake, "extract", "a.pdf", "b.pdf")
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	want := "==> a.pdf <==\nfirst\n==> b.pdf <==\nsecond\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestExtract_JSON(t *testing.T) {
	fake := &fakeExtractor{
		results: map[string]*scanlift.Result{
			"ok.pdf": {Text: "Quarterly Report", Kind: format.PDF, Method: scanlift.MethodPDFText, Pages: 2, Retried: true, Duration: 1500 * time.Millisecond},
		},
		errs: map[string]error{
			"scan.pdf": failure.New(failure.NoExtractableText, "no text layer", nil),
			"gone.pdf": errors.New("open gone.pdf: no such file"),
		},
	}
	stdout, _, _, err := run(t, fake, "extract", "--json", "ok.pdf", "scan.pdf", "gone.pdf")
	if err == nil || !strings.Contains(err.Error(), "2 of 3 files failed") {
		t.Fatalf("error = %v, want failure summary", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d JSON lines, want 3:\n%s", len(lines), stdout)
	}
	var results []fileResult
	for _, l := range lines {
		var fr fileResult
		if err := json.Unmarshal([]byte(l), &fr); err != nil {
			t.Fatalf("invalid JSON line %q: %v", l, err)
		}
		results = append(results, fr)
	}

	ok := results[0]
	if ok.Text != "Quarterly Report" || ok.Kind != "PDF" || ok.Method != "pdf-text" || ok.Pages != 2 || !ok.Retried || ok.DurationMS != 1500 {
		t.Errorf("unexpected success result: %+v", ok)
	}
	if ok.Error != nil {
		t.Errorf("success result carries an error: %+v", ok.Error)
	}

	scan := results[1]
	if scan.Error == nil || scan.Error.Kind != "NoExtractableText" || !strings.Contains(scan.Error.Suggestion, "OCR") {
		t.Errorf("unexpected failure result: %+v", scan.Error)
	}

	gone := results[2]
	if gone.Error == nil || gone.Error.Kind != "Unknown" || gone.Error.Suggestion != "" {
		t.Errorf("unexpected plain error result: %+v", gone.Error)
	}
}

func TestExtract_FailureTextOutput(t *testing.T) {
	fake := &fakeExtractor{errs: map[string]error{
		"notes.txt": failure.New(failure.UnsupportedFileType, "unsupported file type", nil),
	}}
	stdout, stderr, _, err := run(t, fake, "extract", "notes.txt")
	if err == nil {
		t.Fatal("expected an error")
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "notes.txt: unsupported file type") || !strings.Contains(stderr, "suggestion:") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExtract_FlagsOverrideEnv(t *testing.T) {
	fake := &fakeExtractor{results: map[string]*scanlift.Result{"a.png": {Text: "x"}}}
	_, _, cfg, err := run(t, fake, "extract",
		"--engine", "gosseract",
		"--lang", "eng+deu",
		"--output", "hocr",
		"--pool", "4",
		"--no-preprocess",
		"--timeout", "30s",
		"--log-level", "debug",
		"a.png",
	)
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if cfg.OCR.Engine != "gosseract" || cfg.OCR.Language != "eng+deu" || cfg.OCR.Output != "hocr" || cfg.OCR.PoolSize != 4 {
		t.Errorf("OCR config = %+v", cfg.OCR)
	}
	if cfg.Preprocess.Enabled {
		t.Error("--no-preprocess should disable preprocessing")
	}
	if cfg.Timeout != 30*time.Second || cfg.Log.Level != "debug" {
		t.Errorf("Timeout = %s, Log = %+v", cfg.Timeout, cfg.Log)
	}
}

func TestExtract_EnvDefaultsKept(t *testing.T) {
	fake := &fakeExtractor{results: map[string]*scanlift.Result{"a.png": {Text: "x"}}}
	_, _, cfg, err := run(t, fake, "extract", "a.png")
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if cfg.OCR.Engine != config.EngineCLI || cfg.OCR.PoolSize != 2 || !cfg.Preprocess.Enabled {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestExtract_RequiresFile(t *testing.T) {
	if _, _, _, err := run(t, &fakeExtractor{}, "extract"); err == nil {
		t.Error("expected an argument error")
	}
}

func TestProfiles(t *testing.T) {
	stdout, _, _, err := run(t, &fakeExtractor{}, "profiles")
	if err != nil {
		t.Fatalf("profiles error = %v", err)
	}
	for _, want := range []string{"NAME", "single-block", "auto", "sparse", "single-block-legacy"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("profiles output missing %q:\n%s", want, stdout)
		}
	}
}

func TestConfig(t *testing.T) {
	stdout, _, _, err := run(t, &fakeExtractor{}, "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(stdout, "engine") || !strings.Contains(stdout, "cli") {
		t.Errorf("config output = %q", stdout)
	}

	t.Setenv("SCANLIFT_ENGINE", "paddle")
	a := newApp()
	root := newRootCmd(a)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "SCANLIFT_ENGINE") {
		t.Errorf("config with invalid engine error = %v", err)
	}
}

func TestConfigJSON(t *testing.T) {
	stdout, _, _, err := run(t, &fakeExtractor{}, "config", "--json")
	if err != nil {
		t.Fatalf("config --json error = %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(stdout), &cfg); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if cfg.OCR.Language != "eng" {
		t.Errorf("Language = %q", cfg.OCR.Language)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, _, err := run(t, &fakeExtractor{}, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(stdout, "scanlift "+scanlift.Version) {
		t.Errorf("version output = %q", stdout)
	}
}
