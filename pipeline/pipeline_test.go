package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/scanlift/failure"
	"github.com/tsawler/scanlift/ocr"
	"github.com/tsawler/scanlift/preprocess"
)

type fakeEngine struct {
	texts map[string]string
	errs  map[string]error
	err   error

	calls      []string
	paths      []string
	pathExists []bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, img ocr.Image, p ocr.Profile) (ocr.Recognition, error) {
	f.calls = append(f.calls, p.Name)
	f.paths = append(f.paths, img.Path)
	_, statErr := os.Stat(img.Path)
	f.pathExists = append(f.pathExists, statErr == nil)

	if f.err != nil {
		return ocr.Recognition{}, f.err
	}
	if err := f.errs[p.Name]; err != nil {
		return ocr.Recognition{}, err
	}
	return ocr.Recognition{Text: f.texts[p.Name]}, nil
}

func (f *fakeEngine) Close() error { return nil }

// renderText draws text scaled up from a bitmap font onto a white canvas of
// the given size and returns it PNG encoded.
func renderText(t *testing.T, width, height int, text string) []byte {
	t.Helper()
	small := image.NewRGBA(image.Rect(0, 0, len(text)*7+8, 20))
	draw.Draw(small, small.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 15),
	}
	d.DrawString(text)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	scale := (width - 20) / small.Bounds().Dx()
	if s := (height - 20) / small.Bounds().Dy(); s < scale {
		scale = s
	}
	if scale < 1 {
		scale = 1
	}
	dst := image.Rect(10, 10, 10+small.Bounds().Dx()*scale, 10+small.Bounds().Dy()*scale)
	xdraw.NearestNeighbor.Scale(img, dst, small, small.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// assertNoStagedFiles fails the test if anything is left in dir.
func assertNoStagedFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("staged file %s left behind", e.Name())
	}
}

func TestRecognize_SelectsBestCandidate(t *testing.T) {
	e := &fakeEngine{texts: map[string]string{
		"single-block":        "H3ll0 W0r|d ~~ ●",
		"auto":                "Hello World\nThis receipt totals forty dollars.",
		"sparse":              "Hello\n\nWorld",
		"single-block-legacy": "He llo Wo rld",
	}}
	dir := t.TempDir()
	p := New(Config{TempDir: dir})

	out, err := p.Recognize(context.Background(), e, renderText(t, 500, 80, "Hello World"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if out.Best.ProfileName != "auto" {
		t.Errorf("Best = %s (%q), want auto", out.Best.ProfileName, out.Best.CleanedText)
	}
	if !strings.Contains(out.Best.CleanedText, "Hello World") {
		t.Errorf("best text %q missing Hello World", out.Best.CleanedText)
	}
	if len(out.Candidates) != 4 {
		t.Errorf("len(Candidates) = %d, want 4", len(out.Candidates))
	}
	for i, c := range out.Candidates {
		if c.Order != i {
			t.Errorf("candidate %s Order = %d, want %d", c.ProfileName, c.Order, i)
		}
	}

	wantCalls := []string{"single-block", "auto", "sparse", "single-block-legacy"}
	if strings.Join(e.calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("engine calls = %v, want %v", e.calls, wantCalls)
	}
	for i, path := range e.paths {
		if !e.pathExists[i] {
			t.Errorf("staged image %s missing during recognition", path)
		}
		if filepath.Dir(path) != dir {
			t.Errorf("image staged in %s, want %s", filepath.Dir(path), dir)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("staged image %s not removed after Recognize", path)
		}
	}
	assertNoStagedFiles(t, dir)
}

func TestRecognize_UpscalesSmallImage(t *testing.T) {
	e := &fakeEngine{texts: map[string]string{"single-block": "Hello World"}}
	p := New(Config{
		Preprocessor: preprocess.New(preprocess.DefaultConfig(), nil),
		Profiles:     ocr.DefaultProfiles()[:1],
		TempDir:      t.TempDir(),
	})

	out, err := p.Recognize(context.Background(), e, renderText(t, 500, 80, "Hello World"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if !out.Image.Applied || out.Image.Scale < 2 {
		t.Errorf("preprocessing not applied as expected: applied=%v scale=%d", out.Image.Applied, out.Image.Scale)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Image.Data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width < 1000 {
		t.Errorf("preprocessed width = %d, want >= 1000", cfg.Width)
	}
	if !strings.HasSuffix(e.paths[0], ".png") {
		t.Errorf("staged path %s should be a PNG", e.paths[0])
	}
}

func TestRecognize_IconNoiseOnly(t *testing.T) {
	e := &fakeEngine{texts: map[string]string{
		"single-block":        "●●●",
		"auto":                "●●●",
		"sparse":              "● ● ●",
		"single-block-legacy": "",
	}}
	dir := t.TempDir()
	p := New(Config{TempDir: dir})

	_, err := p.Recognize(context.Background(), e, renderText(t, 200, 40, "x"))
	if !failure.IsKind(err, failure.NoExtractableText) {
		t.Fatalf("error = %v, want NoExtractableText", err)
	}
	var fe *failure.Error
	if !errors.As(err, &fe) || fe.Suggestion == "" {
		t.Error("failure should carry a suggestion")
	}
	if len(e.calls) != 4 || !e.pathExists[0] {
		t.Errorf("engine calls = %v, staged image present = %v", e.calls, e.pathExists)
	}
	assertNoStagedFiles(t, dir)
}

func TestRecognize_EmptyPayload(t *testing.T) {
	e := &fakeEngine{}
	p := New(Config{TempDir: t.TempDir()})

	_, err := p.Recognize(context.Background(), e, nil)
	if !failure.IsKind(err, failure.NoExtractableText) {
		t.Fatalf("error = %v, want NoExtractableText", err)
	}
	if len(e.calls) != 0 {
		t.Errorf("engine invoked %d times for an empty payload", len(e.calls))
	}
}

func TestRecognize_AllProfilesFail(t *testing.T) {
	boom := errors.New("tesseract: exit status 1")
	e := &fakeEngine{err: boom}
	dir := t.TempDir()
	p := New(Config{TempDir: dir})

	_, err := p.Recognize(context.Background(), e, renderText(t, 200, 40, "x"))
	if !failure.IsKind(err, failure.ExtractionEngineFailure) {
		t.Fatalf("error = %v, want ExtractionEngineFailure", err)
	}
	if !errors.Is(err, boom) {
		t.Error("engine error should be preserved as the cause")
	}
	if len(e.calls) != 4 {
		t.Errorf("engine called %d times, want every profile tried", len(e.calls))
	}
	assertNoStagedFiles(t, dir)
}

func TestRecognize_PartialFailure(t *testing.T) {
	e := &fakeEngine{
		texts: map[string]string{"sparse": "Invoice number 42 due today"},
		errs: map[string]error{
			"single-block":        errors.New("crash"),
			"auto":                errors.New("crash"),
			"single-block-legacy": errors.New("no legacy data"),
		},
	}
	dir := t.TempDir()
	p := New(Config{TempDir: dir})

	out, err := p.Recognize(context.Background(), e, renderText(t, 200, 40, "x"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if out.Best.ProfileName != "sparse" || out.Best.Order != 2 {
		t.Errorf("Best = %+v, want sparse with order 2", out.Best)
	}
	if len(out.Candidates) != 1 || len(out.Attempts) != 4 {
		t.Errorf("candidates = %d, attempts = %d", len(out.Candidates), len(out.Attempts))
	}
	assertNoStagedFiles(t, dir)
}

func TestRecognize_CancelledContextCleansUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &fakeEngine{}
	dir := t.TempDir()
	p := New(Config{TempDir: dir})

	_, err := p.Recognize(ctx, e, renderText(t, 200, 40, "x"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled as the cause", err)
	}
	if len(e.calls) != 0 {
		t.Errorf("engine invoked %d times after cancellation", len(e.calls))
	}
	assertNoStagedFiles(t, dir)
}

func TestRecognize_StagingFailure(t *testing.T) {
	e := &fakeEngine{}
	p := New(Config{TempDir: filepath.Join(t.TempDir(), "missing")})

	_, err := p.Recognize(context.Background(), e, renderText(t, 200, 40, "x"))
	if !failure.IsKind(err, failure.ExtractionEngineFailure) {
		t.Fatalf("error = %v, want ExtractionEngineFailure", err)
	}
	if len(e.calls) != 0 {
		t.Error("engine should not run without a staged image")
	}
}

func TestRecognize_Tesseract(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}

	engine := ocr.NewTesseractCLI(ocr.CLIConfig{}, nil)
	p := New(Config{
		Preprocessor: preprocess.New(preprocess.DefaultConfig(), nil),
		TempDir:      t.TempDir(),
	})

	out, err := p.Recognize(context.Background(), engine, renderText(t, 500, 80, "Hello World"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if out.Image.Scale < 2 {
		t.Errorf("Scale = %d, want >= 2", out.Image.Scale)
	}

	found := false
	for _, c := range out.Candidates {
		if strings.Contains(c.CleanedText, "Hello World") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no candidate contains Hello World: %+v", out.Candidates)
	}
	if !strings.Contains(out.Best.CleanedText, "Hello World") {
		t.Errorf("selected candidate %s = %q", out.Best.ProfileName, out.Best.CleanedText)
	}
}
