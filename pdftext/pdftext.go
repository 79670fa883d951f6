// Package pdftext extracts the text layer of a PDF.
//
// Extraction is an explicit state machine. A default parse is attempted
// first; structural damage leads to a single relaxed retry that rebuilds the
// cross-reference table from the object headers in the file. The extracted
// text is then normalized, and an empty result is reported as an image-only
// document so the caller can route it to OCR.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/tsawler/scanlift/failure"
)

// Result is the text recovered from a PDF.
type Result struct {
	Text  string
	Pages int
	// Trace lists the states visited, in order, ending with StateDone.
	Trace []State
}

// Retried reports whether the relaxed retry was needed.
func (r *Result) Retried() bool {
	for _, s := range r.Trace {
		if s == StateRetry {
			return true
		}
	}
	return false
}

// ParseFunc extracts the text of every page of a PDF and reports the page
// count. Implementations may panic on malformed input.
type ParseFunc func(data []byte) (text string, pages int, err error)

// Extractor runs the extraction state machine. It is safe for concurrent use.
type Extractor struct {
	parse  ParseFunc
	logger *slog.Logger
}

// New creates an Extractor backed by github.com/ledongthuc/pdf.
func New(logger *slog.Logger) *Extractor {
	return NewWithParser(NewParser(logger), logger)
}

// NewWithParser creates an Extractor that uses parse for both the default
// and the relaxed pass.
func NewWithParser(parse ParseFunc, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{parse: parse, logger: logger}
}

// Extract recovers the text of the PDF in data. Failures are *failure.Error
// values of kind StructuralCorruption, EncryptedDocument or
// NoExtractableText; a cancelled ctx returns ctx.Err().
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()

	var (
		state   = StateParse
		trace   []State
		raw     string
		text    string
		pages   int
		failErr error
	)

	for {
		trace = append(trace, state)

		switch state {
		case StateParse:
			var err error
			raw, pages, err = e.safeParse(data)
			ev := classify(err)
			if err != nil {
				e.logger.Debug("default PDF parse failed", "event", ev.String(), "error", err)
				failErr = parseFailure(ev, err)
			}
			state = transition(state, ev)

		case StateRetry:
			var err error
			repaired, rerr := Repair(data)
			if rerr != nil {
				err = rerr
			} else {
				raw, pages, err = e.safeParse(repaired)
			}
			ev := classify(err)
			if err != nil {
				e.logger.Warn("relaxed PDF parse failed", "event", ev.String(), "error", err)
				failErr = retryFailure(ev, err)
			} else {
				e.logger.Info("recovered PDF by rebuilding cross-reference table", "pages", pages)
			}
			state = transition(state, ev)

		case StateNormalize:
			text = Normalize(raw)
			ev := EventText
			if text == "" {
				ev = EventEmpty
				failErr = failure.New(failure.NoExtractableText,
					"PDF has no text layer; it is likely an image-only or scanned document", nil)
			}
			state = transition(state, ev)

		case StateFail:
			if failErr == nil {
				failErr = failure.New(failure.StructuralCorruption, "PDF extraction failed", nil)
			}
			return nil, failErr

		case StateDone:
			e.logger.Debug("extracted PDF text",
				"pages", pages,
				"chars", len(text),
				"trace", fmt.Sprint(trace),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return &Result{Text: text, Pages: pages, Trace: trace}, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func parseFailure(ev Event, err error) error {
	switch ev {
	case EventEncrypted:
		return failure.New(failure.EncryptedDocument, "PDF is encrypted", err)
	default:
		return failure.New(failure.StructuralCorruption, "PDF could not be parsed", err)
	}
}

func retryFailure(ev Event, err error) error {
	if ev == EventEncrypted {
		return failure.New(failure.EncryptedDocument, "PDF is encrypted", err)
	}
	return failure.New(failure.StructuralCorruption,
		"PDF cross-reference data is damaged and could not be rebuilt", err)
}

// panicError is a recovered parser panic.
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("pdf parser panic: %v", p.value)
}

func (e *Extractor) safeParse(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, &panicError{value: r}
		}
	}()
	return e.parse(data)
}

var structuralMarkers = []string{
	"malformed",
	"xref",
	"cross-reference",
	"startxref",
	"trailer",
	"%%eof",
	"not a pdf",
	"repair failed",
}

// classify maps a parser error to an event.
func classify(err error) Event {
	if err == nil {
		return EventParsed
	}
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return EventEncrypted
	}
	var pe *panicError
	if errors.As(err, &pe) {
		return EventStructural
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return EventEncrypted
	}
	for _, m := range structuralMarkers {
		if strings.Contains(msg, m) {
			return EventStructural
		}
	}
	return EventOther
}

// Parse extracts page text with github.com/ledongthuc/pdf. Pages are joined
// by a blank line. Unreadable pages are skipped and logged to slog.Default;
// when no page with content can be read the file is reported as malformed.
func Parse(data []byte) (string, int, error) {
	return parse(data, slog.Default())
}

// NewParser returns a ParseFunc like Parse that logs unreadable pages to logger.
func NewParser(logger *slog.Logger) ParseFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(data []byte) (string, int, error) {
		return parse(data, logger)
	}
}

// pageText is the outcome of reading one page's text.
type pageText struct {
	num  int
	text string
	err  error
}

func parse(data []byte, logger *slog.Logger) (string, int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open PDF: %w", err)
	}

	numPages := r.NumPage()
	pages := make([]pageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		pages = append(pages, pageText{num: i, text: text, err: err})
	}

	text, err := joinPages(pages, logger)
	return text, numPages, err
}

// joinPages joins the readable pages. It fails when every page errored, so
// undecodable content is treated as damage rather than a missing text layer.
func joinPages(pages []pageText, logger *slog.Logger) (string, error) {
	parts := make([]string, 0, len(pages))
	var firstErr error
	failed := 0
	for _, p := range pages {
		if p.err != nil {
			logger.Warn("skipping unreadable PDF page", "page", p.num, "error", p.err)
			failed++
			if firstErr == nil {
				firstErr = p.err
			}
			continue
		}
		parts = append(parts, p.text)
	}
	if failed > 0 && failed == len(pages) {
		return "", fmt.Errorf("malformed PDF: none of %d pages could be decoded: %w", failed, firstErr)
	}
	return strings.Join(parts, "\n\n"), nil
}

var reBlankLines = regexp.MustCompile(`\n{3,}`)

// Normalize converts line endings to LF, collapses runs of three or more
// newlines to a single blank line and trims surrounding whitespace. It is
// idempotent.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
