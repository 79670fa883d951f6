// Package sanitize strips OCR artifacts and social-media interface chrome
// from recognized text.
//
// Cleaning is line oriented and never introduces new lines: every line of the
// output is a (possibly trimmed or glyph-stripped) line of the input.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config holds the density filter thresholds.
type Config struct {
	// MinLineLength is the minimum trimmed rune length of a kept line.
	MinLineLength int
	// MinDensity is the minimum ratio of letters and digits to line length.
	MinDensity float64
}

// DefaultConfig returns the thresholds used by Clean.
func DefaultConfig() Config {
	return Config{
		MinLineLength: 3,
		MinDensity:    0.3,
	}
}

var (
	// Lines made of one or two isolated noise glyphs, e.g. "|" or "»,".
	reNoiseGlyphLine = regexp.MustCompile(`^\s*[^\p{L}\p{N}_\s]{1,2}\s*$`)

	// Glyphs that are almost always icons misread as text.
	reIconGlyphs = regexp.MustCompile(`[|~\^¬¦©®™€£¥¢§¶•·●○◦■□▪▫◆◇★☆✓✔✗✘➤►▶◀◄→←↑↓]`)

	// "54 others", "12 comments · 3 reposts", "and 1.2K others".
	reMetricRun = regexp.MustCompile(`(?i)^\s*(?:and\s+)?(?:\d[\d,.]*\s*[km]?\s+(?:others?|comments?|reposts?|shares?|likes?|reactions?|views?)\b[\s,\-]*)+$`)

	// "Jane Doe and 54 others 5 comments": one to three capitalized names,
	// optionally followed only by further metrics.
	reNamedOthers = regexp.MustCompile(`^\s*\p{Lu}[\p{L}'.\-]*(?:\s+\p{Lu}[\p{L}'.\-]*){0,2}\s+(?i:and)\s+\d[\d,.]*\s*[kKmM]?\s+(?i:others?)\b(?:[\s,\-]*\d[\d,.]*\s*[kKmM]?\s+(?i:comments?|reposts?|shares?|likes?|reactions?|views?)\b)*[\s,.\-]*$`)

	// Bare action buttons, alone or in a row: "Like Comment Repost Send".
	reActionLabels = regexp.MustCompile(`(?i)^\s*(?:like|comment|share|repost|send)(?:[\s,]+(?:like|comment|share|repost|send))*\s*$`)

	reHorizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	reBlankRuns       = regexp.MustCompile(`\n{3,}`)

	quoteReplacer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"„", `"`,
		"‟", `"`,
		"″", `"`,
		"‘", "'",
		"’", "'",
		"‚", "'",
		"‛", "'",
		"′", "'",
	)
)

// Cleaner sanitizes recognized text. The zero value is not usable; use
// NewCleaner or the package-level Clean.
type Cleaner struct {
	cfg Config
}

// NewCleaner creates a Cleaner. Non-positive thresholds fall back to the defaults.
func NewCleaner(cfg Config) *Cleaner {
	def := DefaultConfig()
	if cfg.MinLineLength <= 0 {
		cfg.MinLineLength = def.MinLineLength
	}
	if cfg.MinDensity <= 0 {
		cfg.MinDensity = def.MinDensity
	}
	return &Cleaner{cfg: cfg}
}

var defaultCleaner = NewCleaner(DefaultConfig())

// Clean sanitizes raw text with the default thresholds.
func Clean(raw string) string {
	return defaultCleaner.Clean(raw)
}

// Config returns the thresholds in use.
func (c *Cleaner) Config() Config {
	return c.cfg
}

// Clean applies, in order: noise glyph line removal, symbol-only line
// removal, icon glyph stripping, quote normalization, engagement metric
// removal, the density filter and whitespace collapsing.
func (c *Cleaner) Clean(raw string) string {
	if raw == "" {
		return ""
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isNoiseGlyphLine(line) || isSymbolOnlyLine(line) {
			continue
		}

		line = reIconGlyphs.ReplaceAllString(line, "")
		line = quoteReplacer.Replace(line)

		if IsEngagementLine(line) {
			continue
		}
		if !c.passesDensity(line) {
			continue
		}

		line = reHorizontalSpace.ReplaceAllString(line, " ")
		kept = append(kept, strings.TrimSpace(line))
	}

	out := strings.Join(kept, "\n")
	out = reBlankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// IsEngagementLine reports whether a line looks like social-media engagement
// chrome: reaction counts, "X and N others", or bare action buttons.
func IsEngagementLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	return reMetricRun.MatchString(line) ||
		reNamedOthers.MatchString(line) ||
		reActionLabels.MatchString(line)
}

func isNoiseGlyphLine(line string) bool {
	return reNoiseGlyphLine.MatchString(line)
}

// isSymbolOnlyLine reports lines of three or more symbols without any word
// character, such as decorative borders.
func isSymbolOnlyLine(line string) bool {
	symbols := 0
	for _, r := range line {
		switch {
		case isWordRune(r):
			return false
		case unicode.IsSpace(r):
		default:
			symbols++
		}
	}
	return symbols >= 3
}

// passesDensity keeps blank lines (paragraph separators) and lines that are
// long and alphanumeric enough to be content.
func (c *Cleaner) passesDensity(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	n := utf8.RuneCountInString(trimmed)
	if n < c.cfg.MinLineLength {
		return false
	}
	return Density(trimmed) >= c.cfg.MinDensity
}

// Density returns the ratio of letters and digits to the rune length of s.
// An empty string has density 0.
func Density(s string) float64 {
	total, alnum := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
