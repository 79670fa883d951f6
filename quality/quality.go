// Package quality scores cleaned OCR text so candidates recognized from the
// same image can be ranked.
//
// A score is comparative, not absolute: it only orders candidates produced
// from one input and is not meant to gate acceptance on its own.
package quality

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config holds the weights and thresholds of the composite score.
// The weights are expected to sum to 1.
type Config struct {
	AvgWordLengthWeight float64
	WordFitWeight       float64
	LineDensityWeight   float64

	// AvgWordLengthNorm divides the average word length; results above 1 are capped.
	AvgWordLengthNorm float64
	// MinWordLength and MaxWordLength bound the "natural" token range (inclusive).
	MinWordLength int
	MaxWordLength int
	// LineDensity is the alphanumeric ratio a line needs to count as coherent.
	LineDensity float64
}

// DefaultConfig returns the empirically chosen weights: 0.3 / 0.4 / 0.3,
// words of 3 to 20 runes, and a 0.4 line density cutoff.
func DefaultConfig() Config {
	return Config{
		AvgWordLengthWeight: 0.3,
		WordFitWeight:       0.4,
		LineDensityWeight:   0.3,
		AvgWordLengthNorm:   10,
		MinWordLength:       3,
		MaxWordLength:       20,
		LineDensity:         0.4,
	}
}

// Scorer computes quality scores.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer. A zero Config selects DefaultConfig.
func NewScorer(cfg Config) *Scorer {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if cfg.AvgWordLengthNorm <= 0 {
		cfg.AvgWordLengthNorm = DefaultConfig().AvgWordLengthNorm
	}
	return &Scorer{cfg: cfg}
}

var defaultScorer = NewScorer(DefaultConfig())

// Score scores text with the default configuration.
func Score(text string) float64 {
	return defaultScorer.Score(text)
}

// Config returns the configuration in use.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score returns a value in [0,1]. Empty or whitespace-only text scores 0.
func (s *Scorer) Score(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	sig := s.Signals(text)
	score := s.cfg.AvgWordLengthWeight*sig.AvgWordLength +
		s.cfg.WordFitWeight*sig.WordFit +
		s.cfg.LineDensityWeight*sig.LineDensity
	return clamp01(score)
}

// Signals holds the three normalized sub-signals of a score, each in [0,1].
type Signals struct {
	AvgWordLength float64
	WordFit       float64
	LineDensity   float64
}

// Signals computes the normalized sub-signals of text.
func (s *Scorer) Signals(text string) Signals {
	var sig Signals

	words := strings.Fields(text)
	if len(words) > 0 {
		total, fit := 0, 0
		for _, w := range words {
			n := utf8.RuneCountInString(w)
			total += n
			if n >= s.cfg.MinWordLength && n <= s.cfg.MaxWordLength {
				fit++
			}
		}
		avg := float64(total) / float64(len(words))
		sig.AvgWordLength = clamp01(avg / s.cfg.AvgWordLengthNorm)
		sig.WordFit = float64(fit) / float64(len(words))
	}

	lines, dense := 0, 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines++
		if density(line) >= s.cfg.LineDensity {
			dense++
		}
	}
	if lines > 0 {
		sig.LineDensity = float64(dense) / float64(lines)
	}

	return sig
}

func density(line string) float64 {
	total, alnum := 0, 0
	for _, r := range line {
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
