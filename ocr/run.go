package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Attempt is the outcome of running one profile.
type Attempt struct {
	Profile     Profile
	Recognition Recognition
	Err         error
	Duration    time.Duration
}

// OK reports whether the attempt succeeded.
func (a Attempt) OK() bool { return a.Err == nil }

// Run recognizes img once per profile, in order, and returns one Attempt per
// profile. Failures are logged and recorded; they never stop the remaining
// profiles. Once ctx is done the remaining profiles are recorded as failed
// with ctx.Err() without invoking the engine.
func Run(ctx context.Context, engine Engine, img Image, profiles []Profile, logger *slog.Logger) []Attempt {
	if logger == nil {
		logger = slog.Default()
	}

	attempts := make([]Attempt, 0, len(profiles))
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Profile: p, Err: err})
			continue
		}

		start := time.Now()
		rec, err := engine.Recognize(ctx, img, p)
		dur := time.Since(start)
		if err != nil {
			logger.Warn("recognition failed",
				"engine", engine.Name(),
				"profile", p.Name,
				"duration_ms", dur.Milliseconds(),
				"error", err,
			)
			attempts = append(attempts, Attempt{Profile: p, Err: err, Duration: dur})
			continue
		}

		rec.Text = strings.TrimSpace(norm.NFC.String(rec.Text))
		logger.Debug("recognition ok",
			"engine", engine.Name(),
			"profile", p.Name,
			"duration_ms", dur.Milliseconds(),
			"chars", len(rec.Text),
			"confidence", rec.Confidence,
		)
		attempts = append(attempts, Attempt{Profile: p, Recognition: rec, Duration: dur})
	}
	return attempts
}

// Succeeded returns the successful attempts, preserving order.
func Succeeded(attempts []Attempt) []Attempt {
	var ok []Attempt
	for _, a := range attempts {
		if a.OK() {
			ok = append(ok, a)
		}
	}
	return ok
}

// FirstError returns the error of the first failed attempt, or nil.
func FirstError(attempts []Attempt) error {
	for _, a := range attempts {
		if a.Err != nil {
			return a.Err
		}
	}
	return nil
}
