// Package quota tracks cumulative transcription minutes against a plan
// ceiling. The ledger only answers queries; surfacing messages and upsell
// prompts is the submission gate's job.
package quota

import (
	"fmt"
	"math"
)

// Ledger compares consumed minutes against a ceiling. The zero value is a
// fully consumed ledger.
type Ledger struct {
	Used    float64
	Ceiling float64
}

// Remaining returns the minutes left, never negative.
func (l Ledger) Remaining() float64 {
	if rem := l.Ceiling - l.Used; rem > 0 {
		return rem
	}
	return 0
}

// CanAccept reports whether a job of the given duration fits the allowance.
// Landing exactly on the ceiling is accepted.
func (l Ledger) CanAccept(durationMinutes float64) bool {
	return l.Used+durationMinutes <= l.Ceiling
}

// Charged returns a ledger with the duration added to the consumed total.
// Charges never decrease usage; negative durations are ignored.
func (l Ledger) Charged(durationMinutes float64) Ledger {
	if durationMinutes < 0 {
		return l
	}
	l.Used += durationMinutes
	return l
}

// FormatMinutes renders a minute total as "3h 5m" for display payloads.
func FormatMinutes(minutes float64) string {
	if minutes < 0 {
		minutes = 0
	}
	total := int(math.Round(minutes))
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// UsageFraction returns used/ceiling clamped to [0, 1], for progress displays.
func (l Ledger) UsageFraction() float64 {
	if l.Ceiling <= 0 {
		return 1
	}
	f := l.Used / l.Ceiling
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}
