package emergency

import (
	"strings"
	"time"
)

// warningUtilization is the fraction of a limit at which the tracked limit
// starts signalling a warning without being exceeded.
const warningUtilization = 0.8

// LimitKind fixes the comparison direction of a tracked risk limit. It is
// an explicit, typed property of each limit rather than something inferred
// from the limit's name.
type LimitKind string

const (
	// LimitKindDrawdown limits loss-style metrics: both current and limit
	// are negative and the limit is exceeded when current is more negative
	// than the limit.
	LimitKindDrawdown LimitKind = "drawdown"

	// LimitKindCeiling limits magnitude-style metrics (exposure, position
	// size, order rate): exceeded when current rises above the limit.
	LimitKindCeiling LimitKind = "ceiling"
)

// LimitKindFromName maps legacy limit names onto a kind: names ending in
// "_loss" denote drawdown limits. Kept for workflow definitions that
// predate the explicit kind field.
func LimitKindFromName(name string) LimitKind {
	if strings.HasSuffix(name, "_loss") {
		return LimitKindDrawdown
	}

	return LimitKindCeiling
}

// TrackedLimit is the recorded (current, limit) pair for one named risk
// limit.
type TrackedLimit struct {
	Name      string    `json:"name"`
	Kind      LimitKind `json:"kind"`
	Current   float64   `json:"current"`
	Limit     float64   `json:"limit"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exceeded reports whether the current value breaches the limit in the
// kind's direction.
func (l TrackedLimit) Exceeded() bool {
	if l.Kind == LimitKindDrawdown {
		return l.Current < l.Limit
	}

	return l.Current > l.Limit
}

// Utilization is the fraction of the limit consumed, 0 when the limit is
// zero.
func (l TrackedLimit) Utilization() float64 {
	if l.Limit == 0 {
		return 0
	}

	return l.Current / l.Limit
}

// Warning reports whether the limit is at least 80% utilized without
// being exceeded.
func (l TrackedLimit) Warning() bool {
	return !l.Exceeded() && l.Utilization() >= warningUtilization
}
