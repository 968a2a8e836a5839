// Package rules evaluates posture rule tables against per-frame
// measurement sets. Rules are data: thresholds live in configuration and the
// engine is one generic loop, so modes and rules can be added without
// touching the evaluation algorithm.
package rules

import (
	"posture-worker-go/internal/models"
)

// Kind selects the predicate a rule applies to its measurement.
type Kind string

const (
	// KindMax triggers when the measurement exceeds Max.
	KindMax Kind = "max"
	// KindMin triggers when the measurement falls below Min.
	KindMin Kind = "min"
	// KindBand triggers when the measurement leaves the [Min, Max] band.
	KindBand Kind = "band"
)

// Rule is a named predicate over one measurement plus its thresholds and
// the warning emitted when it triggers.
type Rule struct {
	Name        string
	Measurement string
	Kind        Kind
	Min         float64
	Max         float64
	Message     string
}

// Triggered evaluates the predicate against an available measurement value.
func (r Rule) Triggered(value float64) bool {
	switch r.Kind {
	case KindMax:
		return value > r.Max
	case KindMin:
		return value < r.Min
	case KindBand:
		return value < r.Min || value > r.Max
	default:
		return false
	}
}

// RuleSet is the ordered rule table for one posture mode. Order is the
// evaluation and warning order and must stay fixed for reproducibility.
type RuleSet struct {
	Mode         models.PostureMode
	GoodFeedback string
	BadFeedback  string
	Rules        []Rule
}
