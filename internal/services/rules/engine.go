package rules

import (
	"fmt"
	"sort"

	"posture-worker-go/internal/models"
)

// Engine holds the registered rule sets and evaluates measurement sets
// against them. Evaluation is deterministic: identical measurement sets
// always yield identical verdicts with warnings in registration order.
type Engine struct {
	sets map[models.PostureMode]RuleSet
}

// NewEngine returns an engine with no registered modes.
func NewEngine() *Engine {
	return &Engine{sets: make(map[models.PostureMode]RuleSet)}
}

// Register installs or replaces the rule set for a mode.
func (e *Engine) Register(set RuleSet) {
	e.sets[set.Mode] = set
}

// Modes lists the registered posture modes in sorted order.
func (e *Engine) Modes() []models.PostureMode {
	modes := make([]models.PostureMode, 0, len(e.sets))
	for mode := range e.sets {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

// Measurements returns the measurement names the mode's rules require.
func (e *Engine) Measurements(mode models.PostureMode) []string {
	set, exists := e.sets[mode]
	if !exists {
		return nil
	}
	seen := make(map[string]bool, len(set.Rules))
	var names []string
	for _, r := range set.Rules {
		if !seen[r.Measurement] {
			seen[r.Measurement] = true
			names = append(names, r.Measurement)
		}
	}
	return names
}

// Evaluate runs the mode's rules, in order, over the measurement set and
// builds the frame verdict. A rule whose measurement is unavailable is
// skipped and recorded as such: it contributes neither a warning nor an
// implicit pass. The frame is good posture iff zero rules triggered.
func (e *Engine) Evaluate(mode models.PostureMode, ms models.MeasurementSet) (*models.Verdict, error) {
	set, exists := e.sets[mode]
	if !exists {
		return nil, fmt.Errorf("no rule set registered for posture mode %q", mode)
	}

	verdict := &models.Verdict{
		Warnings:     []string{},
		Angles:       ms.Rounded(),
		Measurements: ms,
	}

	for _, rule := range set.Rules {
		value, ok := ms.Get(rule.Measurement)
		if !ok {
			verdict.SkippedRules = append(verdict.SkippedRules, rule.Name)
			continue
		}
		if rule.Triggered(value) {
			verdict.Warnings = append(verdict.Warnings, rule.Message)
		}
	}

	verdict.Good = len(verdict.Warnings) == 0
	if verdict.Good {
		verdict.Feedback = set.GoodFeedback
	} else {
		verdict.Feedback = set.BadFeedback
	}

	return verdict, nil
}
