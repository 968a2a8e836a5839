package rules

import (
	"fmt"

	"posture-worker-go/internal/config"
	"posture-worker-go/internal/models"
)

// Rule names as they appear in skipped-rule reporting.
const (
	RuleKneeOverToe  = "knee_over_toe"
	RuleBackAngle    = "back_angle"
	RuleSquatDepth   = "squat_depth"
	RuleForwardHead  = "forward_head"
	RuleSpineNeutral = "spine_neutral"
)

// DefaultRuleSets builds the squat and sitting rule tables from the
// configured thresholds. Order within each table is the evaluation and
// warning order.
func DefaultRuleSets(cfg *config.Config) []RuleSet {
	return []RuleSet{
		{
			Mode:         models.ModeSquat,
			GoodFeedback: "Good squat form",
			BadFeedback:  "Adjust your squat form",
			Rules: []Rule{
				{
					Name:        RuleKneeOverToe,
					Measurement: models.MeasurementKneeToeOffset,
					Kind:        KindMax,
					Max:         cfg.SquatKneeToeMargin,
					Message:     "Knee extends beyond toe - risk of injury",
				},
				{
					Name:        RuleBackAngle,
					Measurement: models.MeasurementBackAngle,
					Kind:        KindBand,
					Min:         cfg.SquatBackAngleMin,
					Max:         cfg.SquatBackAngleMax,
					Message: fmt.Sprintf(
						"Back angle too upright or too low - maintain natural forward lean (%.0f to %.0f degrees wrt thigh)",
						cfg.SquatBackAngleMin, cfg.SquatBackAngleMax),
				},
				{
					Name:        RuleSquatDepth,
					Measurement: models.MeasurementKneeAngle,
					Kind:        KindBand,
					Min:         cfg.SquatKneeAngleMin,
					Max:         cfg.SquatKneeAngleMax,
					Message: fmt.Sprintf(
						"Squat depth needs improvement - aim for 90-degree knee bend (%.0f to %.0f degrees)",
						cfg.SquatKneeAngleMin, cfg.SquatKneeAngleMax),
				},
			},
		},
		{
			Mode:         models.ModeSitting,
			GoodFeedback: "Good sitting posture",
			BadFeedback:  "Adjust your sitting position",
			Rules: []Rule{
				{
					Name:        RuleForwardHead,
					Measurement: models.MeasurementNeckAngle,
					Kind:        KindMax,
					Max:         cfg.SittingNeckAngleMax,
					Message: fmt.Sprintf(
						"Adjust head posture - align ears over shoulders (%.0f degrees max)",
						cfg.SittingNeckAngleMax),
				},
				{
					Name:        RuleSpineNeutral,
					Measurement: models.MeasurementBackAngle,
					Kind:        KindBand,
					Min:         cfg.SittingBackAngleMin,
					Max:         cfg.SittingBackAngleMax,
					Message: fmt.Sprintf(
						"Back not straight - maintain neutral spine (%.0f to %.0f degrees)",
						cfg.SittingBackAngleMin, cfg.SittingBackAngleMax),
				},
			},
		},
	}
}

// NewDefaultEngine returns an engine with the squat and sitting rule sets
// registered from configuration.
func NewDefaultEngine(cfg *config.Config) *Engine {
	engine := NewEngine()
	for _, set := range DefaultRuleSets(cfg) {
		engine.Register(set)
	}
	return engine
}
