// Package analyzer turns one frame into a frame result: landmarks from the
// pose provider, measurements from geometry, a verdict from the rule
// engine, and optionally an annotated copy of the frame.
package analyzer

import (
	"fmt"

	"gocv.io/x/gocv"

	"posture-worker-go/internal/config"
	"posture-worker-go/internal/models"
	"posture-worker-go/internal/services/geometry"
	"posture-worker-go/internal/services/pose"
	"posture-worker-go/internal/services/rules"
)

// Analyzer orchestrates provider, geometry and rule engine for single
// frames. It holds no per-frame state; every Analyze call is independent.
type Analyzer struct {
	provider pose.Provider
	engine   *rules.Engine
	cfg      *config.Config
}

// New creates a frame analyzer using the given provider and rule engine.
func New(provider pose.Provider, engine *rules.Engine, cfg *config.Config) *Analyzer {
	return &Analyzer{provider: provider, engine: engine, cfg: cfg}
}

// Analyze processes one frame. The returned annotated Mat is a modified
// copy of the input (the original buffer is never touched); it is nil when
// annotation is disabled, no frame image is present, or the frame has no
// detectable pose. The caller owns closing it.
//
// A frame without a detectable pose yields a FrameResult with
// FrameStatusNoPose and no verdict; provider or evaluation failures are
// returned as errors and abort the session.
func (a *Analyzer) Analyze(frame *gocv.Mat, index int, timestamp float64, mode models.PostureMode) (*models.FrameResult, *gocv.Mat, error) {
	landmarks, err := a.provider.Detect(frame)
	if err != nil {
		return nil, nil, fmt.Errorf("pose detection failed on frame %d: %w", index, err)
	}

	if landmarks == nil || !landmarks.Detected(a.cfg.MinLandmarkVisibility) {
		return &models.FrameResult{
			Index:     index,
			Timestamp: timestamp,
			Status:    models.FrameStatusNoPose,
		}, nil, nil
	}

	facing := landmarks.Facing()

	measurements, err := a.measure(landmarks, mode, facing)
	if err != nil {
		return nil, nil, err
	}

	verdict, err := a.engine.Evaluate(mode, measurements)
	if err != nil {
		return nil, nil, err
	}

	result := &models.FrameResult{
		Index:     index,
		Timestamp: timestamp,
		Status:    models.FrameStatusAnalyzed,
		Facing:    facing,
		Verdict:   verdict,
	}

	var annotated *gocv.Mat
	if a.cfg.AnnotateOutput && frame != nil && !frame.Empty() {
		clone := frame.Clone()
		drawOverlay(&clone, landmarks, facing, mode, verdict)
		annotated = &clone
	}

	return result, annotated, nil
}

// measure derives the mode's measurement set from the visible body side.
// A measurement whose landmarks fall below the visibility threshold is
// recorded as explicitly unavailable, never as zero.
func (a *Analyzer) measure(lm *models.PoseLandmarks, mode models.PostureMode, facing models.Facing) (models.MeasurementSet, error) {
	joints := models.Joints(facing)
	ms := models.MeasurementSet{}

	point := func(idx int) (geometry.Point, bool) {
		l := lm.Points[idx]
		return geometry.Point{X: l.X, Y: l.Y}, l.Visibility >= a.cfg.MinLandmarkVisibility
	}

	switch mode {
	case models.ModeSquat:
		shoulder, shoulderOK := point(joints.Shoulder)
		hip, hipOK := point(joints.Hip)
		knee, kneeOK := point(joints.Knee)
		ankle, ankleOK := point(joints.Ankle)
		toe, toeOK := point(joints.Toe)

		if hipOK && kneeOK && ankleOK {
			ms.Set(models.MeasurementKneeAngle, geometry.Angle(hip, knee, ankle))
		} else {
			ms.SetUnavailable(models.MeasurementKneeAngle)
		}
		if shoulderOK && hipOK && kneeOK {
			ms.Set(models.MeasurementBackAngle, geometry.Angle(shoulder, hip, knee))
		} else {
			ms.SetUnavailable(models.MeasurementBackAngle)
		}
		if kneeOK && toeOK {
			ms.Set(models.MeasurementKneeToeOffset, geometry.ForwardOffsetX(knee, toe, facing == models.FacingRight))
		} else {
			ms.SetUnavailable(models.MeasurementKneeToeOffset)
		}

	case models.ModeSitting:
		ear, earOK := point(joints.Ear)
		shoulder, shoulderOK := point(joints.Shoulder)
		hip, hipOK := point(joints.Hip)
		knee, kneeOK := point(joints.Knee)

		if earOK && shoulderOK {
			ms.Set(models.MeasurementNeckAngle, geometry.VerticalAngle(ear, shoulder))
		} else {
			ms.SetUnavailable(models.MeasurementNeckAngle)
		}
		if shoulderOK && hipOK && kneeOK {
			ms.Set(models.MeasurementBackAngle, geometry.Angle(shoulder, hip, knee))
		} else {
			ms.SetUnavailable(models.MeasurementBackAngle)
		}

	default:
		return nil, fmt.Errorf("no measurements defined for posture mode %q", mode)
	}

	return ms, nil
}
