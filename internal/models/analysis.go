package models

import (
	"fmt"
	"math"
	"sort"
)

// PostureMode selects which rule set a session is evaluated against.
type PostureMode string

const (
	ModeSquat   PostureMode = "squat"
	ModeSitting PostureMode = "sitting"
)

// ParseMode validates a posture mode received at the API boundary.
func ParseMode(s string) (PostureMode, error) {
	switch PostureMode(s) {
	case ModeSquat, ModeSitting:
		return PostureMode(s), nil
	default:
		return "", fmt.Errorf("unknown posture type %q (expected squat or sitting)", s)
	}
}

// Measurement names derived per frame by the analyzer.
const (
	MeasurementKneeAngle     = "knee_angle"
	MeasurementBackAngle     = "back_angle"
	MeasurementNeckAngle     = "neck_angle"
	MeasurementKneeToeOffset = "knee_toe_offset"
)

// Measurement is a single derived value. OK is false when a required
// landmark fell below the visibility threshold; the value is then
// meaningless and rules over it are skipped rather than evaluated.
type Measurement struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// MeasurementSet maps measurement names to values for one frame. Never
// mutated after the analyzer builds it.
type MeasurementSet map[string]Measurement

// Set records an available measurement.
func (m MeasurementSet) Set(name string, value float64) {
	m[name] = Measurement{Value: value, OK: true}
}

// SetUnavailable records a measurement that could not be derived.
func (m MeasurementSet) SetUnavailable(name string) {
	m[name] = Measurement{}
}

// Get returns the measurement value and whether it is available.
func (m MeasurementSet) Get(name string) (float64, bool) {
	meas, exists := m[name]
	if !exists || !meas.OK {
		return 0, false
	}
	return meas.Value, true
}

// Rounded returns the available measurements rounded to 0.1, keyed by name,
// for human-readable responses and overlays. Angle-style rounding matches
// the values rendered on the annotated media.
func (m MeasurementSet) Rounded() map[string]float64 {
	out := make(map[string]float64, len(m))
	for name, meas := range m {
		if meas.OK {
			out[name] = math.Round(meas.Value*10) / 10
		}
	}
	return out
}

// Names returns the measurement names in sorted order.
func (m MeasurementSet) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Verdict is the per-frame classification: good iff zero rules triggered.
// Warnings preserve rule evaluation order so identical measurement sets
// always produce identical verdicts.
type Verdict struct {
	Good         bool               `json:"is_good_posture"`
	Feedback     string             `json:"feedback"`
	Warnings     []string           `json:"warnings"`
	Angles       map[string]float64 `json:"angles"`
	SkippedRules []string           `json:"skipped_rules,omitempty"`
	Measurements MeasurementSet     `json:"-"`
}

// FrameStatus distinguishes analyzed frames from frames without a
// detectable pose; the latter carry no verdict.
type FrameStatus string

const (
	FrameStatusAnalyzed FrameStatus = "analyzed"
	FrameStatusNoPose   FrameStatus = "no_pose"
)

// FrameResult is the self-contained outcome for one frame.
type FrameResult struct {
	Index     int         `json:"frame"`
	Timestamp float64     `json:"timestamp"`
	Status    FrameStatus `json:"status"`
	Facing    Facing      `json:"facing,omitempty"`
	Verdict   *Verdict    `json:"verdict,omitempty"`
}

// SessionState tracks the per-session pipeline progress.
type SessionState string

const (
	StateInitialized   SessionState = "initialized"
	StateFramesPending SessionState = "frames_pending"
	StateAnalyzing     SessionState = "analyzing"
	StateAnnotated     SessionState = "annotated"
	StateAggregated    SessionState = "aggregated"
	StateSucceeded     SessionState = "succeeded"
	StateFailedNoPose  SessionState = "failed_no_pose"
	StateFailedError   SessionState = "failed_error"
)

// Terminal reports whether the state is one of the three terminal outcomes.
func (s SessionState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailedNoPose, StateFailedError:
		return true
	default:
		return false
	}
}

// SessionSummary aggregates statistics across the analyzed frames.
type SessionSummary struct {
	FramesTotal    int                `json:"frames_total"`
	FramesWithPose int                `json:"frames_with_pose"`
	GoodFrames     int                `json:"good_frames"`
	GoodRatio      float64            `json:"good_ratio"`
	MeanAngles     map[string]float64 `json:"mean_angles,omitempty"`
}

// SessionResult is the full outcome of processing one input (image or
// video). Frames preserve temporal order; Headline is the verdict of the
// first frame with a detected pose.
type SessionResult struct {
	SessionID   string         `json:"session_id"`
	Mode        PostureMode    `json:"posture_type"`
	State       SessionState   `json:"state"`
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Headline    *Verdict       `json:"headline,omitempty"`
	Frames      []FrameResult  `json:"frames"`
	Summary     SessionSummary `json:"summary"`
	OutputMedia string         `json:"output_media,omitempty"`
}
