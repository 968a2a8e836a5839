// Package pose defines the boundary to the external pose-estimation model.
// The analysis core depends only on the Provider interface, so any
// implementation that maps a frame to named landmarks is substitutable and
// the core stays unit-testable with synthetic landmark fixtures.
package pose

import (
	"gocv.io/x/gocv"

	"posture-worker-go/internal/models"
)

// Provider maps a video frame to a pose landmark set. Detect returns nil
// landmarks (and nil error) when no pose is present in the frame.
//
// A Provider instance is owned by a single session for the session's
// duration and must not be shared across concurrently running sessions.
type Provider interface {
	Detect(frame *gocv.Mat) (*models.PoseLandmarks, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Config holds pose estimation options passed through to the model.
type Config struct {
	// MinDetectionConfidence is the model's minimum detection confidence (0.0-1.0).
	MinDetectionConfidence float64

	// MinTrackingConfidence is the model's minimum tracking confidence (0.0-1.0).
	MinTrackingConfidence float64

	// ScriptPath overrides the pose service script location. Empty means
	// search the standard candidate paths.
	ScriptPath string

	// PythonPath overrides the Python interpreter. Empty means search for a
	// virtualenv interpreter, then fall back to python3 on PATH.
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}
