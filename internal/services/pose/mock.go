package pose

import (
	"sync"

	"gocv.io/x/gocv"

	"posture-worker-go/internal/models"
)

// MockProvider is a test implementation of the Provider interface. It
// returns pre-configured landmark sets, either a fixed one for every frame
// or a per-frame queue (nil entries model no-pose frames).
type MockProvider struct {
	mu    sync.Mutex
	fixed *models.PoseLandmarks
	queue []*models.PoseLandmarks
	err   error
	calls int
}

// NewMockProvider creates a new MockProvider instance.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// SetLandmarks sets the landmark set returned for every frame.
func (m *MockProvider) SetLandmarks(lm *models.PoseLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed = lm
}

// Enqueue appends per-frame results consumed in order before the fixed
// result. A nil entry makes that frame a no-pose frame.
func (m *MockProvider) Enqueue(lms ...*models.PoseLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, lms...)
}

// SetError sets the error returned by Detect.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued landmark set, the fixed set, or the
// configured error.
func (m *MockProvider) Detect(frame *gocv.Mat) (*models.PoseLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next, nil
	}
	return m.fixed, nil
}

// Close is a no-op for the mock provider.
func (m *MockProvider) Close() error {
	return nil
}

// GoodSquatLandmarks returns a synthetic side-view squat, facing right,
// with a 45-degree back lean, a ~109-degree knee bend and the knee behind
// the toe. All measured landmarks are highly visible.
func GoodSquatLandmarks() *models.PoseLandmarks {
	lm := &models.PoseLandmarks{}

	set := func(idx int, x, y float64) {
		lm.Points[idx] = models.Landmark{X: x, Y: y, Visibility: 0.95}
	}

	set(models.Nose, 0.80, 0.30)
	set(models.RightEar, 0.78, 0.25)
	set(models.RightShoulder, 0.737, 0.421)
	set(models.LeftShoulder, 0.72, 0.43)
	set(models.RightHip, 0.50, 0.50)
	set(models.LeftHip, 0.49, 0.51)
	set(models.RightKnee, 0.60, 0.55)
	set(models.RightAnkle, 0.58, 0.70)
	set(models.RightFootIndex, 0.66, 0.72)

	return lm
}

// UprightBackSquatLandmarks is GoodSquatLandmarks with the shoulder moved
// so the torso-to-thigh angle is 70 degrees, outside the default band.
// Knee bend and knee-toe offset are unchanged.
func UprightBackSquatLandmarks() *models.PoseLandmarks {
	lm := GoodSquatLandmarks()
	lm.Points[models.RightShoulder] = models.Landmark{X: 0.682, Y: 0.328, Visibility: 0.95}
	lm.Points[models.LeftShoulder] = models.Landmark{X: 0.67, Y: 0.33, Visibility: 0.95}
	return lm
}

// HiddenAnkleSquatLandmarks is GoodSquatLandmarks with the ankle dropped
// below the visibility threshold, making the knee angle underivable.
func HiddenAnkleSquatLandmarks() *models.PoseLandmarks {
	lm := GoodSquatLandmarks()
	lm.Points[models.RightAnkle].Visibility = 0.2
	return lm
}

// GoodSittingLandmarks returns a synthetic side-view sitting pose, facing
// right, with the ear directly above the shoulder (0-degree neck angle) and
// a ~101-degree torso-to-thigh angle.
func GoodSittingLandmarks() *models.PoseLandmarks {
	lm := &models.PoseLandmarks{}

	set := func(idx int, x, y float64) {
		lm.Points[idx] = models.Landmark{X: x, Y: y, Visibility: 0.95}
	}

	set(models.Nose, 0.62, 0.20)
	set(models.RightEar, 0.50, 0.18)
	set(models.RightShoulder, 0.50, 0.30)
	set(models.LeftShoulder, 0.48, 0.31)
	set(models.RightHip, 0.50, 0.55)
	set(models.LeftHip, 0.49, 0.56)
	set(models.RightKnee, 0.65, 0.58)
	set(models.RightAnkle, 0.63, 0.75)

	return lm
}

// ForwardHeadSittingLandmarks is GoodSittingLandmarks with the ear moved
// forward so the ear-shoulder line is 35 degrees off vertical.
func ForwardHeadSittingLandmarks() *models.PoseLandmarks {
	lm := GoodSittingLandmarks()
	lm.Points[models.RightEar] = models.Landmark{X: 0.58603, Y: 0.17713, Visibility: 0.95}
	return lm
}
