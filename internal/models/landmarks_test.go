package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacing(t *testing.T) {
	t.Run("nose ahead of shoulders faces right", func(t *testing.T) {
		lm := &PoseLandmarks{}
		lm.Points[Nose] = Landmark{X: 0.80}
		lm.Points[LeftShoulder] = Landmark{X: 0.72}
		lm.Points[RightShoulder] = Landmark{X: 0.74}

		assert.Equal(t, FacingRight, lm.Facing())
	})

	t.Run("nose behind both shoulders faces left", func(t *testing.T) {
		lm := &PoseLandmarks{}
		lm.Points[Nose] = Landmark{X: 0.20}
		lm.Points[LeftShoulder] = Landmark{X: 0.28}
		lm.Points[RightShoulder] = Landmark{X: 0.26}

		assert.Equal(t, FacingLeft, lm.Facing())
	})

	t.Run("nose past one shoulder is enough for right", func(t *testing.T) {
		lm := &PoseLandmarks{}
		lm.Points[Nose] = Landmark{X: 0.50}
		lm.Points[LeftShoulder] = Landmark{X: 0.60}
		lm.Points[RightShoulder] = Landmark{X: 0.45}

		assert.Equal(t, FacingRight, lm.Facing())
	})
}

func TestDetected(t *testing.T) {
	t.Run("nil set", func(t *testing.T) {
		var lm *PoseLandmarks
		assert.False(t, lm.Detected(0.5))
	})

	t.Run("all landmarks below threshold", func(t *testing.T) {
		lm := &PoseLandmarks{}
		for i := range lm.Points {
			lm.Points[i].Visibility = 0.3
		}
		assert.False(t, lm.Detected(0.5))
	})

	t.Run("single visible landmark counts", func(t *testing.T) {
		lm := &PoseLandmarks{}
		lm.Points[RightKnee].Visibility = 0.9
		assert.True(t, lm.Detected(0.5))
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		lm := &PoseLandmarks{}
		lm.Points[Nose].Visibility = 0.5
		assert.True(t, lm.Detected(0.5))
	})
}

func TestJoints(t *testing.T) {
	right := Joints(FacingRight)
	assert.Equal(t, RightShoulder, right.Shoulder)
	assert.Equal(t, RightFootIndex, right.Toe)

	left := Joints(FacingLeft)
	assert.Equal(t, LeftShoulder, left.Shoulder)
	assert.Equal(t, LeftFootIndex, left.Toe)
}

func TestMeasurementSet(t *testing.T) {
	t.Run("rounding to a tenth", func(t *testing.T) {
		ms := MeasurementSet{}
		ms.Set(MeasurementBackAngle, 45.0499)
		ms.Set(MeasurementKneeAngle, 108.97)
		ms.SetUnavailable(MeasurementKneeToeOffset)

		rounded := ms.Rounded()
		assert.Equal(t, 45.0, rounded[MeasurementBackAngle])
		assert.Equal(t, 109.0, rounded[MeasurementKneeAngle])
		assert.NotContains(t, rounded, MeasurementKneeToeOffset)
	})

	t.Run("unavailable measurement is not readable", func(t *testing.T) {
		ms := MeasurementSet{}
		ms.SetUnavailable(MeasurementNeckAngle)

		_, ok := ms.Get(MeasurementNeckAngle)
		assert.False(t, ok)
	})
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("squat")
	assert.NoError(t, err)
	assert.Equal(t, ModeSquat, mode)

	mode, err = ParseMode("sitting")
	assert.NoError(t, err)
	assert.Equal(t, ModeSitting, mode)

	_, err = ParseMode("plank")
	assert.Error(t, err)
}
