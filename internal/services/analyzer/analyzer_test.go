package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posture-worker-go/internal/config"
	"posture-worker-go/internal/models"
	"posture-worker-go/internal/services/pose"
	"posture-worker-go/internal/services/rules"
)

func testConfig() *config.Config {
	return &config.Config{
		MinLandmarkVisibility: 0.5,
		SquatBackAngleMin:     30,
		SquatBackAngleMax:     60,
		SquatKneeAngleMin:     80,
		SquatKneeAngleMax:     120,
		SquatKneeToeMargin:    0,
		SittingNeckAngleMax:   20,
		SittingBackAngleMin:   80,
		SittingBackAngleMax:   115,
		AnnotateOutput:        false,
	}
}

func newTestAnalyzer(provider pose.Provider) *Analyzer {
	cfg := testConfig()
	return New(provider, rules.NewDefaultEngine(cfg), cfg)
}

func TestAnalyzeSquat(t *testing.T) {
	t.Run("good squat form", func(t *testing.T) {
		mock := pose.NewMockProvider()
		mock.SetLandmarks(pose.GoodSquatLandmarks())

		result, annotated, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSquat)
		require.NoError(t, err)
		require.Nil(t, annotated)

		assert.Equal(t, models.FrameStatusAnalyzed, result.Status)
		assert.Equal(t, models.FacingRight, result.Facing)
		require.NotNil(t, result.Verdict)
		assert.True(t, result.Verdict.Good)
		assert.Equal(t, "Good squat form", result.Verdict.Feedback)
		assert.InDelta(t, 45.0, result.Verdict.Angles[models.MeasurementBackAngle], 0.11)
		assert.InDelta(t, 109.0, result.Verdict.Angles[models.MeasurementKneeAngle], 0.11)
	})

	t.Run("upright back warns", func(t *testing.T) {
		mock := pose.NewMockProvider()
		mock.SetLandmarks(pose.UprightBackSquatLandmarks())

		result, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSquat)
		require.NoError(t, err)

		require.NotNil(t, result.Verdict)
		assert.False(t, result.Verdict.Good)
		require.Len(t, result.Verdict.Warnings, 1)
		assert.Contains(t, result.Verdict.Warnings[0], "Back angle")
	})

	t.Run("hidden ankle skips the depth rule", func(t *testing.T) {
		mock := pose.NewMockProvider()
		mock.SetLandmarks(pose.HiddenAnkleSquatLandmarks())

		result, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSquat)
		require.NoError(t, err)

		require.NotNil(t, result.Verdict)
		assert.Contains(t, result.Verdict.SkippedRules, rules.RuleSquatDepth)
		assert.NotContains(t, result.Verdict.Angles, models.MeasurementKneeAngle)
		// The remaining rules still evaluate.
		assert.Contains(t, result.Verdict.Angles, models.MeasurementBackAngle)
	})
}

func TestAnalyzeSitting(t *testing.T) {
	t.Run("good sitting posture", func(t *testing.T) {
		mock := pose.NewMockProvider()
		mock.SetLandmarks(pose.GoodSittingLandmarks())

		result, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSitting)
		require.NoError(t, err)

		require.NotNil(t, result.Verdict)
		assert.True(t, result.Verdict.Good)
		assert.Equal(t, "Good sitting posture", result.Verdict.Feedback)
		assert.InDelta(t, 0.0, result.Verdict.Angles[models.MeasurementNeckAngle], 0.11)
	})

	t.Run("forward head warns", func(t *testing.T) {
		mock := pose.NewMockProvider()
		mock.SetLandmarks(pose.ForwardHeadSittingLandmarks())

		result, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSitting)
		require.NoError(t, err)

		require.NotNil(t, result.Verdict)
		assert.False(t, result.Verdict.Good)
		require.Len(t, result.Verdict.Warnings, 1)
		assert.Contains(t, result.Verdict.Warnings[0], "Adjust head posture")
		assert.InDelta(t, 35.0, result.Verdict.Angles[models.MeasurementNeckAngle], 0.11)
	})
}

func TestAnalyzeNoPose(t *testing.T) {
	t.Run("provider returns nil", func(t *testing.T) {
		mock := pose.NewMockProvider()

		result, annotated, err := newTestAnalyzer(mock).Analyze(nil, 3, 0.1, models.ModeSquat)
		require.NoError(t, err)

		assert.Nil(t, annotated)
		assert.Equal(t, models.FrameStatusNoPose, result.Status)
		assert.Equal(t, 3, result.Index)
		assert.InDelta(t, 0.1, result.Timestamp, 1e-9)
		assert.Nil(t, result.Verdict)
	})

	t.Run("all landmarks below visibility threshold", func(t *testing.T) {
		mock := pose.NewMockProvider()
		mock.SetLandmarks(&models.PoseLandmarks{})

		result, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSquat)
		require.NoError(t, err)
		assert.Equal(t, models.FrameStatusNoPose, result.Status)
	})
}

func TestAnalyzeProviderError(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.SetError(errors.New("subprocess died"))

	result, annotated, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSquat)
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Nil(t, annotated)
}

func TestAnalyzeUnknownMode(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.SetLandmarks(pose.GoodSquatLandmarks())

	_, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.PostureMode("plank"))
	assert.Error(t, err)
}

func TestAnalyzeFacingLeft(t *testing.T) {
	// Mirror the good squat fixture around x=0.5 so the subject faces left;
	// the left-side joints then carry the same geometry.
	lm := pose.GoodSquatLandmarks()
	mirrored := &models.PoseLandmarks{}
	for i, p := range lm.Points {
		mirrored.Points[i] = models.Landmark{X: 1 - p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
	}
	mirrored.Points[models.LeftEar] = mirrored.Points[models.RightEar]
	mirrored.Points[models.LeftShoulder] = mirrored.Points[models.RightShoulder]
	mirrored.Points[models.LeftHip] = mirrored.Points[models.RightHip]
	mirrored.Points[models.LeftKnee] = mirrored.Points[models.RightKnee]
	mirrored.Points[models.LeftAnkle] = mirrored.Points[models.RightAnkle]
	mirrored.Points[models.LeftFootIndex] = mirrored.Points[models.RightFootIndex]

	mock := pose.NewMockProvider()
	mock.SetLandmarks(mirrored)

	result, _, err := newTestAnalyzer(mock).Analyze(nil, 0, 0, models.ModeSquat)
	require.NoError(t, err)

	assert.Equal(t, models.FacingLeft, result.Facing)
	require.NotNil(t, result.Verdict)
	assert.True(t, result.Verdict.Good)
	assert.InDelta(t, 45.0, result.Verdict.Angles[models.MeasurementBackAngle], 0.11)
}
