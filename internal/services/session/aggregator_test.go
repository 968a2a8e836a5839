package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"posture-worker-go/internal/config"
	"posture-worker-go/internal/models"
	"posture-worker-go/internal/services/analyzer"
	"posture-worker-go/internal/services/pose"
	"posture-worker-go/internal/services/rules"
)

// stubSource yields the requested number of frames without decoding media.
type stubSource struct {
	frames int
	fps    float64
	index  int
}

func (s *stubSource) Next() (*Frame, error) {
	if s.index >= s.frames {
		return nil, io.EOF
	}
	frame := &Frame{Index: s.index, Timestamp: float64(s.index) / s.fps}
	s.index++
	return frame, nil
}

func (s *stubSource) FPS() float64 { return s.fps }
func (s *stubSource) Close() error { return nil }

type stubSink struct {
	writes int
	err    error
}

func (s *stubSink) Write(mat *gocv.Mat) error {
	if s.err != nil {
		return s.err
	}
	s.writes++
	return nil
}

func (s *stubSink) Close() error { return nil }

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

func newTestAggregator(provider pose.Provider) *Aggregator {
	cfg := testConfig()
	return NewAggregator(analyzer.New(provider, rules.NewDefaultEngine(cfg), cfg))
}

func TestRunMixedFrames(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.Enqueue(nil, pose.GoodSquatLandmarks(), pose.UprightBackSquatLandmarks())

	src := &stubSource{frames: 3, fps: 30}
	sink := &stubSink{}

	result, err := newTestAggregator(mock).Run(context.Background(), "session-1", models.ModeSquat, src, sink)
	require.NoError(t, err)

	assert.Equal(t, "session-1", result.SessionID)
	assert.Equal(t, models.ModeSquat, result.Mode)
	assert.Equal(t, models.StateSucceeded, result.State)
	assert.True(t, result.Success)

	// Every input frame is in the output media, pose or not.
	assert.Equal(t, 3, sink.writes)

	require.Len(t, result.Frames, 3)
	assert.Equal(t, models.FrameStatusNoPose, result.Frames[0].Status)
	assert.Equal(t, models.FrameStatusAnalyzed, result.Frames[1].Status)
	assert.Equal(t, models.FrameStatusAnalyzed, result.Frames[2].Status)
	assert.Equal(t, 1, result.Frames[1].Index)
	assert.InDelta(t, 1.0/30, result.Frames[1].Timestamp, 1e-9)

	// Headline comes from the first frame with a detected pose.
	require.NotNil(t, result.Headline)
	assert.True(t, result.Headline.Good)
	assert.Equal(t, "Good squat form", result.Message)

	assert.Equal(t, 3, result.Summary.FramesTotal)
	assert.Equal(t, 2, result.Summary.FramesWithPose)
	assert.Equal(t, 1, result.Summary.GoodFrames)
	assert.InDelta(t, 0.5, result.Summary.GoodRatio, 1e-9)
	assert.InDelta(t, 57.5, result.Summary.MeanAngles[models.MeasurementBackAngle], 0.2)
}

func TestRunSingleFrame(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.SetLandmarks(pose.GoodSittingLandmarks())

	src := &stubSource{frames: 1, fps: 1}
	sink := &stubSink{}

	result, err := newTestAggregator(mock).Run(context.Background(), "session-2", models.ModeSitting, src, sink)
	require.NoError(t, err)

	assert.Equal(t, models.StateSucceeded, result.State)
	require.Len(t, result.Frames, 1)
	assert.Equal(t, "Good sitting posture", result.Message)
	assert.Equal(t, 1, result.Summary.FramesTotal)
	assert.InDelta(t, 1.0, result.Summary.GoodRatio, 1e-9)
}

func TestRunNoPoseAnywhere(t *testing.T) {
	mock := pose.NewMockProvider() // returns nil for every frame

	src := &stubSource{frames: 2, fps: 30}
	sink := &stubSink{}

	result, err := newTestAggregator(mock).Run(context.Background(), "session-3", models.ModeSquat, src, sink)
	require.NoError(t, err)

	assert.Equal(t, models.StateFailedNoPose, result.State)
	assert.False(t, result.Success)
	assert.Equal(t, "no pose detected in input", result.Message)
	assert.Nil(t, result.Headline)
	require.Len(t, result.Frames, 2)
	assert.Equal(t, 2, sink.writes)
	assert.Equal(t, 0, result.Summary.FramesWithPose)
}

func TestRunProviderFailure(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.SetError(errors.New("subprocess died"))

	src := &stubSource{frames: 5, fps: 30}
	sink := &stubSink{}

	result, err := newTestAggregator(mock).Run(context.Background(), "session-4", models.ModeSquat, src, sink)
	require.Error(t, err)
	require.NotNil(t, result)

	assert.Equal(t, models.StateFailedError, result.State)
	assert.False(t, result.Success)
	// Fail-fast: the remaining frames are never analyzed.
	assert.Equal(t, 1, mock.Calls())
}

func TestRunSinkFailure(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.SetLandmarks(pose.GoodSquatLandmarks())

	src := &stubSource{frames: 2, fps: 30}
	sink := &stubSink{err: errors.New("disk full")}

	result, err := newTestAggregator(mock).Run(context.Background(), "session-5", models.ModeSquat, src, sink)
	require.Error(t, err)
	assert.Equal(t, models.StateFailedError, result.State)
}

func TestRunCanceledContext(t *testing.T) {
	mock := pose.NewMockProvider()
	mock.SetLandmarks(pose.GoodSquatLandmarks())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &stubSource{frames: 2, fps: 30}
	sink := &stubSink{}

	result, err := newTestAggregator(mock).Run(ctx, "session-6", models.ModeSquat, src, sink)
	require.Error(t, err)
	assert.Equal(t, models.StateFailedError, result.State)
	assert.Equal(t, 0, mock.Calls())
}

func TestIsVideo(t *testing.T) {
	assert.True(t, IsVideo("input.mp4"))
	assert.True(t, IsVideo("INPUT.MP4"))
	assert.True(t, IsVideo("clip.avi"))
	assert.True(t, IsVideo("clip.mov"))
	assert.False(t, IsVideo("photo.jpg"))
	assert.False(t, IsVideo("photo.png"))
	assert.False(t, IsVideo("noext"))
}

func TestImageSource(t *testing.T) {
	t.Run("missing file errors on first read", func(t *testing.T) {
		src := NewImageSource("does-not-exist.jpg")
		_, err := src.Next()
		assert.Error(t, err)
	})

	t.Run("exhausted after one frame", func(t *testing.T) {
		src := NewImageSource("does-not-exist.jpg")
		src.Next()
		_, err := src.Next()
		assert.Equal(t, io.EOF, err)
	})
}
