package session

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"posture-worker-go/internal/models"
	"posture-worker-go/internal/services/analyzer"
)

// Aggregator runs the frame analyzer over every frame of one input and
// folds the per-frame results into a session result. Frames are processed
// strictly in source order; the first frame with a detected pose supplies
// the headline verdict.
type Aggregator struct {
	analyzer *analyzer.Analyzer
}

// NewAggregator creates an aggregator around the given frame analyzer.
func NewAggregator(a *analyzer.Analyzer) *Aggregator {
	return &Aggregator{analyzer: a}
}

// Run processes the source to exhaustion. The annotated frame (or the
// original, when no pose was found or annotation is off) is written to the
// sink so the output media keeps the input's frame count and timing.
//
// Any frame-level failure aborts the session: the returned result carries
// the failed_error state and the error is returned alongside it. The caller
// owns closing src and sink.
func (ag *Aggregator) Run(ctx context.Context, sessionID string, mode models.PostureMode, src FrameSource, sink FrameSink) (*models.SessionResult, error) {
	result := &models.SessionResult{
		SessionID: sessionID,
		Mode:      mode,
		State:     models.StateInitialized,
		Frames:    []models.FrameResult{},
	}

	fail := func(message string, err error) (*models.SessionResult, error) {
		result.State = models.StateFailedError
		result.Success = false
		result.Message = message
		log.Error().Err(err).Str("session_id", sessionID).Int("frames_done", len(result.Frames)).Msg("Session failed")
		return result, err
	}

	log.Info().Str("session_id", sessionID).Str("posture_type", string(mode)).Msg("Session started")
	result.State = models.StateFramesPending

	for {
		if err := ctx.Err(); err != nil {
			return fail("session canceled", err)
		}

		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail("failed to decode input frame", err)
		}

		result.State = models.StateAnalyzing

		frameResult, annotated, err := ag.analyzer.Analyze(frame.Mat, frame.Index, frame.Timestamp, mode)
		if err != nil {
			frame.Close()
			return fail("frame analysis failed", err)
		}

		out := frame.Mat
		if annotated != nil {
			out = annotated
		}
		if err := sink.Write(out); err != nil {
			if annotated != nil {
				annotated.Close()
			}
			frame.Close()
			return fail("failed to write output frame", err)
		}

		if annotated != nil {
			annotated.Close()
		}
		frame.Close()

		if frameResult.Status == models.FrameStatusAnalyzed && result.Headline == nil {
			result.Headline = frameResult.Verdict
		}
		result.Frames = append(result.Frames, *frameResult)
	}

	result.State = models.StateAnnotated
	result.Summary = summarize(result.Frames)
	result.State = models.StateAggregated

	if result.Summary.FramesWithPose == 0 {
		result.State = models.StateFailedNoPose
		result.Success = false
		result.Message = "no pose detected in input"
		log.Warn().Str("session_id", sessionID).Int("frames_total", result.Summary.FramesTotal).Msg("No pose detected")
		return result, nil
	}

	result.State = models.StateSucceeded
	result.Success = true
	result.Message = result.Headline.Feedback

	log.Info().
		Str("session_id", sessionID).
		Int("frames_total", result.Summary.FramesTotal).
		Int("frames_with_pose", result.Summary.FramesWithPose).
		Float64("good_ratio", result.Summary.GoodRatio).
		Msg("Session completed")

	return result, nil
}

// summarize folds the per-frame verdicts into session statistics. Mean
// angles cover only frames where the measurement was available.
func summarize(frames []models.FrameResult) models.SessionSummary {
	summary := models.SessionSummary{FramesTotal: len(frames)}

	series := map[string][]float64{}
	for _, frame := range frames {
		if frame.Status != models.FrameStatusAnalyzed {
			continue
		}
		summary.FramesWithPose++
		if frame.Verdict.Good {
			summary.GoodFrames++
		}
		for name, value := range frame.Verdict.Angles {
			series[name] = append(series[name], value)
		}
	}

	if summary.FramesWithPose > 0 {
		summary.GoodRatio = float64(summary.GoodFrames) / float64(summary.FramesWithPose)
	}

	if len(series) > 0 {
		summary.MeanAngles = make(map[string]float64, len(series))
		for name, values := range series {
			summary.MeanAngles[name] = stat.Mean(values, nil)
		}
	}

	return summary
}
