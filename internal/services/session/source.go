// Package session drives the frame analyzer across all frames of one input
// and assembles the session result. One Aggregator run corresponds to one
// request; nothing is shared between concurrently running sessions.
package session

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// Frame is one decoded frame handed through the pipeline.
type Frame struct {
	Index     int
	Timestamp float64 // seconds from input start
	Mat       *gocv.Mat
}

// Close releases the frame buffer.
func (f *Frame) Close() {
	if f.Mat != nil {
		f.Mat.Close()
		f.Mat = nil
	}
}

// FrameSource yields frames in temporal order. Next returns io.EOF when the
// input is exhausted.
type FrameSource interface {
	Next() (*Frame, error)
	FPS() float64
	Close() error
}

// FrameSink receives annotated frames in the order they were analyzed and
// re-encodes them into the output media.
type FrameSink interface {
	Write(mat *gocv.Mat) error
	Close() error
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
}

// IsVideo reports whether the file extension selects video processing.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// OpenSource opens the matching frame source for the input file.
func OpenSource(path string) (FrameSource, error) {
	if IsVideo(path) {
		return NewVideoSource(path)
	}
	return NewImageSource(path), nil
}

// OpenSink opens the matching frame sink for the output file, sized from
// the source when re-encoding video.
func OpenSink(src FrameSource, path string) (FrameSink, error) {
	if video, ok := src.(*VideoSource); ok {
		return NewVideoSink(path, video.FPS(), video.Width(), video.Height())
	}
	return NewImageSink(path), nil
}

// VideoSource decodes frames from a video file via OpenCV.
type VideoSource struct {
	capture *gocv.VideoCapture
	fps     float64
	width   int
	height  int
	index   int
}

// NewVideoSource opens a video file for sequential decoding.
func NewVideoSource(path string) (*VideoSource, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}

	return &VideoSource{
		capture: capture,
		fps:     fps,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

func (s *VideoSource) Next() (*Frame, error) {
	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, io.EOF
	}

	frame := &Frame{
		Index:     s.index,
		Timestamp: float64(s.index) / s.fps,
		Mat:       &mat,
	}
	s.index++
	return frame, nil
}

func (s *VideoSource) FPS() float64 { return s.fps }
func (s *VideoSource) Width() int   { return s.width }
func (s *VideoSource) Height() int  { return s.height }

func (s *VideoSource) Close() error {
	return s.capture.Close()
}

// ImageSource yields a still image as a single frame.
type ImageSource struct {
	path string
	done bool
}

// NewImageSource wraps a still image file as a one-frame source.
func NewImageSource(path string) *ImageSource {
	return &ImageSource{path: path}
}

func (s *ImageSource) Next() (*Frame, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true

	mat := gocv.IMRead(s.path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("decode image %s", s.path)
	}

	return &Frame{Index: 0, Timestamp: 0, Mat: &mat}, nil
}

func (s *ImageSource) FPS() float64 { return 0 }

func (s *ImageSource) Close() error { return nil }

// VideoSink re-encodes frames into an output video.
type VideoSink struct {
	writer *gocv.VideoWriter
}

// NewVideoSink opens an mp4v-encoded writer with the source's geometry.
func NewVideoSink(path string, fps float64, width, height int) (*VideoSink, error) {
	writer, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer %s: %w", path, err)
	}
	return &VideoSink{writer: writer}, nil
}

func (s *VideoSink) Write(mat *gocv.Mat) error {
	return s.writer.Write(*mat)
}

func (s *VideoSink) Close() error {
	return s.writer.Close()
}

// ImageSink writes the single annotated frame of an image session.
type ImageSink struct {
	path string
}

// NewImageSink writes frames to an image file; the last write wins.
func NewImageSink(path string) *ImageSink {
	return &ImageSink{path: path}
}

func (s *ImageSink) Write(mat *gocv.Mat) error {
	if ok := gocv.IMWrite(s.path, *mat); !ok {
		return fmt.Errorf("write image %s", s.path)
	}
	return nil
}

func (s *ImageSink) Close() error { return nil }
