package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"gocv.io/x/gocv"

	"posture-worker-go/internal/models"
)

// Skeleton segments rendered on annotated frames (major body connections
// from the MediaPipe pose topology).
var skeletonConnections = [][2]int{
	{models.LeftEar, models.LeftShoulder},
	{models.RightEar, models.RightShoulder},
	{models.LeftShoulder, models.RightShoulder},
	{models.LeftShoulder, models.LeftElbow},
	{models.LeftElbow, models.LeftWrist},
	{models.RightShoulder, models.RightElbow},
	{models.RightElbow, models.RightWrist},
	{models.LeftShoulder, models.LeftHip},
	{models.RightShoulder, models.RightHip},
	{models.LeftHip, models.RightHip},
	{models.LeftHip, models.LeftKnee},
	{models.LeftKnee, models.LeftAnkle},
	{models.LeftAnkle, models.LeftFootIndex},
	{models.RightHip, models.RightKnee},
	{models.RightKnee, models.RightAnkle},
	{models.RightAnkle, models.RightFootIndex},
}

var (
	skeletonColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	jointColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	backColor     = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	kneeColor     = color.RGBA{R: 139, G: 0, B: 0, A: 255}
	neckColor     = color.RGBA{R: 0, G: 0, B: 139, A: 255}
	goodColor     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	badColor      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	labelColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// drawOverlay renders the skeleton, rule-group joint markers, the headline
// feedback line and the angle labels onto the frame copy.
func drawOverlay(mat *gocv.Mat, lm *models.PoseLandmarks, facing models.Facing, mode models.PostureMode, verdict *models.Verdict) {
	w := mat.Cols()
	h := mat.Rows()

	px := func(idx int) image.Point {
		return image.Pt(int(lm.Points[idx].X*float64(w)), int(lm.Points[idx].Y*float64(h)))
	}

	for _, conn := range skeletonConnections {
		gocv.Line(mat, px(conn[0]), px(conn[1]), skeletonColor, 2)
	}

	colors := jointColors(facing, mode)
	for idx := 0; idx < models.NumLandmarks; idx++ {
		c, highlighted := colors[idx]
		if !highlighted {
			c = jointColor
		}
		gocv.Circle(mat, px(idx), 6, c, -1)
	}

	feedbackColor := badColor
	if verdict.Good {
		feedbackColor = goodColor
	}
	gocv.PutText(mat, verdict.Feedback, image.Pt(20, 40), gocv.FontHersheySimplex, 1, feedbackColor, 3)

	y := 80
	for _, line := range angleLabels(verdict) {
		gocv.PutText(mat, line, image.Pt(20, y), gocv.FontHersheySimplex, 0.8, labelColor, 2)
		y += 35
	}
}

// jointColors marks the joints participating in each rule group for the
// active mode: back joints black, knee joints dark red, neck joints dark
// blue. Later groups win on shared joints, matching the original overlay.
func jointColors(facing models.Facing, mode models.PostureMode) map[int]color.RGBA {
	joints := models.Joints(facing)
	colors := map[int]color.RGBA{}

	switch mode {
	case models.ModeSquat:
		for _, idx := range []int{joints.Shoulder, joints.Hip, joints.Knee} {
			colors[idx] = backColor
		}
		for _, idx := range []int{joints.Hip, joints.Knee, joints.Ankle} {
			colors[idx] = kneeColor
		}
	case models.ModeSitting:
		for _, idx := range []int{joints.Shoulder, joints.Hip, joints.Knee} {
			colors[idx] = backColor
		}
		for _, idx := range []int{joints.Ear, joints.Shoulder} {
			colors[idx] = neckColor
		}
	}

	return colors
}

// angleLabels formats the available angle measurements as overlay lines,
// e.g. "Back: 45.0 deg", in stable alphabetical order.
func angleLabels(verdict *models.Verdict) []string {
	names := make([]string, 0, len(verdict.Angles))
	for name := range verdict.Angles {
		if strings.HasSuffix(name, "_angle") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		display := strings.TrimSuffix(name, "_angle")
		display = strings.ToUpper(display[:1]) + display[1:]
		lines = append(lines, fmt.Sprintf("%s: %.1f deg", display, verdict.Angles[name]))
	}
	return lines
}
