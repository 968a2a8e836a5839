// Package models defines the data types shared across the posture analysis pipeline.
package models

// Pose landmark indices following the MediaPipe Pose convention (33 landmarks).
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is one named anatomical point as reported by the pose model.
// Coordinates are normalized to the frame (x right, y down), Visibility is
// the model's per-landmark confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// PoseLandmarks holds the full landmark set for one frame. Immutable once
// produced by the provider.
type PoseLandmarks struct {
	Points [NumLandmarks]Landmark `json:"points"`
}

// Facing is the direction the subject faces relative to the camera.
// Rules assume a side view; facing selects which body side to measure.
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Facing determines the facing direction from the nose position relative to
// the shoulders: a nose ahead (greater x) of either shoulder means the
// subject faces right in image coordinates.
func (p *PoseLandmarks) Facing() Facing {
	nose := p.Points[Nose].X
	if nose > p.Points[RightShoulder].X || nose > p.Points[LeftShoulder].X {
		return FacingRight
	}
	return FacingLeft
}

// Detected reports whether the landmark set contains at least one point at
// or above the given visibility threshold. A set that fails this check is
// treated as "no pose detected" for the whole frame.
func (p *PoseLandmarks) Detected(minVisibility float64) bool {
	if p == nil {
		return false
	}
	for i := range p.Points {
		if p.Points[i].Visibility >= minVisibility {
			return true
		}
	}
	return false
}

// SideJoints maps the measured joints to landmark indices for one body side.
type SideJoints struct {
	Ear      int
	Shoulder int
	Hip      int
	Knee     int
	Ankle    int
	Toe      int
}

// Joints returns the landmark indices of the body side visible for the given
// facing direction.
func Joints(facing Facing) SideJoints {
	if facing == FacingLeft {
		return SideJoints{
			Ear:      LeftEar,
			Shoulder: LeftShoulder,
			Hip:      LeftHip,
			Knee:     LeftKnee,
			Ankle:    LeftAnkle,
			Toe:      LeftFootIndex,
		}
	}
	return SideJoints{
		Ear:      RightEar,
		Shoulder: RightShoulder,
		Hip:      RightHip,
		Knee:     RightKnee,
		Ankle:    RightAnkle,
		Toe:      RightFootIndex,
	}
}
