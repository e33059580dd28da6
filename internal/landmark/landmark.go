// Package landmark defines body landmark frames and the geometry computed
// over them: joint angles, angle vectors and their left/right mirror.
//
// Coordinates are normalised to [0,1] image space as produced by the
// upstream pose model; Z is depth relative to the hips. Frames are owned by
// the caller and must not be modified once handed to a scorer.
package landmark

import (
	"errors"
	"fmt"
)

// Body landmark indices following the MediaPipe Pose convention.
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

	// NumLandmarks is the size of a complete body frame.
	NumLandmarks = 33
)

var (
	// ErrIndexOutOfRange is returned when a frame has no landmark at an index.
	ErrIndexOutOfRange = errors.New("landmark index out of range")
	// ErrLandmarkMissing is returned when a landmark is below the visibility threshold.
	ErrLandmarkMissing = errors.New("landmark not visible")
)

// Landmark is one tracked joint: normalised position plus detector confidence.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is an ordered set of landmarks for a single captured image.
// An empty frame means no body was detected.
type Frame []Landmark

// At returns the landmark at index i, or false if the frame is too short.
func (f Frame) At(i int) (Landmark, bool) {
	if i < 0 || i >= len(f) {
		return Landmark{}, false
	}
	return f[i], true
}

// Visible returns the landmark at i if it exists and its visibility is at
// least minVisibility.
func (f Frame) Visible(i int, minVisibility float64) (Landmark, error) {
	lm, ok := f.At(i)
	if !ok {
		return Landmark{}, fmt.Errorf("index %d of %d: %w", i, len(f), ErrIndexOutOfRange)
	}
	if lm.Visibility < minVisibility {
		return Landmark{}, fmt.Errorf("index %d visibility %.2f < %.2f: %w", i, lm.Visibility, minVisibility, ErrLandmarkMissing)
	}
	return lm, nil
}

// Empty reports whether the frame carries no landmarks.
func (f Frame) Empty() bool { return len(f) == 0 }

// Complete reports whether the frame carries the full body landmark set.
func (f Frame) Complete() bool { return len(f) >= NumLandmarks }

// AllVisible reports whether every landmark meets minVisibility.
// An empty frame is never visible.
func (f Frame) AllVisible(minVisibility float64) bool {
	if len(f) == 0 {
		return false
	}
	for _, lm := range f {
		if lm.Visibility < minVisibility {
			return false
		}
	}
	return true
}

// CountVisible counts how many of ids exist in the frame with visibility
// strictly above minVisibility.
func (f Frame) CountVisible(ids []int, minVisibility float64) int {
	n := 0
	for _, id := range ids {
		if lm, ok := f.At(id); ok && lm.Visibility > minVisibility {
			n++
		}
	}
	return n
}

// Flatten returns x,y,z of every landmark in order. Visibility is excluded.
func (f Frame) Flatten() []float64 {
	out := make([]float64, 0, len(f)*3)
	for _, lm := range f {
		out = append(out, lm.X, lm.Y, lm.Z)
	}
	return out
}

// MeanZ returns the average depth of all landmarks, or 0 for an empty frame.
func (f Frame) MeanZ() float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, lm := range f {
		sum += lm.Z
	}
	return sum / float64(len(f))
}
