// Package testutil provides landmark fixtures shared by the session and
// command tests.
package testutil

import (
	"math"
	"time"

	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/timeutil"
)

// Epoch is the start time used by fixture clocks.
var Epoch = time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC)

// NewClock returns a mock clock at Epoch that advances when slept on.
func NewClock() *timeutil.MockClock {
	c := timeutil.NewMockClock(Epoch)
	c.AdvanceOnSleep = true
	return c
}

// StandingFrame is an upright, front-facing figure with level shoulders and
// the nose over the shoulder midpoint. Every landmark is visible.
func StandingFrame() landmark.Frame {
	f := make(landmark.Frame, landmark.NumLandmarks)
	for i := range f {
		f[i] = landmark.Landmark{X: 0.5, Y: 0.1 + float64(i)*0.02, Visibility: 0.95}
	}
	set := func(i int, x, y float64) { f[i].X, f[i].Y = x, y }
	set(landmark.Nose, 0.5, 0.15)
	set(landmark.LeftShoulder, 0.6, 0.3)
	set(landmark.RightShoulder, 0.4, 0.3)
	set(landmark.LeftElbow, 0.52, 0.4)
	set(landmark.RightElbow, 0.48, 0.4)
	set(landmark.LeftWrist, 0.55, 0.5)
	set(landmark.RightWrist, 0.45, 0.5)
	set(landmark.LeftHip, 0.592, 0.55)
	set(landmark.RightHip, 0.408, 0.55)
	set(landmark.LeftKnee, 0.52, 0.72)
	set(landmark.RightKnee, 0.48, 0.72)
	set(landmark.LeftAnkle, 0.51, 0.9)
	set(landmark.RightAnkle, 0.49, 0.9)
	set(landmark.LeftFootIndex, 0.53, 0.93)
	set(landmark.RightFootIndex, 0.47, 0.93)
	return f
}

// KneeFrame bends the left knee of StandingFrame to the given planar angle.
func KneeFrame(deg float64) landmark.Frame {
	f := StandingFrame()
	rad := deg * math.Pi / 180
	f[landmark.LeftHip].X, f[landmark.LeftHip].Y = 0.5, 0.5
	f[landmark.LeftKnee].X, f[landmark.LeftKnee].Y = 0.5, 0.7
	f[landmark.LeftAnkle].X = 0.5 + 0.2*math.Sin(rad)
	f[landmark.LeftAnkle].Y = 0.7 - 0.2*math.Cos(rad)
	return f
}

// HiddenFrame is StandingFrame with the legs below the visibility threshold.
func HiddenFrame() landmark.Frame {
	f := StandingFrame()
	for _, i := range []int{landmark.LeftAnkle, landmark.RightAnkle, landmark.LeftKnee, landmark.RightKnee, landmark.LeftFootIndex} {
		f[i].Visibility = 0.1
	}
	return f
}
