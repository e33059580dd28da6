package session

import (
	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/testutil"
)

var (
	epoch    = testutil.Epoch
	newClock = testutil.NewClock
)

func standingFrame() landmark.Frame {
	return testutil.StandingFrame()
}

func kneeFrame(deg float64) landmark.Frame {
	return testutil.KneeFrame(deg)
}

func hiddenFrame() landmark.Frame {
	return testutil.HiddenFrame()
}
