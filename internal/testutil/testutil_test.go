package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/posture.report/internal/landmark"
)

func TestKneeFrame(t *testing.T) {
	for _, deg := range []float64{60, 90, 135, 175} {
		f := KneeFrame(deg)
		require.Len(t, f, landmark.NumLandmarks)
		got := landmark.PlanarAngle(f[landmark.LeftHip], f[landmark.LeftKnee], f[landmark.LeftAnkle])
		assert.InDelta(t, deg, got, 1e-6)
	}
}

func TestHiddenFrame(t *testing.T) {
	f := HiddenFrame()
	assert.Less(t, f[landmark.LeftKnee].Visibility, 0.5)
	assert.Greater(t, f[landmark.Nose].Visibility, 0.5)
}

func TestNewClock(t *testing.T) {
	c := NewClock()
	c.Sleep(time.Second)
	assert.Equal(t, Epoch.Add(time.Second), c.Now())
}
