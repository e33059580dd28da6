package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/posture.report/internal/landmark"
)

func seqFrames(n int, offset float64) []landmark.Frame {
	out := make([]landmark.Frame, n)
	for i := range out {
		f := make(landmark.Frame, 3)
		for j := range f {
			f[j] = landmark.Landmark{X: float64(i) * 0.1, Y: float64(j)*0.1 + offset, Visibility: 1}
		}
		out[i] = f
	}
	return out
}

func TestMotionSimilarity_Empty(t *testing.T) {
	t.Parallel()

	ref := seqFrames(5, 0)
	assert.Equal(t, 0.0, MotionSimilarity(nil, ref, 2))
	assert.Equal(t, 0.0, MotionSimilarity(ref, nil, 2))
	assert.Equal(t, 0.0, MotionSimilarity(nil, nil, 2))
}

func TestMotionSimilarity_Identical(t *testing.T) {
	t.Parallel()

	ref := seqFrames(5, 0)
	assert.Equal(t, 100.0, MotionSimilarity(ref, ref, 2))
}

func TestMotionSimilarity_Alignment(t *testing.T) {
	t.Parallel()

	ref := seqFrames(3, 0)
	// Live buffer is longer: its last three frames match the first three of
	// the reference exactly.
	live := append(seqFrames(2, 5), ref...)
	assert.Equal(t, 100.0, MotionSimilarity(live, ref, 2))

	// Every y shifted by 0.1 over three landmarks: distance sqrt(3*0.01).
	shifted := seqFrames(3, 0.1)
	assert.InDelta(t, 100-0.17320508*2, MotionSimilarity(shifted, ref, 2), 1e-6)

	// A huge scale floors at zero.
	assert.Equal(t, 0.0, MotionSimilarity(shifted, ref, 1e6))
}

func TestMotionSimilarity_MismatchedShapesSkipped(t *testing.T) {
	t.Parallel()

	ref := seqFrames(2, 0)
	live := seqFrames(2, 0)
	live[0] = live[0][:2]
	assert.Equal(t, 100.0, MotionSimilarity(live, ref, 2))

	live[1] = live[1][:1]
	assert.Equal(t, 0.0, MotionSimilarity(live, ref, 2))
}

func TestMotionScorer_BoundedBuffer(t *testing.T) {
	t.Parallel()

	ref := seqFrames(4, 0)
	m := NewMotionScorer(ref, 4, 2)
	assert.Equal(t, 0.0, m.Score())

	for _, f := range seqFrames(6, 3) {
		m.Push(f)
	}
	assert.Equal(t, 4, m.Len())

	for _, f := range ref {
		m.Push(f)
	}
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, 100.0, m.Score())

	m.Reset()
	assert.Equal(t, 0, m.Len())
}
