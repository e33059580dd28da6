package scoring

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/posture.report/internal/landmark"
)

// MotionScorer keeps a trailing window of live frames and scores it against
// a reference motion.
type MotionScorer struct {
	reference []landmark.Frame
	buffer    []landmark.Frame
	capacity  int
	scale     float64
}

// NewMotionScorer returns a scorer with a buffer of capacity frames. The
// reference slice is shared, not copied.
func NewMotionScorer(reference []landmark.Frame, capacity int, scale float64) *MotionScorer {
	if capacity < 1 {
		capacity = 1
	}
	return &MotionScorer{
		reference: reference,
		buffer:    make([]landmark.Frame, 0, capacity),
		capacity:  capacity,
		scale:     scale,
	}
}

// Push appends f, evicting the oldest frame when full.
func (m *MotionScorer) Push(f landmark.Frame) {
	if len(m.buffer) == m.capacity {
		copy(m.buffer, m.buffer[1:])
		m.buffer = m.buffer[:len(m.buffer)-1]
	}
	m.buffer = append(m.buffer, f)
}

// Len returns the number of buffered frames.
func (m *MotionScorer) Len() int { return len(m.buffer) }

// Reset drops all buffered frames.
func (m *MotionScorer) Reset() { m.buffer = m.buffer[:0] }

// Score compares the buffer to the reference.
func (m *MotionScorer) Score() float64 {
	return MotionSimilarity(m.buffer, m.reference, m.scale)
}

// MotionSimilarity aligns the last K live frames with the first K reference
// frames, K being the shorter length, and converts the mean per-frame
// distance to a score of 100 - mean*scale floored at 0. Pairs whose
// flattened lengths differ are skipped; if none remain the score is 0.
func MotionSimilarity(live, reference []landmark.Frame, scale float64) float64 {
	k := min(len(live), len(reference))
	if k == 0 {
		return 0
	}
	live = live[len(live)-k:]
	reference = reference[:k]

	dists := make([]float64, 0, k)
	for i := 0; i < k; i++ {
		a, b := live[i].Flatten(), reference[i].Flatten()
		if len(a) == 0 || len(a) != len(b) {
			continue
		}
		dists = append(dists, floats.Distance(a, b, 2))
	}
	if len(dists) == 0 {
		return 0
	}
	return clampScore(100 - stat.Mean(dists, nil)*scale)
}
