package scoring

import (
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/posture.report/internal/landmark"
)

// CosineSimilarity of two equal-length vectors. Mismatched or zero-length
// vectors give 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// CosineGate compares a whole flattened frame against a mean reference pose.
type CosineGate struct {
	Reference []float64
	Threshold float64
}

// Check returns the similarity of f to the reference and whether it clears
// the threshold.
func (g CosineGate) Check(f landmark.Frame) (float64, bool) {
	sim := CosineSimilarity(f.Flatten(), g.Reference)
	return sim, sim >= g.Threshold
}

// FrameSimilarity is the cosine similarity of two flattened frames.
func FrameSimilarity(a, b landmark.Frame) float64 {
	return CosineSimilarity(a.Flatten(), b.Flatten())
}
