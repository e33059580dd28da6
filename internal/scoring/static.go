// Package scoring compares live landmark frames against reference data.
//
// Static poses are scored on joint-angle differences with a mirror-flip
// fallback; motions are scored on the Euclidean distance between a trailing
// window of live frames and the start of a reference sequence. A separate
// whole-body cosine gate decides a boolean "posture correct".
package scoring

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/landmark"
)

// Result is the outcome of scoring one frame against a set of references.
type Result struct {
	Accuracy        float64 `json:"accuracy"`         // best of normal and flipped, in [0,100]
	NormalAccuracy  float64 `json:"normal_accuracy"`  // best normal-orientation accuracy
	FlippedAccuracy float64 `json:"flipped_accuracy"` // best mirror-flipped accuracy
	Flipped         bool    `json:"flipped"`
	ReferenceIndex  int     `json:"reference_index"` // -1 when nothing was scored
	Visible         bool    `json:"visible"`
}

// StaticScorer scores single frames against reference angle vectors.
type StaticScorer struct {
	Triples          []landmark.Triple
	FlipIndices      []int
	RequiredJoints   []int
	MinVisibility    float64
	RequiredFraction float64
}

// NewStaticScorer returns a scorer over the default joint table, with
// visibility gating taken from cfg.
func NewStaticScorer(cfg *config.CoachConfig) *StaticScorer {
	return &StaticScorer{
		Triples:          landmark.DefaultAngleTriples,
		FlipIndices:      landmark.DefaultFlipIndices,
		RequiredJoints:   landmark.DefaultRequiredJoints,
		MinVisibility:    cfg.GetVisibilityThreshold(),
		RequiredFraction: cfg.GetRequiredVisibleFraction(),
	}
}

// EnoughVisible reports whether at least RequiredFraction of the required
// joints are visible in f.
func (s *StaticScorer) EnoughVisible(f landmark.Frame) bool {
	if f.Empty() {
		return false
	}
	need := int(s.RequiredFraction * float64(len(s.RequiredJoints)))
	return f.CountVisible(s.RequiredJoints, s.MinVisibility) >= need
}

// Score compares f to each reference. Frames failing the visibility gate
// score 0 with Visible unset.
func (s *StaticScorer) Score(f landmark.Frame, refs []landmark.AngleVector) Result {
	if !s.EnoughVisible(f) {
		return Result{ReferenceIndex: -1}
	}
	r := ScoreAngles(landmark.Angles(f, s.Triples), refs, s.FlipIndices)
	r.Visible = true
	return r
}

// ScoreAngles returns the best accuracy of live, or its mirror flip, against
// any of refs. The flipped orientation only wins when strictly better.
func ScoreAngles(live landmark.AngleVector, refs []landmark.AngleVector, flip []int) Result {
	res := Result{ReferenceIndex: -1}
	if len(live) == 0 {
		return res
	}
	flipped := live.Flip(flip)

	for i, ref := range refs {
		normal, ok := AngleAccuracy(live, ref)
		if !ok {
			continue
		}
		mirrored, _ := AngleAccuracy(flipped, ref)

		if normal > res.NormalAccuracy {
			res.NormalAccuracy = normal
		}
		if mirrored > res.FlippedAccuracy {
			res.FlippedAccuracy = mirrored
		}

		best, isFlipped := normal, false
		if mirrored > normal {
			best, isFlipped = mirrored, true
		}
		if res.ReferenceIndex < 0 || best > res.Accuracy {
			res.Accuracy = best
			res.Flipped = isFlipped
			res.ReferenceIndex = i
		}
	}
	return res
}

// AngleAccuracy is 100 minus the mean absolute angle difference, floored at 0.
// Vectors of different length cannot be compared and return false.
func AngleAccuracy(live, ref landmark.AngleVector) (float64, bool) {
	if len(live) == 0 || len(live) != len(ref) {
		return 0, false
	}
	diffs := make([]float64, len(live))
	for i := range live {
		diffs[i] = math.Abs(live[i] - ref[i])
	}
	return clampScore(100 - stat.Mean(diffs, nil)), true
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
