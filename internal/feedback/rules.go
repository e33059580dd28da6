package feedback

import (
	"math"

	"github.com/banshee-data/posture.report/internal/landmark"
)

// RuleFunc inspects one frame and returns the issues found in it. Pose rule
// sets return TagPoseCorrect when they find nothing wrong.
type RuleFunc func(f landmark.Frame) []Tag

// TadasanaReference holds measurements of a correct mountain pose.
type TadasanaReference struct {
	FeetDistanceX     float64
	HipAlignment      float64
	ShoulderAlignment float64
	BackAngle         float64
}

// VrikshasanaReference holds measurements of a correct tree pose.
type VrikshasanaReference struct {
	LeftFootVsKnee    float64
	RightFootVsKnee   float64
	HipAlignment      float64
	ShoulderAlignment float64
	BackAngle         float64
	ArmsSymmetry      float64
	ArmsDistanceX     float64
}

// Default reference measurements, captured from correct reference poses.
var (
	DefaultTadasana = TadasanaReference{
		FeetDistanceX:     0.043,
		HipAlignment:      0.0013,
		ShoulderAlignment: 0.0061,
		BackAngle:         92.4,
	}
	DefaultVrikshasana = VrikshasanaReference{
		LeftFootVsKnee:    -0.07,
		RightFootVsKnee:   -0.11,
		HipAlignment:      0.004,
		ShoulderAlignment: 0.006,
		BackAngle:         87.6,
		ArmsSymmetry:      0.004,
		ArmsDistanceX:     0.08,
	}
)

const (
	alignmentMargin = 0.02
	footMargin      = 0.05
	handsMargin     = 0.05
	backMargin      = 10.0
)

// point returns landmark i when it is present and visible.
func point(f landmark.Frame, i int, minVis float64) (landmark.Landmark, bool) {
	lm, err := f.Visible(i, minVis)
	return lm, err == nil
}

func pair(f landmark.Frame, a, b int, minVis float64) (landmark.Landmark, landmark.Landmark, bool) {
	pa, okA := point(f, a, minVis)
	pb, okB := point(f, b, minVis)
	return pa, pb, okA && okB
}

// backTilted compares the sweep from left hip over left shoulder to right
// shoulder with the reference angle.
func backTilted(f landmark.Frame, ref, minVis float64) bool {
	hip, okH := point(f, landmark.LeftHip, minVis)
	ls, rs, okS := pair(f, landmark.LeftShoulder, landmark.RightShoulder, minVis)
	if !okH || !okS {
		return false
	}
	return math.Abs(landmark.SweepAngle(hip, ls, rs)-ref) > backMargin
}

func levelTag(f landmark.Frame, left, right int, limit, minVis float64, tag Tag) []Tag {
	l, r, ok := pair(f, left, right, minVis)
	if ok && math.Abs(l.Y-r.Y) > limit {
		return []Tag{tag}
	}
	return nil
}

// Tadasana returns the mountain pose rule set.
func Tadasana(ref TadasanaReference, minVis float64) RuleFunc {
	return func(f landmark.Frame) []Tag {
		var tags []Tag
		if la, ra, ok := pair(f, landmark.LeftAnkle, landmark.RightAnkle, minVis); ok {
			if math.Abs(la.X-ra.X) > ref.FeetDistanceX+alignmentMargin {
				tags = append(tags, TagFeetApart)
			}
		}
		tags = append(tags, levelTag(f, landmark.LeftHip, landmark.RightHip, ref.HipAlignment+alignmentMargin, minVis, TagHipsUnbalanced)...)
		tags = append(tags, levelTag(f, landmark.LeftShoulder, landmark.RightShoulder, ref.ShoulderAlignment+alignmentMargin, minVis, TagShouldersUnbalanced)...)
		if backTilted(f, ref.BackAngle, minVis) {
			tags = append(tags, TagBackNotStraight)
		}
		if len(tags) == 0 {
			tags = append(tags, TagPoseCorrect)
		}
		return tags
	}
}

// Vrikshasana returns the tree pose rule set. The raised foot is judged on
// the left leg, or the right leg when the left one is not visible.
func Vrikshasana(ref VrikshasanaReference, minVis float64) RuleFunc {
	return func(f landmark.Frame) []Tag {
		var tags []Tag

		footRef := ref.LeftFootVsKnee
		ankle, knee, ok := pair(f, landmark.LeftAnkle, landmark.LeftKnee, minVis)
		if !ok {
			footRef = ref.RightFootVsKnee
			ankle, knee, ok = pair(f, landmark.RightAnkle, landmark.RightKnee, minVis)
		}
		if ok {
			delta := ankle.Y - knee.Y
			switch {
			case delta > footRef+footMargin:
				tags = append(tags, TagLegTooLow)
			case delta < footRef-footMargin:
				tags = append(tags, TagLegTooHigh)
			}
		}

		tags = append(tags, levelTag(f, landmark.LeftShoulder, landmark.RightShoulder, ref.ShoulderAlignment+alignmentMargin, minVis, TagShouldersUnbalanced)...)
		tags = append(tags, levelTag(f, landmark.LeftHip, landmark.RightHip, ref.HipAlignment+alignmentMargin, minVis, TagHipsUnbalanced)...)

		if le, re, ok := pair(f, landmark.LeftElbow, landmark.RightElbow, minVis); ok {
			if math.Abs(le.Y-re.Y) > ref.ArmsSymmetry+alignmentMargin {
				tags = append(tags, TagArmsNotSymmetric)
			}
			if math.Abs(le.X-re.X) > ref.ArmsDistanceX+handsMargin {
				tags = append(tags, TagHandsNotJoined)
			}
		}

		if backTilted(f, ref.BackAngle, minVis) {
			tags = append(tags, TagBackNotStraight)
		}
		if len(tags) == 0 {
			tags = append(tags, TagPoseCorrect)
		}
		return tags
	}
}

// PoseRules returns the named yoga rule set with default references.
func PoseRules(name string, minVis float64) (RuleFunc, bool) {
	switch name {
	case "tadasana":
		return Tadasana(DefaultTadasana, minVis), true
	case "vrikshasana":
		return Vrikshasana(DefaultVrikshasana, minVis), true
	}
	return nil, false
}

// Alignment is the seated head and shoulder check used during meditation.
type Alignment struct {
	HeadAligned    bool
	ShouldersLevel bool
}

// CheckAlignment compares the nose with the shoulder midpoint and the two
// shoulder heights. Missing landmarks count as aligned.
func CheckAlignment(f landmark.Frame, headTolerance, shoulderTolerance float64) Alignment {
	a := Alignment{HeadAligned: true, ShouldersLevel: true}
	nose, okN := f.At(landmark.Nose)
	ls, okL := f.At(landmark.LeftShoulder)
	rs, okR := f.At(landmark.RightShoulder)
	if !okN || !okL || !okR {
		return a
	}
	if math.Abs(nose.X-(ls.X+rs.X)/2) > headTolerance {
		a.HeadAligned = false
	}
	if math.Abs(ls.Y-rs.Y) > shoulderTolerance {
		a.ShouldersLevel = false
	}
	return a
}

// Tags returns the meditation tags for the failed checks.
func (a Alignment) Tags() []Tag {
	var tags []Tag
	if !a.HeadAligned {
		tags = append(tags, TagHead)
	}
	if !a.ShouldersLevel {
		tags = append(tags, TagShoulders)
	}
	return tags
}

// AngleCheck names a joint whose angle is compared against an angle
// reference during the deep position of a rep.
type AngleCheck struct {
	Label  string          `json:"label"`
	Triple landmark.Triple `json:"triple"`
}

// CheckAngles returns an AdjustTag for every check whose planar angle
// differs from its reference by more than tolerance. Checks without a
// reference value are skipped.
func CheckAngles(f landmark.Frame, checks []AngleCheck, reference map[string]float64, tolerance float64) []Tag {
	var tags []Tag
	for _, c := range checks {
		want, ok := reference[c.Label]
		if !ok {
			continue
		}
		a, okA := f.At(c.Triple.A)
		b, okB := f.At(c.Triple.B)
		cc, okC := f.At(c.Triple.C)
		if !okA || !okB || !okC {
			continue
		}
		if math.Abs(landmark.PlanarAngle(a, b, cc)-want) > tolerance {
			tags = append(tags, AdjustTag(c.Label))
		}
	}
	return tags
}

// PostureLabel grades a smoothed accuracy.
func PostureLabel(accuracy, correct, minor float64) Tag {
	switch {
	case accuracy >= correct:
		return TagPoseCorrect
	case accuracy >= minor:
		return TagMinorCorrection
	default:
		return TagMajorCorrection
	}
}
