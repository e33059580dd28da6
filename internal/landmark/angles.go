package landmark

// Triple names the three landmarks of a joint angle; B is the vertex.
type Triple struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
}

// Indices returns the triple as a slice, for visibility checks.
func (t Triple) Indices() []int { return []int{t.A, t.B, t.C} }

// AngleVector is an ordered list of joint angles. Order matters: mirror
// flipping swaps positions according to a remap table.
type AngleVector []float64

// DefaultAngleTriples are the joints compared by the static pose scorer.
// Entries come in left/right pairs so that DefaultFlipIndices can swap them.
var DefaultAngleTriples = []Triple{
	{LeftShoulder, LeftElbow, LeftWrist},
	{RightShoulder, RightElbow, RightWrist},
	{LeftHip, LeftKnee, LeftAnkle},
	{RightHip, RightKnee, RightAnkle},
	{LeftShoulder, LeftHip, LeftKnee},
	{RightShoulder, RightHip, RightKnee},
	{LeftHip, LeftShoulder, LeftElbow},
	{RightHip, RightShoulder, RightElbow},
}

// DefaultFlipIndices maps each position of a DefaultAngleTriples vector to
// its mirrored counterpart.
var DefaultFlipIndices = []int{1, 0, 3, 2, 5, 4, 7, 6}

// DefaultRequiredJoints must be mostly visible before a static pose is scored.
var DefaultRequiredJoints = []int{
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
	LeftFootIndex, RightFootIndex,
}

// Angles computes the 3D angle for every triple. A triple that references a
// landmark outside the frame yields 0 so the vector length stays fixed.
func Angles(f Frame, triples []Triple) AngleVector {
	out := make(AngleVector, len(triples))
	for i, t := range triples {
		a, okA := f.At(t.A)
		b, okB := f.At(t.B)
		c, okC := f.At(t.C)
		if !okA || !okB || !okC {
			continue
		}
		out[i] = Angle(a, b, c)
	}
	return out
}

// Flip returns a copy of v with positions swapped per flip. Positions not
// covered by flip, or mapped outside v, are copied unchanged.
func (v AngleVector) Flip(flip []int) AngleVector {
	out := make(AngleVector, len(v))
	copy(out, v)
	for i, j := range flip {
		if i < len(v) && j >= 0 && j < len(v) {
			out[i] = v[j]
		}
	}
	return out
}
