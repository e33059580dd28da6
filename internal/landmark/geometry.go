package landmark

import "math"

// angleEpsilon keeps the cosine formula finite when two landmarks coincide.
const angleEpsilon = 1e-6

// Angle returns the angle in degrees at vertex b between rays b→a and b→c,
// using the dot-product formula over x, y and z. The cosine is clamped to
// [-1,1] so rounding never produces NaN; the result is in [0,180].
func Angle(a, b, c Landmark) float64 {
	bax, bay, baz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	bcx, bcy, bcz := c.X-b.X, c.Y-b.Y, c.Z-b.Z

	dot := bax*bcx + bay*bcy + baz*bcz
	norms := math.Sqrt(bax*bax+bay*bay+baz*baz) * math.Sqrt(bcx*bcx+bcy*bcy+bcz*bcz)

	cos := dot / (norms + angleEpsilon)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// PlanarAngle returns the image-plane angle at b from the difference of the
// two ray headings (atan2). Values above 180 are reflected so the result is
// always in [0,180].
func PlanarAngle(a, b, c Landmark) float64 {
	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(rad * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// SweepAngle is the counter-clockwise heading change from ray b→a to ray
// b→c in image coordinates, in [0,360). Unlike PlanarAngle it is not
// symmetric in a and c, so it distinguishes a tilt to either side.
func SweepAngle(a, b, c Landmark) float64 {
	deg := (math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// JointAngle computes the planar angle for the joint triple (a, b, c) in f.
// It returns ErrIndexOutOfRange or ErrLandmarkMissing when any point is
// absent or below minVisibility; callers decide whether to skip the frame.
func JointAngle(f Frame, t Triple, minVisibility float64) (float64, error) {
	pa, err := f.Visible(t.A, minVisibility)
	if err != nil {
		return 0, err
	}
	pb, err := f.Visible(t.B, minVisibility)
	if err != nil {
		return 0, err
	}
	pc, err := f.Visible(t.C, minVisibility)
	if err != nil {
		return 0, err
	}
	return PlanarAngle(pa, pb, pc), nil
}

// Distance returns the Euclidean distance between two landmarks in x,y,z.
func Distance(a, b Landmark) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
