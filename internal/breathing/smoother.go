package breathing

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Smoother is a Savitzky-Golay filter. Edge samples are evaluated from a
// polynomial fitted to the first or last full window.
type Smoother struct {
	window int
	order  int
	// weights row e evaluates the least-squares polynomial at window offset e.
	weights *mat.Dense
}

// NewSmoother builds a filter. window must be odd and greater than order.
func NewSmoother(window, order int) (*Smoother, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("savitzky-golay window must be odd and positive, got %d", window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("savitzky-golay order %d must be in [0,%d)", order, window)
	}

	half := window / 2
	vander := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		p := 1.0
		for k := 0; k <= order; k++ {
			vander.Set(i, k, p)
			p *= x
		}
	}

	identity := mat.NewDense(window, window, nil)
	for i := 0; i < window; i++ {
		identity.Set(i, i, 1)
	}

	var pinv mat.Dense
	if err := pinv.Solve(vander, identity); err != nil {
		return nil, fmt.Errorf("failed to fit savitzky-golay basis: %w", err)
	}

	var weights mat.Dense
	weights.Mul(vander, &pinv)
	return &Smoother{window: window, order: order, weights: &weights}, nil
}

// Window returns the filter length.
func (s *Smoother) Window() int { return s.window }

// Smooth returns the filtered series. Series shorter than the window are
// returned unchanged.
func (s *Smoother) Smooth(y []float64) []float64 {
	out := make([]float64, len(y))
	if len(y) < s.window {
		copy(out, y)
		return out
	}

	half := s.window / 2
	last := len(y) - s.window
	for i := range y {
		start := min(max(i-half, 0), last)
		out[i] = floats.Dot(s.weights.RawRowView(i-start), y[start:start+s.window])
	}
	return out
}

// ClassifyRange maps the peak-to-trough range of a smoothed chest series to
// a breathing state and a score in [0,1].
func ClassifyRange(span, flat, calm float64) (State, float64) {
	switch {
	case span < flat:
		return StateNotBreathing, 0
	case span < calm:
		return StateCalm, 1
	default:
		return StateHarsh, 0.5
	}
}
