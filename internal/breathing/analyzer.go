package breathing

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/landmark"
)

// Analyzer combines the differential Monitor with a smoothed classifier
// over the last Window chest samples.
type Analyzer struct {
	monitor   *Monitor
	smoother  *Smoother
	window    int
	flatRange float64
	calmRange float64

	samples  []float64
	seen     int
	smoothed []float64
}

// NewAnalyzer returns an Analyzer configured from cfg.
func NewAnalyzer(cfg *config.CoachConfig) (*Analyzer, error) {
	sm, err := NewSmoother(cfg.GetBreathingSmoothingWindow(), cfg.GetBreathingSmoothingOrder())
	if err != nil {
		return nil, err
	}
	window := cfg.GetBreathingWindow()
	if window < sm.Window() {
		return nil, fmt.Errorf("breathing window %d shorter than smoothing window %d", window, sm.Window())
	}
	return &Analyzer{
		monitor:   NewMonitor(cfg),
		smoother:  sm,
		window:    window,
		flatRange: cfg.GetBreathingFlatRange(),
		calmRange: cfg.GetBreathingCalmRange(),
		samples:   make([]float64, 0, window),
	}, nil
}

// Update feeds one frame. Once more than Window samples have been seen the
// smoothed classification replaces the differential one.
func (a *Analyzer) Update(f landmark.Frame, now time.Time) Reading {
	r := a.monitor.Update(f, now)
	if r.State == StatePoseUnstable {
		return r
	}

	if len(a.samples) == a.window {
		copy(a.samples, a.samples[1:])
		a.samples = a.samples[:a.window-1]
	}
	a.samples = append(a.samples, ChestY(f))
	a.seen++

	if a.seen <= a.window {
		return r
	}

	a.smoothed = a.smoother.Smooth(a.samples)
	r.Range = floats.Max(a.smoothed) - floats.Min(a.smoothed)
	r.State, r.Score = ClassifyRange(r.Range, a.flatRange, a.calmRange)
	r.Smoothed = true
	return r
}

// Smoothed returns the most recent smoothed window, or nil before the
// smoothed path has run.
func (a *Analyzer) Smoothed() []float64 {
	if a.smoothed == nil {
		return nil
	}
	out := make([]float64, len(a.smoothed))
	copy(out, a.smoothed)
	return out
}
