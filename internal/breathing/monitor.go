// Package breathing classifies breathing from vertical chest movement.
//
// Monitor is the frame-differential classifier used by every flow. Analyzer
// adds a Savitzky-Golay smoothed window on top of it and prefers the coarser
// smoothed classification once enough samples have been collected.
package breathing

import (
	"math"
	"time"

	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/landmark"
)

// State is a breathing classification.
type State string

const (
	StateAnalyzing    State = "analyzing"
	StateInhale       State = "inhale"
	StateExhale       State = "exhale"
	StateSoft         State = "soft"
	StateNotBreathing State = "not_breathing"
	StatePoseUnstable State = "pose_unstable"
	StateCalm         State = "calm"
	StateHarsh        State = "harsh"
)

// Reading is the result of feeding one frame to a Monitor or Analyzer.
type Reading struct {
	State    State         `json:"state"`
	Movement float64       `json:"movement"` // chest displacement since the previous frame, in pixels
	Interval time.Duration `json:"interval"`

	// Set by Analyzer when the smoothed path classified the frame.
	Smoothed bool    `json:"smoothed,omitempty"`
	Range    float64 `json:"range,omitempty"`
	Score    float64 `json:"score,omitempty"`
}

// Monitor tracks chest height between frames. It is owned by one session.
type Monitor struct {
	FrameHeight       float64
	StillEpsilon      float64
	MovementThreshold float64
	StallFrames       int

	prevY     float64
	prevTime  time.Time
	primed    bool
	stillRuns int
}

// NewMonitor returns a Monitor using the breathing constants in cfg.
func NewMonitor(cfg *config.CoachConfig) *Monitor {
	return &Monitor{
		FrameHeight:       cfg.GetBreathingFrameHeight(),
		StillEpsilon:      cfg.GetBreathingStillEpsilon(),
		MovementThreshold: cfg.GetBreathingMovementThreshold(),
		StallFrames:       cfg.GetBreathingStallFrames(),
	}
}

// ChestY is the mean shoulder height of f, normalized.
func ChestY(f landmark.Frame) float64 {
	return (f[landmark.LeftShoulder].Y + f[landmark.RightShoulder].Y) / 2
}

// Update classifies the chest movement between the previous frame and f.
// The first complete frame only primes the monitor.
func (m *Monitor) Update(f landmark.Frame, now time.Time) Reading {
	if !f.Complete() {
		return Reading{State: StatePoseUnstable}
	}

	y := ChestY(f) * m.FrameHeight
	if !m.primed {
		m.prevY, m.prevTime, m.primed = y, now, true
		return Reading{State: StateAnalyzing}
	}

	r := Reading{Movement: y - m.prevY, Interval: now.Sub(m.prevTime)}
	m.prevY, m.prevTime = y, now

	if math.Abs(r.Movement) < m.StillEpsilon {
		m.stillRuns++
	} else {
		m.stillRuns = 0
	}

	switch {
	case m.stillRuns > m.StallFrames:
		r.State = StateNotBreathing
	case r.Movement > m.MovementThreshold:
		r.State = StateInhale
	case r.Movement < -m.MovementThreshold:
		r.State = StateExhale
	default:
		r.State = StateSoft
	}
	return r
}

// Reset forgets the previous frame.
func (m *Monitor) Reset() {
	m.primed = false
	m.stillRuns = 0
}
