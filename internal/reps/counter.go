// Package reps counts exercise repetitions with a two-threshold state machine.
package reps

import (
	"errors"
	"fmt"
)

// Stage of the movement.
type Stage int

const (
	StageUnknown Stage = iota
	StageDown
	StageUp
)

func (s Stage) String() string {
	switch s {
	case StageDown:
		return "down"
	case StageUp:
		return "up"
	default:
		return "unknown"
	}
}

// ErrThresholds is returned when the down threshold does not lie strictly
// below the up threshold.
var ErrThresholds = errors.New("rep thresholds must satisfy down < up")

// Thresholds bound the hysteresis band of a tracked angle, in degrees.
type Thresholds struct {
	Down float64 `json:"down"`
	Up   float64 `json:"up"`
}

// Validate checks the band is non-empty.
func (t Thresholds) Validate() error {
	if !(t.Down < t.Up) {
		return fmt.Errorf("%w: down=%.1f up=%.1f", ErrThresholds, t.Down, t.Up)
	}
	return nil
}

// Counter counts one repetition per down to up transition. It is not safe
// for concurrent use; each session owns its own Counter.
type Counter struct {
	thresholds Thresholds
	stage      Stage
	count      int
}

// NewCounter returns a counter in StageUnknown.
func NewCounter(t Thresholds) (*Counter, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Counter{thresholds: t}, nil
}

// Update feeds the latest value and reports whether it completed a rep.
func (c *Counter) Update(value float64) bool {
	switch {
	case value < c.thresholds.Down:
		c.stage = StageDown
	case value > c.thresholds.Up && c.stage == StageDown:
		c.stage = StageUp
		c.count++
		return true
	}
	return false
}

// Arm puts the counter in StageDown so the first crossing of Up counts.
// Used when the tracked value starts at rest below the band.
func (c *Counter) Arm() { c.stage = StageDown }

// Stage returns the current stage.
func (c *Counter) Stage() Stage { return c.stage }

// Count returns the number of completed repetitions.
func (c *Counter) Count() int { return c.count }

// Thresholds returns the configured band.
func (c *Counter) Thresholds() Thresholds { return c.thresholds }
