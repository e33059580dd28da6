// Package session runs one monitored activity from first frame to summary.
//
// A Session owns every piece of mutable per-run state (rep counter,
// breathing monitor, spoken-tag set, smoothing windows) so concurrent
// sessions never share anything but their read-only reference bundle.
package session

import (
	"fmt"
	"time"

	"github.com/banshee-data/posture.report/internal/breathing"
	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/monitoring"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/timeutil"
)

var logf = monitoring.Component("session")

// FrameResult is what one processed frame produced.
type FrameResult struct {
	Index     int                     `json:"index"`
	Visible   bool                    `json:"visible"`
	Accuracy  float64                 `json:"accuracy"`
	Reps      int                     `json:"reps"`
	Rep       bool                    `json:"rep,omitempty"`
	Status    feedback.Tag            `json:"status,omitempty"`
	Breathing breathing.State         `json:"breathing,omitempty"`
	Feedback  []feedback.Notification `json:"feedback,omitempty"`
}

// flow is the per-kind frame logic.
type flow interface {
	process(f landmark.Frame, now time.Time, res *FrameResult)
	finish(s *Summary)
}

// Options are the collaborators a Session uses. Clock and Catalog default
// to the real clock and the built-in messages; a nil Sink only records
// feedback in the summary.
type Options struct {
	Clock   timeutil.Clock
	Sink    feedback.Sink
	Catalog feedback.Catalog
}

// Session processes frames for one activity run. Not safe for concurrent use.
type Session struct {
	bundle *reference.Bundle
	clock  timeutil.Clock
	agg    *Aggregator
	flow   flow
	frames int
}

// New prepares a session for bundle's activity.
func New(bundle *reference.Bundle, cfg *config.CoachConfig, opts Options) (*Session, error) {
	if bundle == nil {
		return nil, fmt.Errorf("%w: nil bundle", reference.ErrMissingReference)
	}
	if cfg == nil {
		cfg = config.EmptyCoachConfig()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.Catalog == nil {
		opts.Catalog = feedback.DefaultCatalog()
	}

	s := &Session{bundle: bundle, clock: opts.Clock}
	a := bundle.Activity

	var err error
	switch a.Kind {
	case reference.KindPose:
		s.agg = NewAggregator(opts.Clock, a.Name, a.Kind, MetricPoseCorrect)
		s.flow, err = newPoseFlow(bundle, cfg, opts, s.agg)
	case reference.KindMotion:
		s.agg = NewAggregator(opts.Clock, a.Name, a.Kind, MetricGoodForm)
		s.flow, err = newMotionFlow(bundle, cfg, opts, s.agg)
	case reference.KindWorkout:
		s.agg = NewAggregator(opts.Clock, a.Name, a.Kind, MetricInPosition, MetricFormCorrect)
		s.flow, err = newWorkoutFlow(bundle, cfg, opts, s.agg)
	case reference.KindMeditation:
		s.agg = NewAggregator(opts.Clock, a.Name, a.Kind, MetricPosture, MetricHeadAlignment, MetricShoulderBalance)
		s.flow, err = newMeditationFlow(bundle, cfg, opts, s.agg)
	default:
		err = fmt.Errorf("unsupported activity kind %q", a.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("activity %q: %w", a.Name, err)
	}
	return s, nil
}

// Metric names reported in summaries.
const (
	MetricPoseCorrect     = "pose_correct"
	MetricGoodForm        = "good_form"
	MetricInPosition      = "in_position"
	MetricFormCorrect     = "form_correct" // at rep depth and matching the reference pose
	MetricPosture         = "posture"
	MetricHeadAlignment   = "head_alignment"
	MetricShoulderBalance = "shoulder_balance"
)

// ID returns the session identifier used in its summary.
func (s *Session) ID() string { return s.agg.ID() }

// Activity returns the activity being run.
func (s *Session) Activity() reference.Activity { return s.bundle.Activity }

// ProcessFrame runs one frame through the flow. An empty frame means no body
// was detected. Frames must be passed in capture order.
func (s *Session) ProcessFrame(f landmark.Frame) FrameResult {
	res := FrameResult{Index: s.frames}
	s.frames++
	s.flow.process(f, s.clock.Now(), &res)

	res.Reps = s.agg.Reps()
	s.agg.ObserveFeedback(res.Feedback...)
	s.agg.ObserveFrame(res.Visible, res.Accuracy, res.Breathing)
	return res
}

// Summary returns the session summary as of now.
func (s *Session) Summary() Summary {
	sum := s.agg.Summarize()
	s.flow.finish(&sum)
	return sum
}

// emitLabel dispatches label and records the notification when emitted.
func emitLabel(d *feedback.LabelDispatcher, label feedback.Tag, res *FrameResult) {
	res.Status = label
	if n, ok := d.Dispatch(label); ok {
		res.Feedback = append(res.Feedback, n)
	}
}

func emitTags(d *feedback.TagDispatcher, res *FrameResult, tags ...feedback.Tag) {
	res.Feedback = append(res.Feedback, d.Dispatch(tags...)...)
}
