package session

import (
	"time"

	"github.com/banshee-data/posture.report/internal/breathing"
	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/reps"
	"github.com/banshee-data/posture.report/internal/scoring"
)

// Without a tracked joint, motion reps are counted on the raw motion score:
// a rep completes when the score rises above Up after having fallen below
// Down. The counter starts armed so the first good match counts.
var motionScoreBand = reps.Thresholds{Down: 40, Up: 80}

// motionFlow scores a trailing window of frames against a reference motion.
type motionFlow struct {
	gate    *scoring.StaticScorer
	motion  *scoring.MotionScorer
	ema     *scoring.EMA
	breath  *breathing.Monitor
	counter *reps.Counter
	tracked *landmark.Triple
	minVis  float64
	tags    *feedback.TagDispatcher
	agg     *Aggregator
	adjust  float64
}

func newMotionFlow(b *reference.Bundle, cfg *config.CoachConfig, opts Options, agg *Aggregator) (*motionFlow, error) {
	m := &motionFlow{
		gate:    scoring.NewStaticScorer(cfg),
		motion:  scoring.NewMotionScorer(b.Motion, cfg.GetMotionBufferSize(), cfg.GetMotionDistanceScale()),
		ema:     scoring.NewEMA(cfg.GetAccuracySmoothing()),
		breath:  breathing.NewMonitor(cfg),
		tracked: b.Activity.Tracked,
		minVis:  cfg.GetVisibilityThreshold(),
		tags:    feedback.NewTagDispatcher(opts.Clock, cfg.GetWorkoutCooldown(), opts.Catalog, opts.Sink),
		agg:     agg,
		adjust:  cfg.GetMotionAdjustFormAccuracy(),
	}

	var err error
	if m.tracked != nil && b.Activity.Thresholds != nil {
		m.counter, err = reps.NewCounter(*b.Activity.Thresholds)
	} else {
		m.tracked = nil
		m.counter, err = reps.NewCounter(motionScoreBand)
		if err == nil {
			m.counter.Arm()
		}
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *motionFlow) process(f landmark.Frame, now time.Time, res *FrameResult) {
	res.Breathing = m.breath.Update(f, now).State

	if !m.gate.EnoughVisible(f) {
		emitTags(m.tags, res, feedback.TagPoseNotVisible)
		return
	}

	m.motion.Push(f)
	raw := m.motion.Score()
	res.Visible = true
	res.Accuracy = m.ema.Update(raw)
	m.agg.ObserveAccuracy(res.Accuracy)
	m.agg.ObserveCriterion(MetricGoodForm, raw >= m.adjust)

	value := raw
	if m.tracked != nil {
		angle, err := landmark.JointAngle(f, *m.tracked, m.minVis)
		if err != nil {
			logf("frame %d: tracked joint unavailable: %v", res.Index, err)
			return
		}
		value = angle
	}
	if m.counter.Update(value) {
		m.agg.ObserveRep()
		res.Rep = true
		emitTags(m.tags, res, feedback.TagGreatRep)
	}

	if raw < m.adjust {
		res.Status = feedback.TagAdjustForm
		emitTags(m.tags, res, feedback.TagAdjustForm)
	} else {
		res.Status = feedback.TagLookingGood
	}
}

func (m *motionFlow) finish(*Summary) {}
