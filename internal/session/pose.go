package session

import (
	"time"

	"github.com/banshee-data/posture.report/internal/breathing"
	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/scoring"
)

// poseFlow scores a held pose against static references. With a rule set
// the rule tags are spoken through a cooldown dispatcher; without one the
// smoothed accuracy is graded into a posture label.
type poseFlow struct {
	refs    []landmark.AngleVector
	scorer  *scoring.StaticScorer
	ema     *scoring.EMA
	breath  *breathing.Monitor
	rules   feedback.RuleFunc
	tags    *feedback.TagDispatcher
	labels  *feedback.LabelDispatcher
	agg     *Aggregator
	correct float64
	minor   float64
}

func newPoseFlow(b *reference.Bundle, cfg *config.CoachConfig, opts Options, agg *Aggregator) (*poseFlow, error) {
	p := &poseFlow{
		refs:    b.PoseAngles,
		scorer:  scoring.NewStaticScorer(cfg),
		ema:     scoring.NewEMA(cfg.GetAccuracySmoothing()),
		breath:  breathing.NewMonitor(cfg),
		tags:    feedback.NewTagDispatcher(opts.Clock, cfg.GetWorkoutCooldown(), opts.Catalog, opts.Sink),
		labels:  feedback.NewLabelDispatcher(opts.Clock, opts.Catalog, opts.Sink),
		agg:     agg,
		correct: cfg.GetPoseCorrectAccuracy(),
		minor:   cfg.GetMinorCorrectionAccuracy(),
	}
	if b.Activity.Rules != "" {
		p.rules, _ = feedback.PoseRules(b.Activity.Rules, cfg.GetVisibilityThreshold())
	}
	return p, nil
}

func (p *poseFlow) process(f landmark.Frame, now time.Time, res *FrameResult) {
	res.Breathing = p.breath.Update(f, now).State

	if !p.scorer.EnoughVisible(f) {
		if p.rules != nil {
			emitTags(p.tags, res, feedback.TagPoseNotVisible)
		} else {
			emitLabel(p.labels, feedback.TagPoseNotVisible, res)
		}
		return
	}

	r := p.scorer.Score(f, p.refs)
	res.Visible = true
	res.Accuracy = p.ema.Update(r.Accuracy)
	p.agg.ObserveAccuracy(res.Accuracy)
	p.agg.ObserveCriterion(MetricPoseCorrect, res.Accuracy >= p.correct)

	if p.rules != nil {
		tags := p.rules(f)
		if len(tags) > 0 {
			res.Status = tags[0]
		}
		emitTags(p.tags, res, tags...)
		return
	}
	emitLabel(p.labels, feedback.PostureLabel(res.Accuracy, p.correct, p.minor), res)
}

func (p *poseFlow) finish(*Summary) {}
