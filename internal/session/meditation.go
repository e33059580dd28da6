package session

import (
	"fmt"
	"time"

	"github.com/banshee-data/posture.report/internal/breathing"
	"github.com/banshee-data/posture.report/internal/config"
	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/scoring"
)

// Summary tips are added when a meditation metric falls below its floor.
var meditationTips = []struct {
	metric string
	floor  float64
	tip    string
}{
	{MetricPosture, 75, "Improve your posture alignment."},
	{MetricHeadAlignment, 80, "Keep your head upright and straight."},
	{MetricShoulderBalance, 80, "Keep your shoulders relaxed and at equal level."},
}

const breathingTipFloor = 50

// meditationFlow gates on whole-body similarity to a mean seated pose and
// only analyses breathing while the posture is held.
type meditationFlow struct {
	gate     scoring.CosineGate
	analyzer *breathing.Analyzer
	tags     *feedback.TagDispatcher
	agg      *Aggregator
	headTol  float64
	shoulder float64
}

func newMeditationFlow(b *reference.Bundle, cfg *config.CoachConfig, opts Options, agg *Aggregator) (*meditationFlow, error) {
	analyzer, err := breathing.NewAnalyzer(cfg)
	if err != nil {
		return nil, fmt.Errorf("breathing analyzer: %w", err)
	}
	return &meditationFlow{
		gate:     scoring.CosineGate{Reference: b.MeanPose, Threshold: cfg.GetPostureCosineThreshold()},
		analyzer: analyzer,
		tags:     feedback.NewTagDispatcher(opts.Clock, cfg.GetMeditationCooldown(), opts.Catalog, opts.Sink),
		agg:      agg,
		headTol:  cfg.GetHeadAlignmentTolerance(),
		shoulder: cfg.GetShoulderLevelTolerance(),
	}, nil
}

func (m *meditationFlow) process(f landmark.Frame, now time.Time, res *FrameResult) {
	if f.Empty() {
		res.Status = feedback.TagPoseNotVisible
		return
	}
	res.Visible = true

	sim, postureOK := m.gate.Check(f)
	res.Accuracy = sim * 100
	m.agg.ObserveAccuracy(res.Accuracy)

	align := feedback.CheckAlignment(f, m.headTol, m.shoulder)
	m.agg.ObserveCriterion(MetricPosture, postureOK)
	m.agg.ObserveCriterion(MetricHeadAlignment, align.HeadAligned)
	m.agg.ObserveCriterion(MetricShoulderBalance, align.ShouldersLevel)

	var tags []feedback.Tag
	if !postureOK {
		tags = append(tags, feedback.TagPosture)
	}
	tags = append(tags, align.Tags()...)
	if len(tags) > 0 {
		res.Status = tags[0]
		emitTags(m.tags, res, tags...)
		return
	}

	r := m.analyzer.Update(f, now)
	res.Breathing = r.State
	m.agg.ObserveBreathing(r)
	switch {
	case r.Smoothed && r.State == breathing.StateNotBreathing:
		emitTags(m.tags, res, feedback.TagBreathingNone)
	case r.Smoothed && r.State == breathing.StateHarsh:
		emitTags(m.tags, res, feedback.TagBreathingHarsh)
	}
}

func (m *meditationFlow) finish(s *Summary) {
	for _, t := range meditationTips {
		if v, ok := s.Metric(t.metric); ok && v < t.floor {
			s.Tips = append(s.Tips, t.tip)
		}
	}
	if s.BreathingScore < breathingTipFloor {
		s.Tips = append(s.Tips, "Focus on slow, steady breathing.")
	}
	if s.Degenerate {
		s.Tips = append(s.Tips, "Posture was never detected; check the camera framing.")
	}
}
