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

// workoutFlow counts reps on a tracked joint and grades form at the bottom
// of each rep. Status changes are spoken once per change; angle corrections
// go through a per-tag cooldown.
type workoutFlow struct {
	bundle     *reference.Bundle
	tracked    landmark.Triple
	counter    *reps.Counter
	similarity *scoring.Window
	breath     *breathing.Monitor
	labels     *feedback.LabelDispatcher
	tags       *feedback.TagDispatcher
	agg        *Aggregator

	minVis      float64
	prone       bool
	proneDepth  float64
	tolerance   float64
	repForm     float64
	formCosine  float64
	frameIndex  int // frames past the visibility and position gates, aligns the angle reference
	repAccuracy []float64
}

func newWorkoutFlow(b *reference.Bundle, cfg *config.CoachConfig, opts Options, agg *Aggregator) (*workoutFlow, error) {
	a := b.Activity
	counter, err := reps.NewCounter(*a.Thresholds)
	if err != nil {
		return nil, err
	}
	return &workoutFlow{
		bundle:     b,
		tracked:    *a.Tracked,
		counter:    counter,
		similarity: scoring.NewWindow(cfg.GetSimilarityWindow()),
		breath:     breathing.NewMonitor(cfg),
		labels:     feedback.NewLabelDispatcher(opts.Clock, opts.Catalog, opts.Sink),
		tags:       feedback.NewTagDispatcher(opts.Clock, cfg.GetWorkoutCooldown(), opts.Catalog, opts.Sink),
		agg:        agg,
		minVis:     cfg.GetVisibilityThreshold(),
		prone:      a.Prone,
		proneDepth: cfg.GetProneDepthThreshold(),
		tolerance:  cfg.GetAngleTolerance(),
		repForm:    cfg.GetRepFormThreshold(),
		formCosine: cfg.GetWorkoutCosineThreshold(),
	}, nil
}

func (w *workoutFlow) process(f landmark.Frame, now time.Time, res *FrameResult) {
	res.Breathing = w.breath.Update(f, now).State

	if !f.Complete() || !f.AllVisible(w.minVis) {
		emitLabel(w.labels, feedback.TagPoseNotVisible, res)
		return
	}
	res.Visible = true

	inPosition := !w.prone || f.MeanZ() <= w.proneDepth
	w.agg.ObserveCriterion(MetricInPosition, inPosition)
	if !inPosition {
		emitLabel(w.labels, feedback.TagGetIntoPosition, res)
		return
	}

	angle, err := landmark.JointAngle(f, w.tracked, w.minVis)
	if err != nil {
		logf("frame %d: tracked joint unavailable: %v", res.Index, err)
		return
	}

	deep := angle < w.counter.Thresholds().Down
	var sim float64
	if deep {
		sim = scoring.CosineSimilarity(f.Flatten(), w.bundle.MeanPose)
		res.Accuracy = w.similarity.Add(sim) * 100

		if ref, ok := w.bundle.AnglesAt(w.frameIndex); ok {
			emitTags(w.tags, res, feedback.CheckAngles(f, w.bundle.Activity.AngleChecks, ref, w.tolerance)...)
		}
	}
	w.agg.ObserveCriterion(MetricFormCorrect, deep && sim >= w.formCosine)
	w.frameIndex++

	if w.counter.Update(angle) {
		w.agg.ObserveRep()
		res.Rep = true
		if w.similarity.Len() > 0 {
			form := w.similarity.Mean()
			w.repAccuracy = append(w.repAccuracy, form)
			w.agg.ObserveAccuracy(form * 100)
			if form < w.repForm {
				emitLabel(w.labels, feedback.TagImproveForm, res)
			}
		}
		w.similarity.Reset()
	}
}

func (w *workoutFlow) finish(s *Summary) {
	if len(w.repAccuracy) == 0 {
		s.Tips = append(s.Tips, "No valid reps captured.")
	}
}
