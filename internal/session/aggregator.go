package session

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/posture.report/internal/breathing"
	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/reference"
	"github.com/banshee-data/posture.report/internal/timeutil"
)

// Metric is a percentage-of-usable-frames statistic.
type Metric struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// Sample is one point of the per-frame timeline kept for reports.
type Sample struct {
	Offset    float64         `json:"offset_seconds"`
	Accuracy  float64         `json:"accuracy"`
	Visible   bool            `json:"visible"`
	Breathing breathing.State `json:"breathing,omitempty"`
}

// Summary is the immutable end-of-session record.
type Summary struct {
	SessionID       string         `json:"session_id"`
	Activity        string         `json:"activity"`
	Kind            reference.Kind `json:"kind"`
	StartedAt       time.Time      `json:"started_at"`
	DurationSeconds float64        `json:"duration_seconds"`

	Frames       int `json:"frames"`
	UsableFrames int `json:"usable_frames"`
	Reps         int `json:"reps"`

	BestAccuracy    float64                 `json:"best_accuracy"`
	AvgAccuracy     float64                 `json:"avg_accuracy"`
	BreathingScore  float64                 `json:"breathing_score"` // 0-100, smoothed readings only
	BreathingStates map[breathing.State]int `json:"breathing_states,omitempty"`
	Metrics         []Metric                `json:"metrics,omitempty"`

	// Degenerate is set when no frame was ever usable. Percentages are then
	// reported as 0 rather than computed over nothing.
	Degenerate bool `json:"degenerate"`

	Feedback []string `json:"feedback"`
	Tips     []string `json:"tips,omitempty"`
	Timeline []Sample `json:"timeline,omitempty"`
}

// Duration returns the session length.
func (s Summary) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// Metric returns the named metric.
func (s Summary) Metric(name string) (float64, bool) {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m.Percent, true
		}
	}
	return 0, false
}

// Aggregator accumulates per-frame observations for one session.
type Aggregator struct {
	clock    timeutil.Clock
	id       string
	activity string
	kind     reference.Kind
	start    time.Time

	frames, usable int
	criteria       []string
	qualifying     map[string]int
	reps           int
	accuracies     []float64
	breathScores   []float64
	breathStates   map[breathing.State]int
	feedback       []string
	seenFeedback   map[string]bool
	timeline       []Sample
}

// NewAggregator starts a session clock now. criteria name the percentage
// metrics, in report order.
func NewAggregator(clock timeutil.Clock, activity string, kind reference.Kind, criteria ...string) *Aggregator {
	return &Aggregator{
		clock:        clock,
		id:           uuid.NewString(),
		activity:     activity,
		kind:         kind,
		start:        clock.Now(),
		criteria:     criteria,
		qualifying:   make(map[string]int, len(criteria)),
		breathStates: make(map[breathing.State]int),
		seenFeedback: make(map[string]bool),
	}
}

// ID returns the session identifier.
func (a *Aggregator) ID() string { return a.id }

// StartedAt returns the session start time.
func (a *Aggregator) StartedAt() time.Time { return a.start }

// ObserveFrame counts a frame and records its timeline sample.
func (a *Aggregator) ObserveFrame(usable bool, accuracy float64, state breathing.State) {
	a.frames++
	if usable {
		a.usable++
	}
	a.timeline = append(a.timeline, Sample{
		Offset:    a.clock.Since(a.start).Seconds(),
		Accuracy:  accuracy,
		Visible:   usable,
		Breathing: state,
	})
}

// ObserveCriterion records whether a usable frame met a named criterion.
func (a *Aggregator) ObserveCriterion(name string, ok bool) {
	if ok {
		a.qualifying[name]++
	}
}

// ObserveAccuracy records an accuracy in [0,100] for the best/avg stats.
func (a *Aggregator) ObserveAccuracy(v float64) {
	a.accuracies = append(a.accuracies, v)
}

// ObserveRep counts a completed repetition.
func (a *Aggregator) ObserveRep() { a.reps++ }

// Reps returns the repetitions counted so far.
func (a *Aggregator) Reps() int { return a.reps }

// ObserveBreathing records a breathing reading. Only smoothed readings
// contribute to the breathing score.
func (a *Aggregator) ObserveBreathing(r breathing.Reading) {
	a.breathStates[r.State]++
	if r.Smoothed {
		a.breathScores = append(a.breathScores, r.Score)
	}
}

// ObserveFeedback records emitted notifications. Each message is listed
// once, in order of first emission.
func (a *Aggregator) ObserveFeedback(ns ...feedback.Notification) {
	for _, n := range ns {
		if n.Message == "" || a.seenFeedback[n.Message] {
			continue
		}
		a.seenFeedback[n.Message] = true
		a.feedback = append(a.feedback, n.Message)
	}
}

// Summarize builds the Summary as of now. The aggregator may keep
// observing afterwards; each call returns an independent snapshot.
func (a *Aggregator) Summarize() Summary {
	s := Summary{
		SessionID:       a.id,
		Activity:        a.activity,
		Kind:            a.kind,
		StartedAt:       a.start,
		DurationSeconds: a.clock.Since(a.start).Seconds(),
		Frames:          a.frames,
		UsableFrames:    a.usable,
		Reps:            a.reps,
		Feedback:        append([]string{}, a.feedback...),
		Timeline:        append([]Sample(nil), a.timeline...),
	}

	if len(a.accuracies) > 0 {
		s.BestAccuracy = floats.Max(a.accuracies)
		s.AvgAccuracy = stat.Mean(a.accuracies, nil)
	}
	if len(a.breathScores) > 0 {
		s.BreathingScore = stat.Mean(a.breathScores, nil) * 100
	}
	if len(a.breathStates) > 0 {
		s.BreathingStates = make(map[breathing.State]int, len(a.breathStates))
		for k, v := range a.breathStates {
			s.BreathingStates[k] = v
		}
	}

	usable := a.usable
	if usable == 0 {
		s.Degenerate = true
		usable = 1
	}
	for _, name := range a.criteria {
		s.Metrics = append(s.Metrics, Metric{
			Name:    name,
			Percent: 100 * float64(a.qualifying[name]) / float64(usable),
		})
	}
	return s
}
