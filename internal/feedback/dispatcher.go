package feedback

import (
	"time"

	"github.com/banshee-data/posture.report/internal/monitoring"
	"github.com/banshee-data/posture.report/internal/timeutil"
)

var logf = monitoring.Component("feedback")

// Notification is one accepted piece of feedback.
type Notification struct {
	Tag     Tag       `json:"tag"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink receives accepted notifications. Enqueue must not block; it reports
// whether the notification was accepted for delivery.
type Sink interface {
	Enqueue(n Notification) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n Notification) bool

// Enqueue calls f(n).
func (f SinkFunc) Enqueue(n Notification) bool { return f(n) }

// TagDispatcher emits each tag at most once per cooldown. Seeing the
// all-clear tag forgets every other spoken tag so corrections can resurface
// as soon as form breaks again. A dispatcher belongs to one session.
type TagDispatcher struct {
	clock    timeutil.Clock
	cooldown time.Duration
	allClear Tag
	catalog  Catalog
	sink     Sink
	spoken   map[Tag]time.Time
}

// NewTagDispatcher returns a dispatcher with TagPoseCorrect as the all-clear
// tag. sink may be nil, in which case notifications are only returned.
func NewTagDispatcher(clock timeutil.Clock, cooldown time.Duration, catalog Catalog, sink Sink) *TagDispatcher {
	return &TagDispatcher{
		clock:    clock,
		cooldown: cooldown,
		allClear: TagPoseCorrect,
		catalog:  catalog,
		sink:     sink,
		spoken:   make(map[Tag]time.Time),
	}
}

// Dispatch offers this frame's tags and returns the ones emitted, in order.
func (d *TagDispatcher) Dispatch(tags ...Tag) []Notification {
	if len(tags) == 0 {
		return nil
	}
	now := d.clock.Now()

	var out []Notification
	reset := false
	for _, tag := range tags {
		if tag == d.allClear {
			reset = true
		}
		if last, ok := d.spoken[tag]; ok && now.Sub(last) <= d.cooldown {
			continue
		}
		d.spoken[tag] = now
		n := Notification{Tag: tag, Message: d.catalog.Message(tag), At: now}
		if d.sink != nil && !d.sink.Enqueue(n) {
			logf("notification %q dropped", tag)
		}
		out = append(out, n)
	}

	if reset {
		for tag := range d.spoken {
			if tag != d.allClear {
				delete(d.spoken, tag)
			}
		}
	}
	return out
}

// Reset forgets every spoken tag.
func (d *TagDispatcher) Reset() {
	clear(d.spoken)
}

// LabelDispatcher emits a label only when it differs from the previous one,
// regardless of elapsed time.
type LabelDispatcher struct {
	clock   timeutil.Clock
	catalog Catalog
	sink    Sink
	last    Tag
}

// NewLabelDispatcher returns a dispatcher with no current label.
func NewLabelDispatcher(clock timeutil.Clock, catalog Catalog, sink Sink) *LabelDispatcher {
	return &LabelDispatcher{clock: clock, catalog: catalog, sink: sink}
}

// Dispatch sets the current label and reports whether it was emitted.
// An empty label is ignored.
func (d *LabelDispatcher) Dispatch(label Tag) (Notification, bool) {
	if label == "" || label == d.last {
		return Notification{}, false
	}
	d.last = label
	n := Notification{Tag: label, Message: d.catalog.Message(label), At: d.clock.Now()}
	if d.sink != nil && !d.sink.Enqueue(n) {
		logf("notification %q dropped", label)
	}
	return n, true
}

// Current returns the last emitted label.
func (d *LabelDispatcher) Current() Tag { return d.last }
