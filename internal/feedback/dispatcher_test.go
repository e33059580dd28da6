package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/posture.report/internal/timeutil"
)

type recordingSink struct {
	got []Notification
}

func (r *recordingSink) Enqueue(n Notification) bool {
	r.got = append(r.got, n)
	return true
}

func (r *recordingSink) tags() []Tag {
	out := make([]Tag, len(r.got))
	for i, n := range r.got {
		out[i] = n.Tag
	}
	return out
}

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestTagDispatcher_SuppressesWithinCooldown(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	sink := &recordingSink{}
	d := NewTagDispatcher(clock, 3*time.Second, DefaultCatalog(), sink)

	assert.Len(t, d.Dispatch("x"), 1)
	clock.Advance(time.Second)
	assert.Empty(t, d.Dispatch("x"))

	assert.Equal(t, []Tag{"x"}, sink.tags())
}

func TestTagDispatcher_NeutralTagDoesNotReset(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	sink := &recordingSink{}
	d := NewTagDispatcher(clock, 3*time.Second, DefaultCatalog(), sink)

	d.Dispatch("x")
	clock.Advance(500 * time.Millisecond)
	d.Dispatch(TagHead)
	clock.Advance(500 * time.Millisecond)
	d.Dispatch("x")

	assert.Equal(t, []Tag{"x", TagHead}, sink.tags())
}

func TestTagDispatcher_AllClearResets(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	sink := &recordingSink{}
	d := NewTagDispatcher(clock, 3*time.Second, DefaultCatalog(), sink)

	d.Dispatch(TagBackNotStraight)
	clock.Advance(500 * time.Millisecond)
	d.Dispatch(TagPoseCorrect)
	clock.Advance(500 * time.Millisecond)
	d.Dispatch(TagBackNotStraight)
	// The all-clear tag itself stays under cooldown.
	d.Dispatch(TagPoseCorrect)

	assert.Equal(t, []Tag{TagBackNotStraight, TagPoseCorrect, TagBackNotStraight}, sink.tags())
}

func TestTagDispatcher_CooldownExpires(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	d := NewTagDispatcher(clock, 6*time.Second, DefaultCatalog(), nil)

	first := d.Dispatch(TagPosture, TagHead)
	assert.Len(t, first, 2)
	assert.Equal(t, "Keep your head aligned and straight.", first[1].Message)
	assert.Equal(t, epoch, first[0].At)

	clock.Advance(6 * time.Second)
	assert.Empty(t, d.Dispatch(TagPosture), "exactly the cooldown is still suppressed")

	clock.Advance(time.Millisecond)
	assert.Len(t, d.Dispatch(TagPosture), 1)

	d.Reset()
	assert.Len(t, d.Dispatch(TagHead), 1)
}

func TestTagDispatcher_DroppedBySinkStillRecorded(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	d := NewTagDispatcher(clock, time.Second, DefaultCatalog(), SinkFunc(func(Notification) bool { return false }))

	assert.Len(t, d.Dispatch(TagHead), 1)
	assert.Empty(t, d.Dispatch(TagHead))
}

func TestLabelDispatcher_EmitsOnChange(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(epoch)
	sink := &recordingSink{}
	d := NewLabelDispatcher(clock, DefaultCatalog(), sink)

	for _, label := range []Tag{TagPoseNotVisible, TagPoseNotVisible, "", TagPoseNotVisible, TagImproveForm, TagPoseNotVisible} {
		clock.Advance(10 * time.Second)
		d.Dispatch(label)
	}

	assert.Equal(t, []Tag{TagPoseNotVisible, TagImproveForm, TagPoseNotVisible}, sink.tags())
	assert.Equal(t, TagPoseNotVisible, d.Current())
}

func TestCatalog_Message(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	assert.Equal(t, "Join your feet together.", c.Message(TagFeetApart))
	assert.Equal(t, "Adjust your shoulder hip knee.", c.Message(AdjustTag("shoulder_hip_knee")))
	assert.Equal(t, "Something new.", c.Message("something_new"))
	assert.Equal(t, "", c.Message(""))
}
