package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/posture.report/internal/landmark"
)

// scriptedSource replays a fixed list of frames and errors.
type scriptedSource struct {
	steps []step
	calls int
}

type step struct {
	frame landmark.Frame
	err   error
}

func (s *scriptedSource) Next(context.Context) (landmark.Frame, error) {
	s.calls++
	if len(s.steps) == 0 {
		return nil, io.EOF
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.frame, st.err
}

// failingSource never yields a frame.
type failingSource struct{ calls int }

func (s *failingSource) Next(context.Context) (landmark.Frame, error) {
	s.calls++
	return nil, errors.New("camera unplugged")
}

func newSquatSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(squatBundle(), nil, Options{Clock: newClock()})
	require.NoError(t, err)
	return s
}

func TestRunner_SkipsSourceErrors(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{steps: []step{
		{frame: kneeFrame(80)},
		{err: errors.New("decode failed")},
		{frame: kneeFrame(175)},
	}}
	var seen []int
	r := &Runner{Session: newSquatSession(t), Source: src, OnFrame: func(res FrameResult) { seen = append(seen, res.Index) }}

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
	assert.Equal(t, 2, sum.Frames)
	assert.Equal(t, 1, sum.Reps)
}

func TestRunner_GivesUpOnPersistentErrors(t *testing.T) {
	t.Parallel()

	src := &failingSource{}
	r := &Runner{Session: newSquatSession(t), Source: src}

	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxConsecutiveSourceErrors, src.calls)
	assert.Equal(t, 0, sum.Frames)
	assert.True(t, sum.Degenerate)
}

func TestRunner_StopsOnCancelAndStillSaves(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var saved int
	src := &scriptedSource{steps: []step{{frame: kneeFrame(80)}}}
	r := &Runner{
		Session: newSquatSession(t),
		Source:  src,
		Store: StoreFunc(func(ctx context.Context, _ Summary) error {
			saved++
			return ctx.Err()
		}),
	}

	sum, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, src.calls)
	assert.Equal(t, 0, sum.Frames)
	assert.Equal(t, 1, saved)
}

func TestRunner_ReturnsSummaryWhenSaveFails(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk full")
	r := &Runner{
		Session: newSquatSession(t),
		Source:  &scriptedSource{steps: []step{{frame: kneeFrame(175)}}},
		Store:   StoreFunc(func(context.Context, Summary) error { return errDisk }),
	}

	sum, err := r.Run(context.Background())
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, 1, sum.Frames)
	assert.NotEmpty(t, sum.SessionID)
}

func TestRunner_PacesWithClock(t *testing.T) {
	t.Parallel()

	clock := newClock()
	s, err := New(squatBundle(), nil, Options{Clock: clock})
	require.NoError(t, err)

	r := &Runner{
		Session:       s,
		Source:        &scriptedSource{steps: []step{{frame: kneeFrame(175)}, {frame: kneeFrame(175)}, {frame: kneeFrame(175)}}},
		Clock:         clock,
		FrameInterval: 40 * time.Millisecond,
	}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.12, sum.DurationSeconds, 1e-9)
	assert.Len(t, clock.Sleeps(), 3)
}
