package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/timeutil"
)

// Source yields landmark frames in capture order. An empty frame means no
// body was detected. io.EOF ends the stream.
type Source interface {
	Next(ctx context.Context) (landmark.Frame, error)
}

// Store persists finished sessions.
type Store interface {
	SaveSummary(ctx context.Context, s Summary) error
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context, s Summary) error

// SaveSummary calls f(ctx, s).
func (f StoreFunc) SaveSummary(ctx context.Context, s Summary) error { return f(ctx, s) }

// maxConsecutiveSourceErrors stops a run whose source keeps failing.
const maxConsecutiveSourceErrors = 50

// Runner drives a Session from a Source until the stream ends or the
// context is cancelled.
type Runner struct {
	Session *Session
	Source  Source
	Store   Store          // optional
	Clock   timeutil.Clock // used for pacing; defaults to the real clock

	// FrameInterval paces the loop; zero processes frames as fast as the
	// source delivers them.
	FrameInterval time.Duration

	// OnFrame, if set, observes every frame result.
	OnFrame func(FrameResult)
}

// Run processes frames and returns the summary. Source errors other than
// io.EOF are logged and skipped. The summary is returned even when saving
// it fails.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	failures := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		f, err := r.Source.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			break loop
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			break loop
		case err != nil:
			failures++
			logf("source error (%d consecutive): %v", failures, err)
			if failures >= maxConsecutiveSourceErrors {
				logf("giving up after %d consecutive source errors", failures)
				break loop
			}
			continue
		}
		failures = 0

		res := r.Session.ProcessFrame(f)
		if r.OnFrame != nil {
			r.OnFrame(res)
		}
		if r.FrameInterval > 0 {
			clock.Sleep(r.FrameInterval)
		}
	}

	summary := r.Session.Summary()
	if r.Store != nil {
		// The run context may already be cancelled by a stop signal; the
		// summary is still saved.
		if err := r.Store.SaveSummary(context.WithoutCancel(ctx), summary); err != nil {
			return summary, fmt.Errorf("failed to save session %s: %w", summary.SessionID, err)
		}
	}
	return summary, nil
}
