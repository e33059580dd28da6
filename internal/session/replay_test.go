package session

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/posture.report/internal/landmark"
)

func TestReplaySource_RoundTrip(t *testing.T) {
	t.Parallel()

	frames := []landmark.Frame{standingFrame(), nil, kneeFrame(90)}
	var buf bytes.Buffer
	require.NoError(t, WriteFrames(&buf, frames))

	src := NewReplaySource(&buf)
	ctx := context.Background()

	got, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, frames[0], got)

	got, err = src.Next(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())

	got, err = src.Next(ctx)
	require.NoError(t, err)
	assert.InDelta(t, frames[2][landmark.LeftAnkle].X, got[landmark.LeftAnkle].X, 1e-12)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestReplaySource_MalformedLineIsSkipped(t *testing.T) {
	t.Parallel()

	input := "[]\n\n{not json\nnull\n"
	src := NewReplaySource(strings.NewReader(input))
	ctx := context.Background()

	_, err := src.Next(ctx)
	require.NoError(t, err)

	_, err = src.Next(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	f, err := src.Next(ctx)
	require.NoError(t, err)
	assert.True(t, f.Empty())

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplaySource_HonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReplaySource(strings.NewReader("[]\n")).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenReplay(t *testing.T) {
	t.Parallel()

	_, err := OpenReplay(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "frames.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteFrames(f, []landmark.Frame{standingFrame()}))
	require.NoError(t, f.Close())

	src, err := OpenReplay(path)
	require.NoError(t, err)
	defer src.Close()
	got, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, landmark.NumLandmarks)
}
