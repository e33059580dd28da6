package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/posture.report/internal/landmark"
)

// ReplaySource reads frames from JSON lines, one landmark array per line.
// An empty array or null line is a frame without a detected body.
type ReplaySource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReplaySource reads frames from r.
func NewReplaySource(r io.Reader) *ReplaySource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	s := &ReplaySource{scanner: sc}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenReplay opens a JSONL frame file.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame replay: %w", err)
	}
	return NewReplaySource(f), nil
}

// Next returns the next frame. A malformed line is reported as an error and
// skipped; the following call continues with the next line.
func (s *ReplaySource) Next(ctx context.Context) (landmark.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var f landmark.Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		return f, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read frame replay: %w", err)
	}
	return nil, io.EOF
}

// Close releases the underlying reader when it is closable.
func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// WriteFrames encodes frames as JSON lines, the format ReplaySource reads.
func WriteFrames(w io.Writer, frames []landmark.Frame) error {
	enc := json.NewEncoder(w)
	for i, f := range frames {
		if f == nil {
			f = landmark.Frame{}
		}
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}
