package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/posture.report/internal/landmark"
)

// File is the on-disk shape of every reference file. Each activity reads
// the field matching its reference type.
type File struct {
	Frames   []landmark.Frame     `json:"frames,omitempty"`
	MeanPose []float64            `json:"mean_pose,omitempty"`
	Angles   []map[string]float64 `json:"angles,omitempty"`
}

// Bundle is the loaded reference data for one activity.
type Bundle struct {
	Activity Activity

	Poses          []landmark.Frame
	PoseAngles     []landmark.AngleVector // Poses over landmark.DefaultAngleTriples
	Motion         []landmark.Frame
	MeanPose       []float64
	AngleReference []map[string]float64
}

// AnglesAt returns the angle reference aligned with frame index i.
func (b *Bundle) AnglesAt(i int) (map[string]float64, bool) {
	if i < 0 || i >= len(b.AngleReference) {
		return nil, false
	}
	return b.AngleReference[i], true
}

// ReadFile decodes one reference file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingReference, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse reference %s: %w", path, err)
	}
	return &f, nil
}

// WriteFile encodes f to path.
func WriteFile(path string, f *File) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode reference: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write reference %s: %w", path, err)
	}
	return nil
}

func loadBundle(dir string, a Activity) (*Bundle, error) {
	b := &Bundle{Activity: a}
	read := func(name string) (*File, error) {
		f, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", a.Name, err)
		}
		return f, nil
	}

	if a.Pose != "" {
		f, err := read(a.Pose)
		if err != nil {
			return nil, err
		}
		if len(f.Frames) == 0 {
			return nil, fmt.Errorf("activity %q: %w: %s has no frames", a.Name, ErrMissingReference, a.Pose)
		}
		b.Poses = f.Frames
		b.PoseAngles = make([]landmark.AngleVector, len(f.Frames))
		for i, frame := range f.Frames {
			b.PoseAngles[i] = landmark.Angles(frame, landmark.DefaultAngleTriples)
		}
	}

	if a.Motion != "" {
		f, err := read(a.Motion)
		if err != nil {
			return nil, err
		}
		if len(f.Frames) == 0 {
			return nil, fmt.Errorf("activity %q: %w: %s has no frames", a.Name, ErrMissingReference, a.Motion)
		}
		b.Motion = f.Frames
	}

	if a.MeanPose != "" {
		f, err := read(a.MeanPose)
		if err != nil {
			return nil, err
		}
		if len(f.MeanPose) == 0 || len(f.MeanPose)%3 != 0 {
			return nil, fmt.Errorf("activity %q: %w: %s mean_pose has %d values, want a non-empty multiple of 3",
				a.Name, ErrMissingReference, a.MeanPose, len(f.MeanPose))
		}
		b.MeanPose = f.MeanPose
	}

	if a.AngleReference != "" {
		f, err := read(a.AngleReference)
		if err != nil {
			return nil, err
		}
		b.AngleReference = f.Angles
	}

	return b, nil
}
