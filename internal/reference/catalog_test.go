package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/reps"
)

func testFrame(shift float64) landmark.Frame {
	f := make(landmark.Frame, landmark.NumLandmarks)
	for i := range f {
		f[i] = landmark.Landmark{X: 0.3 + shift + float64(i)*0.01, Y: 0.2 + float64(i)*0.02, Z: -0.1, Visibility: 0.9}
	}
	return f
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	refs := filepath.Join(dir, "refs")
	require.NoError(t, os.MkdirAll(refs, 0755))

	require.NoError(t, WriteFile(filepath.Join(refs, "tree.json"), &File{Frames: []landmark.Frame{testFrame(0), testFrame(0.05)}}))
	require.NoError(t, WriteFile(filepath.Join(refs, "squat_motion.json"), &File{Frames: []landmark.Frame{testFrame(0), testFrame(0.01), testFrame(0.02)}}))
	require.NoError(t, WriteFile(filepath.Join(refs, "squat_pose.json"), &File{MeanPose: testFrame(0).Flatten()}))
	require.NoError(t, WriteFile(filepath.Join(refs, "squat_angles.json"), &File{Angles: []map[string]float64{{"knee": 85}, {"knee": 80}}}))
	require.NoError(t, WriteFile(filepath.Join(refs, "bad_mean.json"), &File{MeanPose: []float64{1, 2}}))

	catalog := `{
  "reference_dir": "refs",
  "activities": [
    {"name": "vrikshasana", "kind": "pose", "pose": "tree.json", "rules": "vrikshasana"},
    {"name": "squat_motion", "kind": "motion", "motion": "squat_motion.json"},
    {"name": "squat", "kind": "workout", "mean_pose": "squat_pose.json", "angle_reference": "squat_angles.json",
     "tracked": {"a": 23, "b": 25, "c": 27}, "thresholds": {"down": 90, "up": 170},
     "angle_checks": [{"label": "knee", "triple": {"a": 23, "b": 25, "c": 27}}]},
    {"name": "meditation", "kind": "meditation", "mean_pose": "absent.json"},
    {"name": "broken", "kind": "meditation", "mean_pose": "bad_mean.json"}
  ]
}`
	path := filepath.Join(dir, "activities.json")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0644))
	return path
}

func TestCatalog_LoadBundles(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog(writeCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "meditation", "squat", "squat_motion", "vrikshasana"}, c.Names())

	tree, err := c.Load("vrikshasana")
	require.NoError(t, err)
	assert.Len(t, tree.Poses, 2)
	require.Len(t, tree.PoseAngles, 2)
	assert.Len(t, tree.PoseAngles[0], len(landmark.DefaultAngleTriples))

	again, err := c.Load("vrikshasana")
	require.NoError(t, err)
	assert.Same(t, tree, again, "bundles are cached and shared")

	motion, err := c.Load("squat_motion")
	require.NoError(t, err)
	assert.Len(t, motion.Motion, 3)

	squat, err := c.Load("squat")
	require.NoError(t, err)
	assert.Len(t, squat.MeanPose, landmark.NumLandmarks*3)
	assert.Equal(t, &reps.Thresholds{Down: 90, Up: 170}, squat.Activity.Thresholds)
	angles, ok := squat.AnglesAt(1)
	require.True(t, ok)
	assert.Equal(t, 80.0, angles["knee"])
	_, ok = squat.AnglesAt(2)
	assert.False(t, ok)
}

func TestCatalog_Errors(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog(writeCatalog(t))
	require.NoError(t, err)

	_, err = c.Load("handstand")
	assert.ErrorIs(t, err, ErrUnknownActivity)

	_, err = c.Load("meditation")
	assert.ErrorIs(t, err, ErrMissingReference)

	_, err = c.Load("broken")
	assert.ErrorIs(t, err, ErrMissingReference)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestActivity_Validate(t *testing.T) {
	t.Parallel()

	tracked := &landmark.Triple{A: 23, B: 25, C: 27}
	tests := []struct {
		name    string
		a       Activity
		wantErr bool
	}{
		{"pose ok", Activity{Name: "p", Kind: KindPose, Pose: "p.json"}, false},
		{"pose missing file", Activity{Name: "p", Kind: KindPose}, true},
		{"workout without thresholds", Activity{Name: "w", Kind: KindWorkout, MeanPose: "m.json", Tracked: tracked}, true},
		{"workout inverted band", Activity{Name: "w", Kind: KindWorkout, MeanPose: "m.json", Tracked: tracked, Thresholds: &reps.Thresholds{Down: 170, Up: 90}}, true},
		{"unknown rules", Activity{Name: "p", Kind: KindPose, Pose: "p.json", Rules: "headstand"}, true},
		{"unknown kind", Activity{Name: "x", Kind: "dance"}, true},
		{"no name", Activity{Kind: KindMeditation, MeanPose: "m.json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCatalog_Duplicate(t *testing.T) {
	t.Parallel()

	a := Activity{Name: "p", Kind: KindPose, Pose: "p.json"}
	_, err := NewCatalog(t.TempDir(), []Activity{a, a})
	assert.Error(t, err)
}

func TestShippedCatalog(t *testing.T) {
	cat, err := LoadCatalog(filepath.Join("..", "..", DefaultCatalogPath))
	require.NoError(t, err)

	for _, name := range cat.Names() {
		t.Run(name, func(t *testing.T) {
			b, err := cat.Load(name)
			require.NoError(t, err)
			switch b.Activity.Kind {
			case KindPose:
				assert.NotEmpty(t, b.PoseAngles)
			case KindMotion:
				assert.NotEmpty(t, b.Motion)
			case KindWorkout, KindMeditation:
				assert.Len(t, b.MeanPose, 3*landmark.NumLandmarks)
			}
			for _, check := range b.Activity.AngleChecks {
				ref, ok := b.AnglesAt(0)
				require.True(t, ok)
				assert.Contains(t, ref, check.Label)
			}
		})
	}
	assert.Contains(t, cat.Names(), "meditation")
}
