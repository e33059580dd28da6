package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyCoachConfig_Defaults(t *testing.T) {
	cfg := EmptyCoachConfig()

	assert.Equal(t, 0.5, cfg.GetVisibilityThreshold())
	assert.Equal(t, 0.75, cfg.GetRequiredVisibleFraction())
	assert.Equal(t, 10, cfg.GetMotionBufferSize())
	assert.Equal(t, 2.0, cfg.GetMotionDistanceScale())
	assert.Equal(t, 0.3, cfg.GetAccuracySmoothing())
	assert.Equal(t, 0.92, cfg.GetWorkoutCosineThreshold())
	assert.Equal(t, 0.75, cfg.GetPostureCosineThreshold())
	assert.Equal(t, 25, cfg.GetBreathingStallFrames())
	assert.Equal(t, 11, cfg.GetBreathingSmoothingWindow())
	assert.Equal(t, 3*time.Second, cfg.GetWorkoutCooldown())
	assert.Equal(t, 6*time.Second, cfg.GetMeditationCooldown())
	assert.Equal(t, "", cfg.GetSpeakCommand())
	require.NoError(t, cfg.Validate())
}

func TestDefaultCoachConfig_MatchesGetters(t *testing.T) {
	cfg := DefaultCoachConfig()
	require.NoError(t, cfg.Validate())

	require.NotNil(t, cfg.MotionBufferSize)
	assert.Equal(t, 10, *cfg.MotionBufferSize)
	require.NotNil(t, cfg.WorkoutCooldown)
	assert.Equal(t, "3s", *cfg.WorkoutCooldown)
	assert.Equal(t, EmptyCoachConfig().GetAngleTolerance(), cfg.GetAngleTolerance())
}

func TestLoadCoachConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "coach.json")
	body := `{
  "visibility_threshold": 0.6,
  "motion_buffer_size": 20,
  "workout_cooldown": "1500ms",
  "speak_command": "espeak"
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadCoachConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.GetVisibilityThreshold())
	assert.Equal(t, 20, cfg.GetMotionBufferSize())
	assert.Equal(t, 1500*time.Millisecond, cfg.GetWorkoutCooldown())
	assert.Equal(t, "espeak", cfg.GetSpeakCommand())
	// Unset fields keep defaults.
	assert.Equal(t, 0.75, cfg.GetRequiredVisibleFraction())
	assert.Equal(t, 6*time.Second, cfg.GetMeditationCooldown())
}

func TestLoadCoachConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"wrong extension", write("coach.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(dir, "absent.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"visibility out of range", write("vis.json", `{"visibility_threshold": 1.5}`), "visibility_threshold"},
		{"bad duration", write("dur.json", `{"meditation_cooldown": "soon"}`), "meditation_cooldown"},
		{"even smoothing window", write("sg.json", `{"breathing_smoothing_window": 10}`), "must be odd"},
		{"window larger than buffer", write("win.json", `{"breathing_window": 5}`), "exceeds breathing_window"},
		{"label thresholds inverted", write("lbl.json", `{"minor_correction_accuracy": 95}`), "must not exceed"},
		{"zero stall frames", write("stall.json", `{"breathing_stall_frames": 0}`), "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCoachConfig(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCoachConfig_TooLarge(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "huge.json")
	data := make([]byte, 1024*1024+1)
	for i := range data {
		data[i] = ' '
	}
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err := LoadCoachConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	assert.Equal(t, 0.5, cfg.GetVisibilityThreshold())
	assert.Equal(t, "audio", cfg.GetClipDir())
	assert.Equal(t, 4, cfg.GetNotificationQueueSize())
}
