package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical coach defaults file.
const DefaultConfigPath = "config/coach.defaults.json"

// CoachConfig holds the tunable constants of the scoring and feedback
// engine. Fields are pointers so a partial JSON file only overrides what it
// names; the Get* methods supply the built-in default for anything unset.
type CoachConfig struct {
	// Visibility gating
	VisibilityThreshold     *float64 `json:"visibility_threshold,omitempty"`
	RequiredVisibleFraction *float64 `json:"required_visible_fraction,omitempty"`

	// Scoring
	MotionBufferSize         *int     `json:"motion_buffer_size,omitempty"`
	MotionDistanceScale      *float64 `json:"motion_distance_scale,omitempty"`
	AccuracySmoothing        *float64 `json:"accuracy_smoothing,omitempty"` // EMA weight of the newest score
	SimilarityWindow         *int     `json:"similarity_window,omitempty"`
	PostureCosineThreshold   *float64 `json:"posture_cosine_threshold,omitempty"`
	WorkoutCosineThreshold   *float64 `json:"workout_cosine_threshold,omitempty"`
	AngleTolerance           *float64 `json:"angle_tolerance,omitempty"`
	RepFormThreshold         *float64 `json:"rep_form_threshold,omitempty"`
	ProneDepthThreshold      *float64 `json:"prone_depth_threshold,omitempty"`
	HeadAlignmentTolerance   *float64 `json:"head_alignment_tolerance,omitempty"`
	ShoulderLevelTolerance   *float64 `json:"shoulder_level_tolerance,omitempty"`
	PoseCorrectAccuracy      *float64 `json:"pose_correct_accuracy,omitempty"`
	MinorCorrectionAccuracy  *float64 `json:"minor_correction_accuracy,omitempty"`
	MotionAdjustFormAccuracy *float64 `json:"motion_adjust_form_accuracy,omitempty"`

	// Breathing
	BreathingFrameHeight       *float64 `json:"breathing_frame_height,omitempty"`
	BreathingStillEpsilon      *float64 `json:"breathing_still_epsilon,omitempty"`
	BreathingMovementThreshold *float64 `json:"breathing_movement_threshold,omitempty"`
	BreathingStallFrames       *int     `json:"breathing_stall_frames,omitempty"`
	BreathingWindow            *int     `json:"breathing_window,omitempty"`
	BreathingSmoothingWindow   *int     `json:"breathing_smoothing_window,omitempty"`
	BreathingSmoothingOrder    *int     `json:"breathing_smoothing_order,omitempty"`
	BreathingFlatRange         *float64 `json:"breathing_flat_range,omitempty"`
	BreathingCalmRange         *float64 `json:"breathing_calm_range,omitempty"`

	// Feedback
	WorkoutCooldown       *string `json:"workout_cooldown,omitempty"`    // duration string like "3s"
	MeditationCooldown    *string `json:"meditation_cooldown,omitempty"` // duration string like "6s"
	NotificationQueueSize *int    `json:"notification_queue_size,omitempty"`
	NotificationTimeout   *string `json:"notification_timeout,omitempty"`
	SpeakCommand          *string `json:"speak_command,omitempty"`
	PlayCommand           *string `json:"play_command,omitempty"`
	ClipDir               *string `json:"clip_dir,omitempty"`
}

// DefaultCoachConfig returns a CoachConfig populated with the built-in
// defaults. Intended for tests and tooling that want explicit values.
func DefaultCoachConfig() *CoachConfig {
	empty := EmptyCoachConfig()
	return &CoachConfig{
		VisibilityThreshold:        ptrFloat64(empty.GetVisibilityThreshold()),
		RequiredVisibleFraction:    ptrFloat64(empty.GetRequiredVisibleFraction()),
		MotionBufferSize:           ptrInt(empty.GetMotionBufferSize()),
		MotionDistanceScale:        ptrFloat64(empty.GetMotionDistanceScale()),
		AccuracySmoothing:          ptrFloat64(empty.GetAccuracySmoothing()),
		SimilarityWindow:           ptrInt(empty.GetSimilarityWindow()),
		PostureCosineThreshold:     ptrFloat64(empty.GetPostureCosineThreshold()),
		WorkoutCosineThreshold:     ptrFloat64(empty.GetWorkoutCosineThreshold()),
		AngleTolerance:             ptrFloat64(empty.GetAngleTolerance()),
		RepFormThreshold:           ptrFloat64(empty.GetRepFormThreshold()),
		ProneDepthThreshold:        ptrFloat64(empty.GetProneDepthThreshold()),
		HeadAlignmentTolerance:     ptrFloat64(empty.GetHeadAlignmentTolerance()),
		ShoulderLevelTolerance:     ptrFloat64(empty.GetShoulderLevelTolerance()),
		PoseCorrectAccuracy:        ptrFloat64(empty.GetPoseCorrectAccuracy()),
		MinorCorrectionAccuracy:    ptrFloat64(empty.GetMinorCorrectionAccuracy()),
		MotionAdjustFormAccuracy:   ptrFloat64(empty.GetMotionAdjustFormAccuracy()),
		BreathingFrameHeight:       ptrFloat64(empty.GetBreathingFrameHeight()),
		BreathingStillEpsilon:      ptrFloat64(empty.GetBreathingStillEpsilon()),
		BreathingMovementThreshold: ptrFloat64(empty.GetBreathingMovementThreshold()),
		BreathingStallFrames:       ptrInt(empty.GetBreathingStallFrames()),
		BreathingWindow:            ptrInt(empty.GetBreathingWindow()),
		BreathingSmoothingWindow:   ptrInt(empty.GetBreathingSmoothingWindow()),
		BreathingSmoothingOrder:    ptrInt(empty.GetBreathingSmoothingOrder()),
		BreathingFlatRange:         ptrFloat64(empty.GetBreathingFlatRange()),
		BreathingCalmRange:         ptrFloat64(empty.GetBreathingCalmRange()),
		WorkoutCooldown:            ptrString("3s"),
		MeditationCooldown:         ptrString("6s"),
		NotificationQueueSize:      ptrInt(empty.GetNotificationQueueSize()),
		NotificationTimeout:        ptrString("15s"),
	}
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyCoachConfig returns a CoachConfig with all fields set to nil.
func EmptyCoachConfig() *CoachConfig {
	return &CoachConfig{}
}

// LoadCoachConfig loads a CoachConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func LoadCoachConfig(path string) (*CoachConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCoachConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and common parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *CoachConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ or deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadCoachConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *CoachConfig) Validate() error {
	for name, v := range map[string]*float64{
		"visibility_threshold":      c.VisibilityThreshold,
		"required_visible_fraction": c.RequiredVisibleFraction,
		"accuracy_smoothing":        c.AccuracySmoothing,
		"posture_cosine_threshold":  c.PostureCosineThreshold,
		"workout_cosine_threshold":  c.WorkoutCosineThreshold,
		"rep_form_threshold":        c.RepFormThreshold,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"motion_buffer_size":     c.MotionBufferSize,
		"similarity_window":      c.SimilarityWindow,
		"breathing_stall_frames": c.BreathingStallFrames,
		"breathing_window":       c.BreathingWindow,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}

	if c.NotificationQueueSize != nil && *c.NotificationQueueSize < 0 {
		return fmt.Errorf("notification_queue_size must be non-negative, got %d", *c.NotificationQueueSize)
	}

	// Savitzky-Golay needs an odd window larger than the polynomial order.
	window, order := c.GetBreathingSmoothingWindow(), c.GetBreathingSmoothingOrder()
	if window%2 == 0 || order < 0 || order >= window {
		return fmt.Errorf("breathing smoothing window %d must be odd and larger than order %d", window, order)
	}
	if window > c.GetBreathingWindow() {
		return fmt.Errorf("breathing_smoothing_window %d exceeds breathing_window %d", window, c.GetBreathingWindow())
	}

	if c.GetMinorCorrectionAccuracy() > c.GetPoseCorrectAccuracy() {
		return fmt.Errorf("minor_correction_accuracy %.1f must not exceed pose_correct_accuracy %.1f",
			c.GetMinorCorrectionAccuracy(), c.GetPoseCorrectAccuracy())
	}

	for name, v := range map[string]*string{
		"workout_cooldown":     c.WorkoutCooldown,
		"meditation_cooldown":  c.MeditationCooldown,
		"notification_timeout": c.NotificationTimeout,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetVisibilityThreshold returns the minimum landmark visibility.
func (c *CoachConfig) GetVisibilityThreshold() float64 {
	if c.VisibilityThreshold == nil {
		return 0.5
	}
	return *c.VisibilityThreshold
}

// GetRequiredVisibleFraction returns the share of required joints that must be visible.
func (c *CoachConfig) GetRequiredVisibleFraction() float64 {
	if c.RequiredVisibleFraction == nil {
		return 0.75
	}
	return *c.RequiredVisibleFraction
}

// GetMotionBufferSize returns the trailing live-frame buffer capacity.
func (c *CoachConfig) GetMotionBufferSize() int {
	if c.MotionBufferSize == nil {
		return 10
	}
	return *c.MotionBufferSize
}

// GetMotionDistanceScale returns the distance-to-score multiplier.
func (c *CoachConfig) GetMotionDistanceScale() float64 {
	if c.MotionDistanceScale == nil {
		return 2.0
	}
	return *c.MotionDistanceScale
}

// GetAccuracySmoothing returns the EMA weight given to the newest accuracy.
func (c *CoachConfig) GetAccuracySmoothing() float64 {
	if c.AccuracySmoothing == nil {
		return 0.3
	}
	return *c.AccuracySmoothing
}

// GetSimilarityWindow returns how many deep-position similarities are averaged.
func (c *CoachConfig) GetSimilarityWindow() int {
	if c.SimilarityWindow == nil {
		return 5
	}
	return *c.SimilarityWindow
}

// GetPostureCosineThreshold returns the whole-body similarity gate for meditation.
func (c *CoachConfig) GetPostureCosineThreshold() float64 {
	if c.PostureCosineThreshold == nil {
		return 0.75
	}
	return *c.PostureCosineThreshold
}

// GetWorkoutCosineThreshold returns the similarity a frame at rep depth needs
// to count toward the form_correct metric.
func (c *CoachConfig) GetWorkoutCosineThreshold() float64 {
	if c.WorkoutCosineThreshold == nil {
		return 0.92
	}
	return *c.WorkoutCosineThreshold
}

// GetAngleTolerance returns the allowed deviation from an angle reference, in degrees.
func (c *CoachConfig) GetAngleTolerance() float64 {
	if c.AngleTolerance == nil {
		return 15
	}
	return *c.AngleTolerance
}

// GetRepFormThreshold returns the per-rep similarity below which form feedback is given.
func (c *CoachConfig) GetRepFormThreshold() float64 {
	if c.RepFormThreshold == nil {
		return 0.85
	}
	return *c.RepFormThreshold
}

// GetProneDepthThreshold returns the mean landmark depth above which the
// user is not yet lying down for floor exercises.
func (c *CoachConfig) GetProneDepthThreshold() float64 {
	if c.ProneDepthThreshold == nil {
		return -0.2
	}
	return *c.ProneDepthThreshold
}

// GetHeadAlignmentTolerance returns the allowed nose offset from mid-shoulder.
func (c *CoachConfig) GetHeadAlignmentTolerance() float64 {
	if c.HeadAlignmentTolerance == nil {
		return 0.05
	}
	return *c.HeadAlignmentTolerance
}

// GetShoulderLevelTolerance returns the allowed shoulder height difference.
func (c *CoachConfig) GetShoulderLevelTolerance() float64 {
	if c.ShoulderLevelTolerance == nil {
		return 0.03
	}
	return *c.ShoulderLevelTolerance
}

// GetPoseCorrectAccuracy returns the smoothed accuracy that counts as correct.
func (c *CoachConfig) GetPoseCorrectAccuracy() float64 {
	if c.PoseCorrectAccuracy == nil {
		return 90
	}
	return *c.PoseCorrectAccuracy
}

// GetMinorCorrectionAccuracy returns the smoothed accuracy needing only minor correction.
func (c *CoachConfig) GetMinorCorrectionAccuracy() float64 {
	if c.MinorCorrectionAccuracy == nil {
		return 75
	}
	return *c.MinorCorrectionAccuracy
}

// GetMotionAdjustFormAccuracy returns the motion accuracy below which form is flagged.
func (c *CoachConfig) GetMotionAdjustFormAccuracy() float64 {
	if c.MotionAdjustFormAccuracy == nil {
		return 60
	}
	return *c.MotionAdjustFormAccuracy
}

// GetBreathingFrameHeight returns the pixel height chest movement is scaled to.
func (c *CoachConfig) GetBreathingFrameHeight() float64 {
	if c.BreathingFrameHeight == nil {
		return 480
	}
	return *c.BreathingFrameHeight
}

// GetBreathingStillEpsilon returns the per-frame movement (pixels) treated as still.
func (c *CoachConfig) GetBreathingStillEpsilon() float64 {
	if c.BreathingStillEpsilon == nil {
		return 0.5
	}
	return *c.BreathingStillEpsilon
}

// GetBreathingMovementThreshold returns the movement (pixels) classed as inhale/exhale.
func (c *CoachConfig) GetBreathingMovementThreshold() float64 {
	if c.BreathingMovementThreshold == nil {
		return 1.0
	}
	return *c.BreathingMovementThreshold
}

// GetBreathingStallFrames returns how many still frames mean not breathing.
func (c *CoachConfig) GetBreathingStallFrames() int {
	if c.BreathingStallFrames == nil {
		return 25
	}
	return *c.BreathingStallFrames
}

// GetBreathingWindow returns the chest sample count for the smoothed classifier.
func (c *CoachConfig) GetBreathingWindow() int {
	if c.BreathingWindow == nil {
		return 30
	}
	return *c.BreathingWindow
}

// GetBreathingSmoothingWindow returns the Savitzky-Golay window length.
func (c *CoachConfig) GetBreathingSmoothingWindow() int {
	if c.BreathingSmoothingWindow == nil {
		return 11
	}
	return *c.BreathingSmoothingWindow
}

// GetBreathingSmoothingOrder returns the Savitzky-Golay polynomial order.
func (c *CoachConfig) GetBreathingSmoothingOrder() int {
	if c.BreathingSmoothingOrder == nil {
		return 3
	}
	return *c.BreathingSmoothingOrder
}

// GetBreathingFlatRange returns the smoothed range below which breathing has stopped.
func (c *CoachConfig) GetBreathingFlatRange() float64 {
	if c.BreathingFlatRange == nil {
		return 0.001
	}
	return *c.BreathingFlatRange
}

// GetBreathingCalmRange returns the smoothed range below which breathing is calm.
func (c *CoachConfig) GetBreathingCalmRange() float64 {
	if c.BreathingCalmRange == nil {
		return 0.01
	}
	return *c.BreathingCalmRange
}

// GetWorkoutCooldown returns the per-tag cooldown for workout and pose flows.
func (c *CoachConfig) GetWorkoutCooldown() time.Duration {
	return durationOr(c.WorkoutCooldown, 3*time.Second)
}

// GetMeditationCooldown returns the per-tag cooldown for meditation.
func (c *CoachConfig) GetMeditationCooldown() time.Duration {
	return durationOr(c.MeditationCooldown, 6*time.Second)
}

// GetNotificationQueueSize returns how many notifications may wait for playback.
func (c *CoachConfig) GetNotificationQueueSize() int {
	if c.NotificationQueueSize == nil {
		return 4
	}
	return *c.NotificationQueueSize
}

// GetNotificationTimeout returns the limit for a single playback command.
func (c *CoachConfig) GetNotificationTimeout() time.Duration {
	return durationOr(c.NotificationTimeout, 15*time.Second)
}

// GetSpeakCommand returns the text-to-speech command; empty disables speech.
func (c *CoachConfig) GetSpeakCommand() string {
	if c.SpeakCommand == nil {
		return ""
	}
	return *c.SpeakCommand
}

// GetPlayCommand returns the audio clip player command.
func (c *CoachConfig) GetPlayCommand() string {
	if c.PlayCommand == nil {
		return ""
	}
	return *c.PlayCommand
}

// GetClipDir returns the directory of prerecorded per-tag clips.
func (c *CoachConfig) GetClipDir() string {
	if c.ClipDir == nil {
		return ""
	}
	return *c.ClipDir
}
