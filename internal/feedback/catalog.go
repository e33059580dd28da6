// Package feedback turns detected posture issues into rate-limited spoken
// corrections.
//
// Rule sets produce Tags per frame. A TagDispatcher (cooldown per tag) or a
// LabelDispatcher (emit on change) decides which of them are spoken, and a
// Queue delivers accepted notifications to a Notifier off the frame loop.
package feedback

import "strings"

// Tag identifies one kind of feedback. Each tag maps to one message.
type Tag string

const (
	TagPoseCorrect     Tag = "pose_correct"
	TagPoseNotVisible  Tag = "pose_not_visible"
	TagMinorCorrection Tag = "minor_correction"
	TagMajorCorrection Tag = "major_correction"
	TagAdjustForm      Tag = "adjust_form"
	TagLookingGood     Tag = "looking_good"
	TagGreatRep        Tag = "great_rep"
	TagStartSession    Tag = "start_session"
	TagGetIntoPosition Tag = "get_into_position"
	TagImproveForm     Tag = "improve_form"

	// yoga
	TagBackNotStraight     Tag = "back_not_straight"
	TagShouldersUnbalanced Tag = "shoulders_unbalanced"
	TagHipsUnbalanced      Tag = "hips_unbalanced"
	TagFeetApart           Tag = "feet_apart"
	TagLegTooLow           Tag = "leg_too_low"
	TagLegTooHigh          Tag = "leg_too_high"
	TagArmsNotSymmetric    Tag = "arms_not_symmetric"
	TagHandsNotJoined      Tag = "hands_not_joined"

	// meditation
	TagPosture        Tag = "posture"
	TagHead           Tag = "head"
	TagShoulders      Tag = "shoulders"
	TagBreathingNone  Tag = "breathing_none"
	TagBreathingHarsh Tag = "breathing_harsh"
)

// adjustPrefix marks tags generated from a named angle check.
const adjustPrefix = "adjust_"

// AdjustTag returns the tag for a failed angle check on label, for example
// "adjust_elbow".
func AdjustTag(label string) Tag {
	return Tag(adjustPrefix + label)
}

// Catalog maps tags to the sentence spoken for them.
type Catalog map[Tag]string

// DefaultCatalog returns the built-in English messages.
func DefaultCatalog() Catalog {
	return Catalog{
		TagPoseCorrect:     "Perfect posture. Hold steady.",
		TagPoseNotVisible:  "Your posture is not fully visible. Please adjust your position.",
		TagMinorCorrection: "Minor adjustments needed.",
		TagMajorCorrection: "Major correction needed.",
		TagAdjustForm:      "Adjust your form!",
		TagLookingGood:     "Looking good!",
		TagGreatRep:        "Great rep!",
		TagStartSession:    "Session started. Your form will now be monitored.",
		TagGetIntoPosition: "Get into your starting position on the floor.",
		TagImproveForm:     "Try to improve your form.",

		TagBackNotStraight:     "Keep your back straight.",
		TagShouldersUnbalanced: "Level your shoulders.",
		TagHipsUnbalanced:      "Align your hips. Don't tilt sideways.",
		TagFeetApart:           "Join your feet together.",
		TagLegTooLow:           "Lift your foot higher, place it on the thigh.",
		TagLegTooHigh:          "Lower your foot slightly to rest it on your thigh.",
		TagArmsNotSymmetric:    "Raise your arms evenly.",
		TagHandsNotJoined:      "Join your palms together at your chest.",

		TagPosture:        "Straighten your posture and relax your body.",
		TagHead:           "Keep your head aligned and straight.",
		TagShoulders:      "Keep your shoulders level and relaxed.",
		TagBreathingNone:  "You're not breathing. Inhale and exhale gently.",
		TagBreathingHarsh: "You're breathing harshly. Try to breathe calmly.",
	}
}

// Message returns the sentence for tag. Tags missing from the catalog fall
// back to a sentence derived from the tag itself.
func (c Catalog) Message(tag Tag) string {
	if msg, ok := c[tag]; ok {
		return msg
	}
	s := string(tag)
	if label, ok := strings.CutPrefix(s, adjustPrefix); ok {
		return "Adjust your " + strings.ReplaceAll(label, "_", " ") + "."
	}
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
