// Package types provides shared types used across multiple packages.
// This package has no dependencies on other storyboard packages to avoid import cycles.
package types

import "strings"

// Emotion is the closed set of emotions a shot's voice line may carry.
type Emotion string

const (
	EmotionNeutral   Emotion = "neutral"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionFearful   Emotion = "fearful"
	EmotionSurprised Emotion = "surprised"
	EmotionDisgusted Emotion = "disgusted"
	EmotionTense     Emotion = "tense"
)

// Emotions lists every allowed emotion in prompt order.
var Emotions = []Emotion{
	EmotionNeutral, EmotionHappy, EmotionSad, EmotionAngry,
	EmotionFearful, EmotionSurprised, EmotionDisgusted, EmotionTense,
}

// ParseEmotion converts a string to an Emotion.
// Returns EmotionNeutral and false if the string is not recognized.
func ParseEmotion(s string) (Emotion, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range Emotions {
		if string(e) == s {
			return e, true
		}
	}
	return EmotionNeutral, false
}

// Intensity is the closed set of emotion intensities.
type Intensity string

const (
	IntensityVeryWeak   Intensity = "very_weak"
	IntensityWeak       Intensity = "weak"
	IntensityModerate   Intensity = "moderate"
	IntensityStrong     Intensity = "strong"
	IntensityVeryStrong Intensity = "very_strong"
)

// Intensities lists every allowed intensity from weakest to strongest.
var Intensities = []Intensity{
	IntensityVeryWeak, IntensityWeak, IntensityModerate, IntensityStrong, IntensityVeryStrong,
}

// ParseIntensity converts a string to an Intensity.
// Spaces and hyphens are accepted in place of underscores.
// Returns IntensityModerate and false if the string is not recognized.
func ParseIntensity(s string) (Intensity, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, i := range Intensities {
		if string(i) == s {
			return i, true
		}
	}
	return IntensityModerate, false
}

// MaxShotAssets is the hard cap on entity references per shot.
const MaxShotAssets = 3

// Shot is one generated storyboard record.
// ShotNumber as received from a backend is provisional; the assembler overwrites it.
type Shot struct {
	ShotNumber     int       `json:"shot_number" yaml:"shot_number"`
	VoiceCharacter string    `json:"voice_character" yaml:"voice_character"`
	Emotion        Emotion   `json:"emotion" yaml:"emotion"`
	Intensity      Intensity `json:"intensity" yaml:"intensity"`
	Assets         string    `json:"assets" yaml:"assets"`
	Dialogue       string    `json:"dialogue" yaml:"dialogue"`
	FusionPrompt   string    `json:"fusion_prompt" yaml:"fusion_prompt"`
	MotionPrompt   string    `json:"motion_prompt" yaml:"motion_prompt"`
}

// AssetRefs returns the individual entity references of the shot.
func (s Shot) AssetRefs() []string {
	return strings.Fields(s.Assets)
}

// LimitAssets keeps at most max space-separated references.
// Returns the trimmed list and how many references were dropped.
func LimitAssets(assets string, max int) (string, int) {
	refs := strings.Fields(assets)
	if len(refs) <= max {
		return strings.Join(refs, " "), 0
	}
	return strings.Join(refs[:max], " "), len(refs) - max
}

// ChunkResult holds the shots produced for one section of the document.
type ChunkResult struct {
	ChunkIndex int    `json:"chunk_index"`
	Shots      []Shot `json:"shots"`
}
