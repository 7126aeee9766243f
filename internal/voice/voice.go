// Package voice synthesizes narration audio with word-boundary timing
// metadata used downstream for subtitle generation.
package voice

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Synthesizer turns script text into an audio file plus word timings.
type Synthesizer interface {
	// Synthesize writes narration audio to outPath and returns the word
	// timing metadata captured during synthesis.
	Synthesize(ctx context.Context, text, voiceName string, rate float64, outPath string) (*SubMaker, error)
}

var voiceGenderSuffix = regexp.MustCompile(`-(Female|Male)$`)

// ParseVoiceName strips the display gender suffix from a configured
// voice, "en-US-JennyNeural-Female" becomes "en-US-JennyNeural".
func ParseVoiceName(name string) string {
	return voiceGenderSuffix.ReplaceAllString(strings.TrimSpace(name), "")
}

// FormatRate converts a rate multiplier into the percentage form the
// synthesis SSML expects, 1.0 -> "+0%", 1.2 -> "+20%", 0.9 -> "-10%".
func FormatRate(rate float64) string {
	if rate <= 0 {
		rate = 1.0
	}
	pct := int((rate - 1.0) * 100)
	if pct >= 0 {
		return fmt.Sprintf("+%d%%", pct)
	}
	return fmt.Sprintf("%d%%", pct)
}

// EstimateDuration predicts narration length in seconds from the script
// word count, assuming roughly 130 words per minute plus a 5s buffer.
// Used to size footage collection before the audio exists.
func EstimateDuration(script string) int {
	wordCount := len(strings.Fields(script))
	return int(float64(wordCount)/130*60) + 5
}
