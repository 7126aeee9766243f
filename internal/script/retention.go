package script

import "strings"

// boring filler words that drag engagement down
var boringWords = []string{"basically", "sort of", "maybe", "usually"}

// PredictRetentionCurve estimates per-second viewer engagement (0.0-1.0)
// for a script, assuming a uniform 2.5 words per second speaking rate.
// The curve always has exactly durationSeconds entries.
func PredictRetentionCurve(text string, durationSeconds int) []float64 {
	if durationSeconds <= 0 {
		durationSeconds = 60
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		curve := make([]float64, durationSeconds)
		for i := range curve {
			curve[i] = 0.5
		}
		return curve
	}

	const wordsPerSec = 2.5
	var curve []float64

	for _, sent := range sentences {
		n := len(strings.Fields(sent))
		duration := int(float64(n) / wordsPerSec)
		if duration < 1 {
			duration = 1
		}

		score := 0.5
		if strings.Contains(sent, "?") {
			score += 0.2
		}
		if strings.Contains(sent, "!") {
			score += 0.1
		}
		if n < 8 {
			score += 0.15
		}
		if n > 15 {
			score -= float64(n-15) * 0.05
		}
		if strings.ContainsAny(sent, "0123456789") {
			score += 0.1
		}
		lower := strings.ToLower(sent)
		for _, w := range boringWords {
			if strings.Contains(lower, w) {
				score -= 0.1
				break
			}
		}

		if score < 0.1 {
			score = 0.1
		}
		if score > 1.0 {
			score = 1.0
		}
		for i := 0; i < duration; i++ {
			curve = append(curve, score)
		}
	}

	// Pad or trim to the estimated duration.
	if len(curve) < durationSeconds {
		last := curve[len(curve)-1]
		for len(curve) < durationSeconds {
			curve = append(curve, last)
		}
	} else if len(curve) > durationSeconds {
		curve = curve[:durationSeconds]
	}

	// Viewers drop off naturally, decay linearly from 1.0 to 0.8.
	n := len(curve)
	for i := range curve {
		decay := 1.0
		if n > 1 {
			decay = 1.0 - 0.2*float64(i)/float64(n-1)
		}
		curve[i] *= decay
	}
	return curve
}
