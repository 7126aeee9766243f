package video

import "math/rand"

// PacingMode controls how long each cut runs before the next clip.
type PacingMode string

const (
	PacingFast    PacingMode = "fast"
	PacingSlow    PacingMode = "slow"
	PacingDynamic PacingMode = "dynamic"
	PacingDefault PacingMode = "default"
)

// ParsePacingMode maps a config string to a pacing mode.
// Unknown or empty values fall back to dynamic, which keeps
// retention highest on short-form platforms.
func ParsePacingMode(s string) PacingMode {
	switch PacingMode(s) {
	case PacingFast, PacingSlow, PacingDynamic, PacingDefault:
		return PacingMode(s)
	}
	return PacingDynamic
}

// ClipDuration draws the next cut length in seconds.
func (m PacingMode) ClipDuration(rng *rand.Rand) float64 {
	switch m {
	case PacingFast:
		return uniform(rng, 1.5, 3.0)
	case PacingSlow:
		return uniform(rng, 3.0, 5.0)
	case PacingDynamic:
		// 70% fast cuts, 30% breathing room.
		if rng.Float64() < 0.7 {
			return uniform(rng, 1.5, 2.5)
		}
		return uniform(rng, 3.0, 4.5)
	default:
		return uniform(rng, 2.0, 4.0)
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
