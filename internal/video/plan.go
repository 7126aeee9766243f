package video

import (
	"fmt"
	"math/rand"

	"clipforge/internal/logging"
	"clipforge/internal/material"
)

// Source is one downloaded clip available to the planner.
type Source struct {
	Path     string
	Duration float64
	Width    int
	Height   int
}

// Segment is one cut of a source clip scheduled on the timeline.
type Segment struct {
	Path  string
	Start float64
	End   float64
}

// Duration is the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// PlanOptions controls timeline construction.
type PlanOptions struct {
	// AudioDuration is the narration length the timeline must cover.
	AudioDuration float64
	// MaxClipDuration caps each cut regardless of pacing.
	MaxClipDuration float64
	ConcatMode      material.ConcatMode
	Pacing          PacingMode
	// Rng drives pacing draws and source selection. Nil panics,
	// callers seed it so batch runs stay reproducible per task.
	Rng *rand.Rand
}

// BuildTimeline chops the sources into pacing-sized segments until the
// narration is covered. Random mode jumps to arbitrary offsets in
// arbitrary sources, sequential mode walks each source forward and
// loops back when all are exhausted.
func BuildTimeline(sources []Source, opts PlanOptions) ([]Segment, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no video sources")
	}
	if opts.AudioDuration <= 0 {
		return nil, fmt.Errorf("audio duration must be positive, got %.2f", opts.AudioDuration)
	}

	// Sequential mode tracks a read position per source.
	positions := make([]float64, len(sources))
	seqIdx := 0

	var (
		segments []Segment
		total    float64
	)
	for total < opts.AudioDuration {
		req := opts.Pacing.ClipDuration(opts.Rng)
		if opts.MaxClipDuration > 0 && req > opts.MaxClipDuration {
			req = opts.MaxClipDuration
		}
		if req < 1.0 {
			req = 1.0
		}

		var seg Segment
		if opts.ConcatMode == material.ConcatRandom {
			i := opts.Rng.Intn(len(sources))
			src := sources[i]
			maxStart := src.Duration - req
			if maxStart < 0 {
				maxStart = 0
			}
			seg.Path = src.Path
			seg.Start = opts.Rng.Float64() * maxStart
			seg.End = min(seg.Start+req, src.Duration)
		} else {
			found := false
			for attempts := 0; attempts < len(sources)*2; attempts++ {
				i := seqIdx % len(sources)
				src := sources[i]
				if positions[i] < src.Duration-0.5 {
					seg.Path = src.Path
					seg.Start = positions[i]
					seg.End = min(seg.Start+req, src.Duration)
					positions[i] = seg.End
					found = true
					break
				}
				// Exhausted, reset for looping and move on.
				positions[i] = 0
				seqIdx++
			}
			if !found {
				src := sources[0]
				seg.Path = src.Path
				seg.Start = 0
				seg.End = min(req, src.Duration)
			}
		}

		if seg.Duration() > 0.1 {
			segments = append(segments, seg)
			total += seg.Duration()
		}
	}

	logging.Render("planned %d segments (%.2fs footage for %.2fs audio, %s pacing)",
		len(segments), total, opts.AudioDuration, opts.Pacing)
	return segments, nil
}
