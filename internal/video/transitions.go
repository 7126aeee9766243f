package video

import (
	"fmt"
	"math/rand"
	"strings"
)

// TransitionMode selects the per-segment effect applied while cutting
// timeline clips.
type TransitionMode string

const (
	TransitionNone     TransitionMode = "none"
	TransitionFadeIn   TransitionMode = "fade_in"
	TransitionFadeOut  TransitionMode = "fade_out"
	TransitionSlideIn  TransitionMode = "slide_in"
	TransitionSlideOut TransitionMode = "slide_out"
	TransitionWhipPan  TransitionMode = "whip_pan"
	TransitionZoom     TransitionMode = "zoom"
	// TransitionShuffle draws a different transition for every segment.
	TransitionShuffle TransitionMode = "shuffle"
)

const (
	transitionSpeed = 0.5
	whipSpeed       = 0.3
	zoomSpeed       = 0.4
)

// ParseTransitionMode maps a config string onto a mode. Unknown values
// and the empty string disable transitions.
func ParseTransitionMode(s string) TransitionMode {
	switch TransitionMode(strings.ToLower(s)) {
	case TransitionFadeIn, TransitionFadeOut, TransitionSlideIn,
		TransitionSlideOut, TransitionWhipPan, TransitionZoom, TransitionShuffle:
		return TransitionMode(strings.ToLower(s))
	}
	return TransitionNone
}

var slideSides = []string{"left", "right", "top", "bottom"}

// Filter returns the extra ffmpeg video filter for one segment, or ""
// when the mode adds nothing. Slide directions are drawn from rng so
// consecutive segments vary.
func (m TransitionMode) Filter(segDuration float64, rng *rand.Rand) string {
	switch m {
	case TransitionFadeIn:
		return fadeInFilter(transitionSpeed)
	case TransitionFadeOut:
		return fadeOutFilter(segDuration, transitionSpeed)
	case TransitionSlideIn:
		return slideInFilter(slideSides[rng.Intn(len(slideSides))], transitionSpeed)
	case TransitionSlideOut:
		return slideOutFilter(slideSides[rng.Intn(len(slideSides))], segDuration, transitionSpeed)
	case TransitionWhipPan:
		return slideInFilter(slideSides[rng.Intn(len(slideSides))], whipSpeed)
	case TransitionZoom:
		return fadeInFilter(zoomSpeed)
	case TransitionShuffle:
		switch rng.Intn(4) {
		case 0:
			return fadeInFilter(transitionSpeed)
		case 1:
			return fadeOutFilter(segDuration, transitionSpeed)
		case 2:
			return slideInFilter(slideSides[rng.Intn(len(slideSides))], transitionSpeed)
		default:
			return slideOutFilter(slideSides[rng.Intn(len(slideSides))], segDuration, transitionSpeed)
		}
	}
	return ""
}

func fadeInFilter(speed float64) string {
	return fmt.Sprintf("fade=t=in:st=0:d=%s", formatSeconds(speed))
}

func fadeOutFilter(segDuration, speed float64) string {
	start := segDuration - speed
	if start < 0 {
		start = 0
	}
	return fmt.Sprintf("fade=t=out:st=%s:d=%s", formatSeconds(start), formatSeconds(speed))
}

// slideInFilter pads the frame with black on the entry side and walks
// the crop window across it, so the clip slides into view over speed
// seconds. Expressions are quoted to keep their commas out of the
// filtergraph parser.
func slideInFilter(side string, speed float64) string {
	d := formatSeconds(speed)
	switch side {
	case "right":
		return fmt.Sprintf("pad=w=2*iw:h=ih:x=iw:y=0:color=black,crop=w=iw:h=ih:x='iw*min(t/%s\\,1)':y=0", d)
	case "top":
		return fmt.Sprintf("pad=w=iw:h=2*ih:x=0:y=0:color=black,crop=w=iw:h=ih:x=0:y='ih*max(1-t/%s\\,0)'", d)
	case "bottom":
		return fmt.Sprintf("pad=w=iw:h=2*ih:x=0:y=ih:color=black,crop=w=iw:h=ih:x=0:y='ih*min(t/%s\\,1)'", d)
	default: // left
		return fmt.Sprintf("pad=w=2*iw:h=ih:x=0:y=0:color=black,crop=w=iw:h=ih:x='iw*max(1-t/%s\\,0)':y=0", d)
	}
}

// slideOutFilter mirrors slideInFilter over the last speed seconds.
func slideOutFilter(side string, segDuration, speed float64) string {
	start := segDuration - speed
	if start < 0 {
		start = 0
	}
	st, d := formatSeconds(start), formatSeconds(speed)
	switch side {
	case "right":
		return fmt.Sprintf("pad=w=2*iw:h=ih:x=iw:y=0:color=black,crop=w=iw:h=ih:x='iw*(1-min(max(t-%s\\,0)/%s\\,1))':y=0", st, d)
	case "top":
		return fmt.Sprintf("pad=w=iw:h=2*ih:x=0:y=0:color=black,crop=w=iw:h=ih:x=0:y='ih*min(max(t-%s\\,0)/%s\\,1)'", st, d)
	case "bottom":
		return fmt.Sprintf("pad=w=iw:h=2*ih:x=0:y=ih:color=black,crop=w=iw:h=ih:x=0:y='ih*(1-min(max(t-%s\\,0)/%s\\,1))'", st, d)
	default: // left
		return fmt.Sprintf("pad=w=2*iw:h=ih:x=0:y=0:color=black,crop=w=iw:h=ih:x='iw*min(max(t-%s\\,0)/%s\\,1)':y=0", st, d)
	}
}
