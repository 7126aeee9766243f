package video

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTransitionMode(t *testing.T) {
	cases := map[string]TransitionMode{
		"fade_in":   TransitionFadeIn,
		"Fade_Out":  TransitionFadeOut,
		"slide_in":  TransitionSlideIn,
		"slide_out": TransitionSlideOut,
		"whip_pan":  TransitionWhipPan,
		"zoom":      TransitionZoom,
		"shuffle":   TransitionShuffle,
		"none":      TransitionNone,
		"":          TransitionNone,
		"wobble":    TransitionNone,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTransitionMode(in), "input %q", in)
	}
}

func TestTransitionFilters(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	assert.Empty(t, TransitionNone.Filter(3, rng))
	assert.Equal(t, "fade=t=in:st=0:d=0.500", TransitionFadeIn.Filter(3, rng))
	assert.Equal(t, "fade=t=out:st=2.500:d=0.500", TransitionFadeOut.Filter(3, rng))

	// Short segments clamp the fade-out start to zero.
	assert.Equal(t, "fade=t=out:st=0.000:d=0.500", TransitionFadeOut.Filter(0.2, rng))

	// Zoom rides a quicker fade, whip pan a quicker slide.
	assert.Equal(t, "fade=t=in:st=0:d=0.400", TransitionZoom.Filter(3, rng))
	assert.Contains(t, TransitionWhipPan.Filter(3, rng), "0.300")
}

func TestSlideFiltersPadAndCrop(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	in := TransitionSlideIn.Filter(3, rng)
	assert.Contains(t, in, "pad=")
	assert.Contains(t, in, "crop=")
	assert.Contains(t, in, `\,`, "expression commas must be escaped")

	out := TransitionSlideOut.Filter(3, rng)
	assert.Contains(t, out, "2.500", "slide out starts speed seconds before the end")
}

func TestShuffleVariesAcrossSegments(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		f := TransitionShuffle.Filter(3, rng)
		assert.NotEmpty(t, f)
		key := "slide"
		if strings.HasPrefix(f, "fade=") {
			key = f
		}
		seen[key] = true
	}
	assert.GreaterOrEqual(t, len(seen), 3)
}
