package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/subtitle"
)

func TestScoreHighlight(t *testing.T) {
	assert.Equal(t, 0, ScoreHighlight("a calm descriptive sentence"))
	assert.Equal(t, 2, ScoreHighlight("what happened next?"))
	assert.Equal(t, 4, ScoreHighlight("wait, what?!"))
	assert.Equal(t, 3, ScoreHighlight("the secret tunnel"))
	assert.Equal(t, 3, ScoreHighlight("rahasia lama itu"))
	assert.Equal(t, 1, ScoreHighlight("over 300 ships vanished"))
	// ? + ! + keyword + number
	assert.Equal(t, 8, ScoreHighlight("an incredible 90 died?!"))
}

func subAt(sec float64, text string) subtitle.Item {
	return subtitle.Item{
		Start: time.Duration(sec * float64(time.Second)),
		End:   time.Duration((sec + 2) * float64(time.Second)),
		Text:  text,
	}
}

func TestSelectHighlightsCentersAndClamps(t *testing.T) {
	items := []subtitle.Item{
		subAt(50, "an amazing discovery!"),
	}
	clips := SelectHighlights(items, 120, 3, 20)
	require.Len(t, clips, 1)
	assert.InDelta(t, 40.0, clips[0].Start, 0.001)
	assert.InDelta(t, 60.0, clips[0].End, 0.001)

	// A moment near the start clamps to zero.
	clips = SelectHighlights([]subtitle.Item{subAt(3, "shocking!")}, 120, 3, 20)
	require.Len(t, clips, 1)
	assert.Equal(t, 0.0, clips[0].Start)
	assert.InDelta(t, 20.0, clips[0].End, 0.001)

	// A moment near the end pulls the window back.
	clips = SelectHighlights([]subtitle.Item{subAt(118, "unbelievable!")}, 120, 3, 20)
	require.Len(t, clips, 1)
	assert.InDelta(t, 100.0, clips[0].Start, 0.001)
	assert.InDelta(t, 120.0, clips[0].End, 0.001)
}

func TestSelectHighlightsSkipsOverlapsAndDullLines(t *testing.T) {
	items := []subtitle.Item{
		subAt(10, "nothing special here"),
		subAt(30, "the truth exposed!"),   // 3 + 3 + 2 = 8
		subAt(35, "crazy, right?"),        // overlaps the window above
		subAt(80, "finally, an answer?!"), // far enough away
	}
	clips := SelectHighlights(items, 200, 3, 20)
	require.Len(t, clips, 2)
	assert.Equal(t, 8, clips[0].Score)
	for _, c := range clips {
		assert.Less(t, c.Start, c.End)
	}
}

func TestSelectHighlightsEmpty(t *testing.T) {
	assert.Nil(t, SelectHighlights(nil, 60, 3, 20))
	assert.Nil(t, SelectHighlights([]subtitle.Item{subAt(5, "plain words")}, 60, 3, 20))
}

func TestHighlightArgs(t *testing.T) {
	args := highlightArgs("final.mp4", Highlight{Start: 40, End: 60, Score: 8}, "out/highlight_1_score8.mp4", 2)
	assert.Equal(t, []string{
		"-y",
		"-ss", "40.000",
		"-t", "20.000",
		"-i", "final.mp4",
		"-c:v", "libx264",
		"-b:v", "8000k",
		"-c:a", "aac",
		"-threads", "2",
		"out/highlight_1_score8.mp4",
	}, args)
}
