package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreEmptyScript(t *testing.T) {
	res := Score("", DefaultWeights())
	assert.Equal(t, 0, res.Score)
	assert.NotEmpty(t, res.Feedback)
}

func TestScorePunchyScriptBeatsRamble(t *testing.T) {
	punchy := "Did you know this secret? It's shocking! The truth is incredible. But wait. There's more!"
	ramble := strings.Repeat("this is a very long and meandering sentence that goes on and on without any point whatsoever and keeps adding words ", 3) + "."

	punchyRes := Score(punchy, DefaultWeights())
	rambleRes := Score(ramble, DefaultWeights())

	assert.Greater(t, punchyRes.Score, rambleRes.Score)
	assert.Less(t, rambleRes.Breakdown["sentence_length_penalty"], 0.0)
}

func TestScoreHookBonus(t *testing.T) {
	// Short first sentence with a question and an emotional word.
	res := Score("Is this a secret? The rest of the script follows here with more sentences.", DefaultWeights())
	assert.Equal(t, 20.0, res.Breakdown["hook_bonus"])
}

func TestScoreWeakHookFeedback(t *testing.T) {
	res := Score("the following paragraph describes several procedural details in a neutral administrative tone today. More text here.", DefaultWeights())
	_, hasHook := res.Breakdown["hook_bonus"]
	assert.False(t, hasHook)
	assert.Contains(t, strings.Join(res.Feedback, " "), "Hook")
}

func TestScoreClamped(t *testing.T) {
	loaded := strings.Repeat("Shocking secret! Incredible truth? Amazing crazy win! ", 10)
	res := Score(loaded, DefaultWeights())
	assert.LessOrEqual(t, res.Score, 100)
	assert.GreaterOrEqual(t, res.Score, 0)
}

func TestScoreMetrics(t *testing.T) {
	res := Score("One two three. Four five six?", DefaultWeights())
	assert.Equal(t, 6, res.Metrics.WordCount)
	assert.Equal(t, 2, res.Metrics.SentenceCount)
	assert.Equal(t, 1, res.Metrics.Questions)
}
