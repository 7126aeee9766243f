package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetentionCurveLength(t *testing.T) {
	curve := PredictRetentionCurve("Short. Sentences. Here.", 30)
	assert.Len(t, curve, 30)
}

func TestRetentionCurveEmptyScript(t *testing.T) {
	curve := PredictRetentionCurve("", 10)
	assert.Len(t, curve, 10)
	for _, v := range curve {
		assert.Equal(t, 0.5, v)
	}
}

func TestRetentionQuestionBeatsRamble(t *testing.T) {
	question := PredictRetentionCurve("Why does this happen?", 1)
	ramble := PredictRetentionCurve("this sentence keeps going and going and adding more and more words until nobody is listening anymore at all", 1)
	assert.Greater(t, question[0], ramble[0])
}

func TestRetentionBoringWordPenalty(t *testing.T) {
	plain := PredictRetentionCurve("The pyramids were built long ago with stone.", 1)
	boring := PredictRetentionCurve("The pyramids were basically built long ago with stone.", 1)
	assert.Greater(t, plain[0], boring[0])
}

func TestRetentionDecay(t *testing.T) {
	// Identical sentences, so any difference comes from the decay.
	curve := PredictRetentionCurve("Five short words here now. Five short words here now. Five short words here now.", 6)
	assert.Greater(t, curve[0], curve[len(curve)-1])
}

func TestRetentionClamped(t *testing.T) {
	curve := PredictRetentionCurve("word "+"word word word word word word word word word word word word word word word word word word word word word word word word.", 5)
	for _, v := range curve {
		assert.GreaterOrEqual(t, v, 0.1*0.8)
		assert.LessOrEqual(t, v, 1.0)
	}
}
