package script

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubHookSource struct {
	hooks []HookStats
	err   error
}

func (s *stubHookSource) TopHooks(category string, limit, minSamples int) ([]HookStats, error) {
	return s.hooks, s.err
}

func TestHookFromCategoryPool(t *testing.T) {
	p := NewHookPicker(nil, 1)
	hook := p.Hook("Stoik")
	assert.Contains(t, hookTemplates["Stoik"], hook)
}

func TestHookUnknownCategoryUsesGeneric(t *testing.T) {
	p := NewHookPicker(nil, 1)
	hook := p.Hook("Cooking")
	assert.Contains(t, genericHooks, hook)
}

func TestHookPrefersProvenTemplates(t *testing.T) {
	source := &stubHookSource{hooks: []HookStats{
		{Template: "proven hook", AvgRetention: 0.8, Samples: 10},
	}}
	p := NewHookPicker(source, 1)

	proven := 0
	for i := 0; i < 200; i++ {
		if p.Hook("Fakta") == "proven hook" {
			proven++
		}
	}
	// Epsilon-greedy: roughly 70% exploitation.
	assert.Greater(t, proven, 100)
	assert.Less(t, proven, 180)
}

func TestHookIgnoresLowRetention(t *testing.T) {
	source := &stubHookSource{hooks: []HookStats{
		{Template: "weak hook", AvgRetention: 0.3, Samples: 10},
	}}
	p := NewHookPicker(source, 1)
	for i := 0; i < 50; i++ {
		assert.NotEqual(t, "weak hook", p.Hook("Fakta"))
	}
}

func TestHookSourceErrorFallsBack(t *testing.T) {
	source := &stubHookSource{err: errors.New("db closed")}
	p := NewHookPicker(source, 1)
	hook := p.Hook("Misteri")
	assert.Contains(t, hookTemplates["Misteri"], hook)
}

func TestCTA(t *testing.T) {
	p := NewHookPicker(nil, 1)
	assert.Contains(t, ctaTemplates, p.CTA())
}

func TestHookDuration(t *testing.T) {
	assert.Equal(t, 2.5, HookDuration("short hook"))
	assert.Equal(t, 4.0, HookDuration("one two three four five six seven eight nine ten"))
	assert.Equal(t, 5.0, HookDuration("a b c d e f g h i j k l m n o p q r s t"))
}
