package video

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/material"
)

func TestBuildTimelineNoSources(t *testing.T) {
	_, err := BuildTimeline(nil, PlanOptions{AudioDuration: 10})
	assert.Error(t, err)
}

func TestBuildTimelineBadAudioDuration(t *testing.T) {
	_, err := BuildTimeline([]Source{{Path: "a.mp4", Duration: 30}}, PlanOptions{})
	assert.Error(t, err)
}

func TestBuildTimelineCoversAudio(t *testing.T) {
	sources := []Source{
		{Path: "a.mp4", Duration: 30},
		{Path: "b.mp4", Duration: 12},
	}
	segments, err := BuildTimeline(sources, PlanOptions{
		AudioDuration:   25,
		MaxClipDuration: 5,
		ConcatMode:      material.ConcatRandom,
		Pacing:          PacingDynamic,
		Rng:             rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)

	var total float64
	for _, seg := range segments {
		assert.Greater(t, seg.Duration(), 0.1)
		assert.LessOrEqual(t, seg.Duration(), 5.0+1e-9)
		assert.GreaterOrEqual(t, seg.Start, 0.0)
		total += seg.Duration()
	}
	assert.GreaterOrEqual(t, total, 25.0)
}

func TestBuildTimelineSequentialWalksForward(t *testing.T) {
	sources := []Source{
		{Path: "a.mp4", Duration: 100},
	}
	segments, err := BuildTimeline(sources, PlanOptions{
		AudioDuration:   12,
		MaxClipDuration: 4,
		ConcatMode:      material.ConcatSequential,
		Pacing:          PacingDefault,
		Rng:             rand.New(rand.NewSource(9)),
	})
	require.NoError(t, err)
	require.NotEmpty(t, segments)

	// One long source, cuts must be contiguous from the start.
	assert.Equal(t, 0.0, segments[0].Start)
	for i := 1; i < len(segments); i++ {
		assert.Equal(t, segments[i-1].End, segments[i].Start)
	}
}

func TestBuildTimelineSequentialLoopsWhenExhausted(t *testing.T) {
	sources := []Source{
		{Path: "short.mp4", Duration: 3},
	}
	segments, err := BuildTimeline(sources, PlanOptions{
		AudioDuration:   10,
		MaxClipDuration: 4,
		ConcatMode:      material.ConcatSequential,
		Pacing:          PacingSlow,
		Rng:             rand.New(rand.NewSource(5)),
	})
	require.NoError(t, err)

	var total float64
	for _, seg := range segments {
		assert.Equal(t, "short.mp4", seg.Path)
		assert.LessOrEqual(t, seg.End, 3.0)
		total += seg.Duration()
	}
	assert.GreaterOrEqual(t, total, 10.0)
}

func TestBuildTimelineRandomStaysInBounds(t *testing.T) {
	sources := []Source{
		{Path: "a.mp4", Duration: 8},
		{Path: "b.mp4", Duration: 2.5},
	}
	segments, err := BuildTimeline(sources, PlanOptions{
		AudioDuration:   20,
		MaxClipDuration: 6,
		ConcatMode:      material.ConcatRandom,
		Pacing:          PacingFast,
		Rng:             rand.New(rand.NewSource(11)),
	})
	require.NoError(t, err)

	byPath := map[string]float64{"a.mp4": 8, "b.mp4": 2.5}
	for _, seg := range segments {
		limit, ok := byPath[seg.Path]
		require.True(t, ok)
		assert.LessOrEqual(t, seg.End, limit)
	}
}
