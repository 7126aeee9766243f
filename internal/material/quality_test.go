package material

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeClip creates a file big enough to pass the corruption check.
func writeFakeClip(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func fixedProbe(info MediaInfo) ProbeFunc {
	return func(ctx context.Context, path string) (MediaInfo, error) {
		return info, nil
	}
}

func TestScoreClipGoodPortrait(t *testing.T) {
	dir := t.TempDir()
	// 10MB over 10s is an 8Mbps bitrate.
	path := writeFakeClip(t, dir, "vid-abc.mp4", 10_000_000)

	probe := fixedProbe(MediaInfo{Duration: 10, Width: 1080, Height: 1920, FPS: 30})
	res := ScoreClip(context.Background(), probe, path, "")
	require.NoError(t, res.Err)

	// 25 duration + 25 resolution + 15 fps + 10 aspect + 15 bitrate + 10 stability
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Passed)
}

func TestScoreClipTagMatchBonus(t *testing.T) {
	dir := t.TempDir()
	plain := writeFakeClip(t, dir, "vid-123.mp4", 1_000_000)
	tagged := writeFakeClip(t, dir, "ocean-waves-crashing.mp4", 1_000_000)

	probe := fixedProbe(MediaInfo{Duration: 10, Width: 1080, Height: 1920, FPS: 30})
	plainRes := ScoreClip(context.Background(), probe, plain, "ocean waves")
	taggedRes := ScoreClip(context.Background(), probe, tagged, "ocean waves")

	assert.Equal(t, plainRes.Score+20, taggedRes.Score)
}

func TestScoreClipRejectsTinyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFakeClip(t, dir, "vid-tiny.mp4", 1024)

	res := ScoreClip(context.Background(), fixedProbe(MediaInfo{}), path, "")
	assert.Error(t, res.Err)
	assert.False(t, res.Passed)
}

func TestScoreClipMissingFile(t *testing.T) {
	res := ScoreClip(context.Background(), fixedProbe(MediaInfo{}), "/nonexistent/vid.mp4", "")
	assert.Error(t, res.Err)
}

func TestFilterByQualitySortsBestFirst(t *testing.T) {
	dir := t.TempDir()
	low := writeFakeClip(t, dir, "low.mp4", 200_000)
	high := writeFakeClip(t, dir, "high.mp4", 10_000_000)

	probe := func(ctx context.Context, path string) (MediaInfo, error) {
		if filepath.Base(path) == "high.mp4" {
			return MediaInfo{Duration: 10, Width: 1080, Height: 1920, FPS: 30}, nil
		}
		return MediaInfo{Duration: 3, Width: 640, Height: 360, FPS: 15}, nil
	}

	filtered := FilterByQuality(context.Background(), probe, []string{low, high}, 40, "")
	require.NotEmpty(t, filtered)
	assert.Equal(t, high, filtered[0])
	assert.NotContains(t, filtered, low)
}
