package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailTimestampsSingle(t *testing.T) {
	ts := thumbnailTimestamps(60, 1)
	require.Len(t, ts, 1)
	assert.Equal(t, 30.0, ts[0])
}

func TestThumbnailTimestampsSpread(t *testing.T) {
	ts := thumbnailTimestamps(100, 3)
	require.Len(t, ts, 3)

	assert.InDelta(t, 30.0, ts[0], 1e-9)
	assert.InDelta(t, 50.0, ts[1], 1e-9)
	assert.InDelta(t, 70.0, ts[2], 1e-9)

	// Never too close to the start or end.
	assert.Greater(t, ts[0], 100*0.1)
	assert.Less(t, ts[len(ts)-1], 100*0.9)
}

func TestThumbnailArgs(t *testing.T) {
	args := thumbnailArgs("final.mp4", 12.5, "thumb_01.jpg")
	assert.Equal(t, []string{
		"-y",
		"-ss", "12.500",
		"-i", "final.mp4",
		"-frames:v", "1",
		"-q:v", "2",
		"thumb_01.jpg",
	}, args)
}

func TestExportArgsWithinLimit(t *testing.T) {
	limit := platformLimits["youtube_shorts"]
	args := exportArgs("final.mp4", 45, limit, "final_shorts.mp4")
	assert.Equal(t, []string{"-y", "-i", "final.mp4", "-c", "copy", "final_shorts.mp4"}, args)
}

func TestExportArgsTrimsLongVideo(t *testing.T) {
	limit := platformLimits["youtube_shorts"]
	args := exportArgs("final.mp4", 95, limit, "final_shorts.mp4")
	assert.Equal(t, []string{
		"-y",
		"-i", "final.mp4",
		"-t", "60.000",
		"-c:v", "libx264",
		"-b:v", "8000k",
		"-c:a", "aac",
		"final_shorts.mp4",
	}, args)
}

func TestPlatformLimits(t *testing.T) {
	assert.Equal(t, PlatformLimit{MaxDuration: 60, Suffix: "_shorts"}, platformLimits["youtube_shorts"])
	assert.Equal(t, PlatformLimit{MaxDuration: 180, Suffix: "_tiktok"}, platformLimits["tiktok"])
	assert.Equal(t, PlatformLimit{MaxDuration: 90, Suffix: "_reels"}, platformLimits["instagram_reels"])
}
