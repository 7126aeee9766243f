package video

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipforge/internal/material"
)

func TestCutArgs(t *testing.T) {
	seg := Segment{Path: "clips/vid-abc.mp4", Start: 2.5, End: 6.0}
	args := cutArgs(seg, material.AspectPortrait, "", "", "seg_000.mp4", 2)

	assert.Equal(t, []string{
		"-y",
		"-ss", "2.500",
		"-t", "3.500",
		"-i", "clips/vid-abc.mp4",
		"-vf", "scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920,fps=30",
		"-c:v", "libx264",
		"-b:v", "8000k",
		"-an",
		"-threads", "2",
		"seg_000.mp4",
	}, args)
}

func TestCutArgsLandscape(t *testing.T) {
	args := cutArgs(Segment{Path: "a.mp4", End: 3}, material.AspectLandscape, "", "", "out.mp4", 4)
	assert.Contains(t, args, "scale=1920:1080:force_original_aspect_ratio=increase,crop=1920:1080,fps=30")
}

func TestCutArgsAppendsTransition(t *testing.T) {
	args := cutArgs(Segment{Path: "a.mp4", End: 3}, material.AspectPortrait, "fade=t=in:st=0:d=0.500", "", "out.mp4", 2)
	assert.Contains(t, args, "scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920,fps=30,fade=t=in:st=0:d=0.500")
}

func TestCutArgsWithSFX(t *testing.T) {
	args := cutArgs(Segment{Path: "a.mp4", End: 2.5}, material.AspectPortrait, "", "sfx/whoosh.mp3", "out.mp4", 2)
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i a.mp4 -i sfx/whoosh.mp3")
	assert.Contains(t, joined, "-map 0:v -map 1:a -af apad -c:a aac -t 2.500")
	assert.NotContains(t, args, "-an")
}

func TestConcatArgs(t *testing.T) {
	args := concatArgs("list.txt", 42.7, "merged.mp4")
	assert.Equal(t, []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", "list.txt",
		"-t", "42.700",
		"-c", "copy",
		"merged.mp4",
	}, args)
}

func TestWriteConcatList(t *testing.T) {
	listPath := filepath.Join(t.TempDir(), "concat_list.txt")
	err := writeConcatList(listPath, []string{
		`C:\work\seg_000.mp4`,
		"/tmp/it's.mp4",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(listPath)
	require.NoError(t, err)
	assert.Equal(t, "file 'C:/work/seg_000.mp4'\nfile '/tmp/it'\\''s.mp4'\n", string(data))
}

func TestMixArgsVoiceOnly(t *testing.T) {
	args := mixArgs(MixOptions{
		VideoPath:   "merged.mp4",
		VoicePath:   "audio.mp3",
		VoiceVolume: 1.0,
		Duration:    30,
		Output:      "final_nosub.mp4",
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i merged.mp4 -i audio.mp3")
	assert.Contains(t, joined, "[1:a]volume=1[a]")
	assert.NotContains(t, joined, "amix")
	assert.Contains(t, joined, "-map 0:v -map [a] -c:v copy -c:a aac -t 30.000 final_nosub.mp4")
}

func TestMixArgsWithBGM(t *testing.T) {
	args := mixArgs(MixOptions{
		VideoPath:   "merged.mp4",
		VoicePath:   "audio.mp3",
		BGMPath:     "songs/output003.mp3",
		VoiceVolume: 1.0,
		BGMVolume:   0.2,
		Duration:    45,
		Output:      "final_nosub.mp4",
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-stream_loop -1 -i songs/output003.mp3")
	assert.Contains(t, joined, "[2:a]volume=0.2,afade=t=in:d=2,afade=t=out:st=42.000:d=3[bgm]")
	assert.Contains(t, joined, "amix=inputs=2:duration=first")
}

func TestMixArgsWithVideoAudio(t *testing.T) {
	args := mixArgs(MixOptions{
		VideoPath:         "merged.mp4",
		VoicePath:         "audio.mp3",
		BGMPath:           "b.mp3",
		IncludeVideoAudio: true,
		Duration:          30,
		Output:            "o.mp4",
	})
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "[0:a]volume=1[sfx]")
	assert.Contains(t, joined, "[voice][sfx][bgm]amix=inputs=3:duration=first")

	// Without BGM the sfx track still rides the mix.
	args = mixArgs(MixOptions{
		VideoPath:         "merged.mp4",
		VoicePath:         "audio.mp3",
		IncludeVideoAudio: true,
		Duration:          30,
		Output:            "o.mp4",
	})
	joined = strings.Join(args, " ")
	assert.Contains(t, joined, "[voice][sfx]amix=inputs=2:duration=first")
	assert.NotContains(t, joined, "-stream_loop")
}

func TestMixArgsDefaultsVolumes(t *testing.T) {
	args := mixArgs(MixOptions{
		VideoPath: "v.mp4",
		VoicePath: "a.mp3",
		BGMPath:   "b.mp3",
		Duration:  10,
		Output:    "o.mp4",
	})
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "[1:a]volume=1[voice]")
	assert.Contains(t, joined, "[2:a]volume=0.2")
}

func TestBurnArgs(t *testing.T) {
	args := burnArgs("final_nosub.mp4", "/tmp/task/subtitle.ass", "final.mp4")
	assert.Equal(t, []string{
		"-y",
		"-i", "final_nosub.mp4",
		"-vf", "ass='/tmp/task/subtitle.ass'",
		"-c:v", "libx264",
		"-b:v", "8000k",
		"-c:a", "copy",
		"final.mp4",
	}, args)
}

func TestBurnSubtitlesFallbackRename(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "final_nosub.mp4")
	out := filepath.Join(dir, "final.mp4")
	require.NoError(t, os.WriteFile(video, []byte("VIDEO"), 0o644))

	// A renderer pointed at a nonexistent binary always fails the
	// burn, exercising the rename fallback.
	r := NewRenderer(filepath.Join(dir, "no-such-ffmpeg"), 2)
	err := r.BurnSubtitles(t.Context(), video, filepath.Join(dir, "subtitle.ass"), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "VIDEO", string(data))
	assert.NoFileExists(t, video)
}
