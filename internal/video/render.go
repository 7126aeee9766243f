// Package video plans a clip timeline from downloaded footage and
// renders the final short through ffmpeg, including audio mixing,
// BGM matching, subtitle burning, thumbnails and platform exports.
package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"clipforge/internal/logging"
	"clipforge/internal/material"
)

const (
	renderBitrate = "8000k"
	renderFPS     = 30
)

// Renderer drives ffmpeg for cutting, concatenation, audio mixing
// and subtitle burning.
type Renderer struct {
	ffmpeg  string
	threads int
}

// NewRenderer returns a renderer for the given ffmpeg binary.
// An empty binary falls back to "ffmpeg" on PATH.
func NewRenderer(ffmpeg string, threads int) *Renderer {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if threads <= 0 {
		threads = 2
	}
	return &Renderer{ffmpeg: ffmpeg, threads: threads}
}

// CutSegment re-encodes one timeline segment to the target resolution.
// Sources with a different aspect ratio are scaled to cover and then
// center-cropped so the frame is always filled. A non-empty transition
// filter is appended to the chain; a non-empty sfxPath replaces the
// stripped stock audio with the transition sound effect.
func (r *Renderer) CutSegment(ctx context.Context, seg Segment, aspect material.Aspect, transition, sfxPath, outPath string) error {
	return r.run(ctx, cutArgs(seg, aspect, transition, sfxPath, outPath, r.threads))
}

func cutArgs(seg Segment, aspect material.Aspect, transition, sfxPath, outPath string, threads int) []string {
	w, h := aspect.Resolution()
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d", w, h, w, h, renderFPS)
	if transition != "" {
		vf += "," + transition
	}
	args := []string{
		"-y",
		"-ss", formatSeconds(seg.Start),
		"-t", formatSeconds(seg.Duration()),
		"-i", seg.Path,
	}
	if sfxPath != "" {
		args = append(args, "-i", sfxPath)
	}
	args = append(args, "-vf", vf, "-c:v", "libx264", "-b:v", renderBitrate)
	if sfxPath == "" {
		args = append(args, "-an")
	} else {
		// apad stretches short effects with silence, the output -t
		// trims both streams to the segment length.
		args = append(args,
			"-map", "0:v",
			"-map", "1:a",
			"-af", "apad",
			"-c:a", "aac",
			"-t", formatSeconds(seg.Duration()),
		)
	}
	return append(args, "-threads", strconv.Itoa(threads), outPath)
}

// Concat merges pre-encoded segment files with the concat demuxer.
// Stream copy keeps this a single fast pass, the cut step already
// normalized codec, resolution and frame rate.
func (r *Renderer) Concat(ctx context.Context, segmentFiles []string, audioDuration float64, outPath string) error {
	listPath := filepath.Join(filepath.Dir(outPath), "concat_list.txt")
	if err := writeConcatList(listPath, segmentFiles); err != nil {
		return err
	}
	defer os.Remove(listPath)
	return r.run(ctx, concatArgs(listPath, audioDuration, outPath))
}

// writeConcatList writes the demuxer input list. The demuxer wants
// forward slashes and escaped single quotes on every platform.
func writeConcatList(listPath string, files []string) error {
	var buf bytes.Buffer
	for _, f := range files {
		p := strings.ReplaceAll(f, "\\", "/")
		p = strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&buf, "file '%s'\n", p)
	}
	if err := os.WriteFile(listPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

func concatArgs(listPath string, audioDuration float64, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-t", formatSeconds(audioDuration),
		"-c", "copy",
		outPath,
	}
}

// MixOptions describes the final audio composite over the merged video.
type MixOptions struct {
	VideoPath   string
	VoicePath   string
	BGMPath     string // empty disables BGM
	VoiceVolume float64
	BGMVolume   float64
	// IncludeVideoAudio folds the combined video's own track (the
	// transition sound effects) into the mix.
	IncludeVideoAudio bool
	// Duration is the final video length, used to time the BGM fade out.
	Duration float64
	Output   string
}

// Mix lays the narration and optional looped BGM under the video.
// The video stream is copied untouched.
func (r *Renderer) Mix(ctx context.Context, opts MixOptions) error {
	return r.run(ctx, mixArgs(opts))
}

func mixArgs(opts MixOptions) []string {
	voiceVol := opts.VoiceVolume
	if voiceVol <= 0 {
		voiceVol = 1.0
	}

	args := []string{
		"-y",
		"-i", opts.VideoPath,
		"-i", opts.VoicePath,
	}

	parts := []string{fmt.Sprintf("[1:a]volume=%s[voice]", formatVolume(voiceVol))}
	labels := "[voice]"
	inputs := 1
	if opts.IncludeVideoAudio {
		parts = append(parts, "[0:a]volume=1[sfx]")
		labels += "[sfx]"
		inputs++
	}

	if opts.BGMPath != "" {
		bgmVol := opts.BGMVolume
		if bgmVol <= 0 {
			bgmVol = 0.2
		}
		fadeOutStart := opts.Duration - 3
		if fadeOutStart < 0 {
			fadeOutStart = 0
		}
		// BGM loops under the whole video, fades in over 2s and
		// out over the last 3s. amix follows the narration length.
		parts = append(parts, fmt.Sprintf(
			"[2:a]volume=%s,afade=t=in:d=2,afade=t=out:st=%s:d=3[bgm]",
			formatVolume(bgmVol), formatSeconds(fadeOutStart),
		))
		labels += "[bgm]"
		inputs++
		args = append(args, "-stream_loop", "-1", "-i", opts.BGMPath)
	}

	if inputs == 1 {
		args = append(args,
			"-filter_complex", fmt.Sprintf("[1:a]volume=%s[a]", formatVolume(voiceVol)),
		)
	} else {
		filter := fmt.Sprintf("%s;%samix=inputs=%d:duration=first:dropout_transition=0[a]",
			strings.Join(parts, ";"), labels, inputs)
		args = append(args, "-filter_complex", filter)
	}

	args = append(args,
		"-map", "0:v",
		"-map", "[a]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-t", formatSeconds(opts.Duration),
		opts.Output,
	)
	return args
}

// BurnSubtitles renders the ASS subtitle track into the video. When
// the burn fails the unsubtitled video is renamed to the output path
// so the pipeline still produces a watchable result.
func (r *Renderer) BurnSubtitles(ctx context.Context, videoPath, assPath, outPath string) error {
	if err := r.run(ctx, burnArgs(videoPath, assPath, outPath)); err != nil {
		logging.Render("subtitle burn failed, keeping unsubtitled video: %v", err)
		if renameErr := os.Rename(videoPath, outPath); renameErr != nil {
			return fmt.Errorf("subtitle burn failed (%v) and fallback rename failed: %w", err, renameErr)
		}
		return nil
	}
	os.Remove(videoPath)
	return nil
}

func burnArgs(videoPath, assPath, outPath string) []string {
	// The ass filter parses its argument, quote the path so spaces
	// survive. Windows drive colons would additionally need escaping.
	safe := strings.ReplaceAll(assPath, "\\", "/")
	return []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("ass='%s'", safe),
		"-c:v", "libx264",
		"-b:v", renderBitrate,
		"-c:a", "copy",
		outPath,
	}
}

func (r *Renderer) run(ctx context.Context, args []string) error {
	timer := logging.StartTimer(logging.CategoryRender, "ffmpeg "+args[len(args)-1])
	defer timer.Stop()

	cmd := exec.CommandContext(ctx, r.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", strings.Join(args, " "), err, tail(stderr.String(), 500))
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func formatVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// tail keeps the last n bytes of ffmpeg stderr, the useful error is
// always at the end.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
