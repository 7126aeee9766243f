package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"clipforge/internal/logging"
	"clipforge/internal/subtitle"
)

// Words that tend to mark an engaging moment, English and Indonesian.
var highlightKeywords = []string{
	"incredible", "amazing", "shocking", "unbelievable", "crazy",
	"insane", "hacked", "secret", "exposed", "truth", "finally",
	"omg", "wow", "boom", "mind-blowing",
	"luar biasa", "gila", "dahsyat", "menakjubkan", "rahasia",
	"terungkap", "akhirnya", "waduh", "mantap",
}

var digitRe = regexp.MustCompile(`\d+`)

// ScoreHighlight rates one subtitle line for clip-worthiness.
func ScoreHighlight(text string) int {
	score := 0
	lower := strings.ToLower(text)

	score += strings.Count(text, "?") * 2
	score += strings.Count(text, "!") * 2
	for _, kw := range highlightKeywords {
		if strings.Contains(lower, kw) {
			score += 3
		}
	}
	if digitRe.MatchString(text) {
		score++
	}
	return score
}

// Highlight is one selected clip window.
type Highlight struct {
	Start float64
	End   float64
	Score int
}

// SelectHighlights picks up to maxClips non-overlapping windows of
// clipDuration seconds centered on the highest-scoring subtitle lines.
// Lines scoring zero never anchor a clip.
func SelectHighlights(items []subtitle.Item, videoDuration float64, maxClips int, clipDuration float64) []Highlight {
	if maxClips <= 0 {
		maxClips = 3
	}
	if clipDuration <= 0 {
		clipDuration = 20
	}

	type moment struct {
		time  float64
		score int
	}
	var moments []moment
	for _, it := range items {
		if score := ScoreHighlight(it.Text); score > 0 {
			moments = append(moments, moment{time: it.Start.Seconds(), score: score})
		}
	}
	if len(moments) == 0 {
		return nil
	}
	sort.SliceStable(moments, func(i, j int) bool { return moments[i].score > moments[j].score })

	var selected []Highlight
	for _, m := range moments {
		if len(selected) >= maxClips {
			break
		}
		start := m.time - clipDuration/2
		if start < 0 {
			start = 0
		}
		end := start + clipDuration
		if end > videoDuration {
			end = videoDuration
			start = end - clipDuration
			if start < 0 {
				start = 0
			}
		}

		overlaps := false
		for _, s := range selected {
			if start < s.End && s.Start < end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			selected = append(selected, Highlight{Start: start, End: end, Score: m.score})
		}
	}
	return selected
}

// ExtractHighlights cuts the selected windows out of the finished
// video, audio included, into outDir. Returns the written paths.
func (r *Renderer) ExtractHighlights(ctx context.Context, videoPath string, duration float64, items []subtitle.Item, outDir string, maxClips int, clipDuration float64) ([]string, error) {
	clips := SelectHighlights(items, duration, maxClips, clipDuration)
	if len(clips) == 0 {
		logging.Render("no highlight moments found in %s", videoPath)
		return nil, nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	var out []string
	for i, c := range clips {
		path := filepath.Join(outDir, fmt.Sprintf("highlight_%d_score%d.mp4", i+1, c.Score))
		if err := r.run(ctx, highlightArgs(videoPath, c, path, r.threads)); err != nil {
			logging.Render("highlight %d failed: %v", i+1, err)
			continue
		}
		out = append(out, path)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("all %d highlight cuts failed", len(clips))
	}
	return out, nil
}

func highlightArgs(videoPath string, c Highlight, outPath string, threads int) []string {
	return []string{
		"-y",
		"-ss", formatSeconds(c.Start),
		"-t", formatSeconds(c.End - c.Start),
		"-i", videoPath,
		"-c:v", "libx264",
		"-b:v", renderBitrate,
		"-c:a", "aac",
		"-threads", strconv.Itoa(threads),
		outPath,
	}
}
