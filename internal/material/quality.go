package material

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clipforge/internal/logging"
)

// MediaInfo is the probed technical metadata of a media file.
type MediaInfo struct {
	Duration float64
	Width    int
	Height   int
	FPS      float64
}

// ProbeFunc inspects a media file, normally backed by ffprobe.
type ProbeFunc func(ctx context.Context, path string) (MediaInfo, error)

// QualityResult is the outcome of scoring one downloaded clip.
type QualityResult struct {
	Score   int
	Passed  bool
	Details map[string]int
	Err     error
}

const minPassingScore = 40

// ScoreClip rates a downloaded clip 0-100 from its technical metadata.
// No vision model is involved, the heuristics reward duration, resolution,
// frame rate, aspect fit, bitrate and filename relevance to the search term.
func ScoreClip(ctx context.Context, probe ProbeFunc, path, searchTerm string) QualityResult {
	details := map[string]int{}

	info, err := os.Stat(path)
	if err != nil {
		return QualityResult{Err: fmt.Errorf("file not found: %w", err)}
	}
	fileSize := info.Size()
	// Files under 50KB are almost always truncated downloads.
	if fileSize < 50_000 {
		return QualityResult{Err: fmt.Errorf("file too small (%d bytes), likely corrupt", fileSize)}
	}

	media, err := probe(ctx, path)
	if err != nil {
		return QualityResult{Err: fmt.Errorf("probe failed: %w", err)}
	}

	score := 0

	// Duration, up to 25 points.
	if media.Duration >= 3.0 {
		d := int(media.Duration * 5)
		if d > 25 {
			d = 25
		}
		score += d
		details["duration"] = d
	}

	// Resolution, up to 25 points.
	minDim := media.Width
	if media.Height < minDim {
		minDim = media.Height
	}
	switch {
	case minDim >= 1080:
		details["resolution"] = 25
	case minDim >= 720:
		details["resolution"] = 20
	case minDim >= 480:
		details["resolution"] = 10
	default:
		details["resolution"] = 0
	}
	score += details["resolution"]

	// Frame rate, up to 15 points.
	switch {
	case media.FPS >= 30:
		details["fps"] = 15
	case media.FPS >= 24:
		details["fps"] = 10
	default:
		details["fps"] = 5
	}
	score += details["fps"]

	// Aspect fit, portrait clips suit Shorts best.
	if media.Height > 0 {
		ratio := float64(media.Width) / float64(media.Height)
		switch {
		case ratio >= 0.5 && ratio <= 0.65:
			details["aspect"] = 10
		case ratio >= 1.7 && ratio <= 1.8:
			details["aspect"] = 8
		case ratio >= 0.95 && ratio <= 1.05:
			details["aspect"] = 5
		}
		score += details["aspect"]
	}

	// Bitrate as a quality proxy, up to 15 points.
	if media.Duration > 0 {
		bitrate := float64(fileSize*8) / media.Duration
		switch {
		case bitrate > 5_000_000:
			details["bitrate"] = 15
		case bitrate > 2_000_000:
			details["bitrate"] = 10
		case bitrate > 1_000_000:
			details["bitrate"] = 5
		}
		score += details["bitrate"]
	}

	// The file probed cleanly.
	score += 10
	details["stability"] = 10

	// Filename relevance: a relevant 720p clip should beat a generic 1080p one.
	if searchTerm != "" {
		pathLower := strings.ToLower(path)
		matched := 0
		for _, t := range strings.Fields(strings.ToLower(searchTerm)) {
			if len(t) > 2 && strings.Contains(pathLower, t) {
				matched++
			}
		}
		tag := matched * 10
		if tag > 30 {
			tag = 30
		}
		score += tag
		details["tag_match"] = tag
	}

	return QualityResult{Score: score, Passed: score >= minPassingScore, Details: details}
}

// FilterByQuality keeps clips scoring at or above minScore, best first.
func FilterByQuality(ctx context.Context, probe ProbeFunc, paths []string, minScore int, searchTerm string) []string {
	if minScore < minPassingScore {
		minScore = minPassingScore
	}

	type scored struct {
		path  string
		score int
	}
	var kept []scored
	for _, path := range paths {
		res := ScoreClip(ctx, probe, path, searchTerm)
		if res.Err != nil {
			logging.MaterialWarn("scoring failed for %s: %v", filepath.Base(path), res.Err)
			continue
		}
		if res.Passed && res.Score >= minScore {
			kept = append(kept, scored{path, res.Score})
		} else {
			logging.Material("rejected %s (%d/100)", filepath.Base(path), res.Score)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	filtered := make([]string, len(kept))
	for i, s := range kept {
		filtered[i] = s.path
	}
	logging.Material("quality filter: %d/%d clips passed (min score %d)", len(filtered), len(paths), minScore)
	return filtered
}
