package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/logging"
)

// PlatformLimit caps the exported duration per publishing platform.
type PlatformLimit struct {
	MaxDuration float64
	Suffix      string
}

var platformLimits = map[string]PlatformLimit{
	"youtube_shorts":  {MaxDuration: 60, Suffix: "_shorts"},
	"tiktok":          {MaxDuration: 180, Suffix: "_tiktok"},
	"instagram_reels": {MaxDuration: 90, Suffix: "_reels"},
}

// thumbnailTimestamps spreads count capture points between 10% and 90%
// of the video, avoiding the very start and end. A single thumbnail
// lands on the midpoint.
func thumbnailTimestamps(duration float64, count int) []float64 {
	if count <= 1 {
		return []float64{duration * 0.5}
	}
	const startP, endP = 0.1, 0.9
	step := (endP - startP) / float64(count+1)
	ts := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		ts = append(ts, duration*(startP+step*float64(i+1)))
	}
	return ts
}

// Thumbnails extracts count candidate frames from the video into
// outDir as thumb_01.jpg, thumb_02.jpg and so on.
func (r *Renderer) Thumbnails(ctx context.Context, videoPath string, duration float64, outDir string, count int) ([]string, error) {
	if count <= 0 {
		count = 3
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}

	var paths []string
	for i, ts := range thumbnailTimestamps(duration, count) {
		out := filepath.Join(outDir, fmt.Sprintf("thumb_%02d.jpg", i+1))
		if err := r.run(ctx, thumbnailArgs(videoPath, ts, out)); err != nil {
			logging.Render("thumbnail at %.2fs failed: %v", ts, err)
			continue
		}
		paths = append(paths, out)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no thumbnails extracted from %s", videoPath)
	}
	return paths, nil
}

func thumbnailArgs(videoPath string, ts float64, outPath string) []string {
	return []string{
		"-y",
		"-ss", formatSeconds(ts),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	}
}

// ExportForPlatforms writes a per-platform variant of the finished
// video. Videos within a platform's duration limit are stream-copied,
// longer videos keep the opening (where the hook lives) and cut the
// tail.
func (r *Renderer) ExportForPlatforms(ctx context.Context, videoPath string, duration float64, outDir string, platforms []string) (map[string]string, error) {
	if len(platforms) == 0 {
		platforms = []string{"youtube_shorts"}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	results := make(map[string]string)
	for _, platform := range platforms {
		limit, ok := platformLimits[platform]
		if !ok {
			logging.Render("unknown platform: %s", platform)
			continue
		}
		out := filepath.Join(outDir, base+limit.Suffix+".mp4")
		if err := r.run(ctx, exportArgs(videoPath, duration, limit, out)); err != nil {
			return results, fmt.Errorf("export for %s: %w", platform, err)
		}
		logging.Render("exported %s variant (%.0fs cap): %s", platform, limit.MaxDuration, out)
		results[platform] = out
	}
	return results, nil
}

func exportArgs(videoPath string, duration float64, limit PlatformLimit, outPath string) []string {
	if duration <= limit.MaxDuration {
		return []string{"-y", "-i", videoPath, "-c", "copy", outPath}
	}
	// Trimming needs a re-encode, stream copy can only cut on
	// keyframes and would overshoot the limit.
	return []string{
		"-y",
		"-i", videoPath,
		"-t", formatSeconds(limit.MaxDuration),
		"-c:v", "libx264",
		"-b:v", renderBitrate,
		"-c:a", "aac",
		outPath,
	}
}
