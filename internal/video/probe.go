package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"clipforge/internal/material"
)

// FFprobe inspects media files via the ffprobe binary.
type FFprobe struct {
	binary string
}

// NewFFprobe returns a prober using the given ffprobe binary.
// An empty binary falls back to "ffprobe" on PATH.
func NewFFprobe(binary string) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe reads duration, dimensions and frame rate from a media file.
// The method value satisfies material.ProbeFunc.
func (p *FFprobe) Probe(ctx context.Context, path string) (material.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return material.MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(data []byte) (material.MediaInfo, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return material.MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info material.MediaInfo
	if raw.Format.Duration != "" {
		d, err := strconv.ParseFloat(raw.Format.Duration, 64)
		if err != nil {
			return material.MediaInfo{}, fmt.Errorf("parse duration %q: %w", raw.Format.Duration, err)
		}
		info.Duration = d
	}
	for _, s := range raw.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.FPS = parseFrameRate(s.RFrameRate)
		break
	}
	if info.Width == 0 || info.Height == 0 {
		return info, fmt.Errorf("no video stream found")
	}
	return info, nil
}

// parseFrameRate handles ffprobe rational rates like "30000/1001" or "25/1".
func parseFrameRate(rate string) float64 {
	if rate == "" {
		return 0
	}
	num, den, ok := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
