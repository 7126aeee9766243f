package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"clipforge/internal/logging"
)

// PrependSilence re-encodes the audio file with d of leading silence,
// making room for the hook overlay before narration starts. The matching
// SubMaker must be shifted by the same amount.
func PrependSilence(ctx context.Context, ffmpegPath, audioPath string, d time.Duration) error {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ms := d.Milliseconds()
	if ms <= 0 {
		return nil
	}

	tmp := audioPath + ".pad.mp3"
	args := []string{
		"-y",
		"-i", audioPath,
		"-af", fmt.Sprintf("adelay=%d:all=1", ms),
		"-c:a", "libmp3lame",
		tmp,
	}
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to pad audio with silence: %w: %s", err, string(out))
	}
	if err := os.Rename(tmp, audioPath); err != nil {
		return fmt.Errorf("failed to replace audio file: %w", err)
	}
	logging.Get(logging.CategoryVoice).Info("prepended %.2fs of silence to %s", d.Seconds(), audioPath)
	return nil
}
