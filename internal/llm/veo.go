package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"clipforge/internal/config"
	"clipforge/internal/logging"
)

// VeoGenerator produces short AI-generated hook clips used as the opening
// seconds of a video. Generation is a long-running operation; GenerateClip
// polls until the clip is ready or the context is cancelled.
type VeoGenerator struct {
	client   *genai.Client
	model    string
	cacheDir string
	poll     time.Duration
}

// NewVeoGenerator builds a generator from the veo config section.
// Returns an error when veo is disabled or the API key is missing.
func NewVeoGenerator(ctx context.Context, cfg config.VeoConfig, cacheDir string) (*VeoGenerator, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("veo generation is disabled")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("veo: %w", ErrNoAPIKey)
	}
	model := cfg.Model
	if model == "" {
		model = "veo-2.0-generate-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create veo client: %w", err)
	}

	return &VeoGenerator{
		client:   client,
		model:    model,
		cacheDir: cacheDir,
		poll:     10 * time.Second,
	}, nil
}

// GenerateClip submits a generation request and blocks until the clip is
// downloaded. Returns the path of the saved mp4.
func (g *VeoGenerator) GenerateClip(ctx context.Context, vp VeoPrompt, durationSeconds int32, aspectRatio string) (string, error) {
	if aspectRatio == "" {
		aspectRatio = "9:16"
	}
	if durationSeconds <= 0 {
		durationSeconds = 8
	}

	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos:  1,
		AspectRatio:     aspectRatio,
		NegativePrompt:  vp.NegativePrompt,
		DurationSeconds: genai.Ptr(durationSeconds),
	}

	logging.LLM("veo: submitting generation for %q", truncate(vp.Prompt, 50))
	timer := logging.StartTimer(logging.CategoryLLM, "veo generation")

	op, err := g.client.Models.GenerateVideos(ctx, g.model, vp.Prompt, nil, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to start veo generation: %w", err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.poll):
		}
		op, err = g.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return "", fmt.Errorf("failed to poll veo operation: %w", err)
		}
	}
	timer.Stop()

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return "", fmt.Errorf("veo operation completed with no videos")
	}

	video := op.Response.GeneratedVideos[0].Video
	if _, err := g.client.Files.Download(ctx, video, nil); err != nil {
		return "", fmt.Errorf("failed to download veo clip: %w", err)
	}
	if len(video.VideoBytes) == 0 {
		return "", fmt.Errorf("veo clip download returned no data")
	}

	return g.saveClip(video.VideoBytes)
}

func (g *VeoGenerator) saveClip(data []byte) (string, error) {
	if err := os.MkdirAll(g.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create clip cache directory: %w", err)
	}
	path := filepath.Join(g.cacheDir, fmt.Sprintf("veo_%s.mp4", uuid.New().String()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save veo clip: %w", err)
	}
	logging.LLM("veo: clip saved to %s", path)
	return path, nil
}
