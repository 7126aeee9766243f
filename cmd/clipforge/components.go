package main

import (
	"context"
	"fmt"
	"time"

	"clipforge/internal/analytics"
	"clipforge/internal/llm"
	"clipforge/internal/material"
	"clipforge/internal/script"
	"clipforge/internal/task"
	"clipforge/internal/video"
	"clipforge/internal/voice"

	"go.uber.org/zap"
)

// buildComponents wires the pipeline's collaborators from the loaded
// config. The returned func closes everything that holds a handle.
func buildComponents(ctx context.Context) (task.Components, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	generator, closeGen, err := buildGenerator()
	if err != nil {
		return task.Components{}, cleanup, err
	}
	closers = append(closers, closeGen)

	synth, err := buildSynthesizer()
	if err != nil {
		cleanup()
		return task.Components{}, func() {}, err
	}

	prober := video.NewFFprobe(cfg.Video.FFprobePath)
	renderer := video.NewRenderer(cfg.Video.FFmpegPath, cfg.Video.Threads)

	providers, err := buildProviders()
	if err != nil {
		cleanup()
		return task.Components{}, func() {}, err
	}
	downloader := material.NewDownloader(providers, prober.Probe, cfg.Material.DownloadWorkers)

	astore, err := analytics.Open(cfg.Paths.Storage)
	if err != nil {
		cleanup()
		return task.Components{}, func() {}, fmt.Errorf("analytics store: %w", err)
	}
	closers = append(closers, func() { _ = astore.Close() })

	c := task.Components{
		Generator:  generator,
		TTS:        synth,
		Downloader: downloader,
		Renderer:   renderer,
		Probe:      prober.Probe,
		Hooks:      script.NewHookPicker(astore, time.Now().UnixNano()),
		Analytics:  astore,
	}

	if cfg.LLM.Veo.Enabled {
		veo, err := llm.NewVeoGenerator(ctx, cfg.LLM.Veo, cfg.CacheDir("veo"))
		if err != nil {
			logger.Warn("Veo hook generation disabled", zap.Error(err))
		} else {
			c.Veo = veo
		}
	}

	return c, cleanup, nil
}

// buildGenerator constructs the LLM service with its response cache.
func buildGenerator() (*llm.Service, func(), error) {
	client, err := llm.NewClient(cfg.LLM, cfg.LLMTimeout())
	if err != nil {
		return nil, func() {}, fmt.Errorf("llm client: %w", err)
	}

	var cache *llm.Cache
	if cfg.Cache.Enabled {
		cache, err = llm.NewCache(cfg.CacheDir("llm"), cfg.CacheTTL())
		if err != nil {
			logger.Warn("LLM cache disabled", zap.Error(err))
			cache = nil
		}
	}
	closer := func() {
		if cache != nil {
			_ = cache.Close()
		}
	}
	return llm.NewService(client, cache), closer, nil
}

func buildSynthesizer() (voice.Synthesizer, error) {
	switch cfg.Voice.Provider {
	case "", "edge":
		return voice.NewEdgeSynthesizer(), nil
	default:
		return nil, fmt.Errorf("unknown voice provider %q", cfg.Voice.Provider)
	}
}

func buildProviders() ([]material.Provider, error) {
	var providers []material.Provider
	if len(cfg.Material.PexelsAPIKeys) > 0 {
		p, err := material.NewPexelsProvider(cfg.Material.PexelsAPIKeys, cfg.Material.PexelsRateLimit)
		if err != nil {
			return nil, fmt.Errorf("pexels provider: %w", err)
		}
		providers = append(providers, p)
	}
	if len(cfg.Material.PixabayAPIKeys) > 0 {
		p, err := material.NewPixabayProvider(cfg.Material.PixabayAPIKeys, cfg.Material.PixabayRateLimit)
		if err != nil {
			return nil, fmt.Errorf("pixabay provider: %w", err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		logger.Warn("No stock footage provider configured, set pexels or pixabay API keys")
	}
	return providers, nil
}
