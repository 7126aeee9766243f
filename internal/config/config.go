// Package config loads and persists clipforge configuration.
// Config lives in a single YAML file (default: config.yaml in the working
// directory) and can be overridden per-field via CLIPFORGE_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all clipforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Stock footage providers
	Material MaterialConfig `yaml:"material"`

	// TTS configuration
	Voice VoiceConfig `yaml:"voice"`

	// Video assembly defaults
	Video VideoConfig `yaml:"video"`

	// Batch worker settings
	Worker WorkerConfig `yaml:"worker"`

	// Publish scheduler settings
	Publish PublishConfig `yaml:"publish"`

	// Storage paths
	Paths PathsConfig `yaml:"paths"`

	// LLM response cache
	Cache CacheConfig `yaml:"cache"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the text-generation provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, deepseek, moonshot, ollama, gemini, pollinations, ...
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Veo hook-video generation (Gemini API)
	Veo VeoConfig `yaml:"veo"`
}

// VeoConfig configures the optional AI-generated hook clip.
type VeoConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// MaterialConfig configures stock video search and download.
type MaterialConfig struct {
	// Multiple keys are rotated round-robin across requests.
	PexelsAPIKeys  []string `yaml:"pexels_api_keys"`
	PixabayAPIKeys []string `yaml:"pixabay_api_keys"`

	// Requests per minute per provider.
	PexelsRateLimit  int `yaml:"pexels_rate_limit"`
	PixabayRateLimit int `yaml:"pixabay_rate_limit"`

	// Local directory of user-provided clips ("task" = per-task dir).
	MaterialDirectory string `yaml:"material_directory"`

	// Parallel download workers.
	DownloadWorkers int `yaml:"download_workers"`

	// Minimum quality score (0-100) for a downloaded clip to be kept.
	MinQualityScore int `yaml:"min_quality_score"`
}

// VoiceConfig configures TTS synthesis.
type VoiceConfig struct {
	Provider string  `yaml:"provider"`
	APIKey   string  `yaml:"api_key"`
	BaseURL  string  `yaml:"base_url"`
	Name     string  `yaml:"name"`
	Rate     float64 `yaml:"rate"`
	Volume   float64 `yaml:"volume"`
}

// VideoConfig holds render defaults.
type VideoConfig struct {
	Aspect           string  `yaml:"aspect"`      // portrait, landscape
	ConcatMode       string  `yaml:"concat_mode"` // random, sequential
	TransitionMode   string  `yaml:"transition_mode"`
	PacingMode       string  `yaml:"pacing_mode"`
	ClipDuration     int     `yaml:"clip_duration"`
	BGMType          string  `yaml:"bgm_type"` // random, "" = none
	BGMVolume        float64 `yaml:"bgm_volume"`
	VoiceVolume      float64 `yaml:"voice_volume"`
	SubtitleEnabled  bool    `yaml:"subtitle_enabled"`
	SubtitlePlatform string  `yaml:"subtitle_platform"` // safe-zone profile
	FFmpegPath       string  `yaml:"ffmpeg_path"`
	FFprobePath      string  `yaml:"ffprobe_path"`
	Threads          int     `yaml:"threads"`
}

// WorkerConfig configures the batch job workers.
type WorkerConfig struct {
	// Number of parallel pipeline workers, clamped to 1..5.
	BatchWorkers int `yaml:"batch_workers"`

	// Idle poll interval.
	PollInterval string `yaml:"poll_interval"`
}

// PublishConfig configures the upload scheduler.
type PublishConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CheckInterval string `yaml:"check_interval"`

	// External uploader commands, invoked as: <cmd> <video> <title>.
	TikTokCommand    string `yaml:"tiktok_command"`
	InstagramCommand string `yaml:"instagram_command"`
	YouTubeCommand   string `yaml:"youtube_command"`
}

// PathsConfig holds storage locations.
type PathsConfig struct {
	Storage string `yaml:"storage"` // root for task dirs, databases, cache
	Songs   string `yaml:"songs"`   // BGM library
	SFX     string `yaml:"sfx"`     // transition sound effects
}

// CacheConfig configures the LLM response cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	TTL     string `yaml:"ttl"`
}

// LoggingConfig controls the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Name:    "clipforge",
		Version: "1.0.0",
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "60s",
			Veo:      VeoConfig{Model: "veo-2.0-generate-001"},
		},
		Material: MaterialConfig{
			PexelsRateLimit:  30,
			PixabayRateLimit: 60,
			DownloadWorkers:  5,
			MinQualityScore:  40,
		},
		Voice: VoiceConfig{
			Provider: "edge",
			Name:     "en-US-JennyNeural-Female",
			Rate:     1.0,
			Volume:   1.0,
		},
		Video: VideoConfig{
			Aspect:           "portrait",
			ConcatMode:       "random",
			TransitionMode:   "fade_in",
			PacingMode:       "dynamic",
			ClipDuration:     5,
			BGMType:          "random",
			BGMVolume:        0.2,
			VoiceVolume:      1.0,
			SubtitleEnabled:  true,
			SubtitlePlatform: "default",
			FFmpegPath:       "ffmpeg",
			FFprobePath:      "ffprobe",
			Threads:          2,
		},
		Worker: WorkerConfig{
			BatchWorkers: 2,
			PollInterval: "2s",
		},
		Publish: PublishConfig{
			CheckInterval: "1m",
		},
		Paths: PathsConfig{
			Storage: "storage",
			Songs:   "resource/songs",
			SFX:     "resource/sfx",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "168h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config from path, applying defaults for missing fields and
// CLIPFORGE_* environment overrides on top. A missing file is not an error;
// defaults plus overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes config to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides overlays CLIPFORGE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLIPFORGE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("CLIPFORGE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("CLIPFORGE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("CLIPFORGE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("CLIPFORGE_PEXELS_API_KEYS"); v != "" {
		cfg.Material.PexelsAPIKeys = splitKeys(v)
	}
	if v := os.Getenv("CLIPFORGE_PIXABAY_API_KEYS"); v != "" {
		cfg.Material.PixabayAPIKeys = splitKeys(v)
	}
	if v := os.Getenv("CLIPFORGE_STORAGE"); v != "" {
		cfg.Paths.Storage = v
	}
	if v := os.Getenv("CLIPFORGE_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.BatchWorkers = n
		}
	}
	if v := os.Getenv("CLIPFORGE_DEBUG"); v != "" {
		cfg.Logging.DebugMode = v == "1" || strings.EqualFold(v, "true")
	}
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// LLMTimeout returns the parsed LLM request timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 60*time.Second)
}

// CacheTTL returns the parsed LLM cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 7*24*time.Hour)
}

// PollInterval returns the worker idle poll interval.
func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.Worker.PollInterval, 2*time.Second)
}

// PublishInterval returns the publish scheduler check interval.
func (c *Config) PublishInterval() time.Duration {
	return parseDuration(c.Publish.CheckInterval, time.Minute)
}

// Workers returns the batch worker count clamped to 1..5.
func (c *Config) Workers() int {
	n := c.Worker.BatchWorkers
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return n
}

// TaskDir returns (and creates) the working directory for a task.
func (c *Config) TaskDir(taskID string) string {
	dir := filepath.Join(c.Paths.Storage, "tasks", taskID)
	_ = os.MkdirAll(dir, 0755)
	return dir
}

// CacheDir returns (and creates) a named cache directory under storage.
func (c *Config) CacheDir(name string) string {
	dir := filepath.Join(c.Paths.Storage, name)
	_ = os.MkdirAll(dir, 0755)
	return dir
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
