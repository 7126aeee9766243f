package task

import (
	"clipforge/internal/config"
	"clipforge/internal/material"
)

// Stages the pipeline can stop after, mainly for previewing and
// debugging single phases.
const (
	StopAtScript    = "script"
	StopAtTerms     = "terms"
	StopAtAudio     = "audio"
	StopAtMaterials = "materials"
	StopAtSubtitle  = "subtitle"
	StopAtVideo     = "video"
)

// ValidStopAt reports whether a stage name is known.
func ValidStopAt(stage string) bool {
	switch stage {
	case StopAtScript, StopAtTerms, StopAtAudio, StopAtMaterials, StopAtSubtitle, StopAtVideo:
		return true
	}
	return false
}

// Params are the per-task generation settings.
type Params struct {
	Subject  string `json:"subject"`
	Category string `json:"category,omitempty"` // detected from subject when empty
	Language string `json:"language,omitempty"`

	// Script presets the narration, skipping LLM generation.
	Script     string `json:"script,omitempty"`
	Paragraphs int    `json:"paragraphs,omitempty"`
	TermCount  int    `json:"term_count,omitempty"`

	VideoCount     int                 `json:"video_count,omitempty"`
	Aspect         material.Aspect     `json:"aspect,omitempty"`
	ConcatMode     material.ConcatMode `json:"concat_mode,omitempty"`
	PacingMode     string              `json:"pacing_mode,omitempty"`
	TransitionMode string              `json:"transition_mode,omitempty"`
	ClipDuration   int                 `json:"clip_duration,omitempty"`

	VoiceName   string  `json:"voice_name,omitempty"`
	VoiceRate   float64 `json:"voice_rate,omitempty"`
	VoiceVolume float64 `json:"voice_volume,omitempty"`

	BGMType   string  `json:"bgm_type"` // "" = none
	BGMFile   string  `json:"bgm_file,omitempty"`
	BGMVolume float64 `json:"bgm_volume,omitempty"`

	SubtitleEnabled  bool   `json:"subtitle_enabled"`
	SubtitlePlatform string `json:"subtitle_platform,omitempty"`

	// NegativeTerms filter stock footage. Empty applies the safety
	// filter for the detected category.
	NegativeTerms []string `json:"negative_terms,omitempty"`
	// Faceless additionally filters out people-centric footage.
	Faceless bool `json:"faceless,omitempty"`

	// EnableHook prepends a spoken-over silence with an attention
	// hook and delays subtitles accordingly.
	EnableHook bool `json:"enable_hook,omitempty"`
	// EnableVeoHook generates the opening clip with Veo instead of
	// stock footage.
	EnableVeoHook bool `json:"enable_veo_hook,omitempty"`

	ThumbnailCount  int      `json:"thumbnail_count,omitempty"`
	ExportPlatforms []string `json:"export_platforms,omitempty"`
	// ExtractHighlights cuts keyword-dense moments into short clips
	// next to the final video.
	ExtractHighlights bool `json:"extract_highlights,omitempty"`

	// Seed fixes clip selection and pacing for reproducible renders.
	// Zero seeds from the clock.
	Seed int64 `json:"seed,omitempty"`

	// StopAt ends the pipeline after the named stage. Empty runs to
	// the final video.
	StopAt string `json:"stop_at,omitempty"`
}

// DefaultParams builds task params for a subject from the config.
func DefaultParams(cfg *config.Config, subject string) Params {
	return Params{
		Subject:          subject,
		Paragraphs:       1,
		TermCount:        5,
		VideoCount:       1,
		Aspect:           material.Aspect(cfg.Video.Aspect),
		ConcatMode:       material.ConcatMode(cfg.Video.ConcatMode),
		PacingMode:       cfg.Video.PacingMode,
		TransitionMode:   cfg.Video.TransitionMode,
		ClipDuration:     cfg.Video.ClipDuration,
		VoiceName:        cfg.Voice.Name,
		VoiceRate:        cfg.Voice.Rate,
		VoiceVolume:      cfg.Voice.Volume,
		BGMType:          cfg.Video.BGMType,
		BGMVolume:        cfg.Video.BGMVolume,
		SubtitleEnabled:  cfg.Video.SubtitleEnabled,
		SubtitlePlatform: cfg.Video.SubtitlePlatform,
		EnableHook:       true,
		ThumbnailCount:   3,
		StopAt:           StopAtVideo,
	}
}
