package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"clipforge/internal/material"
	"clipforge/internal/script"
	"clipforge/internal/task"
	"clipforge/internal/voice"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genCategory      string
	genLanguage      string
	genScriptFile    string
	genParagraphs    int
	genTermCount     int
	genCount         int
	genAspect        string
	genConcatMode    string
	genPacing        string
	genTransition    string
	genHighlights    bool
	genClipDuration  int
	genVoice         string
	genVoiceRate     float64
	genBGMType       string
	genBGMFile       string
	genNoSubtitles   bool
	genNegativeTerms []string
	genFaceless      bool
	genNoHook        bool
	genVeoHook       bool
	genThumbnails    int
	genExport        []string
	genSeed          int64
	genStopAt        string
)

// generateCmd runs the full pipeline for one subject
var generateCmd = &cobra.Command{
	Use:   "generate [subject]",
	Short: "Generate short videos for a subject",
	Long: `Runs the full pipeline for a single subject and waits for the result.

The pipeline writes everything under <storage>/tasks/<task-id>:
script.json, audio.mp3, subtitle.srt/.ass, downloaded footage,
combined-N.mp4 intermediates and the final named videos.

Examples:
  clipforge generate "The mystery of the Mary Celeste"
  clipforge generate "Stoic morning habits" --count 3 --faceless
  clipforge generate "Deep sea creatures" --stop-at script`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

// topicCmd asks the LLM for a viral subject idea
var topicCmd = &cobra.Command{
	Use:   "topic [category]",
	Short: "Suggest a viral subject for a category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTopic,
}

// scoreCmd rates a narration script without rendering anything
var scoreCmd = &cobra.Command{
	Use:   "score [script-file]",
	Short: "Score a narration script for short-form retention",
	Long: `Scores a script on hook strength, sentence pacing, emotional
language and CTA presence, and prints a predicted retention curve.
Useful for iterating on a script before spending render time.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genCategory, "category", "", "Content category (detected from subject when empty)")
	f.StringVar(&genLanguage, "language", "", "Narration language (default: subject's language)")
	f.StringVar(&genScriptFile, "script-file", "", "Use a prewritten narration script instead of the LLM")
	f.IntVar(&genParagraphs, "paragraphs", 1, "Script length in paragraphs")
	f.IntVar(&genTermCount, "terms", 5, "Number of footage search terms")
	f.IntVar(&genCount, "count", 1, "Number of video variants to render")
	f.StringVar(&genAspect, "aspect", "", "Aspect ratio: portrait or landscape")
	f.StringVar(&genConcatMode, "concat", "", "Clip order: random or sequential")
	f.StringVar(&genPacing, "pacing", "", "Clip pacing: fast, slow or dynamic")
	f.StringVar(&genTransition, "transition", "", "Per-clip transition: fade_in, fade_out, slide_in, slide_out, whip_pan, zoom, shuffle")
	f.IntVar(&genClipDuration, "clip-duration", 0, "Maximum seconds per clip")
	f.StringVar(&genVoice, "voice", "", "TTS voice name")
	f.Float64Var(&genVoiceRate, "voice-rate", 0, "TTS speaking rate multiplier")
	f.StringVar(&genBGMType, "bgm", "", "Background music mode: random, category or none")
	f.StringVar(&genBGMFile, "bgm-file", "", "Explicit background music file")
	f.BoolVar(&genNoSubtitles, "no-subtitles", false, "Skip subtitle generation and burn-in")
	f.StringSliceVar(&genNegativeTerms, "negative", nil, "Footage terms to filter out")
	f.BoolVar(&genFaceless, "faceless", false, "Filter out people-centric footage")
	f.BoolVar(&genNoHook, "no-hook", false, "Skip the spoken attention hook")
	f.BoolVar(&genVeoHook, "veo-hook", false, "Generate the opening clip with Veo")
	f.IntVar(&genThumbnails, "thumbnails", 3, "Thumbnail candidates to extract")
	f.BoolVar(&genHighlights, "highlights", false, "Cut highlight clips from the final video")
	f.StringSliceVar(&genExport, "export", nil, "Platform cuts: youtube_shorts, tiktok, instagram_reels")
	f.Int64Var(&genSeed, "seed", 0, "Seed for reproducible clip selection (0 = random)")
	f.StringVar(&genStopAt, "stop-at", "", "Stop after a stage: script, terms, audio, materials, subtitle")

	topicCmd.Flags().StringVar(&genCategory, "category", "", "Content category")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := shutdownContext()
	defer cancel()

	subject := joinArgs(args)
	params := task.DefaultParams(cfg, subject)
	params.Category = genCategory
	params.Language = genLanguage
	params.Paragraphs = genParagraphs
	params.TermCount = genTermCount
	params.VideoCount = genCount
	params.NegativeTerms = genNegativeTerms
	params.Faceless = genFaceless
	params.EnableHook = !genNoHook
	params.EnableVeoHook = genVeoHook
	params.ThumbnailCount = genThumbnails
	params.ExportPlatforms = genExport
	params.ExtractHighlights = genHighlights
	params.Seed = genSeed
	if genScriptFile != "" {
		data, err := os.ReadFile(genScriptFile)
		if err != nil {
			return fmt.Errorf("failed to read script file: %w", err)
		}
		params.Script = string(data)
	}
	if genAspect != "" {
		params.Aspect = parseAspect(genAspect)
	}
	if genConcatMode != "" {
		params.ConcatMode = parseConcatMode(genConcatMode)
	}
	if genPacing != "" {
		params.PacingMode = genPacing
	}
	if genTransition != "" {
		params.TransitionMode = genTransition
	}
	if genClipDuration > 0 {
		params.ClipDuration = genClipDuration
	}
	if genVoice != "" {
		params.VoiceName = genVoice
	}
	if genVoiceRate > 0 {
		params.VoiceRate = genVoiceRate
	}
	if cmd.Flags().Changed("bgm") {
		params.BGMType = genBGMType
	}
	if genBGMFile != "" {
		params.BGMFile = genBGMFile
	}
	if genNoSubtitles {
		params.SubtitleEnabled = false
	}
	if genStopAt != "" {
		if !task.ValidStopAt(genStopAt) {
			return fmt.Errorf("unknown stage %q", genStopAt)
		}
		params.StopAt = genStopAt
	}

	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	components, cleanup, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	taskID := uuid.NewString()
	if err := store.Enqueue(taskID, params); err != nil {
		return err
	}
	if err := store.ClaimByID(taskID); err != nil {
		return err
	}

	logger.Info("Starting task",
		zap.String("task_id", taskID),
		zap.String("subject", subject))

	pipeline := task.NewPipeline(cfg, store, components)
	result, err := pipeline.Run(ctx, taskID, params)
	if err != nil {
		return err
	}

	fmt.Printf("Task %s complete\n", taskID)
	if result.HookText != "" {
		fmt.Printf("  hook:     %s\n", result.HookText)
	}
	if result.AudioFile != "" {
		fmt.Printf("  audio:    %s (%.1fs)\n", result.AudioFile, result.AudioDuration)
	}
	if result.SubtitlePath != "" {
		fmt.Printf("  subtitle: %s\n", result.SubtitlePath)
	}
	for _, v := range result.Videos {
		fmt.Printf("  video:    %s\n", v)
	}
	return nil
}

func runTopic(cmd *cobra.Command, args []string) error {
	ctx, cancel := shutdownContext()
	defer cancel()

	category := genCategory
	if len(args) > 0 {
		category = args[0]
	}

	generator, cleanup, err := buildGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	topic, err := generator.GenerateViralTopic(ctx, category)
	if err != nil {
		return err
	}
	fmt.Println(topic)
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	text := string(data)

	result := script.Score(text, script.DefaultWeights())
	fmt.Printf("Score: %d/100\n\n", result.Score)

	keys := make([]string, 0, len(result.Breakdown))
	for k := range result.Breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-14s %5.1f\n", k, result.Breakdown[k])
	}
	if len(result.Feedback) > 0 {
		fmt.Println()
		for _, f := range result.Feedback {
			fmt.Printf("  - %s\n", f)
		}
	}

	duration := voice.EstimateDuration(text)
	curve := script.PredictRetentionCurve(text, duration)
	fmt.Printf("\nPredicted retention over ~%ds:\n", duration)
	step := max(len(curve)/10, 1)
	for i := 0; i < len(curve); i += step {
		fmt.Printf("  %3ds  %-20s %.0f%%\n", i, bar(curve[i]), curve[i]*100)
	}
	return nil
}

// bar renders a 0..1 value as a 20-char gauge.
func bar(v float64) string {
	n := int(v * 20)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return strings.Repeat("#", n)
}

func parseAspect(s string) material.Aspect {
	if s == string(material.AspectLandscape) {
		return material.AspectLandscape
	}
	return material.AspectPortrait
}

func parseConcatMode(s string) material.ConcatMode {
	if s == string(material.ConcatSequential) {
		return material.ConcatSequential
	}
	return material.ConcatRandom
}
