package task

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"clipforge/internal/analytics"
	"clipforge/internal/config"
	"clipforge/internal/llm"
	"clipforge/internal/logging"
	"clipforge/internal/material"
	"clipforge/internal/script"
	"clipforge/internal/subtitle"
	"clipforge/internal/video"
	"clipforge/internal/voice"
)

// Footage of people ruins faceless channels, these terms are always
// filtered when faceless mode is on.
var facelessNegatives = []string{
	"face", "portrait", "looking at camera", "talking head", "selfie", "woman face", "man face",
}

// Generator is the LLM surface the pipeline needs.
type Generator interface {
	GenerateScript(ctx context.Context, subject, language string, paragraphs int) (string, error)
	GenerateTerms(ctx context.Context, subject, script string, amount int, faceless bool) ([]string, error)
	GenerateSceneTerms(ctx context.Context, subject, script string, faceless bool) ([]llm.SceneTerm, error)
	GenerateVeoPrompts(ctx context.Context, subject, script string) llm.VeoPrompt
	GenerateMetadata(ctx context.Context, subject, script, outputDir string) (*llm.Metadata, error)
}

// HookClipGenerator produces the AI-generated opening clip. May be nil.
type HookClipGenerator interface {
	GenerateClip(ctx context.Context, vp llm.VeoPrompt, durationSeconds int32, aspectRatio string) (string, error)
}

// FootageDownloader collects stock footage for the narration.
type FootageDownloader interface {
	Download(ctx context.Context, opts material.DownloadOptions) ([]string, error)
}

// ContextLogger records what each video was generated with. May be nil.
type ContextLogger interface {
	LogContext(gc analytics.GenerationContext) error
}

// Components are the pipeline's collaborators.
type Components struct {
	Generator  Generator
	TTS        voice.Synthesizer
	Downloader FootageDownloader
	Renderer   *video.Renderer
	Probe      material.ProbeFunc
	Hooks      *script.HookPicker
	Veo        HookClipGenerator
	Analytics  ContextLogger
}

// Pipeline turns a subject into finished short videos.
type Pipeline struct {
	cfg   *config.Config
	store *Store
	c     Components
	log   *logging.Logger
}

// NewPipeline wires the pipeline. Veo and Analytics may be nil,
// everything else is required for a full run.
func NewPipeline(cfg *config.Config, store *Store, c Components) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		store: store,
		c:     c,
		log:   logging.Get(logging.CategoryPipeline),
	}
}

// Result collects the artifacts of one pipeline run. Fields past the
// requested stop stage stay zero.
type Result struct {
	Script        string
	Terms         []string
	HookText      string
	HookDuration  float64
	AudioFile     string
	AudioDuration float64
	SubtitlePath  string
	Materials     []string
	Combined      []string
	Videos        []string
}

// scriptData is the stage cache written to script.json so reruns of a
// task skip the LLM calls.
type scriptData struct {
	Script string   `json:"script"`
	Terms  []string `json:"terms"`
}

// TaskDir returns the working directory for a task.
func (p *Pipeline) TaskDir(taskID string) string {
	return filepath.Join(p.cfg.Paths.Storage, "tasks", taskID)
}

// Run executes the pipeline for one task up to params.StopAt.
func (p *Pipeline) Run(ctx context.Context, taskID string, params Params) (*Result, error) {
	stopAt := params.StopAt
	if stopAt == "" {
		stopAt = StopAtVideo
	}
	if !ValidStopAt(stopAt) {
		return nil, fmt.Errorf("unknown stop stage %q", stopAt)
	}

	taskDir := p.TaskDir(taskID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return nil, fmt.Errorf("create task dir: %w", err)
	}

	p.log.Info("start task %s: %q (stop at %s)", taskID, params.Subject, stopAt)

	// Preflight: category and negative terms must be settled before
	// any LLM call so they can shape prompts and searches.
	if params.Category == "" {
		params.Category = script.DetectCategory(params.Subject)
	}
	if len(params.NegativeTerms) == 0 {
		params.NegativeTerms = script.NegativeTerms(params.Subject, params.Category)
		p.log.Info("auto-applied safety negative terms: %v", params.NegativeTerms)
	}
	if params.Faceless {
		params.NegativeTerms = mergeTerms(params.NegativeTerms, facelessNegatives)
		p.log.Info("faceless mode active, negative terms: %v", params.NegativeTerms)
	}

	res := &Result{}
	fail := func(err error) (*Result, error) {
		p.store.MarkFailed(taskID, err.Error())
		return nil, err
	}
	p.progress(taskID, 5)

	// Phase 1: content generation.
	cached := p.loadScriptData(taskDir)

	if cached != nil && cached.Script != "" {
		res.Script = cached.Script
		p.log.Info("script loaded from cache")
	} else if s := strings.TrimSpace(params.Script); s != "" {
		res.Script = s
	} else {
		text, err := p.c.Generator.GenerateScript(ctx, params.Subject, params.Language, params.Paragraphs)
		if err != nil {
			return fail(fmt.Errorf("generate script: %w", err))
		}
		res.Script = text
	}
	p.progress(taskID, 10)

	if stopAt == StopAtScript {
		p.store.MarkComplete(taskID, "")
		return res, nil
	}

	if cached != nil && len(cached.Terms) > 0 {
		res.Terms = cached.Terms
	} else {
		terms, err := p.c.Generator.GenerateTerms(ctx, params.Subject, res.Script, termCount(params), params.Faceless)
		if err != nil {
			return fail(fmt.Errorf("generate terms: %w", err))
		}
		res.Terms = terms
	}

	// Scene-aware terms sharpen footage matching but are optional.
	sceneTerms, err := p.c.Generator.GenerateSceneTerms(ctx, params.Subject, res.Script, params.Faceless)
	if err != nil {
		p.log.Warn("scene terms failed (non-critical): %v", err)
	}

	p.saveScriptData(taskDir, scriptData{Script: res.Script, Terms: res.Terms})

	if stopAt == StopAtTerms {
		p.store.MarkComplete(taskID, "")
		return res, nil
	}
	p.progress(taskID, 20)

	// Phase 2: narration and footage are independent, run them in
	// parallel. Footage sizing uses a word-count estimate of the
	// narration length so it does not wait on the TTS.
	var hookText string
	var hookDuration float64
	if params.EnableHook && p.c.Hooks != nil {
		hookText = p.c.Hooks.Hook(params.Category)
		hookDuration = script.HookDuration(hookText)
		res.HookText = hookText
		res.HookDuration = hookDuration
	}

	g, gctx := errgroup.WithContext(ctx)

	audioFile := filepath.Join(taskDir, "audio.mp3")
	var sm *voice.SubMaker
	g.Go(func() error {
		var err error
		sm, err = p.c.TTS.Synthesize(gctx, res.Script, params.VoiceName, params.VoiceRate, audioFile)
		if err != nil {
			return fmt.Errorf("synthesize narration: %w", err)
		}
		if hookDuration > 0 {
			d := time.Duration(hookDuration * float64(time.Second))
			if err := voice.PrependSilence(gctx, p.cfg.Video.FFmpegPath, audioFile, d); err != nil {
				p.log.Warn("hook silence failed, continuing without delay: %v", err)
			} else {
				sm.Shift(d)
				p.log.Info("prepended %.2fs hook silence: %q", hookDuration, hookText)
			}
		}
		return nil
	})

	var materials []string
	g.Go(func() error {
		estimated := voice.EstimateDuration(res.Script)
		p.log.Info("estimated narration duration: %ds", estimated)

		searchTerms := res.Terms
		if len(sceneTerms) > 0 {
			searchTerms = anchorHookTerm(sceneTerms, res.Terms)
			p.log.Info("using %d scene-aware search terms", len(searchTerms))
		}

		var err error
		materials, err = p.c.Downloader.Download(gctx, material.DownloadOptions{
			SearchTerms:     searchTerms,
			AudioDuration:   float64(estimated),
			MaxClipDuration: clipDuration(params),
			Aspect:          aspect(params),
			ConcatMode:      concatMode(params, 1),
			NegativeTerms:   params.NegativeTerms,
			SaveDir:         filepath.Join(taskDir, "materials"),
			MinQualityScore: p.cfg.Material.MinQualityScore,
		})
		if err != nil {
			return fmt.Errorf("download materials: %w", err)
		}

		// The Veo opening clip leads the footage list so the planner
		// can favor it for the first cut.
		if params.EnableVeoHook && p.c.Veo != nil {
			vp := p.c.Generator.GenerateVeoPrompts(gctx, params.Subject, res.Script)
			clip, err := p.c.Veo.GenerateClip(gctx, vp, 8, veoAspect(params))
			if err != nil {
				p.log.Warn("veo hook clip failed (non-critical): %v", err)
			} else {
				materials = append([]string{clip}, materials...)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fail(err)
	}
	if len(materials) == 0 {
		return fail(fmt.Errorf("no usable footage found"))
	}

	res.AudioFile = audioFile
	res.AudioDuration = math.Ceil(sm.Duration().Seconds())
	res.Materials = materials
	p.progress(taskID, 40)
	p.log.Info("narration (%.0fs) and %d materials ready", res.AudioDuration, len(materials))

	if stopAt == StopAtAudio || stopAt == StopAtMaterials {
		p.store.MarkComplete(taskID, "")
		return res, nil
	}

	// Phase 3: subtitles.
	if params.SubtitleEnabled {
		assPath, err := p.buildSubtitles(taskDir, res.Script, sm, res.AudioDuration, params.SubtitlePlatform)
		if err != nil {
			p.log.Warn("subtitle generation failed, rendering without subtitles: %v", err)
		} else {
			res.SubtitlePath = assPath
		}
	}
	if stopAt == StopAtSubtitle {
		p.store.MarkComplete(taskID, "")
		return res, nil
	}
	p.progress(taskID, 50)

	// Phase 4: render.
	if err := p.renderVideos(ctx, taskID, taskDir, params, res); err != nil {
		return fail(err)
	}

	output := ""
	if len(res.Videos) > 0 {
		output = res.Videos[0]
	}
	p.store.MarkComplete(taskID, output)
	p.log.Info("task %s finished, generated %d videos", taskID, len(res.Videos))

	// Upload metadata is non-critical, the video is already done.
	if _, err := p.c.Generator.GenerateMetadata(ctx, params.Subject, res.Script, taskDir); err != nil {
		p.log.Warn("metadata generation failed (non-critical): %v", err)
	}

	if p.c.Analytics != nil {
		err := p.c.Analytics.LogContext(analytics.GenerationContext{
			TaskID:       taskID,
			Subject:      params.Subject,
			Category:     params.Category,
			ScriptHash:   shortHash(res.Script),
			HookTemplate: hookText,
			VoiceName:    params.VoiceName,
			BGMFile:      params.BGMFile,
			VideoSource:  "stock",
			Params:       params,
		})
		if err != nil {
			p.log.Warn("analytics context log failed: %v", err)
		}
	}
	return res, nil
}

func (p *Pipeline) buildSubtitles(taskDir, scriptText string, sm *voice.SubMaker, audioDuration float64, platform string) (string, error) {
	srtPath := filepath.Join(taskDir, "subtitle.srt")
	if err := subtitle.Generate(sm, scriptText, srtPath); err != nil {
		return "", err
	}

	audioDur := time.Duration(audioDuration * float64(time.Second))
	if err := subtitle.CorrectFile(srtPath, scriptText, audioDur); err != nil {
		p.log.Warn("subtitle correction failed, using raw timings: %v", err)
	}

	items, err := subtitle.Parse(srtPath)
	if err != nil {
		return "", err
	}
	assPath := filepath.Join(taskDir, "subtitle.ass")
	if err := subtitle.ConvertToASS(items, assPath, subtitle.DefaultASSStyle(platform)); err != nil {
		return "", err
	}
	return assPath, nil
}

func (p *Pipeline) renderVideos(ctx context.Context, taskID, taskDir string, params Params, res *Result) error {
	count := params.VideoCount
	if count <= 0 {
		count = 1
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sources, err := p.probeSources(ctx, res.Materials)
	if err != nil {
		return err
	}

	progress := 50.0
	for i := 1; i <= count; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))

		combined := filepath.Join(taskDir, fmt.Sprintf("combined-%d.mp4", i))
		if !fileExists(combined) {
			if err := p.combine(ctx, taskDir, i, sources, params, res.AudioDuration, count, rng, combined); err != nil {
				return fmt.Errorf("combine video %d: %w", i, err)
			}
		} else {
			p.log.Info("combined video already exists: %s", combined)
		}
		progress += 50 / float64(count) / 2
		p.progress(taskID, progress)

		final := filepath.Join(taskDir, finalName(params.Category, params.Subject, i, count))
		if !fileExists(final) {
			if err := p.render(ctx, taskDir, i, combined, params, res, rng, final); err != nil {
				return fmt.Errorf("render video %d: %w", i, err)
			}
		} else {
			p.log.Info("final video already exists: %s", final)
		}

		if params.ThumbnailCount > 0 {
			thumbDir := filepath.Join(taskDir, "thumbnails")
			if _, err := p.c.Renderer.Thumbnails(ctx, final, res.AudioDuration, thumbDir, params.ThumbnailCount); err != nil {
				p.log.Warn("thumbnail generation failed: %v", err)
			}
		}
		if len(params.ExportPlatforms) > 0 {
			exportDir := filepath.Join(taskDir, "exports")
			if _, err := p.c.Renderer.ExportForPlatforms(ctx, final, res.AudioDuration, exportDir, params.ExportPlatforms); err != nil {
				p.log.Warn("platform export failed: %v", err)
			}
		}
		if params.ExtractHighlights && res.SubtitlePath != "" {
			if items, err := subtitle.Parse(filepath.Join(taskDir, "subtitle.srt")); err != nil {
				p.log.Warn("highlight extraction skipped: %v", err)
			} else {
				hlDir := filepath.Join(taskDir, "highlights")
				if _, err := p.c.Renderer.ExtractHighlights(ctx, final, res.AudioDuration, items, hlDir, 3, 20); err != nil {
					p.log.Warn("highlight extraction failed: %v", err)
				}
			}
		}

		progress += 50 / float64(count) / 2
		p.progress(taskID, progress)

		res.Combined = append(res.Combined, combined)
		res.Videos = append(res.Videos, final)
	}
	return nil
}

// combine plans pacing-sized segments over the footage, cuts each to
// the target resolution and merges them into one silent video.
func (p *Pipeline) combine(ctx context.Context, taskDir string, index int, sources []video.Source, params Params, audioDuration float64, count int, rng *rand.Rand, outPath string) error {
	segments, err := video.BuildTimeline(sources, video.PlanOptions{
		AudioDuration:   audioDuration,
		MaxClipDuration: float64(clipDuration(params)),
		ConcatMode:      concatMode(params, count),
		Pacing:          video.ParsePacingMode(params.PacingMode),
		Rng:             rng,
	})
	if err != nil {
		return err
	}

	segDir := filepath.Join(taskDir, fmt.Sprintf("segments-%d", index))
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return err
	}
	defer os.RemoveAll(segDir)

	transition := video.ParseTransitionMode(params.TransitionMode)
	withSFX := transition != video.TransitionNone && video.HasTransitionSFX(p.cfg.Paths.SFX)
	files := make([]string, 0, len(segments))
	for j, seg := range segments {
		segFile := filepath.Join(segDir, fmt.Sprintf("seg_%03d.mp4", j))
		filter := transition.Filter(seg.Duration(), rng)
		sfx := ""
		if withSFX {
			sfx = video.PickTransitionSFX(p.cfg.Paths.SFX, rng)
		}
		if err := p.c.Renderer.CutSegment(ctx, seg, aspect(params), filter, sfx, segFile); err != nil {
			return err
		}
		files = append(files, segFile)
	}
	return p.c.Renderer.Concat(ctx, files, audioDuration, outPath)
}

// render mixes narration and BGM under the combined video and burns
// the subtitles.
func (p *Pipeline) render(ctx context.Context, taskDir string, index int, combined string, params Params, res *Result, rng *rand.Rand, outPath string) error {
	bgm := video.MatchBGM(p.cfg.Paths.Songs, params.Category, params.BGMType, params.BGMFile, rng)

	withSFX := video.ParseTransitionMode(params.TransitionMode) != video.TransitionNone &&
		video.HasTransitionSFX(p.cfg.Paths.SFX)

	mixed := filepath.Join(taskDir, fmt.Sprintf("mixed-%d.mp4", index))
	err := p.c.Renderer.Mix(ctx, video.MixOptions{
		VideoPath:         combined,
		VoicePath:         res.AudioFile,
		BGMPath:           bgm,
		VoiceVolume:       params.VoiceVolume,
		BGMVolume:         params.BGMVolume,
		IncludeVideoAudio: withSFX,
		Duration:          res.AudioDuration,
		Output:            mixed,
	})
	if err != nil {
		return err
	}

	if res.SubtitlePath != "" {
		return p.c.Renderer.BurnSubtitles(ctx, mixed, res.SubtitlePath, outPath)
	}
	return os.Rename(mixed, outPath)
}

func (p *Pipeline) probeSources(ctx context.Context, paths []string) ([]video.Source, error) {
	var sources []video.Source
	for _, path := range paths {
		info, err := p.c.Probe(ctx, path)
		if err != nil {
			p.log.Warn("failed to read video %s: %v", path, err)
			continue
		}
		sources = append(sources, video.Source{
			Path:     path,
			Duration: info.Duration,
			Width:    info.Width,
			Height:   info.Height,
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no valid video sources found")
	}
	return sources, nil
}

func (p *Pipeline) progress(taskID string, pct float64) {
	if err := p.store.SetProgress(taskID, pct); err != nil {
		p.log.Warn("progress update failed: %v", err)
	}
}

func (p *Pipeline) loadScriptData(taskDir string) *scriptData {
	data, err := os.ReadFile(filepath.Join(taskDir, "script.json"))
	if err != nil {
		return nil
	}
	var sd scriptData
	if err := json.Unmarshal(data, &sd); err != nil {
		p.log.Warn("failed to load script cache: %v", err)
		return nil
	}
	return &sd
}

func (p *Pipeline) saveScriptData(taskDir string, sd scriptData) {
	data, err := json.MarshalIndent(sd, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(taskDir, "script.json"), data, 0o644); err != nil {
		p.log.Warn("failed to save script cache: %v", err)
	}
}

var unsafeFilenameRe = regexp.MustCompile(`[\\/*?:"<>|]`)

// finalName builds the Category_Subject output filename.
func finalName(category, subject string, index, count int) string {
	if category == "" {
		category = "General"
	}
	name := unsafeFilenameRe.ReplaceAllString(category+"_"+subject, "")
	name = strings.ReplaceAll(name, " ", "_")
	if count > 1 {
		return fmt.Sprintf("%s_%d.mp4", name, index)
	}
	return name + ".mp4"
}

// anchorHookTerm flattens scene terms into a search list, keeping the
// primary term first so the opening footage matches the hook.
func anchorHookTerm(sceneTerms []llm.SceneTerm, terms []string) []string {
	out := make([]string, 0, len(sceneTerms)+1)
	for _, st := range sceneTerms {
		if st.Term != "" {
			out = append(out, st.Term)
		}
	}
	if len(terms) > 0 && (len(out) == 0 || out[0] != terms[0]) {
		out = append([]string{terms[0]}, out...)
	}
	return out
}

func mergeTerms(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range append(append([]string{}, a...), b...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func shortHash(s string) string {
	if s == "" {
		return ""
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func termCount(p Params) int {
	if p.TermCount <= 0 {
		return 5
	}
	return p.TermCount
}

func clipDuration(p Params) int {
	if p.ClipDuration <= 0 {
		return 5
	}
	return p.ClipDuration
}

func aspect(p Params) material.Aspect {
	if p.Aspect == material.AspectLandscape {
		return material.AspectLandscape
	}
	return material.AspectPortrait
}

func veoAspect(p Params) string {
	if aspect(p) == material.AspectLandscape {
		return "16:9"
	}
	return "9:16"
}

// concatMode forces random ordering when several variants are
// rendered, otherwise each variant would be identical.
func concatMode(p Params, count int) material.ConcatMode {
	if count > 1 {
		return material.ConcatRandom
	}
	if p.ConcatMode == material.ConcatSequential {
		return material.ConcatSequential
	}
	return material.ConcatRandom
}
