package llm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"clipforge/internal/logging"
)

const maxGenerateRetries = 5

var (
	jsonArrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
	bracketRe    = regexp.MustCompile(`\[.*\]`)
	parenRe      = regexp.MustCompile(`\(.*\)`)
	topicPrefix  = regexp.MustCompile(`(?i)^(Topic:|Here is a topic:|1\.|-)\s*`)
)

// SceneTerm pairs a script sentence with the stock search term that
// visually represents it.
type SceneTerm struct {
	Sentence string `json:"sentence"`
	Term     string `json:"term"`
}

// VeoPrompt holds the positive and negative prompts for a generated hook clip.
type VeoPrompt struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
}

// Metadata is the upload metadata generated for a finished video.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Hashtags    []string `json:"hashtags"`
}

// Service wraps a Client with prompting, retries and response caching for
// the generation operations the pipeline needs.
type Service struct {
	client Client
	cache  *Cache

	// retry backoff unit, attempt i waits i*retryDelay
	retryDelay time.Duration
}

// NewService creates a generation service. cache may be nil to disable caching.
func NewService(client Client, cache *Cache) *Service {
	return &Service{client: client, cache: cache, retryDelay: 2 * time.Second}
}

// GenerateScript produces a narration script for the given subject. The
// script is structured for retention (hook, setup, escalation, payoff)
// with short sentences and rhetorical questions.
func (s *Service) GenerateScript(ctx context.Context, subject, language string, paragraphs int) (string, error) {
	if paragraphs < 1 {
		paragraphs = 1
	}

	params := map[string]any{
		"subject":    subject,
		"language":   language,
		"paragraphs": paragraphs,
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get("script", params); ok {
			return cached, nil
		}
	}

	prompt := fmt.Sprintf(`# Role: Viral Short Video Script Generator

## Goals:
Generate an engaging, high-retention script for a short video (30-90 seconds) on the given subject.

## Script Structure:
1. HOOK (first sentence): Start with a bold claim, surprising fact, or provocative question. This must grab attention in under 2 seconds.
2. SETUP (next 2-3 sentences): Build context quickly with short, punchy sentences.
3. ESCALATION (body): Present the main content with increasing intensity. Use rhetorical questions and micro-cliffhangers between paragraphs.
4. PAYOFF (ending): Deliver a satisfying conclusion or surprising twist. End with a thought-provoking statement.

## Pacing Rules:
1. Keep sentences SHORT, maximum 12 words per sentence.
2. Include at least ONE rhetorical question per paragraph.
3. Use micro-cliffhangers: "But here's what most people don't know..." / "And that's when things got interesting..."
4. Vary sentence length: alternate between very short (3-5 words) and medium (8-12 words) for rhythm.
5. Use power words: "secret", "shocking", "incredible", "unbelievable", "impossible" where natural.

## Constraints:
1. Return the script as a string with the specified number of paragraphs.
2. Do NOT reference this prompt in your response.
3. Get straight to the point, no "welcome to this video" or similar introductions.
4. No markdown formatting, no titles, no headers.
5. Only return raw script content.
6. Do NOT include "voiceover", "narrator" or similar indicators.
7. Never mention the prompt, script structure, or paragraph count.
8. Respond in the same language as the video subject.
9. Use a conversational, energetic tone, as if talking to a friend.
10. IMPORTANT: All content must be safe and appropriate for ALL audiences. No violence, horror, sexual content, drugs, alcohol, profanity, gambling, weapons, or disturbing themes.

# Input:
- video subject: %s
- number of paragraphs: %d`, subject, paragraphs)
	if language != "" {
		prompt += "\n- language: " + language
	}

	var script string
	var lastErr error
	for i := 0; i < maxGenerateRetries; i++ {
		if i > 0 {
			logging.LLM("script generation attempt %d for %q", i+1, subject)
			if err := sleepCtx(ctx, time.Duration(i)*s.retryDelay); err != nil {
				return "", err
			}
		}
		response, err := s.client.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		script = cleanScript(response)
		if script != "" {
			break
		}
		lastErr = ErrEmptyResponse
	}
	if script == "" {
		return "", fmt.Errorf("failed to generate script for %q: %w", subject, lastErr)
	}

	if s.cache != nil {
		s.cache.Set("script", params, script)
	}
	return script, nil
}

// cleanScript strips markdown artifacts and normalizes paragraph breaks.
func cleanScript(response string) string {
	response = strings.ReplaceAll(response, "*", "")
	response = strings.ReplaceAll(response, "#", "")
	response = bracketRe.ReplaceAllString(response, "")
	response = parenRe.ReplaceAllString(response, "")
	return strings.TrimSpace(response)
}

// GenerateTerms produces stock footage search terms grounded in the
// subject and script. When faceless is set, terms implying visible faces
// are excluded from the prompt instructions.
func (s *Service) GenerateTerms(ctx context.Context, subject, script string, amount int, faceless bool) ([]string, error) {
	if amount < 1 {
		amount = 5
	}

	params := map[string]any{
		"subject":     subject,
		"script_hash": shortHash(script),
		"faceless":    faceless,
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get("terms", params); ok {
			var terms []string
			if err := json.Unmarshal([]byte(cached), &terms); err == nil {
				return terms, nil
			}
		}
	}

	facelessInstruction := ""
	if faceless {
		facelessInstruction = `
7. FACELESS MODE ACTIVE:
   - STRICTLY AVOID terms that imply a person's face (e.g., "portrait", "face", "looking at camera", "talking head").
   - Focus on: "hands doing x", "back view of person", "over the shoulder shot", "close up of objects", "scenery", "environment".
   - If the subject requires a person, use "silhouette", "shadow", "body part only".`
	}

	prompt := fmt.Sprintf(`# Role: Video Search Terms Generator

## Goals:
Generate %d highly specific search terms for stock videos, based on the video subject and script.

## Constraints:
1. The search terms must be returned as a JSON-array of strings.
2. CRITICAL: Each search term MUST include the main subject "%s" or a direct synonym.
3. VISUAL FOCUS: Generate terms that represent tangible objects or visual scenes.
   - BAD: "%s culture", "%s happiness", "%s background"
   - GOOD: "%s lantern", "%s praying hands", "%s architecture"
4. Avoid generic words like "video", "footage", "4k", "hd", "scene".
5. Reply with English search terms only.
6. All search terms must be safe and appropriate for children.%s

## Output Example:
["%s celebration dinner", "%s traditional clothes", "%s family gathering"]

## Context:
### Video Subject
%s

### Video Script
%s`, amount, subject, subject, subject, subject, subject, subject, subject, facelessInstruction, subject, subject, subject, subject, script)

	var terms []string
	var lastErr error
	for i := 0; i < maxGenerateRetries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, time.Duration(i)*s.retryDelay); err != nil {
				return nil, err
			}
		}
		response, err := s.client.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		terms, lastErr = parseTermList(response)
		if len(terms) > 0 {
			break
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("failed to generate search terms for %q: %w", subject, lastErr)
	}

	if s.cache != nil {
		if data, err := json.Marshal(terms); err == nil {
			s.cache.Set("terms", params, string(data))
		}
	}
	return terms, nil
}

// parseTermList decodes a JSON string array, falling back to the first
// bracketed region when the model wraps the array in prose.
func parseTermList(response string) ([]string, error) {
	var terms []string
	if err := json.Unmarshal([]byte(response), &terms); err == nil {
		return terms, nil
	}
	match := jsonArrayRe.FindString(response)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in response: %s", truncate(response, 120))
	}
	if err := json.Unmarshal([]byte(match), &terms); err != nil {
		return nil, fmt.Errorf("failed to parse term array: %w", err)
	}
	return terms, nil
}

// GenerateSceneTerms produces one search term per script sentence so
// footage can follow the narration. Callers fall back to GenerateTerms
// when this returns an error.
func (s *Service) GenerateSceneTerms(ctx context.Context, subject, script string, faceless bool) ([]SceneTerm, error) {
	params := map[string]any{
		"subject":     subject,
		"script_hash": shortHash(script),
		"faceless":    faceless,
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get("scene_terms", params); ok {
			var terms []SceneTerm
			if err := json.Unmarshal([]byte(cached), &terms); err == nil {
				return terms, nil
			}
		}
	}

	facelessNote := ""
	if faceless {
		facelessNote = "\n6. AVOID terms with faces, portraits, or people looking at camera."
	}

	prompt := fmt.Sprintf(`# Role: Scene-Aware Video Director

## Task
You are given a video script. For EACH sentence, generate ONE highly specific stock video search term
that visually represents what is being narrated at that moment.

## Rules
1. Return ONLY a JSON array of objects with "sentence" and "term" keys.
2. Each "term" must be 2-5 words, suitable for stock video search (Pexels/Pixabay).
3. Terms must be in English.
4. Match the visual mood and content of each sentence.
5. Avoid generic terms like "video", "footage", "clip".%s

## Script
%s

## Output Format (JSON only, no markdown):
[
  {"sentence": "First sentence of script.", "term": "specific visual search term"},
  {"sentence": "Second sentence.", "term": "another specific term"}
]`, facelessNote, script)

	var sceneTerms []SceneTerm
	var lastErr error
	for i := 0; i < maxGenerateRetries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, time.Duration(i)*s.retryDelay); err != nil {
				return nil, err
			}
		}
		response, err := s.client.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		match := jsonArrayRe.FindString(response)
		if match == "" {
			lastErr = fmt.Errorf("no JSON array in response")
			continue
		}
		var parsed []SceneTerm
		if err := json.Unmarshal([]byte(match), &parsed); err != nil {
			lastErr = err
			continue
		}
		if len(parsed) > 0 && allHaveTerms(parsed) {
			sceneTerms = parsed
			break
		}
		lastErr = fmt.Errorf("scene term entries missing term field")
	}
	if len(sceneTerms) == 0 {
		return nil, fmt.Errorf("failed to generate scene terms for %q: %w", subject, lastErr)
	}

	if s.cache != nil {
		if data, err := json.Marshal(sceneTerms); err == nil {
			s.cache.Set("scene_terms", params, string(data))
		}
	}
	logging.LLM("generated %d scene-aware terms for %q", len(sceneTerms), subject)
	return sceneTerms, nil
}

func allHaveTerms(terms []SceneTerm) bool {
	for _, t := range terms {
		if strings.TrimSpace(t.Term) == "" {
			return false
		}
	}
	return true
}

// GenerateViralTopic asks the model for a single catchy topic, optionally
// constrained to a category. Falls back to a fixed topic if all retries fail.
func (s *Service) GenerateViralTopic(ctx context.Context, category string) (string, error) {
	input := category
	if input == "" {
		input = "Random Mixed"
	}

	prompt := fmt.Sprintf(`# Role: Viral Content Strategist

## Goal:
Generate ONE single specific, viral-worthy short video topic.

## Constraints:
1. Return ONLY the topic text. No quotes, no explanations, no "Here is a topic:".
2. The topic must be catchy, intriguing, and suitable for a short video (Shorts/Reels/TikTok).
3. If a category is provided, the topic must belong to that category.
4. If no category is provided, choose a random popular niche (Mystery, Facts, History, Science, Psychology, Finance, etc.).
5. The topic should be in English.
6. Make it sound like a hook or a title.

## Input:
Category: %s

## Example Outputs:
- The Dark Secret Behind the Mona Lisa's Smile
- Why You Should Never Sleep with Your Phone
- The Man Who Survived Two Nuclear Bombs
- 3 Money Hacks Banks Don't Want You to Know`, input)

	for i := 0; i < maxGenerateRetries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, time.Second); err != nil {
				return "", err
			}
		}
		response, err := s.client.Complete(ctx, prompt)
		if err != nil {
			logging.Get(logging.CategoryLLM).Warn("topic generation attempt %d failed: %v", i+1, err)
			continue
		}
		topic := CleanTopic(response)
		if topic != "" {
			return topic, nil
		}
	}
	return "The Mystery of Why This Topic Failed to Load", nil
}

// CleanTopic strips quoting and list prefixes from a generated topic.
func CleanTopic(response string) string {
	topic := strings.TrimSpace(response)
	topic = strings.Trim(topic, `"'`)
	topic = topicPrefix.ReplaceAllString(topic, "")
	return strings.TrimSpace(topic)
}

// GenerateVeoPrompts produces positive and negative prompts for an
// AI-generated hook clip. Never fails: a static cinematic fallback is
// returned when the model output cannot be parsed.
func (s *Service) GenerateVeoPrompts(ctx context.Context, subject, script string) VeoPrompt {
	prompt := fmt.Sprintf(`# Role: Video Director & Cinematographer

# Task
Generate a highly detailed, cinematic prompt for a video generation AI and a negative prompt to avoid unwanted elements.
The video will be used as the initial hook (first 5-8 seconds) of a video about: "%s".

# Video Script Context:
%s

# Instructions
1. Positive Prompt: Describe the visual scene in detail.
   - Style: Photorealistic, Cinematic, 4k, High Detail.
   - Lighting: Cinematic lighting, golden hour, or dramatic lighting.
   - Camera: Drone shot, close up, or tracking shot.
   - Content: Make it catchy and relevant to the hook. Focus on the main subject.
2. Negative Prompt: STRICTLY avoid these elements:
   - text, watermark, logo, copyright, blurry, distorted, bad anatomy, deformed, cartoon, illustration, painting, low quality, pixelated.

# Output Format
Return ONLY a JSON object:
{
  "prompt": "your detailed positive prompt here",
  "negative_prompt": "your negative prompt here"
}`, subject, truncate(script, 500))

	fallback := VeoPrompt{
		Prompt:         fmt.Sprintf("Cinematic shot of %s, 8k resolution, highly detailed, professional lighting.", subject),
		NegativePrompt: "text, watermark, blurry, distorted, cartoon, low quality",
	}

	response, err := s.client.Complete(ctx, prompt)
	if err != nil {
		logging.Get(logging.CategoryLLM).Warn("veo prompt generation failed: %v", err)
		return fallback
	}

	match := jsonObjectRe.FindString(response)
	if match == "" {
		match = response
	}
	var vp VeoPrompt
	if err := json.Unmarshal([]byte(match), &vp); err != nil || vp.Prompt == "" {
		logging.Get(logging.CategoryLLM).Warn("failed to parse veo prompts: %v", err)
		return fallback
	}
	return vp
}

// GenerateMetadata produces upload metadata for a finished video and
// writes metadata.json and metadata.txt into outputDir.
func (s *Service) GenerateMetadata(ctx context.Context, subject, script, outputDir string) (*Metadata, error) {
	prompt := fmt.Sprintf(`You are a YouTube SEO expert. Generate optimized metadata for a YouTube Shorts video.

Video Topic: %s

Video Script:
%s

Generate the following in JSON format:
{
    "title": "An engaging YouTube title (max 100 chars, include keywords)",
    "description": "A compelling description (150-300 words, include keywords, call to action, and 5 relevant hashtags at the end)",
    "tags": ["tag1", "tag2", "tag3", "...up to 15 relevant tags"],
    "hashtags": ["#hashtag1", "#hashtag2", "#hashtag3", "#hashtag4", "#hashtag5"]
}

Rules:
- Title must be catchy and click-worthy but NOT clickbait
- Description should summarize the video, include a call to action (like, subscribe)
- Tags should be relevant search terms people would use to find this video
- All content must be in English
- Keep it family-friendly / kids-safe
- Return ONLY the JSON, no other text`, subject, truncate(script, 500))

	response, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata: %w", err)
	}

	cleaned := StripCodeFence(response)
	var meta Metadata
	if err := json.Unmarshal([]byte(cleaned), &meta); err != nil {
		// Keep the raw output around for manual recovery.
		rawPath := filepath.Join(outputDir, "metadata_raw.txt")
		_ = os.WriteFile(rawPath, []byte(response), 0644)
		return nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}

	jsonData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "metadata.json"), jsonData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata.json: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE:\n%s\n\n", meta.Title)
	fmt.Fprintf(&b, "DESCRIPTION:\n%s\n\n", meta.Description)
	fmt.Fprintf(&b, "TAGS:\n%s\n\n", strings.Join(meta.Tags, ", "))
	fmt.Fprintf(&b, "HASHTAGS:\n%s\n", strings.Join(meta.Hashtags, " "))
	if err := os.WriteFile(filepath.Join(outputDir, "metadata.txt"), []byte(b.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata.txt: %w", err)
	}

	logging.LLM("metadata saved for %q", subject)
	return &meta, nil
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[7:]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[3:]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func shortHash(s string) string {
	if s == "" {
		return "none"
	}
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
