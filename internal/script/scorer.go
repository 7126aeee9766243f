// Package script scores narration scripts for retention potential,
// filters unsafe search terms and picks hook/CTA overlay text.
package script

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Weights controls the scoring heuristics. Zero value is not usable,
// use DefaultWeights.
type Weights struct {
	BaseScore            float64
	SentenceLenPenalty   float64 // per word above the 15-word average
	QuestionBonus        float64 // per question per 100 words
	ExclamationBonus     float64 // per exclamation per 100 words
	EmotionalWordBonus   float64 // per emotional word per 100 words
	CliffhangerBonus     float64 // per cliffhanger phrase per 100 words
	MaxScore             float64
	MinScore             float64
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		BaseScore:          50,
		SentenceLenPenalty: 2,
		QuestionBonus:      10,
		ExclamationBonus:   5,
		EmotionalWordBonus: 5,
		CliffhangerBonus:   8,
		MaxScore:           100,
		MinScore:           0,
	}
}

// Result is the outcome of scoring one script.
type Result struct {
	Score     int
	Breakdown map[string]float64
	Feedback  []string
	Metrics   Metrics
}

// Metrics are the raw counts the score was derived from.
type Metrics struct {
	WordCount      int
	SentenceCount  int
	AvgSentenceLen float64
	EmotionalWords int
	Questions      int
}

// English and Indonesian trigger words that correlate with engagement.
var emotionalWords = map[string]bool{
	"amazing": true, "incredible": true, "shocking": true, "unbelievable": true,
	"secret": true, "exposed": true, "mystery": true, "scary": true,
	"terrifying": true, "hilarious": true, "insane": true, "crazy": true,
	"best": true, "worst": true, "never": true, "fail": true, "win": true,
	"legendary": true, "myth": true, "truth": true,
	"luar biasa": true, "rahasia": true, "mengejutkan": true, "gila": true,
	"terbaik": true, "terburuk": true, "aneh": true, "misteri": true,
	"mengungkap": true, "dasyat": true, "keren": true, "parah": true,
	"wajib": true, "penting": true,
}

var cliffhangerPhrases = []string{
	"but wait", "however", "here is the thing", "the truth is", "what happened next",
	"you won't believe", "suddenly", "turns out", "in the end",
	"tapi tunggu", "namun", "ternyata", "yang gila adalah", "sebenarnya",
	"apa yang terjadi", "kamu tidak akan percaya", "tiba-tiba", "akhirnya",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]*`)
	wordRe       = regexp.MustCompile(`\w+`)
)

// Score rates a script from 0 to 100. Higher scores mean shorter
// sentences, more questions and excitement, emotional trigger words,
// cliffhanger transitions and a strong opening hook.
func Score(text string, w Weights) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Feedback: []string{"No script provided."}}
	}

	clean := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	sentences := splitSentences(clean)
	words := wordRe.FindAllString(strings.ToLower(clean), -1)
	wordCount := len(words)
	sentenceCount := len(sentences)

	if wordCount == 0 || sentenceCount == 0 {
		return Result{Feedback: []string{"Script is empty."}}
	}

	score := w.BaseScore
	breakdown := map[string]float64{"base": w.BaseScore}
	var feedback []string

	// Average sentence length. Punchy scripts stay under 15 words.
	avgLen := float64(wordCount) / float64(sentenceCount)
	const threshold = 15
	if avgLen > threshold {
		penalty := (avgLen - threshold) * w.SentenceLenPenalty
		score -= penalty
		breakdown["sentence_length_penalty"] = -round1(penalty)
		feedback = append(feedback, fmt.Sprintf("Sentences are too long (avg %.1f words). Aim for < %d.", avgLen, threshold))
	} else {
		breakdown["sentence_length_penalty"] = 0
	}

	// Question density, capped at 20.
	questionCount := strings.Count(text, "?")
	qBonus := math.Min(density(questionCount, wordCount)*w.QuestionBonus, 20)
	score += qBonus
	breakdown["question_bonus"] = round1(qBonus)
	if questionCount == 0 {
		feedback = append(feedback, "Consider adding questions to engage the audience.")
	}

	// Excitement density, capped at 15.
	exclCount := strings.Count(text, "!")
	eBonus := math.Min(density(exclCount, wordCount)*w.ExclamationBonus, 15)
	score += eBonus
	breakdown["excitement_bonus"] = round1(eBonus)

	// Emotional word density, capped at 20.
	emoCount := 0
	for _, word := range words {
		if emotionalWords[word] {
			emoCount++
		}
	}
	emoBonus := math.Min(density(emoCount, wordCount)*w.EmotionalWordBonus, 20)
	score += emoBonus
	breakdown["emotional_word_bonus"] = round1(emoBonus)
	if emoCount < 3 {
		feedback = append(feedback, "Script lacks emotional trigger words (e.g., amazing, secret, crazy).")
	}

	// Cliffhanger phrase density, capped at 15.
	lowerScript := strings.ToLower(clean)
	cwCount := 0
	for _, phrase := range cliffhangerPhrases {
		cwCount += strings.Count(lowerScript, phrase)
	}
	cwBonus := math.Min(density(cwCount, wordCount)*w.CliffhangerBonus, 15)
	score += cwBonus
	breakdown["cliffhanger_bonus"] = round1(cwBonus)

	// Hook strength of the first sentence.
	first := sentences[0]
	firstWords := len(strings.Fields(first))
	hookBonus := 0.0
	if firstWords < 12 {
		hookBonus += 5
	}
	if strings.Contains(first, "?") || strings.Contains(first, "!") {
		hookBonus += 5
	}
	if containsEmotionalWord(first) {
		hookBonus += 10
	}
	if hookBonus > 0 {
		score += hookBonus
		breakdown["hook_bonus"] = hookBonus
	} else {
		feedback = append(feedback, "First sentence (Hook) is weak. Make it short, punchy, or emotional.")
	}

	final := math.Max(w.MinScore, math.Min(w.MaxScore, math.Round(score)))

	return Result{
		Score:     int(final),
		Breakdown: breakdown,
		Feedback:  feedback,
		Metrics: Metrics{
			WordCount:      wordCount,
			SentenceCount:  sentenceCount,
			AvgSentenceLen: round1(avgLen),
			EmotionalWords: emoCount,
			Questions:      questionCount,
		},
	}
}

// splitSentences breaks text on sentence punctuation, keeping the
// terminal punctuation with each sentence.
func splitSentences(text string) []string {
	parts := sentenceRe.FindAllString(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if strings.Trim(s, ".!?") == "" {
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences
}

func containsEmotionalWord(sentence string) bool {
	lower := strings.ToLower(sentence)
	for word := range emotionalWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// density returns occurrences per 100 words.
func density(count, wordCount int) float64 {
	return float64(count) / float64(wordCount) * 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
