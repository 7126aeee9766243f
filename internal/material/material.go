// Package material finds, validates and downloads stock footage from
// Pexels and Pixabay, then filters it with a quality scorer.
package material

import (
	"context"
	"strings"
)

// Aspect is the target orientation of the final video.
type Aspect string

const (
	AspectPortrait  Aspect = "portrait"
	AspectLandscape Aspect = "landscape"
)

// Resolution returns the pixel dimensions for the aspect.
func (a Aspect) Resolution() (width, height int) {
	if a == AspectLandscape {
		return 1920, 1080
	}
	return 1080, 1920
}

// Clip is one downloadable stock video candidate.
type Clip struct {
	Provider string
	URL      string
	Duration float64
}

// Provider searches a stock footage source.
type Provider interface {
	Name() string
	Search(ctx context.Context, term string, minDuration int, aspect Aspect, negativeTerms []string) ([]Clip, error)
}

// Search tokens too generic to prove a result matches the subject.
var genericTerms = map[string]bool{
	"background": true, "view": true, "scene": true, "video": true,
	"clip": true, "stock": true, "footage": true, "hd": true, "4k": true,
	"sky": true, "blue": true, "white": true, "black": true, "green": true,
	"red": true, "nature": true, "landscape": true, "people": true,
	"happy": true, "person": true, "man": true, "woman": true, "girl": true,
	"boy": true, "day": true, "night": true, "light": true, "dark": true,
	"slow": true, "motion": true,
}

// ValidateMetadata checks that a result's title or tags contain at least
// one specific token from the search term. Generic tokens only count when
// the whole term is generic.
func ValidateMetadata(tags []string, title, searchTerm string) (bool, string) {
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(searchTerm)) {
		tokens = append(tokens, strings.TrimSpace(t))
	}

	var specific []string
	for _, t := range tokens {
		if !genericTerms[t] && len(t) > 2 {
			specific = append(specific, t)
		}
	}
	validation := specific
	if len(validation) == 0 {
		validation = tokens
	}

	titleLower := strings.ToLower(title)
	for _, token := range validation {
		if strings.Contains(titleLower, token) {
			return true, "matched '" + token + "'"
		}
	}
	for _, tag := range tags {
		tagLower := strings.ToLower(tag)
		for _, token := range validation {
			if strings.Contains(tagLower, token) {
				return true, "matched '" + token + "'"
			}
		}
	}
	return false, "missing specific keywords: " + strings.Join(validation, ", ")
}

// matchesNegative reports whether any banned term appears in the slug or tags.
func matchesNegative(slug string, tags []string, negativeTerms []string) bool {
	slugLower := strings.ToLower(slug)
	for _, term := range negativeTerms {
		term = strings.ToLower(term)
		if strings.Contains(slugLower, term) {
			return true
		}
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), term) {
				return true
			}
		}
	}
	return false
}
