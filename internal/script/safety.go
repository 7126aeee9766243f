package script

import "strings"

// Terms excluded from every stock footage search to keep results
// family-safe. Horror terms are lifted for horror and mystery content.
var globalNegativeTerms = []string{
	"nude", "sex", "porn", "bikini", "underwear", "lingerie", "naked",
	"violence", "blood", "gore", "kill", "murder", "death", "dead",
	"drug", "cocaine", "heroine", "weed", "smoking", "cigarette", "alcohol", "liquor", "beer", "wine", "drunk",
	"horror", "scary", "ghost", "zombie", "monster", "witch", "demon", "devil", "satan", "hell",
}

var horrorTerms = []string{
	"horror", "scary", "ghost", "zombie", "monster", "witch", "demon",
	"devil", "satan", "hell", "death", "dead", "kill", "murder", "blood", "gore",
}

var categoryNegativeTerms = map[string][]string{
	"IslamicPlaces": {
		"church", "cross", "nun", "priest", "jesus", "christ", "buddha", "monk", "hindu", "christmas",
		"temple", "statue", "idol", "pig", "pork", "dog", "bar", "club", "party", "dance", "music", "woman", "girl",
	},
	"Stoik": {
		"party", "club", "dancing", "laughing", "comedy", "funny", "silly", "crazy", "angry", "fighting", "crying",
		"luxury", "rich", "gold", "money", "expensive", "car", "mansion",
	},
	"Psikologi": {
		"hospital", "surgery", "blood", "doctor", "nurse", "mad", "crazy", "insane", "asylum", "horror", "scary",
	},
	"Misteri": {
		"funny", "comedy", "happy", "bright", "sunny", "cartoon", "animation", "cute", "silly", "laughing",
	},
	"Fakta": {
		"fiction", "movie", "film", "actor", "actress", "fake", "cartoon", "animation", "drawing", "sketch",
	},
	"Kesehatan": {
		"junk food", "burger", "pizza", "soda", "candy", "sugar", "cake", "hospital", "surgery", "blood", "needle", "injection",
	},
	"Horor": {
		"funny", "comedy", "happy", "bright", "sunny", "cute", "silly", "laughing", "cartoon", "animation", "baby", "child",
	},
	"Keuangan": {
		"poverty", "homeless", "beggar", "trash", "dirty", "gambling", "casino", "slot machine", "betting",
	},
}

// DetectCategory guesses a content category from keywords in the subject.
// Returns "" when no category matches.
func DetectCategory(subject string) string {
	lower := strings.ToLower(subject)
	switch {
	case strings.Contains(lower, "islam") || strings.Contains(lower, "muslim"):
		return "IslamicPlaces"
	case strings.Contains(lower, "stoic"):
		return "Stoik"
	case strings.Contains(lower, "psychology"):
		return "Psikologi"
	case strings.Contains(lower, "mystery"):
		return "Misteri"
	case strings.Contains(lower, "fact"):
		return "Fakta"
	case strings.Contains(lower, "health"):
		return "Kesehatan"
	case strings.Contains(lower, "horror") || strings.Contains(lower, "ghost"):
		return "Horor"
	case strings.Contains(lower, "finance") || strings.Contains(lower, "money"):
		return "Keuangan"
	}
	return ""
}

// NegativeTerms returns the footage search exclusion list for a subject.
// categoryHint overrides category detection when non-empty.
func NegativeTerms(subject, categoryHint string) []string {
	terms := make([]string, len(globalNegativeTerms))
	copy(terms, globalNegativeTerms)

	category := categoryHint
	if category == "" {
		category = DetectCategory(subject)
	}

	// Horror and mystery content is allowed to show horror imagery.
	if strings.Contains(category, "Horor") || strings.Contains(category, "Misteri") {
		terms = removeAll(terms, horrorTerms)
	}

	if extra, ok := categoryNegativeTerms[category]; ok {
		terms = append(terms, extra...)
	}
	return terms
}

func removeAll(terms, banned []string) []string {
	drop := make(map[string]bool, len(banned))
	for _, t := range banned {
		drop[t] = true
	}
	kept := terms[:0]
	for _, t := range terms {
		if !drop[t] {
			kept = append(kept, t)
		}
	}
	return kept
}
