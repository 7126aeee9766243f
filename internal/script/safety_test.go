package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCategory(t *testing.T) {
	cases := map[string]string{
		"The Grand Mosque of Muslim Spain": "IslamicPlaces",
		"Stoic lessons from Marcus":        "Stoik",
		"Dark psychology tricks":           "Psikologi",
		"The mystery of flight 19":         "Misteri",
		"Amazing facts about octopuses":    "Fakta",
		"Gut health explained":             "Kesehatan",
		"A ghost in the attic":             "Horor",
		"Money rules they never teach":     "Keuangan",
		"A day at the beach":               "",
	}
	for subject, want := range cases {
		assert.Equal(t, want, DetectCategory(subject), "subject: %q", subject)
	}
}

func TestNegativeTermsGlobal(t *testing.T) {
	terms := NegativeTerms("a day at the beach", "")
	assert.Contains(t, terms, "violence")
	assert.Contains(t, terms, "horror")
}

func TestNegativeTermsHorrorUnban(t *testing.T) {
	terms := NegativeTerms("the haunted horror house", "")
	assert.NotContains(t, terms, "ghost")
	assert.NotContains(t, terms, "scary")
	// Horror content still bans lighthearted imagery.
	assert.Contains(t, terms, "cartoon")
	assert.Contains(t, terms, "funny")
	// And global safety bans remain.
	assert.Contains(t, terms, "nude")
}

func TestNegativeTermsCategoryHint(t *testing.T) {
	terms := NegativeTerms("some neutral subject", "Keuangan")
	assert.Contains(t, terms, "casino")
	assert.Contains(t, terms, "gambling")
}
