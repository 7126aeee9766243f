package script

import (
	"math/rand"
	"strings"

	"clipforge/internal/logging"
)

var hookTemplates = map[string][]string{
	"IslamicPlaces": {
		"This sacred place will leave you speechless...",
		"Have you ever seen anything this beautiful?",
		"Most people don't know this exists...",
		"The story behind this place is incredible...",
		"You won't believe what's inside...",
		"This is one of Islam's most sacred sites...",
	},
	"Stoik": {
		"This ancient wisdom changed everything...",
		"Marcus Aurelius said something powerful...",
		"Stop scrolling. This will change your mindset.",
		"The Stoics knew something we forgot...",
		"This one principle can transform your life...",
		"Ancient wisdom for modern problems...",
	},
	"Psikologi": {
		"Your brain is lying to you. Here's how...",
		"Psychology says this about you...",
		"Most people get this completely wrong...",
		"This will change how you see yourself...",
		"The truth about human behavior...",
		"Science just proved something shocking...",
	},
	"Misteri": {
		"This mystery has never been solved...",
		"What they found will shock you...",
		"Nobody can explain what happened here...",
		"This remains unexplained to this day...",
		"The truth is stranger than fiction...",
		"Scientists are baffled by this discovery...",
	},
	"Fakta": {
		"I bet you didn't know this...",
		"This fact will blow your mind...",
		"99% of people don't know this...",
		"Wait until you hear this...",
		"Here's something they never taught you...",
		"This changes everything you thought you knew...",
	},
	"Kesehatan": {
		"Stop doing this to your body...",
		"Doctors don't want you to know this...",
		"This one habit can change your health...",
		"Your body is trying to tell you something...",
		"The truth about what you're eating...",
		"This simple trick boosts your health...",
	},
	"Horor": {
		"What happened next will terrify you...",
		"This is the scariest thing you'll see today...",
		"Don't watch this alone at night...",
		"This true story gave me chills...",
		"Something is very wrong here...",
		"They should never have gone there...",
	},
	"Keuangan": {
		"Rich people do this differently...",
		"Stop wasting money on this...",
		"This one mistake is keeping you poor...",
		"The secret to building wealth...",
		"I wish I knew this 10 years ago...",
		"Your money habits are holding you back...",
	},
}

var genericHooks = []string{
	"Wait for it...",
	"You need to see this...",
	"This will change your perspective...",
	"Most people don't know about this...",
	"Here's something incredible...",
	"Pay attention to this...",
	"You won't believe what happens next...",
	"This is absolutely mind-blowing...",
}

var ctaTemplates = []string{
	"Follow for more! 🔔",
	"Like & Subscribe! ❤️",
	"Share this with someone! 📤",
	"Follow for daily content! ✨",
	"Want more? Hit Follow! 🚀",
	"Don't miss the next one! 🔔",
}

// HookStats is a hook template's measured performance.
type HookStats struct {
	Template     string
	AvgRetention float64
	Samples      int
}

// HookSource supplies measured hook performance, normally backed by the
// analytics store. May be nil.
type HookSource interface {
	TopHooks(category string, limit, minSamples int) ([]HookStats, error)
}

// HookPicker selects intro hook text. With a HookSource attached it
// prefers hooks proven to retain viewers, while still exploring the
// template pool 30% of the time.
type HookPicker struct {
	source HookSource
	rng    *rand.Rand
}

// NewHookPicker builds a picker. source may be nil to disable the
// feedback loop, seed fixes the random sequence for tests.
func NewHookPicker(source HookSource, seed int64) *HookPicker {
	return &HookPicker{source: source, rng: rand.New(rand.NewSource(seed))}
}

// Hook returns the intro overlay text for a category.
func (p *HookPicker) Hook(category string) string {
	if p.source != nil {
		if hook, ok := p.provenHook(category); ok {
			return hook
		}
	}
	templates, ok := hookTemplates[category]
	if !ok {
		templates = genericHooks
	}
	hook := templates[p.rng.Intn(len(templates))]
	logging.Pipeline("hook selected for %q: %s", category, hook)
	return hook
}

// provenHook picks from hooks with measured retention above 50%,
// 70% of the time.
func (p *HookPicker) provenHook(category string) (string, bool) {
	top, err := p.source.TopHooks(category, 3, 3)
	if err != nil {
		logging.Pipeline("hook feedback lookup failed: %v", err)
		return "", false
	}
	proven := top[:0]
	for _, h := range top {
		if h.AvgRetention > 0.5 {
			proven = append(proven, h)
		}
	}
	if len(proven) == 0 || p.rng.Float64() >= 0.7 {
		return "", false
	}
	hook := proven[p.rng.Intn(len(proven))].Template
	logging.Pipeline("proven hook selected for %q: %s", category, hook)
	return hook, true
}

// CTA returns a call-to-action overlay for the outro.
func (p *HookPicker) CTA() string {
	return ctaTemplates[p.rng.Intn(len(ctaTemplates))]
}

// HookDuration returns how long the hook overlay should stay on screen,
// assuming a 2.5 words per second reading speed, clamped to 2.5-5s.
func HookDuration(hook string) float64 {
	words := float64(len(strings.Fields(hook)))
	d := words / 2.5
	if d < 2.5 {
		d = 2.5
	}
	if d > 5.0 {
		d = 5.0
	}
	return d
}
