package video

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/logging"
)

// categoryBGM maps content categories to curated track pools so a
// category always draws from the same mood of music. The library
// ships generic track names, these assignments keep theming stable.
var categoryBGM = map[string][]string{
	// Calm, spiritual.
	"IslamicPlaces": {"output000.mp3", "output005.mp3", "output010.mp3", "output014.mp3"},
	// Philosophical ambient.
	"Stoik": {"output001.mp3", "output006.mp3", "output011.mp3", "output017.mp3"},
	// Introspective.
	"Psikologi": {"output002.mp3", "output007.mp3", "output012.mp3", "output018.mp3"},
	// Suspenseful.
	"Misteri": {"output003.mp3", "output008.mp3", "output013.mp3", "output019.mp3"},
	// Eerie.
	"Horor": {"output003.mp3", "output008.mp3", "output023.mp3", "output027.mp3"},
	// Upbeat informational.
	"Fakta": {"output004.mp3", "output009.mp3", "output015.mp3", "output020.mp3"},
	// Fresh, natural.
	"Kesehatan": {"output005.mp3", "output010.mp3", "output016.mp3", "output021.mp3"},
	// Corporate.
	"Keuangan": {"output001.mp3", "output011.mp3", "output022.mp3", "output024.mp3"},
}

// MatchBGM picks a background track for a category.
//
// Resolution order: an explicit existing bgmFile wins, then a
// category-named subfolder of songDir, then the curated category
// pool, then any mp3 in songDir. An empty bgmType disables BGM
// and returns "".
func MatchBGM(songDir, category, bgmType, bgmFile string, rng *rand.Rand) string {
	if bgmType == "" {
		return ""
	}

	if bgmFile != "" {
		if _, err := os.Stat(bgmFile); err == nil {
			return bgmFile
		}
	}

	if category != "" {
		categoryDir := filepath.Join(songDir, strings.ToLower(category))
		if files, err := filepath.Glob(filepath.Join(categoryDir, "*.mp3")); err == nil && len(files) > 0 {
			selected := files[rng.Intn(len(files))]
			logging.Render("bgm matched from category folder %q: %s", category, filepath.Base(selected))
			return selected
		}
	}

	if pool, ok := categoryBGM[category]; ok {
		var existing []string
		for _, name := range pool {
			p := filepath.Join(songDir, name)
			if _, err := os.Stat(p); err == nil {
				existing = append(existing, p)
			}
		}
		if len(existing) > 0 {
			selected := existing[rng.Intn(len(existing))]
			logging.Render("bgm matched for category %q: %s", category, filepath.Base(selected))
			return selected
		}
	}

	files, err := filepath.Glob(filepath.Join(songDir, "*.mp3"))
	if err != nil || len(files) == 0 {
		return ""
	}
	selected := files[rng.Intn(len(files))]
	logging.Render("bgm fallback (random): %s", filepath.Base(selected))
	return selected
}
