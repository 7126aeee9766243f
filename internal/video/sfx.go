package video

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// listSFX returns the sound effect files directly under dir.
func listSFX(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp3", ".wav":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

// HasTransitionSFX reports whether the library holds any effect. When
// it does, every cut segment carries an audio track so the concat
// streams stay uniform.
func HasTransitionSFX(dir string) bool {
	return len(listSFX(dir)) > 0
}

// PickTransitionSFX draws a random whoosh for one segment, or "" when
// the library is empty.
func PickTransitionSFX(dir string, rng *rand.Rand) string {
	files := listSFX(dir)
	if len(files) == 0 {
		return ""
	}
	return files[rng.Intn(len(files))]
}
