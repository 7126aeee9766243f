package video

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickTransitionSFX(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasTransitionSFX(dir))
	assert.Empty(t, PickTransitionSFX(dir, rand.New(rand.NewSource(1))))

	for _, name := range []string{"whoosh.mp3", "swipe.WAV", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "unused"), 0o755))

	assert.True(t, HasTransitionSFX(dir))
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		picked := PickTransitionSFX(dir, rng)
		assert.Contains(t, []string{
			filepath.Join(dir, "swipe.WAV"),
			filepath.Join(dir, "whoosh.mp3"),
		}, picked)
	}
}

func TestPickTransitionSFXEmptyDirName(t *testing.T) {
	assert.False(t, HasTransitionSFX(""))
	assert.False(t, HasTransitionSFX("/nonexistent/sfx"))
}
