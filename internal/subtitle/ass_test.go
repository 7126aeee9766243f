package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeZoneFor(t *testing.T) {
	tiktok := SafeZoneFor("tiktok")
	assert.Equal(t, 0.20, tiktok.Bottom)

	def := SafeZoneFor("unknown-platform")
	assert.Equal(t, 0.15, def.Bottom)
}

func TestSafeArea(t *testing.T) {
	x, y, w, h := SafeZoneFor("youtube_shorts").SafeArea(1080, 1920)
	assert.Equal(t, 54, x)
	assert.Equal(t, 192, y)
	wantW := float64(1080) * 0.83
	wantH := float64(1920) * 0.72
	assert.Equal(t, int(wantW), w)
	assert.Equal(t, int(wantH), h)
}

func TestConvertToASS(t *testing.T) {
	items := []Item{
		{Start: 1500 * time.Millisecond, End: 4 * time.Second, Text: "an incredible discovery"},
		{Start: 4 * time.Second, End: 6 * time.Second, Text: "big"},
	}
	path := filepath.Join(t.TempDir(), "sub.ass")
	require.NoError(t, ConvertToASS(items, path, DefaultASSStyle("tiktok")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "[Script Info]")
	assert.Contains(t, content, "Style: Default,Arial,60,")
	// tiktok bottom zone is 20% of 1920
	assert.Contains(t, content, ",384,1")
	assert.Contains(t, content, "Dialogue: 0,0:00:01.50,0:00:04.00,Default")
	// Long words are highlighted, short ones are not.
	assert.Contains(t, content, `{\c&H00FFFF&}incredible{\c&HFFFFFF&}`)

	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, ",big") {
			assert.NotContains(t, line, `\c`)
		}
	}
}

func TestFormatASSTime(t *testing.T) {
	assert.Equal(t, "0:00:01.50", formatASSTime(1500*time.Millisecond))
	assert.Equal(t, "1:02:03.99", formatASSTime(time.Hour+2*time.Minute+3*time.Second+999*time.Millisecond))
}
