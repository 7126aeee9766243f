package subtitle

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"clipforge/internal/logging"
)

// SafeZone holds per-side margins as fractions of the video dimensions,
// keeping overlays clear of platform UI chrome.
type SafeZone struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

var platformSafeZones = map[string]SafeZone{
	"youtube_shorts":  {Top: 0.10, Bottom: 0.18, Left: 0.05, Right: 0.12},
	"tiktok":          {Top: 0.08, Bottom: 0.20, Left: 0.05, Right: 0.15},
	"instagram_reels": {Top: 0.10, Bottom: 0.20, Left: 0.05, Right: 0.12},
	"default":         {Top: 0.08, Bottom: 0.15, Left: 0.05, Right: 0.10},
}

// SafeZoneFor returns the margins for a platform.
func SafeZoneFor(platform string) SafeZone {
	if z, ok := platformSafeZones[platform]; ok {
		return z
	}
	return platformSafeZones["default"]
}

// SafeArea returns the rectangle available for content placement.
func (z SafeZone) SafeArea(width, height int) (x, y, w, h int) {
	x = int(float64(width) * z.Left)
	y = int(float64(height) * z.Top)
	w = int(float64(width) * (1 - z.Left - z.Right))
	h = int(float64(height) * (1 - z.Top - z.Bottom))
	return
}

// ASSStyle controls the rendered subtitle appearance.
type ASSStyle struct {
	FontName    string
	FontSize    int
	StrokeWidth int
	// Platform selects the safe zone that sets the bottom margin.
	Platform    string
	VideoHeight int
}

// DefaultASSStyle is the house style for Shorts-format videos.
func DefaultASSStyle(platform string) ASSStyle {
	return ASSStyle{
		FontName:    "Arial",
		FontSize:    60,
		StrokeWidth: 3,
		Platform:    platform,
		VideoHeight: 1920,
	}
}

const (
	colorPrimary   = "&HFFFFFF&" // white, ASS colors are BGR
	colorHighlight = "&H00FFFF&" // yellow
	colorStroke    = "&H000000&"
)

var punctOnlyRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// ConvertToASS renders items as a styled ASS file with keyword
// highlighting, placed above the platform's bottom UI chrome.
func ConvertToASS(items []Item, outPath string, style ASSStyle) error {
	if style.FontName == "" {
		style.FontName = "Arial"
	}
	if style.FontSize == 0 {
		style.FontSize = 60
	}
	if style.VideoHeight == 0 {
		style.VideoHeight = 1920
	}

	zone := SafeZoneFor(style.Platform)
	marginV := int(float64(style.VideoHeight) * zone.Bottom)

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("WrapStyle: 1\n")
	b.WriteString("ScaledBorderAndShadow: yes\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,&H80000000,-1,0,0,0,100,100,0,0,1,%d,0,2,10,10,%d,1\n\n",
		style.FontName, style.FontSize, colorPrimary, colorStroke, style.StrokeWidth, marginV)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		text = strings.ReplaceAll(text, "\n", `\N`)
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(item.Start), formatASSTime(item.End), highlightKeywords(text))
	}

	if err := os.WriteFile(outPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ASS file: %w", err)
	}
	logging.Get(logging.CategorySubtitle).Info("ASS subtitle created: %s", outPath)
	return nil
}

// highlightKeywords colors words of 4+ letters to hold attention.
func highlightKeywords(line string) string {
	words := strings.Fields(line)
	for i, word := range words {
		clean := punctOnlyRe.ReplaceAllString(word, "")
		if len([]rune(clean)) >= 4 {
			words[i] = fmt.Sprintf(`{\c%s}%s{\c%s}`, colorHighlight, word, colorPrimary)
		}
	}
	return strings.Join(words, " ")
}

// formatASSTime renders H:MM:SS.cc (centiseconds).
func formatASSTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	cs := int(d.Milliseconds()) % 1000 / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
