// Package subtitle builds, corrects and converts subtitle files for the
// rendered video: SRT generation from synthesis word timings, alignment
// against the script, and styled ASS conversion for burn-in.
package subtitle

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Item is one subtitle entry.
type Item struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

var timeLineRe = regexp.MustCompile(`(\d+:\d+:\d+,\d+)\s*-->\s*(\d+:\d+:\d+,\d+)`)

// FormatTime renders a duration as an SRT timestamp, HH:MM:SS,mmm.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	ms := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTime reads an SRT timestamp. Malformed input yields zero.
func ParseTime(s string) time.Duration {
	var h, m, sec, ms int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d:%d,%d", &h, &m, &sec, &ms); err != nil {
		return 0
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond
}

// Parse reads an SRT file into items.
func Parse(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return ParseString(string(data)), nil
}

// ParseString parses SRT content.
func ParseString(content string) []Item {
	var (
		items   []Item
		current *Item
	)
	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			current.Index = len(items) + 1
			items = append(items, *current)
		}
		current = nil
	}
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if m := timeLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Item{Start: ParseTime(m[1]), End: ParseTime(m[2])}
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current != nil {
			if current.Text != "" {
				current.Text += "\n"
			}
			current.Text += line
		}
	}
	flush()
	return items
}

// Write saves items as an SRT file, renumbering them sequentially.
func Write(path string, items []Item) error {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTime(item.Start), FormatTime(item.End), item.Text)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return nil
}

// splitByPunctuation breaks a script into subtitle-sized lines.
var splitRe = regexp.MustCompile(`[.!?,;:…。！？，；：]+`)

// SplitScript splits script text at punctuation into trimmed lines.
func SplitScript(script string) []string {
	parts := splitRe.Split(script, -1)
	var lines []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
