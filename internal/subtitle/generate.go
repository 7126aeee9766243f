package subtitle

import (
	"fmt"
	"regexp"
	"strings"

	"clipforge/internal/logging"
	"clipforge/internal/voice"
)

var nonAlnumRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normalize(s string) string {
	return strings.ToLower(nonAlnumRe.ReplaceAllString(s, ""))
}

// Generate writes an SRT file for the script using the word boundary
// timings captured during synthesis. Words are grouped back into the
// script's punctuation-delimited lines.
func Generate(sm *voice.SubMaker, script, outPath string) error {
	if sm == nil || len(sm.Spans) == 0 {
		return fmt.Errorf("no word timings available")
	}

	lines := SplitScript(script)
	if len(lines) == 0 {
		return fmt.Errorf("script is empty")
	}

	var (
		items    []Item
		spanIdx  = 0
		lastLine = len(lines) - 1
	)
	for i, line := range lines {
		if spanIdx >= len(sm.Spans) {
			logging.Get(logging.CategorySubtitle).Warn("ran out of word timings at line %d of %d", i+1, len(lines))
			break
		}
		target := normalize(line)
		start := sm.Spans[spanIdx].StartTime()
		end := sm.Spans[spanIdx].EndTime()

		var acc strings.Builder
		for spanIdx < len(sm.Spans) {
			span := sm.Spans[spanIdx]
			acc.WriteString(normalize(span.Text))
			end = span.EndTime()
			spanIdx++
			if len(acc.String()) >= len(target) {
				break
			}
		}
		// The last line absorbs any trailing words.
		if i == lastLine {
			for spanIdx < len(sm.Spans) {
				end = sm.Spans[spanIdx].EndTime()
				spanIdx++
			}
		}
		items = append(items, Item{Start: start, End: end, Text: line})
	}

	if err := Write(outPath, items); err != nil {
		return err
	}
	logging.Get(logging.CategorySubtitle).Info("generated %d subtitle lines to %s", len(items), outPath)
	return nil
}
