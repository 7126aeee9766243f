package subtitle

import (
	"math"
	"strings"
	"time"

	"clipforge/internal/logging"
)

// levenshtein is the edit distance between two strings.
func levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) < len(r2) {
		r1, r2 = r2, r1
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, c1 := range r1 {
		cur := make([]int, 0, len(r2)+1)
		cur = append(cur, i+1)
		for j, c2 := range r2 {
			ins := prev[j+1] + 1
			del := cur[j] + 1
			sub := prev[j]
			if c1 != c2 {
				sub++
			}
			cur = append(cur, min3(ins, del, sub))
		}
		prev = cur
	}
	return prev[len(r2)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// Similarity returns 1 for identical strings, 0 for entirely different.
func Similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein(strings.ToLower(a), strings.ToLower(b))
	return 1 - float64(d)/float64(maxLen)
}

// Correct aligns recognized subtitle lines back onto the script text.
// Segments are merged while merging improves similarity to the script
// line, time windows covering several script lines are redistributed
// proportionally by character count, and when the track ends well before
// the known audio duration every timestamp is rescaled to fit.
// Returns the aligned items and whether anything changed.
func Correct(items []Item, script string, audioDuration time.Duration) ([]Item, bool) {
	scriptLines := SplitScript(script)
	if len(items) == 0 || len(scriptLines) == 0 {
		return items, false
	}

	var (
		out       []Item
		corrected bool
		si, bi    int
	)
	for si < len(scriptLines) && bi < len(items) {
		scriptLine := strings.TrimSpace(scriptLines[si])
		subLine := strings.TrimSpace(items[bi].Text)

		if scriptLine == subLine {
			out = append(out, Item{Start: items[bi].Start, End: items[bi].End, Text: scriptLine})
			si++
			bi++
			continue
		}

		// Grow a window of segments while it keeps getting closer to the
		// script line.
		combined := subLine
		winStart := items[bi].Start
		winEnd := items[bi].End
		next := bi + 1
		for next < len(items) {
			candidate := combined + " " + strings.TrimSpace(items[next].Text)
			if Similarity(scriptLine, candidate) > Similarity(scriptLine, combined) {
				combined = candidate
				winEnd = items[next].End
				next++
			} else {
				break
			}
		}

		// Collect the script lines that fill this window by character mass.
		charsInWindow := len(combined)
		charsSoFar := 0
		var window []string
		for _, sl := range scriptLines[si:] {
			sl = strings.TrimSpace(sl)
			if sl == "" {
				continue
			}
			window = append(window, sl)
			charsSoFar += len(sl)
			if float64(charsSoFar) >= float64(charsInWindow)*0.9 {
				break
			}
		}

		winDuration := winEnd - winStart
		if len(window) > 1 && winDuration > 0 {
			totalChars := 0
			for _, l := range window {
				totalChars += len(l)
			}
			t := winStart
			for _, sl := range window {
				proportion := 1 / float64(len(window))
				if totalChars > 0 {
					proportion = float64(len(sl)) / float64(totalChars)
				}
				lineEnd := t + time.Duration(float64(winDuration)*proportion)
				if lineEnd > winEnd {
					lineEnd = winEnd
				}
				out = append(out, Item{Start: t, End: lineEnd, Text: sl})
				t = lineEnd
				si++
			}
		} else {
			out = append(out, Item{Start: winStart, End: winEnd, Text: scriptLine})
			si++
		}
		corrected = true
		bi = next
	}

	// Script lines with no recognized segment left.
	for si < len(scriptLines) {
		sl := strings.TrimSpace(scriptLines[si])
		logging.Get(logging.CategorySubtitle).Warn("extra script line: %s", sl)
		if bi < len(items) {
			out = append(out, Item{Start: items[bi].Start, End: items[bi].End, Text: sl})
			bi++
		} else {
			out = append(out, Item{Text: sl})
		}
		si++
		corrected = true
	}

	// Drift correction: scale everything when the track ends more than
	// 10% away from the real audio duration.
	if audioDuration > 0 && len(out) > 0 {
		lastEnd := out[len(out)-1].End
		if lastEnd > 0 {
			drift := math.Abs(lastEnd.Seconds()-audioDuration.Seconds()) / audioDuration.Seconds()
			if drift > 0.1 {
				scale := audioDuration.Seconds() / lastEnd.Seconds()
				logging.Get(logging.CategorySubtitle).Info("applying drift correction, scale=%.3f (last=%.1fs, audio=%.1fs)", scale, lastEnd.Seconds(), audioDuration.Seconds())
				for i := range out {
					out[i].Start = time.Duration(float64(out[i].Start) * scale)
					out[i].End = time.Duration(float64(out[i].End) * scale)
				}
				corrected = true
			}
		}
	}

	for i := range out {
		out[i].Index = i + 1
	}
	return out, corrected
}

// CorrectFile applies Correct to an SRT file in place.
func CorrectFile(path, script string, audioDuration time.Duration) error {
	items, err := Parse(path)
	if err != nil {
		return err
	}
	out, corrected := Correct(items, script, audioDuration)
	if !corrected {
		logging.Get(logging.CategorySubtitle).Info("subtitle already aligned: %s", path)
		return nil
	}
	return Write(path, out)
}
