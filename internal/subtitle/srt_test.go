package subtitle

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "00:00:00,000", FormatTime(0))
	assert.Equal(t, "00:01:23,456", FormatTime(time.Minute+23*time.Second+456*time.Millisecond))
	assert.Equal(t, "01:00:00,005", FormatTime(time.Hour+5*time.Millisecond))
	assert.Equal(t, "00:00:00,000", FormatTime(-time.Second))
}

func TestParseTime(t *testing.T) {
	assert.Equal(t, time.Minute+23*time.Second+456*time.Millisecond, ParseTime("00:01:23,456"))
	assert.Equal(t, time.Duration(0), ParseTime("garbage"))
}

func TestParseStringRoundTrip(t *testing.T) {
	items := []Item{
		{Start: 0, End: 2 * time.Second, Text: "First line."},
		{Start: 2 * time.Second, End: 5 * time.Second, Text: "Second line."},
	}
	path := filepath.Join(t.TempDir(), "test.srt")
	require.NoError(t, Write(path, items))

	parsed, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "First line.", parsed[0].Text)
	assert.Equal(t, 2*time.Second, parsed[0].End)
	assert.Equal(t, 2, parsed[1].Index)
}

func TestParseStringMultilineText(t *testing.T) {
	content := "1\n00:00:00,000 --> 00:00:02,000\nline one\nline two\n\n"
	items := ParseString(content)
	require.Len(t, items, 1)
	assert.Equal(t, "line one\nline two", items[0].Text)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.srt"))
	assert.Error(t, err)
}

func TestSplitScript(t *testing.T) {
	lines := SplitScript("First sentence. Second one! And a third? Also, a clause.")
	assert.Equal(t, []string{"First sentence", "Second one", "And a third", "Also", "a clause"}, lines)
}

func TestWriteRenumbers(t *testing.T) {
	items := []Item{
		{Index: 9, Start: 0, End: time.Second, Text: "a"},
		{Index: 4, Start: time.Second, End: 2 * time.Second, Text: "b"},
	}
	path := filepath.Join(t.TempDir(), "renum.srt")
	require.NoError(t, Write(path, items))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1\n00:00:00,000")
	assert.Contains(t, string(data), "2\n00:00:01,000")
}
