package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseVoiceName(t *testing.T) {
	assert.Equal(t, "en-US-JennyNeural", ParseVoiceName("en-US-JennyNeural-Female"))
	assert.Equal(t, "id-ID-ArdiNeural", ParseVoiceName("id-ID-ArdiNeural-Male"))
	assert.Equal(t, "en-US-GuyNeural", ParseVoiceName(" en-US-GuyNeural "))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "+0%", FormatRate(1.0))
	assert.Equal(t, "+20%", FormatRate(1.2))
	assert.Equal(t, "-10%", FormatRate(0.9))
	assert.Equal(t, "+0%", FormatRate(0))
}

func TestEstimateDuration(t *testing.T) {
	// 130 words at 130 wpm is one minute, plus the 5s buffer.
	words := make([]byte, 0)
	for i := 0; i < 130; i++ {
		words = append(words, "word "...)
	}
	assert.Equal(t, 65, EstimateDuration(string(words)))
	assert.Equal(t, 5, EstimateDuration(""))
}

func TestSubMakerShift(t *testing.T) {
	var m SubMaker
	m.Add(0, 5_000_000, "hello")
	m.Add(5_000_000, 5_000_000, "world")

	m.Shift(2 * time.Second)

	assert.Equal(t, int64(20_000_000), m.Spans[0].Start)
	assert.Equal(t, int64(25_000_000), m.Spans[0].End)
	assert.Equal(t, 500*time.Millisecond, m.Spans[0].EndTime()-m.Spans[0].StartTime())
}

func TestSubMakerDuration(t *testing.T) {
	var m SubMaker
	assert.Equal(t, time.Duration(0), m.Duration())

	m.Add(0, 10_000_000, "one")
	m.Add(10_000_000, 10_000_000, "two")
	assert.Equal(t, 2*time.Second, m.Duration())
}
