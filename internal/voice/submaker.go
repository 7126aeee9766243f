package voice

import "time"

// ticksPerSecond is the 100ns tick unit used by the synthesis service.
const ticksPerSecond = 10_000_000

// Span is one spoken fragment with its start and end in ticks.
type Span struct {
	Start int64
	End   int64
	Text  string
}

// SubMaker accumulates word-boundary events emitted during synthesis.
// Timings are kept in 100ns ticks until subtitle generation.
type SubMaker struct {
	Spans []Span
}

// Add records one word-boundary event. offset and duration are in ticks.
func (m *SubMaker) Add(offset, duration int64, text string) {
	m.Spans = append(m.Spans, Span{Start: offset, End: offset + duration, Text: text})
}

// Shift moves every timing forward by d, used after prepending hook
// silence to the audio.
func (m *SubMaker) Shift(d time.Duration) {
	ticks := int64(d.Seconds() * ticksPerSecond)
	for i := range m.Spans {
		m.Spans[i].Start += ticks
		m.Spans[i].End += ticks
	}
}

// Duration returns the end of the last span.
func (m *SubMaker) Duration() time.Duration {
	if len(m.Spans) == 0 {
		return 0
	}
	end := m.Spans[len(m.Spans)-1].End
	return time.Duration(end * 100)
}

// StartTime converts the span's start ticks to a duration.
func (s Span) StartTime() time.Duration { return time.Duration(s.Start * 100) }

// EndTime converts the span's end ticks to a duration.
func (s Span) EndTime() time.Duration { return time.Duration(s.End * 100) }
