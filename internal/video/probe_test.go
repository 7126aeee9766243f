package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeFixture = `{
  "streams": [
    {"codec_type": "audio", "sample_rate": "44100"},
    {"codec_type": "video", "width": 1080, "height": 1920, "r_frame_rate": "30000/1001"}
  ],
  "format": {"duration": "12.480000"}
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput([]byte(probeFixture))
	require.NoError(t, err)

	assert.InDelta(t, 12.48, info.Duration, 1e-6)
	assert.Equal(t, 1080, info.Width)
	assert.Equal(t, 1920, info.Height)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"streams":[{"codec_type":"audio"}],"format":{"duration":"3.0"}}`))
	assert.Error(t, err)
}

func TestParseProbeOutputGarbage(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	assert.Error(t, err)
}

func TestParseFrameRate(t *testing.T) {
	assert.Equal(t, 25.0, parseFrameRate("25/1"))
	assert.Equal(t, 30.0, parseFrameRate("30"))
	assert.InDelta(t, 23.976, parseFrameRate("24000/1001"), 0.001)
	assert.Equal(t, 0.0, parseFrameRate(""))
	assert.Equal(t, 0.0, parseFrameRate("30/0"))
	assert.Equal(t, 0.0, parseFrameRate("x/y"))
}
