package material

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider returns fixed clips and records how often it was asked.
type stubProvider struct {
	name  string
	clips []Clip
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(ctx context.Context, term string, minDuration int, aspect Aspect, negativeTerms []string) ([]Clip, error) {
	s.calls.Add(1)
	return s.clips, nil
}

// clipServer serves fake mp4 payloads large enough to pass validation.
func clipServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100_000))
	}))
}

func passingProbe(ctx context.Context, path string) (MediaInfo, error) {
	return MediaInfo{Duration: 10, Width: 1080, Height: 1920, FPS: 30}, nil
}

func TestDownloadCollectsAndFilters(t *testing.T) {
	srv := clipServer(t)
	defer srv.Close()

	primary := &stubProvider{name: "pexels", clips: []Clip{
		{Provider: "pexels", URL: srv.URL + "/a.mp4", Duration: 20},
		{Provider: "pexels", URL: srv.URL + "/b.mp4", Duration: 20},
	}}
	d := NewDownloader([]Provider{primary}, passingProbe, 2)

	paths, err := d.Download(context.Background(), DownloadOptions{
		SearchTerms:     []string{"ocean"},
		AudioDuration:   8,
		MaxClipDuration: 5,
		Aspect:          AspectPortrait,
		SaveDir:         t.TempDir(),
		MinQualityScore: 40,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, paths)
	for _, p := range paths {
		assert.Contains(t, p, "vid-")
	}
}

func TestDownloadFallbackProvider(t *testing.T) {
	srv := clipServer(t)
	defer srv.Close()

	// Primary cannot cover the narration on its own.
	primary := &stubProvider{name: "pexels", clips: []Clip{
		{Provider: "pexels", URL: srv.URL + "/a.mp4", Duration: 5},
	}}
	fallback := &stubProvider{name: "pixabay", clips: []Clip{
		{Provider: "pixabay", URL: srv.URL + "/b.mp4", Duration: 60},
	}}
	d := NewDownloader([]Provider{primary, fallback}, passingProbe, 2)

	_, err := d.Download(context.Background(), DownloadOptions{
		SearchTerms:     []string{"ocean"},
		AudioDuration:   30,
		MaxClipDuration: 5,
		SaveDir:         t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fallback.calls.Load(), "fallback provider should be queried")
}

func TestDownloadSkipsFallbackWhenCovered(t *testing.T) {
	srv := clipServer(t)
	defer srv.Close()

	primary := &stubProvider{name: "pexels", clips: []Clip{
		{Provider: "pexels", URL: srv.URL + "/a.mp4", Duration: 120},
	}}
	fallback := &stubProvider{name: "pixabay"}
	d := NewDownloader([]Provider{primary, fallback}, passingProbe, 2)

	_, err := d.Download(context.Background(), DownloadOptions{
		SearchTerms:     []string{"ocean"},
		AudioDuration:   30,
		MaxClipDuration: 5,
		SaveDir:         t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(0), fallback.calls.Load())
}

func TestDownloadReusesCachedClip(t *testing.T) {
	hits := atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(make([]byte, 100_000))
	}))
	defer srv.Close()

	dir := t.TempDir()
	provider := &stubProvider{name: "pexels", clips: []Clip{
		{Provider: "pexels", URL: srv.URL + "/same.mp4", Duration: 20},
	}}
	d := NewDownloader([]Provider{provider}, passingProbe, 1)

	opts := DownloadOptions{
		SearchTerms:     []string{"ocean"},
		AudioDuration:   5,
		MaxClipDuration: 5,
		SaveDir:         dir,
	}
	_, err := d.Download(context.Background(), opts)
	require.NoError(t, err)
	_, err = d.Download(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load(), "second run must reuse the cached file")
}

func TestDownloadNoCandidates(t *testing.T) {
	d := NewDownloader([]Provider{&stubProvider{name: "pexels"}}, passingProbe, 2)
	_, err := d.Download(context.Background(), DownloadOptions{
		SearchTerms: []string{"nothing"},
		SaveDir:     t.TempDir(),
	})
	assert.Error(t, err)
}

func TestDownloadRemovesCorruptClip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100_000))
	}))
	defer srv.Close()

	failingProbe := func(ctx context.Context, path string) (MediaInfo, error) {
		return MediaInfo{}, fmt.Errorf("moov atom not found")
	}
	provider := &stubProvider{name: "pexels", clips: []Clip{
		{Provider: "pexels", URL: srv.URL + "/bad.mp4", Duration: 20},
	}}
	d := NewDownloader([]Provider{provider}, failingProbe, 1)

	_, err := d.Download(context.Background(), DownloadOptions{
		SearchTerms:     []string{"ocean"},
		AudioDuration:   5,
		MaxClipDuration: 5,
		SaveDir:         t.TempDir(),
	})
	assert.Error(t, err)
}
