package material

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clipforge/internal/logging"
)

// ConcatMode controls clip ordering in the final video.
type ConcatMode string

const (
	ConcatRandom     ConcatMode = "random"
	ConcatSequential ConcatMode = "sequential"
)

// DownloadOptions controls one footage collection run.
type DownloadOptions struct {
	SearchTerms []string
	// AudioDuration is the narration length the footage must cover.
	AudioDuration float64
	// MaxClipDuration caps how much of each clip gets used, in seconds.
	MaxClipDuration int
	Aspect          Aspect
	ConcatMode      ConcatMode
	NegativeTerms   []string
	// SaveDir receives the downloaded files.
	SaveDir string
	// MinQualityScore rejects clips under this score after download.
	MinQualityScore int
}

// Downloader collects stock footage: it searches providers in order,
// falling back to the next when the first cannot cover the narration,
// downloads candidates in parallel and quality-filters the results.
type Downloader struct {
	providers  []Provider
	httpClient *http.Client
	probe      ProbeFunc
	workers    int
}

// NewDownloader builds a downloader over the given providers, primary
// first. workers caps parallel downloads, clamped to 1-5.
func NewDownloader(providers []Provider, probe ProbeFunc, workers int) *Downloader {
	if workers < 1 {
		workers = 1
	}
	if workers > 5 {
		workers = 5
	}
	return &Downloader{
		providers:  providers,
		httpClient: &http.Client{Timeout: 240 * time.Second},
		probe:      probe,
		workers:    workers,
	}
}

// Download runs a full collection pass and returns paths of usable clips.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.MaxClipDuration <= 0 {
		opts.MaxClipDuration = 5
	}

	candidates := d.collect(ctx, opts)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no footage found for terms %v", opts.SearchTerms)
	}

	if opts.ConcatMode == ConcatRandom {
		rand.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}

	paths, err := d.downloadAll(ctx, candidates, opts)
	if err != nil {
		return nil, err
	}
	logging.Material("downloaded %d clips", len(paths))

	if d.probe != nil && len(paths) > 0 {
		term := strings.Join(opts.SearchTerms, " ")
		paths = FilterByQuality(ctx, d.probe, paths, opts.MinQualityScore, term)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("all downloaded footage was rejected by the quality filter")
	}
	return paths, nil
}

// collect gathers candidate clips, moving to the next provider only when
// the previous ones cannot cover the narration duration.
func (d *Downloader) collect(ctx context.Context, opts DownloadOptions) []Clip {
	var (
		candidates []Clip
		seen       = map[string]bool{}
		found      float64
	)
	for _, provider := range d.providers {
		for _, term := range opts.SearchTerms {
			clips, err := provider.Search(ctx, term, opts.MaxClipDuration, opts.Aspect, opts.NegativeTerms)
			if err != nil {
				logging.MaterialWarn("%s: search %q failed: %v", provider.Name(), term, err)
				continue
			}
			logging.Material("%s: found %d clips for %q", provider.Name(), len(clips), term)
			for _, c := range clips {
				if seen[c.URL] {
					continue
				}
				seen[c.URL] = true
				candidates = append(candidates, c)
				found += c.Duration
			}
		}
		if found >= opts.AudioDuration {
			logging.Material("%s covers the narration (%.0fs >= %.0fs), skipping fallback", provider.Name(), found, opts.AudioDuration)
			break
		}
		logging.MaterialWarn("%s footage insufficient (%.0fs < %.0fs), trying next source", provider.Name(), found, opts.AudioDuration)
	}
	return candidates
}

// downloadAll fetches candidates in parallel and stops issuing new
// downloads once enough usable duration is on disk.
func (d *Downloader) downloadAll(ctx context.Context, candidates []Clip, opts DownloadOptions) ([]string, error) {
	if err := os.MkdirAll(opts.SaveDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create material directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		paths []string
		total float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, clip := range candidates {
		clip := clip
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			path, err := d.saveClip(gctx, clip.URL, opts.SaveDir)
			if err != nil {
				if gctx.Err() == nil {
					logging.MaterialWarn("download failed: %s: %v", clip.URL, err)
				}
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			paths = append(paths, path)
			usable := float64(opts.MaxClipDuration)
			if clip.Duration < usable {
				usable = clip.Duration
			}
			total += usable
			if total > opts.AudioDuration {
				logging.Material("collected %.0fs of footage, enough material", total)
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(paths) == 0 {
		return nil, fmt.Errorf("no clips could be downloaded")
	}
	return paths, nil
}

// saveClip downloads one clip, reusing a previous download of the same
// URL when present. The filename is derived from the URL so the cache
// survives across tasks sharing a material directory.
func (d *Downloader) saveClip(ctx context.Context, clipURL, saveDir string) (string, error) {
	withoutQuery := strings.SplitN(clipURL, "?", 2)[0]
	sum := md5.Sum([]byte(withoutQuery))
	path := filepath.Join(saveDir, fmt.Sprintf("vid-%s.mp4", hex.EncodeToString(sum[:])))

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		logging.Material("clip already cached: %s", path)
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clipURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	// A clip that cannot be probed is a broken download.
	if d.probe != nil {
		media, err := d.probe(ctx, path)
		if err != nil || media.Duration <= 0 || media.FPS <= 0 {
			os.Remove(path)
			return "", fmt.Errorf("invalid video file: %v", err)
		}
	}
	return path, nil
}
