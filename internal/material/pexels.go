package material

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"clipforge/internal/logging"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

// PexelsProvider searches the Pexels video API. Multiple API keys are
// rotated round-robin to spread quota use.
type PexelsProvider struct {
	apiKeys    []string
	baseURL    string
	httpClient *http.Client
	limiter    *Limiter
	counter    atomic.Uint64
}

// NewPexelsProvider builds a provider. callsPerMinute caps request
// frequency, 30/min keeps the free tier happy.
func NewPexelsProvider(apiKeys []string, callsPerMinute int) (*PexelsProvider, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("pexels: no API keys configured")
	}
	return &PexelsProvider{
		apiKeys:    apiKeys,
		baseURL:    "https://api.pexels.com/videos/search",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    NewLimiter(callsPerMinute),
	}, nil
}

func (p *PexelsProvider) Name() string { return "pexels" }

func (p *PexelsProvider) nextKey() string {
	n := p.counter.Add(1)
	return p.apiKeys[n%uint64(len(p.apiKeys))]
}

type pexelsVideoFile struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Link   string `json:"link"`
}

type pexelsVideo struct {
	URL        string            `json:"url"`
	Duration   float64           `json:"duration"`
	Tags       []string          `json:"tags"`
	VideoFiles []pexelsVideoFile `json:"video_files"`
}

type pexelsResponse struct {
	Videos []pexelsVideo `json:"videos"`
	Error  string        `json:"error"`
}

// Search returns candidate clips at exactly the target resolution whose
// metadata survives the negative-term and specificity checks.
func (p *PexelsProvider) Search(ctx context.Context, term string, minDuration int, aspect Aspect, negativeTerms []string) ([]Clip, error) {
	width, height := aspect.Resolution()

	params := url.Values{}
	params.Set("query", term)
	params.Set("per_page", "20")
	params.Set("orientation", string(aspect))
	queryURL := p.baseURL + "?" + params.Encode()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	logging.Material("pexels: searching %q", term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pexels request: %w", err)
	}
	req.Header.Set("Authorization", p.nextKey())
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search failed: %w", err)
	}
	defer resp.Body.Close()

	var result pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pexels response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels search failed: status %d %s", resp.StatusCode, result.Error)
	}

	var clips []Clip
	for _, v := range result.Videos {
		// The result URL is a slug that usually carries the title.
		slug := strings.ToLower(v.URL)

		if matchesNegative(slug, v.Tags, negativeTerms) {
			logging.MaterialWarn("pexels: skipping %s (negative term)", v.URL)
			continue
		}
		if ok, reason := ValidateMetadata(v.Tags, slug, term); !ok {
			logging.MaterialWarn("pexels: skipping %s (%s)", v.URL, reason)
			continue
		}
		if v.Duration < float64(minDuration) {
			continue
		}
		for _, f := range v.VideoFiles {
			if f.Width == width && f.Height == height {
				clips = append(clips, Clip{Provider: "pexels", URL: f.Link, Duration: v.Duration})
				break
			}
		}
	}
	return clips, nil
}
