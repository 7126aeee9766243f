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

// PixabayProvider searches the Pixabay video API with round-robin key
// rotation.
type PixabayProvider struct {
	apiKeys    []string
	baseURL    string
	httpClient *http.Client
	limiter    *Limiter
	counter    atomic.Uint64
}

// NewPixabayProvider builds a provider. Pixabay's quota is generous, the
// default limit is 60 calls/min.
func NewPixabayProvider(apiKeys []string, callsPerMinute int) (*PixabayProvider, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("pixabay: no API keys configured")
	}
	return &PixabayProvider{
		apiKeys:    apiKeys,
		baseURL:    "https://pixabay.com/api/videos/",
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    NewLimiter(callsPerMinute),
	}, nil
}

func (p *PixabayProvider) Name() string { return "pixabay" }

func (p *PixabayProvider) nextKey() string {
	n := p.counter.Add(1)
	return p.apiKeys[n%uint64(len(p.apiKeys))]
}

type pixabayVideoFile struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type pixabayHit struct {
	PageURL  string                      `json:"pageURL"`
	Duration float64                     `json:"duration"`
	Tags     string                      `json:"tags"`
	Videos   map[string]pixabayVideoFile `json:"videos"`
}

type pixabayResponse struct {
	Hits []pixabayHit `json:"hits"`
}

// Search returns candidate clips at or above the target width whose
// metadata survives the negative-term and specificity checks.
func (p *PixabayProvider) Search(ctx context.Context, term string, minDuration int, aspect Aspect, negativeTerms []string) ([]Clip, error) {
	width, _ := aspect.Resolution()

	params := url.Values{}
	params.Set("q", term)
	params.Set("video_type", "all")
	params.Set("per_page", "50")
	params.Set("key", p.nextKey())
	queryURL := p.baseURL + "?" + params.Encode()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	logging.Material("pixabay: searching %q", term)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pixabay request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixabay search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pixabay search failed: status %d", resp.StatusCode)
	}
	var result pixabayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pixabay response: %w", err)
	}

	var clips []Clip
	for _, v := range result.Hits {
		// Pixabay tags come as one comma-separated string.
		tags := strings.Split(v.Tags, ",")
		for i := range tags {
			tags[i] = strings.TrimSpace(tags[i])
		}

		if matchesNegative(v.PageURL, tags, negativeTerms) {
			logging.MaterialWarn("pixabay: skipping %s (negative term)", v.PageURL)
			continue
		}
		if ok, reason := ValidateMetadata(tags, strings.ToLower(v.PageURL), term); !ok {
			logging.MaterialWarn("pixabay: skipping %s (%s)", v.PageURL, reason)
			continue
		}
		if v.Duration < float64(minDuration) {
			continue
		}
		for _, f := range v.Videos {
			if f.Width >= width {
				clips = append(clips, Clip{Provider: "pixabay", URL: f.URL, Duration: v.Duration})
				break
			}
		}
	}
	return clips, nil
}
