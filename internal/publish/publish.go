// Package publish hands finished videos to external uploader commands.
// Platform credentials and browser automation live outside this
// process, each platform is configured as a command that receives the
// video path and title as arguments and the rest of the metadata in
// the environment.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"clipforge/internal/config"
	"clipforge/internal/logging"
)

// Metadata carries the upload texts generated alongside the video.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	Category    string
}

// Uploader pushes one video to one platform.
type Uploader interface {
	Platform() string
	Upload(ctx context.Context, videoPath string, meta Metadata) error
}

// youtubeCategories maps content categories to YouTube category IDs.
var youtubeCategories = map[string]string{
	"IslamicPlaces": "19", // Travel & Events
	"Stoik":         "27", // Education
	"Psikologi":     "27", // Education
	"Misteri":       "24", // Entertainment
	"Fakta":         "27", // Education
	"Kesehatan":     "26", // Howto & Style
	"Horor":         "24", // Entertainment
	"Keuangan":      "27", // Education
	"General":       "22", // People & Blogs
}

// YouTubeCategoryID maps a content category to the YouTube upload
// category, defaulting to People & Blogs.
func YouTubeCategoryID(category string) string {
	if id, ok := youtubeCategories[category]; ok {
		return id
	}
	return youtubeCategories["General"]
}

// CommandUploader runs an external command to perform the upload.
// The command line from config may carry its own arguments, the video
// path and title are appended. Description, tags and category are
// passed via CLIPFORGE_* environment variables.
type CommandUploader struct {
	platform string
	command  []string
}

// NewCommandUploader parses a configured command line. An empty
// command returns an error so unconfigured platforms fail fast.
func NewCommandUploader(platform, command string) (*CommandUploader, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no uploader command configured for %s", platform)
	}
	return &CommandUploader{platform: platform, command: fields}, nil
}

func (u *CommandUploader) Platform() string {
	return u.platform
}

func (u *CommandUploader) Upload(ctx context.Context, videoPath string, meta Metadata) error {
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video not found: %w", err)
	}

	args := append(append([]string{}, u.command[1:]...), videoPath, meta.Title)
	cmd := exec.CommandContext(ctx, u.command[0], args...)
	cmd.Env = append(os.Environ(),
		"CLIPFORGE_DESCRIPTION="+meta.Description,
		"CLIPFORGE_TAGS="+strings.Join(meta.Tags, ","),
		"CLIPFORGE_CATEGORY="+meta.Category,
		"CLIPFORGE_YT_CATEGORY_ID="+YouTubeCategoryID(meta.Category),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Get(logging.CategoryPublish).Info("uploading %s to %s", videoPath, u.platform)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s uploader failed: %w: %s", u.platform, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Registry resolves uploaders by platform name.
type Registry struct {
	uploaders map[string]Uploader
}

// NewRegistry builds uploaders for every platform with a configured
// command. Platforms without a command are simply absent.
func NewRegistry(cfg config.PublishConfig) *Registry {
	r := &Registry{uploaders: make(map[string]Uploader)}
	for platform, command := range map[string]string{
		"youtube":   cfg.YouTubeCommand,
		"tiktok":    cfg.TikTokCommand,
		"instagram": cfg.InstagramCommand,
	} {
		if u, err := NewCommandUploader(platform, command); err == nil {
			r.uploaders[platform] = u
		}
	}
	return r
}

// Register adds or replaces an uploader, used by tests and custom wiring.
func (r *Registry) Register(u Uploader) {
	r.uploaders[u.Platform()] = u
}

// Get returns the uploader for a platform.
func (r *Registry) Get(platform string) (Uploader, error) {
	u, ok := r.uploaders[platform]
	if !ok {
		return nil, fmt.Errorf("unknown or unconfigured platform %q", platform)
	}
	return u, nil
}

// Platforms lists the configured platform names.
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.uploaders))
	for p := range r.uploaders {
		out = append(out, p)
	}
	return out
}
