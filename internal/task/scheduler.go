package task

import (
	"context"
	"encoding/json"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/publish"
)

// Scheduler periodically uploads finished videos whose scheduled
// publish time has passed.
type Scheduler struct {
	store    *Store
	registry *publish.Registry
	interval time.Duration
	log      *logging.Logger
}

// NewScheduler checks the publish queue every interval, defaulting to
// one minute.
func NewScheduler(store *Store, registry *publish.Registry, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		store:    store,
		registry: registry,
		interval: interval,
		log:      logging.Get(logging.CategoryScheduler),
	}
}

// Run ticks until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("publish scheduler started (interval %s)", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("publish scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.PublishDue(ctx)
		}
	}
}

// PublishDue uploads every due task once. Failures are recorded per
// task and do not block the rest of the batch.
func (s *Scheduler) PublishDue(ctx context.Context) {
	due, err := s.store.DuePublishTasks(time.Now())
	if err != nil {
		s.log.Error("querying due tasks failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}
	s.log.Info("found %d due publish tasks", len(due))

	for _, t := range due {
		if ctx.Err() != nil {
			return
		}
		s.store.SetPublishStatus(t.ID, PublishProcessing, "")

		if err := s.publishOne(ctx, t); err != nil {
			s.log.Error("publish task %d failed: %v", t.ID, err)
			s.store.SetPublishStatus(t.ID, PublishFailed, err.Error())
			continue
		}
		s.store.SetPublishStatus(t.ID, PublishPublished, "")
		s.log.Info("published task %d (%s) to %s", t.ID, t.TaskID, t.Platform)
	}
}

func (s *Scheduler) publishOne(ctx context.Context, t PublishTask) error {
	uploader, err := s.registry.Get(t.Platform)
	if err != nil {
		return err
	}

	var meta publish.Metadata
	if t.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(t.MetadataJSON), &meta); err != nil {
			s.log.Warn("task %d has corrupt metadata, uploading without: %v", t.ID, err)
		}
	}
	if meta.Title == "" {
		meta.Title = "Video"
	}
	return uploader.Upload(ctx, t.VideoPath, meta)
}
