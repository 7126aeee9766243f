package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/publish"
	"clipforge/internal/task"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchWork     bool
	batchFaceless bool
	batchCount    int
	batchCategory string
)

// batchCmd enqueues a file of subjects and optionally works the queue
var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Enqueue a list of subjects for generation",
	Long: `Enqueues a job for every subject in the file. A .json file holds an
array of subject strings; anything else is read line by line with #
comments skipped, and a line may prefix a category with a pipe:
"Misteri | The ghost ship of the Java Sea".

With --work the command then runs the worker pool until the queue is
drained. Without it the jobs wait for a running "clipforge serve".`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

// serveCmd runs the worker pool and publish scheduler until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the batch worker and publish scheduler",
	Long: `Runs the job worker pool and, when publishing is enabled in the
config, the publish scheduler. The config file is watched and reloaded
on change; worker count and intervals picked up on restart only.

Stops cleanly on SIGINT/SIGTERM, requeueing any interrupted job.`,
	RunE: runServe,
}

// jobsCmd inspects the job queue
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List queued, running and finished jobs",
	RunE:  runJobs,
}

var jobsRequeueCmd = &cobra.Command{
	Use:   "requeue [task-id]",
	Short: "Put a failed job back in the queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRequeue,
}

var jobsLimit int

func init() {
	batchCmd.Flags().BoolVar(&batchWork, "work", false, "Process the queue after enqueueing")
	batchCmd.Flags().BoolVar(&batchFaceless, "faceless", false, "Filter out people-centric footage")
	batchCmd.Flags().IntVar(&batchCount, "count", 1, "Video variants per subject")
	batchCmd.Flags().StringVar(&batchCategory, "category", "", "Category applied to every subject")

	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum jobs to list")
	jobsCmd.AddCommand(jobsRequeueCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	subjects, err := readSubjects(args[0])
	if err != nil {
		return err
	}

	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	var enqueued int
	for _, s := range subjects {
		params := task.DefaultParams(cfg, s.subject)
		params.Category = s.category
		if batchCategory != "" {
			params.Category = batchCategory
		}
		params.Faceless = batchFaceless
		params.VideoCount = batchCount

		id := uuid.NewString()
		if err := store.Enqueue(id, params); err != nil {
			return err
		}
		logger.Info("Enqueued job",
			zap.String("task_id", id),
			zap.String("subject", s.subject))
		enqueued++
	}
	fmt.Printf("Enqueued %d jobs\n", enqueued)

	if !batchWork {
		return nil
	}

	ctx, cancel := shutdownContext()
	defer cancel()

	components, cleanup, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := task.NewPipeline(cfg, store, components)
	worker := task.NewWorker(store, pipeline, cfg.Workers(), cfg.PollInterval())

	// Cancel the workers once nothing is pending or running.
	workCtx, stopWork := context.WithCancel(ctx)
	defer stopWork()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-workCtx.Done():
				return
			case <-ticker.C:
				if queueDrained(store) {
					stopWork()
					return
				}
			}
		}
	}()

	if err := worker.Run(workCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type batchSubject struct {
	subject  string
	category string
}

func readSubjects(path string) ([]batchSubject, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read subject list: %w", err)
		}
		var topics []string
		if err := json.Unmarshal(data, &topics); err != nil {
			return nil, fmt.Errorf("failed to parse subject list: %w", err)
		}
		var out []batchSubject
		for _, t := range topics {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, batchSubject{subject: t})
			}
		}
		return out, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subject list: %w", err)
	}
	defer f.Close()

	var out []batchSubject
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s := batchSubject{subject: line}
		if before, after, found := strings.Cut(line, "|"); found {
			s.category = strings.TrimSpace(before)
			s.subject = strings.TrimSpace(after)
		}
		if s.subject != "" {
			out = append(out, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subject list: %w", err)
	}
	return out, nil
}

func queueDrained(store *task.Store) bool {
	jobs, err := store.Jobs(10000)
	if err != nil {
		return false
	}
	for _, j := range jobs {
		if j.Status == task.StatusPending || j.Status == task.StatusProcessing {
			return false
		}
	}
	return true
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := shutdownContext()
	defer cancel()

	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	components, cleanup, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := task.NewPipeline(cfg, store, components)
	worker := task.NewWorker(store, pipeline, cfg.Workers(), cfg.PollInterval())

	watcher, err := config.NewWatcher(configPath, func(next *config.Config) {
		cfg = next
		logger.Info("Config reloaded", zap.String("path", configPath))
	})
	if err != nil {
		logger.Warn("Config watching disabled", zap.Error(err))
	} else {
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("Config watching disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })

	if cfg.Publish.Enabled {
		scheduler := task.NewScheduler(store, publish.NewRegistry(cfg.Publish), cfg.PublishInterval())
		g.Go(func() error { return scheduler.Run(gctx) })
		logger.Info("Publish scheduler started",
			zap.Duration("interval", cfg.PublishInterval()))
	}

	logger.Info("Worker pool started",
		zap.Int("workers", cfg.Workers()),
		zap.Duration("poll", cfg.PollInterval()))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs, err := store.Jobs(jobsLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %5s  %-19s  %s\n", "TASK", "STATUS", "PROG", "UPDATED", "SUBJECT")
	for _, j := range jobs {
		fmt.Printf("%-36s  %-10s  %4.0f%%  %-19s  %s\n",
			j.ID, j.Status, j.Progress, j.UpdatedAt.Format("2006-01-02 15:04:05"), j.Subject)
		if j.ErrorMessage != "" {
			fmt.Printf("  error: %s\n", j.ErrorMessage)
		}
	}
	return nil
}

func runJobsRequeue(cmd *cobra.Command, args []string) error {
	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Requeue(args[0]); err != nil {
		return err
	}
	fmt.Printf("Requeued %s\n", args[0])
	return nil
}
