package main

import (
	"fmt"
	"time"

	"clipforge/internal/publish"
	"clipforge/internal/task"

	"github.com/spf13/cobra"
)

var (
	pubTitle       string
	pubDescription string
	pubTags        []string
	pubCategory    string
	pubAt          string
)

// publishCmd manages scheduled uploads
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Schedule and run video uploads",
}

var publishScheduleCmd = &cobra.Command{
	Use:   "schedule [task-id] [platform] [video]",
	Short: "Schedule a video for upload",
	Long: `Schedules a finished video for upload via the platform's configured
uploader command. The publish scheduler in "clipforge serve" picks it
up once the scheduled time passes.

Example:
  clipforge publish schedule 3f2a... youtube storage/tasks/3f2a.../Misteri_Kapal_Hantu.mp4 \
    --title "Kapal Hantu" --at 2026-09-01T09:00:00Z`,
	Args: cobra.ExactArgs(3),
	RunE: runPublishSchedule,
}

var publishListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled and finished uploads",
	RunE:  runPublishList,
}

var publishRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Process all due uploads now",
	RunE:  runPublishRun,
}

func init() {
	f := publishScheduleCmd.Flags()
	f.StringVar(&pubTitle, "title", "", "Video title (required)")
	f.StringVar(&pubDescription, "description", "", "Video description")
	f.StringSliceVar(&pubTags, "tags", nil, "Video tags")
	f.StringVar(&pubCategory, "category", "", "Content category")
	f.StringVar(&pubAt, "at", "", "Upload time, RFC 3339 (default: now)")
	publishScheduleCmd.MarkFlagRequired("title")

	publishCmd.AddCommand(publishScheduleCmd)
	publishCmd.AddCommand(publishListCmd)
	publishCmd.AddCommand(publishRunCmd)
}

func runPublishSchedule(cmd *cobra.Command, args []string) error {
	taskID, platform, videoPath := args[0], args[1], args[2]

	at := time.Now()
	if pubAt != "" {
		var err error
		at, err = time.Parse(time.RFC3339, pubAt)
		if err != nil {
			return fmt.Errorf("invalid --at time: %w", err)
		}
	}

	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	meta := publish.Metadata{
		Title:       pubTitle,
		Description: pubDescription,
		Tags:        pubTags,
		Category:    pubCategory,
	}
	id, err := store.SchedulePublish(taskID, platform, videoPath, meta, at)
	if err != nil {
		return err
	}
	fmt.Printf("Scheduled upload %d: %s to %s at %s\n", id, videoPath, platform, at.Format(time.RFC3339))
	return nil
}

func runPublishList(cmd *cobra.Command, args []string) error {
	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	tasks, err := store.PublishTasks(50)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No scheduled uploads")
		return nil
	}

	fmt.Printf("%4s  %-10s  %-10s  %-19s  %s\n", "ID", "PLATFORM", "STATUS", "SCHEDULED", "VIDEO")
	for _, t := range tasks {
		fmt.Printf("%4d  %-10s  %-10s  %-19s  %s\n",
			t.ID, t.Platform, t.Status, t.ScheduledAt.Format("2006-01-02 15:04:05"), t.VideoPath)
		if t.ErrorMessage != "" {
			fmt.Printf("  error: %s\n", t.ErrorMessage)
		}
	}
	return nil
}

func runPublishRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := shutdownContext()
	defer cancel()

	store, err := task.OpenStore(cfg.Paths.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	scheduler := task.NewScheduler(store, publish.NewRegistry(cfg.Publish), cfg.PublishInterval())
	scheduler.PublishDue(ctx)
	return nil
}
