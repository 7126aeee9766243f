package main

import (
	"fmt"
	"strings"

	"clipforge/internal/analytics"

	"github.com/spf13/cobra"
)

var (
	anCategory   string
	anLimit      int
	anMinSamples int

	perfViews     int
	perfLikes     int
	perfComments  int
	perfShares    int
	perfWatchTime float64
	perfRetention float64
	perfCTR       float64
	perfPlatform  string

	abName     string
	abMinViews int
)

// analyticsCmd reports on published video performance
var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Record and report video performance",
	Long: `Performance numbers come back from the platforms by hand or by
external tooling; "analytics record" stores them per task. The reports
feed hook selection for future generations, so recording retention
regularly makes the pipeline's intros measurably better.`,
}

var analyticsRecordCmd = &cobra.Command{
	Use:   "record [task-id]",
	Short: "Record performance metrics for a published video",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyticsRecord,
}

var analyticsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List the most-viewed videos",
	RunE:  runAnalyticsTop,
}

var analyticsHooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Rank hook templates by retention",
	RunE:  runAnalyticsHooks,
}

var analyticsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Rank content categories by retention",
	RunE:  runAnalyticsCategories,
}

var analyticsABCmd = &cobra.Command{
	Use:   "ab",
	Short: "Manage A/B tests over video variants",
}

var analyticsABCreateCmd = &cobra.Command{
	Use:   "create [task-id]...",
	Short: "Start an A/B test over two or more variant tasks",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runABCreate,
}

var analyticsABEvaluateCmd = &cobra.Command{
	Use:   "evaluate [test-id]",
	Short: "Pick a winner once every variant has enough views",
	Args:  cobra.ExactArgs(1),
	RunE:  runABEvaluate,
}

var analyticsABListCmd = &cobra.Command{
	Use:   "list",
	Short: "List A/B tests",
	RunE:  runABList,
}

func init() {
	f := analyticsRecordCmd.Flags()
	f.StringVar(&perfPlatform, "platform", "youtube", "Platform the metrics are from")
	f.IntVar(&perfViews, "views", 0, "View count")
	f.IntVar(&perfLikes, "likes", 0, "Like count")
	f.IntVar(&perfComments, "comments", 0, "Comment count")
	f.IntVar(&perfShares, "shares", 0, "Share count")
	f.Float64Var(&perfWatchTime, "watch-time", 0, "Average watch time in seconds")
	f.Float64Var(&perfRetention, "retention", 0, "Retention rate, 0-1")
	f.Float64Var(&perfCTR, "ctr", 0, "Click-through rate, 0-1")

	analyticsHooksCmd.Flags().StringVar(&anCategory, "category", "", "Restrict to one category")
	analyticsHooksCmd.Flags().IntVar(&anMinSamples, "min-samples", 3, "Minimum uses before a hook is ranked")
	analyticsTopCmd.Flags().IntVar(&anLimit, "limit", 20, "Maximum rows")

	analyticsABCreateCmd.Flags().StringVar(&abName, "name", "", "Test name")
	analyticsABCreateCmd.Flags().IntVar(&abMinViews, "min-views", 1000, "Views each variant needs before evaluation")

	analyticsABCmd.AddCommand(analyticsABCreateCmd)
	analyticsABCmd.AddCommand(analyticsABEvaluateCmd)
	analyticsABCmd.AddCommand(analyticsABListCmd)

	analyticsCmd.AddCommand(analyticsRecordCmd)
	analyticsCmd.AddCommand(analyticsTopCmd)
	analyticsCmd.AddCommand(analyticsHooksCmd)
	analyticsCmd.AddCommand(analyticsCategoriesCmd)
	analyticsCmd.AddCommand(analyticsABCmd)
}

func openAnalytics() (*analytics.Store, error) {
	return analytics.Open(cfg.Paths.Storage)
}

func runAnalyticsRecord(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	m := analytics.Metrics{
		Views:           perfViews,
		Likes:           perfLikes,
		Comments:        perfComments,
		Shares:          perfShares,
		AvgWatchTimeSec: perfWatchTime,
		RetentionRate:   perfRetention,
		CTR:             perfCTR,
	}
	if err := store.UpdatePerformance(args[0], perfPlatform, m); err != nil {
		return err
	}
	fmt.Printf("Recorded %d views for %s on %s\n", perfViews, args[0], perfPlatform)
	return nil
}

func runAnalyticsTop(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.PerformanceSummary(anLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No performance data recorded yet")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %8s  %6s  %9s  %6s\n", "TASK", "PLATFORM", "VIEWS", "LIKES", "RETENTION", "CTR")
	for _, r := range rows {
		fmt.Printf("%-36s  %-10s  %8d  %6d  %8.1f%%  %5.2f%%\n",
			r.TaskID, r.Platform, r.Views, r.Likes, r.RetentionRate*100, r.CTR*100)
	}
	return nil
}

func runAnalyticsHooks(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	hooks, err := store.HookReport(anCategory, 20, anMinSamples)
	if err != nil {
		return err
	}
	if len(hooks) == 0 {
		fmt.Println("Not enough data, record retention for more videos first")
		return nil
	}

	for i, h := range hooks {
		fmt.Printf("%2d. %-50s  used %3d  retention %.1f%%  ctr %.2f%%\n",
			i+1, h.Template, h.UseCount, h.AvgRetention*100, h.AvgCTR*100)
	}
	return nil
}

func runAnalyticsCategories(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	cats, err := store.CategoryReport()
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Println("No performance data recorded yet")
		return nil
	}

	fmt.Printf("%-16s  %6s  %9s  %6s\n", "CATEGORY", "VIDEOS", "RETENTION", "CTR")
	for _, c := range cats {
		fmt.Printf("%-16s  %6d  %8.1f%%  %5.2f%%\n",
			c.Category, c.VideoCount, c.AvgRetention*100, c.AvgCTR*100)
	}
	return nil
}

func runABCreate(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	name := abName
	if name == "" {
		name = fmt.Sprintf("test over %d variants", len(args))
	}
	id, err := store.CreateABTest(name, args, abMinViews)
	if err != nil {
		return err
	}
	fmt.Printf("Created A/B test %s\n", id)
	return nil
}

func runABEvaluate(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	winner, err := store.EvaluateABTest(args[0])
	if err != nil {
		return err
	}
	if winner == "" {
		fmt.Println("No winner yet, variants still need views")
		return nil
	}
	fmt.Printf("Winner: %s\n", winner)
	return nil
}

func runABList(cmd *cobra.Command, args []string) error {
	store, err := openAnalytics()
	if err != nil {
		return err
	}
	defer store.Close()

	tests, err := store.ABTests()
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		fmt.Println("No A/B tests")
		return nil
	}

	for _, t := range tests {
		fmt.Printf("%s  %-10s  %s\n", t.TestID, t.Status, t.Name)
		fmt.Printf("  variants: %s\n", strings.Join(t.VariantTasks, ", "))
		if t.WinnerTaskID != "" {
			fmt.Printf("  winner:   %s\n", t.WinnerTaskID)
		}
	}
	return nil
}
