package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUpdatePerformanceUpsert(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.UpdatePerformance("task-1", "youtube", Metrics{Views: 100, RetentionRate: 0.4}))
	require.NoError(t, store.UpdatePerformance("task-1", "youtube", Metrics{Views: 250, RetentionRate: 0.55}))
	require.NoError(t, store.UpdatePerformance("task-1", "tiktok", Metrics{Views: 90}))

	rows, err := store.PerformanceSummary(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Sorted by views, the updated youtube row first.
	assert.Equal(t, "youtube", rows[0].Platform)
	assert.Equal(t, 250, rows[0].Views)
	assert.InDelta(t, 0.55, rows[0].RetentionRate, 1e-9)
	assert.Equal(t, "tiktok", rows[1].Platform)
}

func TestLogContextIgnoresDuplicates(t *testing.T) {
	store := openTestStore(t)

	gc := GenerationContext{
		TaskID:       "task-1",
		Subject:      "misteri segitiga bermuda",
		Category:     "Misteri",
		HookTemplate: "Tunggu sampai akhir...",
		Params:       map[string]string{"voice": "id-ID-ArdiNeural"},
	}
	require.NoError(t, store.LogContext(gc))

	gc.HookTemplate = "changed"
	require.NoError(t, store.LogContext(gc))

	var hook string
	err := store.db.QueryRow(`SELECT hook_template FROM generation_context WHERE task_id = 'task-1'`).Scan(&hook)
	require.NoError(t, err)
	assert.Equal(t, "Tunggu sampai akhir...", hook)
}

func seedHook(t *testing.T, store *Store, taskID, category, hook string, retention float64) {
	t.Helper()
	require.NoError(t, store.LogContext(GenerationContext{
		TaskID:       taskID,
		Category:     category,
		HookTemplate: hook,
	}))
	require.NoError(t, store.UpdatePerformance(taskID, "youtube", Metrics{
		Views:         2000,
		RetentionRate: retention,
		CTR:           4.2,
	}))
}

func TestHookReportRanksByRetention(t *testing.T) {
	store := openTestStore(t)

	for i, r := range []float64{0.7, 0.72, 0.68} {
		seedHook(t, store, taskID("winner", i), "Misteri", "Nobody talks about this...", r)
	}
	for i, r := range []float64{0.3, 0.35, 0.4} {
		seedHook(t, store, taskID("loser", i), "Misteri", "Fakta mengejutkan!", r)
	}
	// Only two samples, below the floor.
	for i, r := range []float64{0.9, 0.95} {
		seedHook(t, store, taskID("rare", i), "Misteri", "Rare hook", r)
	}

	report, err := store.HookReport("Misteri", 10, 3)
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.Equal(t, "Nobody talks about this...", report[0].Template)
	assert.Equal(t, 3, report[0].UseCount)
	assert.InDelta(t, 0.7, report[0].AvgRetention, 1e-9)
	assert.Equal(t, "Fakta mengejutkan!", report[1].Template)
}

func TestHookReportFiltersCategory(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		seedHook(t, store, taskID("m", i), "Misteri", "mystery hook", 0.6)
		seedHook(t, store, taskID("h", i), "Horor", "horror hook", 0.8)
	}

	report, err := store.HookReport("Misteri", 10, 3)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "mystery hook", report[0].Template)

	all, err := store.HookReport("", 10, 3)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTopHooksSatisfiesHookSource(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		seedHook(t, store, taskID("t", i), "Fakta", "proven hook", 0.66)
	}

	stats, err := store.TopHooks("Fakta", 3, 3)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "proven hook", stats[0].Template)
	assert.InDelta(t, 0.66, stats[0].AvgRetention, 1e-9)
	assert.Equal(t, 3, stats[0].Samples)
}

func TestCategoryReport(t *testing.T) {
	store := openTestStore(t)

	seedHook(t, store, "a", "Horor", "h", 0.8)
	seedHook(t, store, "b", "Fakta", "f", 0.4)

	report, err := store.CategoryReport()
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, "Horor", report[0].Category)
	assert.Equal(t, 1, report[0].VideoCount)
	assert.Equal(t, "Fakta", report[1].Category)
}

func TestABTestLifecycle(t *testing.T) {
	store := openTestStore(t)

	testID, err := store.CreateABTest("thumbnail style", []string{"var-a", "var-b"}, 1000)
	require.NoError(t, err)
	require.NotEmpty(t, testID)

	// One variant still below the view threshold.
	require.NoError(t, store.UpdatePerformance("var-a", "youtube", Metrics{Views: 1500, RetentionRate: 0.5}))
	require.NoError(t, store.UpdatePerformance("var-b", "youtube", Metrics{Views: 400, RetentionRate: 0.9}))

	winner, err := store.EvaluateABTest(testID)
	require.NoError(t, err)
	assert.Empty(t, winner)

	// Both ready, higher retention wins.
	require.NoError(t, store.UpdatePerformance("var-b", "youtube", Metrics{Views: 1600, RetentionRate: 0.9}))
	winner, err = store.EvaluateABTest(testID)
	require.NoError(t, err)
	assert.Equal(t, "var-b", winner)

	tests, err := store.ABTests()
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "concluded", tests[0].Status)
	assert.Equal(t, "var-b", tests[0].WinnerTaskID)
	assert.Equal(t, []string{"var-a", "var-b"}, tests[0].VariantTasks)
	assert.NotNil(t, tests[0].ConcludedAt)

	// Re-evaluating a concluded test keeps the winner.
	winner, err = store.EvaluateABTest(testID)
	require.NoError(t, err)
	assert.Equal(t, "var-b", winner)
}

func TestCreateABTestRejectsSingleVariant(t *testing.T) {
	store := openTestStore(t)
	_, err := store.CreateABTest("bad", []string{"only"}, 100)
	assert.Error(t, err)
}

func TestEvaluateABTestUnknownID(t *testing.T) {
	store := openTestStore(t)
	_, err := store.EvaluateABTest("nope")
	assert.Error(t, err)
}

func taskID(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+i))
}
