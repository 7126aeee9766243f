package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndClaim(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue("job-1", Params{Subject: "misteri laut dalam", Category: "Misteri"}))
	require.NoError(t, store.Enqueue("job-2", Params{Subject: "fakta luar angkasa"}))

	job, err := store.Claim()
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempts)

	params, err := job.Params()
	require.NoError(t, err)
	assert.Equal(t, "misteri laut dalam", params.Subject)

	job2, err := store.Claim()
	require.NoError(t, err)
	require.NotNil(t, job2)
	assert.Equal(t, "job-2", job2.ID)

	// Queue drained.
	job3, err := store.Claim()
	require.NoError(t, err)
	assert.Nil(t, job3)
}

func TestClaimByID(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue("job-1", Params{Subject: "older"}))
	require.NoError(t, store.Enqueue("job-2", Params{Subject: "newer"}))

	// Takes the named job even when an older one is pending.
	require.NoError(t, store.ClaimByID("job-2"))
	job, err := store.Get("job-2")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, 1, job.Attempts)

	// Already claimed and unknown jobs both error.
	assert.Error(t, store.ClaimByID("job-2"))
	assert.Error(t, store.ClaimByID("missing"))

	job1, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job1.Status)
}

func TestEnqueueDuplicateIgnored(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Enqueue("job-1", Params{Subject: "first"}))
	require.NoError(t, store.Enqueue("job-1", Params{Subject: "second"}))

	job, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, "first", job.Subject)
}

func TestJobLifecycle(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue("job-1", Params{Subject: "s"}))

	_, err := store.Claim()
	require.NoError(t, err)

	require.NoError(t, store.SetProgress("job-1", 40))
	job, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, job.Progress)

	require.NoError(t, store.MarkComplete("job-1", "/out/final.mp4"))
	job, err = store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, job.Status)
	assert.Equal(t, 100.0, job.Progress)
	assert.Equal(t, "/out/final.mp4", job.OutputPath)
}

func TestRequeueOnlyFailedJobs(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue("job-1", Params{Subject: "s"}))

	assert.Error(t, store.Requeue("job-1"))

	_, err := store.Claim()
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed("job-1", "boom"))
	require.NoError(t, store.Requeue("job-1"))

	job, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Empty(t, job.ErrorMessage)

	// Reclaiming counts a second attempt.
	job, err = store.Claim()
	require.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)
}

func TestGetBySubject(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Enqueue("job-1", Params{Subject: "topic"}))

	job, err := store.GetBySubject("topic")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)

	job, err = store.GetBySubject("unknown")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestPublishQueue(t *testing.T) {
	store := openTestStore(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	dueID, err := store.SchedulePublish("task-1", "youtube", "/v/a.mp4", map[string]string{"title": "A"}, past)
	require.NoError(t, err)
	_, err = store.SchedulePublish("task-2", "tiktok", "/v/b.mp4", nil, future)
	require.NoError(t, err)

	due, err := store.DuePublishTasks(time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, dueID, due[0].ID)
	assert.Equal(t, "youtube", due[0].Platform)
	assert.Contains(t, due[0].MetadataJSON, `"title":"A"`)

	require.NoError(t, store.SetPublishStatus(dueID, PublishPublished, ""))
	due, err = store.DuePublishTasks(time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	all, err := store.PublishTasks(10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
