package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewWorkerClampsPoolSize(t *testing.T) {
	store := openTestStore(t)
	p, _ := testPipeline(t, &stubGenerator{}, &stubDownloader{})

	assert.Equal(t, 1, NewWorker(store, p, 0, 0).workers)
	assert.Equal(t, 1, NewWorker(store, p, -3, 0).workers)
	assert.Equal(t, 5, NewWorker(store, p, 12, 0).workers)
	assert.Equal(t, 3, NewWorker(store, p, 3, 0).workers)
	assert.Equal(t, 2*time.Second, NewWorker(store, p, 1, 0).poll)
}

func TestWorkerProcessesQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &stubGenerator{script: "Ocean currents hide wrecks."}
	p, store := testPipeline(t, gen, &stubDownloader{})

	require.NoError(t, store.Enqueue("job-1", Params{
		Subject: "deep sea",
		StopAt:  StopAtScript,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(store, p, 2, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		job, err := store.Get("job-1")
		return err == nil && job.Status == StatusComplete
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down")
	}
}

func TestWorkerMarksBadParamsFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, store := testPipeline(t, &stubGenerator{}, &stubDownloader{})

	// Corrupt params straight into the table.
	_, err := store.db.Exec(`
		INSERT INTO jobs (id, subject, status, params_json, created_at, updated_at)
		VALUES ('bad', 's', 'pending', '{not json', datetime('now'), datetime('now'))`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker(store, p, 1, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		job, err := store.Get("bad")
		return err == nil && job.Status == StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
