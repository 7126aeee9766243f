// Package task runs the video generation pipeline: script, search
// terms, narration, footage, subtitles and final render, tracked as
// jobs in a sqlite queue that batch workers claim.
package task

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Publish task statuses.
const (
	PublishPending    = "pending"
	PublishProcessing = "processing"
	PublishPublished  = "published"
	PublishFailed     = "failed"
)

// Job is one queued generation request.
type Job struct {
	ID           string
	Subject      string
	Category     string
	Status       string
	Progress     float64
	OutputPath   string
	Attempts     int
	ErrorMessage string
	ParamsJSON   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Params decodes the job's stored parameters.
func (j *Job) Params() (Params, error) {
	var p Params
	if j.ParamsJSON == "" {
		return p, fmt.Errorf("job %s has no params", j.ID)
	}
	if err := json.Unmarshal([]byte(j.ParamsJSON), &p); err != nil {
		return p, fmt.Errorf("decode params for job %s: %w", j.ID, err)
	}
	return p, nil
}

// PublishTask is one scheduled upload of a finished video.
type PublishTask struct {
	ID           int64
	TaskID       string
	Platform     string
	VideoPath    string
	MetadataJSON string
	ScheduledAt  time.Time
	Status       string
	ErrorMessage string
}

// Store is the job queue and publish schedule database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// OpenStore creates or opens the task database under dir.
func OpenStore(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "tasks.db")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL,
		category TEXT,
		status TEXT DEFAULT 'pending',
		progress REAL DEFAULT 0,
		output_path TEXT DEFAULT '',
		attempts INTEGER DEFAULT 0,
		error_message TEXT DEFAULT '',
		params_json TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

	CREATE TABLE IF NOT EXISTS publish_tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		video_path TEXT NOT NULL,
		metadata_json TEXT DEFAULT '',
		scheduled_at DATETIME NOT NULL,
		status TEXT DEFAULT 'pending',
		error_message TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_publish_status ON publish_tasks(status, scheduled_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Enqueue adds a job in pending state. Re-enqueueing an existing ID
// is a no-op so batch files can be replayed safely.
func (s *Store) Enqueue(id string, p Params) error {
	paramsJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO jobs (id, subject, category, status, params_json, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', ?, ?, ?)`,
		id, p.Subject, p.Category, string(paramsJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Claim atomically takes the oldest pending job, marking it processing
// and counting the attempt. Returns nil when the queue is empty. The
// single-statement update keeps concurrent workers from claiming the
// same job.
func (s *Store) Claim() (*Job, error) {
	var id string
	err := s.db.QueryRow(`
		UPDATE jobs SET status = 'processing', attempts = attempts + 1, updated_at = ?
		WHERE id = (SELECT id FROM jobs WHERE status = 'pending' ORDER BY created_at LIMIT 1)
		RETURNING id`,
		time.Now().UTC(),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return s.Get(id)
}

// ClaimByID takes one specific pending job, for synchronous runs that
// bypass the worker pool. Errors when the job is missing or already
// claimed.
func (s *Store) ClaimByID(id string) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = 'processing', attempts = attempts + 1, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("claim job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s is not pending", id)
	}
	return nil
}

// Get returns one job by ID.
func (s *Store) Get(id string) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, subject, category, status, progress, output_path, attempts, error_message, params_json, created_at, updated_at
		FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// GetBySubject returns the most recent job for a subject, or nil.
func (s *Store) GetBySubject(subject string) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, subject, category, status, progress, output_path, attempts, error_message, params_json, created_at, updated_at
		FROM jobs WHERE subject = ? ORDER BY created_at DESC LIMIT 1`, subject)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Subject, &j.Category, &j.Status, &j.Progress,
		&j.OutputPath, &j.Attempts, &j.ErrorMessage, &j.ParamsJSON,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Jobs lists jobs, most recently updated first.
func (s *Store) Jobs(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, subject, category, status, progress, output_path, attempts, error_message, params_json, created_at, updated_at
		FROM jobs ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// SetProgress updates a processing job's progress percentage.
func (s *Store) SetProgress(id string, progress float64) error {
	_, err := s.db.Exec(
		`UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, time.Now().UTC(), id,
	)
	return err
}

// MarkComplete finishes a job, recording the final video path.
func (s *Store) MarkComplete(id, outputPath string) error {
	_, err := s.db.Exec(
		`UPDATE jobs SET status = 'complete', progress = 100, output_path = ?, error_message = '', updated_at = ? WHERE id = ?`,
		outputPath, time.Now().UTC(), id,
	)
	return err
}

// MarkFailed fails a job with the error message.
func (s *Store) MarkFailed(id, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE jobs SET status = 'failed', error_message = ?, updated_at = ? WHERE id = ?`,
		errMsg, time.Now().UTC(), id,
	)
	return err
}

// Requeue puts a failed job back in pending state.
func (s *Store) Requeue(id string) error {
	res, err := s.db.Exec(
		`UPDATE jobs SET status = 'pending', progress = 0, error_message = '', updated_at = ? WHERE id = ? AND status = 'failed'`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s is not in failed state", id)
	}
	return nil
}

// SchedulePublish queues an upload of a finished video for a platform
// at the given time.
func (s *Store) SchedulePublish(taskID, platform, videoPath string, metadata any, at time.Time) (int64, error) {
	var metaJSON []byte
	if metadata != nil {
		var err error
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO publish_tasks (task_id, platform, video_path, metadata_json, scheduled_at, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)`,
		taskID, platform, videoPath, string(metaJSON), at.UTC(), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("schedule publish: %w", err)
	}
	return res.LastInsertId()
}

// DuePublishTasks returns pending uploads whose scheduled time has passed.
func (s *Store) DuePublishTasks(now time.Time) ([]PublishTask, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, platform, video_path, metadata_json, scheduled_at, status, error_message
		FROM publish_tasks
		WHERE status = 'pending' AND scheduled_at <= ?
		ORDER BY scheduled_at`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("due publish tasks: %w", err)
	}
	defer rows.Close()

	var out []PublishTask
	for rows.Next() {
		var t PublishTask
		if err := rows.Scan(&t.ID, &t.TaskID, &t.Platform, &t.VideoPath,
			&t.MetadataJSON, &t.ScheduledAt, &t.Status, &t.ErrorMessage); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetPublishStatus moves a publish task through its lifecycle.
func (s *Store) SetPublishStatus(id int64, status, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE publish_tasks SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), id,
	)
	return err
}

// PublishTasks lists all scheduled uploads, newest first.
func (s *Store) PublishTasks(limit int) ([]PublishTask, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, task_id, platform, video_path, metadata_json, scheduled_at, status, error_message
		FROM publish_tasks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list publish tasks: %w", err)
	}
	defer rows.Close()

	var out []PublishTask
	for rows.Next() {
		var t PublishTask
		if err := rows.Scan(&t.ID, &t.TaskID, &t.Platform, &t.VideoPath,
			&t.MetadataJSON, &t.ScheduledAt, &t.Status, &t.ErrorMessage); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
