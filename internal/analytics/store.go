// Package analytics stores per-video performance metrics and the
// generation context that produced each video, so hook templates,
// voices and categories can be ranked by measured retention. It also
// runs simple A/B tests between task variants.
package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"clipforge/internal/logging"
	"clipforge/internal/script"
)

// Store manages the analytics database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the analytics store under dir.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "analytics.db")

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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	-- One row per video per platform, snapshot of current metrics
	CREATE TABLE IF NOT EXISTS video_performance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		video_subject TEXT,
		category TEXT,
		platform TEXT DEFAULT 'youtube',
		views INTEGER DEFAULT 0,
		likes INTEGER DEFAULT 0,
		comments INTEGER DEFAULT 0,
		shares INTEGER DEFAULT 0,
		avg_watch_time_sec REAL DEFAULT 0,
		retention_rate REAL DEFAULT 0,
		ctr REAL DEFAULT 0,
		updated_at DATETIME NOT NULL,
		UNIQUE(task_id, platform)
	);

	-- Parameters each video was generated with, for correlation
	CREATE TABLE IF NOT EXISTS generation_context (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL UNIQUE,
		video_subject TEXT,
		category TEXT,
		script_hash TEXT,
		hook_template TEXT,
		voice_name TEXT,
		bgm_file TEXT,
		video_source TEXT,
		param_json TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ab_tests (
		test_id TEXT PRIMARY KEY,
		test_name TEXT,
		variant_task_ids TEXT,
		winner_task_id TEXT,
		min_views INTEGER DEFAULT 1000,
		status TEXT DEFAULT 'active',
		created_at DATETIME NOT NULL,
		concluded_at DATETIME
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GenerationContext records what a video was generated with.
type GenerationContext struct {
	TaskID       string
	Subject      string
	Category     string
	ScriptHash   string
	HookTemplate string
	VoiceName    string
	BGMFile      string
	VideoSource  string
	Params       any // marshaled to param_json
}

// LogContext saves a task's generation context. Duplicate task IDs
// are ignored so retries do not overwrite the original context.
func (s *Store) LogContext(gc GenerationContext) error {
	var paramJSON []byte
	if gc.Params != nil {
		var err error
		paramJSON, err = json.Marshal(gc.Params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO generation_context
		(task_id, video_subject, category, script_hash, hook_template, voice_name, bgm_file, video_source, param_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gc.TaskID, gc.Subject, gc.Category, gc.ScriptHash, gc.HookTemplate,
		gc.VoiceName, gc.BGMFile, gc.VideoSource, string(paramJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("log generation context: %w", err)
	}
	return nil
}

// Metrics is one platform's current numbers for a video.
type Metrics struct {
	Views           int
	Likes           int
	Comments        int
	Shares          int
	AvgWatchTimeSec float64
	RetentionRate   float64 // 0.0 to 1.0
	CTR             float64 // percent
}

// UpdatePerformance upserts the metric snapshot for a task on one platform.
func (s *Store) UpdatePerformance(taskID, platform string, m Metrics) error {
	if platform == "" {
		platform = "youtube"
	}
	_, err := s.db.Exec(`
		INSERT INTO video_performance
		(task_id, platform, views, likes, comments, shares, avg_watch_time_sec, retention_rate, ctr, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id, platform) DO UPDATE SET
			views = excluded.views,
			likes = excluded.likes,
			comments = excluded.comments,
			shares = excluded.shares,
			avg_watch_time_sec = excluded.avg_watch_time_sec,
			retention_rate = excluded.retention_rate,
			ctr = excluded.ctr,
			updated_at = excluded.updated_at`,
		taskID, platform, m.Views, m.Likes, m.Comments, m.Shares,
		m.AvgWatchTimeSec, m.RetentionRate, m.CTR, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update performance: %w", err)
	}
	return nil
}

// PerformanceRow is one video's metrics on one platform.
type PerformanceRow struct {
	TaskID        string
	Platform      string
	Views         int
	Likes         int
	Comments      int
	Shares        int
	RetentionRate float64
	CTR           float64
}

// PerformanceSummary returns the most-viewed videos, capped at limit.
func (s *Store) PerformanceSummary(limit int) ([]PerformanceRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT task_id, platform, views, likes, comments, shares, retention_rate, ctr
		FROM video_performance
		ORDER BY views DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("performance summary: %w", err)
	}
	defer rows.Close()

	var out []PerformanceRow
	for rows.Next() {
		var r PerformanceRow
		if err := rows.Scan(&r.TaskID, &r.Platform, &r.Views, &r.Likes,
			&r.Comments, &r.Shares, &r.RetentionRate, &r.CTR); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HookPerformance is a hook template's measured results.
type HookPerformance struct {
	Template     string
	UseCount     int
	AvgRetention float64
	AvgCTR       float64
}

// HookReport ranks hook templates by average retention. An empty
// category ranks across all categories.
func (s *Store) HookReport(category string, limit, minSamples int) ([]HookPerformance, error) {
	if limit <= 0 {
		limit = 10
	}
	if minSamples <= 0 {
		minSamples = 3
	}

	query := `
		SELECT g.hook_template, COUNT(p.id), AVG(p.retention_rate), AVG(p.ctr)
		FROM generation_context g
		JOIN video_performance p ON g.task_id = p.task_id
		WHERE g.hook_template IS NOT NULL AND g.hook_template != ''`
	args := []any{}
	if category != "" {
		query += ` AND g.category = ?`
		args = append(args, category)
	}
	query += `
		GROUP BY g.hook_template
		HAVING COUNT(p.id) >= ?
		ORDER BY AVG(p.retention_rate) DESC
		LIMIT ?`
	args = append(args, minSamples, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("hook report: %w", err)
	}
	defer rows.Close()

	var out []HookPerformance
	for rows.Next() {
		var h HookPerformance
		if err := rows.Scan(&h.Template, &h.UseCount, &h.AvgRetention, &h.AvgCTR); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// TopHooks satisfies script.HookSource so the hook picker can exploit
// templates with proven retention.
func (s *Store) TopHooks(category string, limit, minSamples int) ([]script.HookStats, error) {
	report, err := s.HookReport(category, limit, minSamples)
	if err != nil {
		return nil, err
	}
	stats := make([]script.HookStats, 0, len(report))
	for _, h := range report {
		stats = append(stats, script.HookStats{
			Template:     h.Template,
			AvgRetention: h.AvgRetention,
			Samples:      h.UseCount,
		})
	}
	return stats, nil
}

// CategoryPerformance is a content category's averaged results.
type CategoryPerformance struct {
	Category     string
	AvgRetention float64
	AvgCTR       float64
	VideoCount   int
}

// CategoryReport ranks categories by average retention.
func (s *Store) CategoryReport() ([]CategoryPerformance, error) {
	rows, err := s.db.Query(`
		SELECT g.category, AVG(p.retention_rate), AVG(p.ctr), COUNT(p.id)
		FROM generation_context g
		JOIN video_performance p ON g.task_id = p.task_id
		WHERE g.category IS NOT NULL AND g.category != ''
		GROUP BY g.category
		ORDER BY AVG(p.retention_rate) DESC`)
	if err != nil {
		return nil, fmt.Errorf("category report: %w", err)
	}
	defer rows.Close()

	var out []CategoryPerformance
	for rows.Next() {
		var c CategoryPerformance
		if err := rows.Scan(&c.Category, &c.AvgRetention, &c.AvgCTR, &c.VideoCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ABTest compares retention between task variants once each has
// enough views.
type ABTest struct {
	TestID       string
	Name         string
	VariantTasks []string
	WinnerTaskID string
	MinViews     int
	Status       string // active, concluded
	CreatedAt    time.Time
	ConcludedAt  *time.Time
}

// CreateABTest registers a new test over the given variant tasks.
func (s *Store) CreateABTest(name string, variantTasks []string, minViews int) (string, error) {
	if len(variantTasks) < 2 {
		return "", fmt.Errorf("an A/B test needs at least 2 variants, got %d", len(variantTasks))
	}
	if minViews <= 0 {
		minViews = 1000
	}
	variants, err := json.Marshal(variantTasks)
	if err != nil {
		return "", err
	}

	testID := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO ab_tests (test_id, test_name, variant_task_ids, min_views, status, created_at)
		VALUES (?, ?, ?, ?, 'active', ?)`,
		testID, name, string(variants), minViews, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("create ab test: %w", err)
	}
	logging.Get(logging.CategoryAnalytics).Info("created A/B test %s: %s (%d variants)", testID, name, len(variantTasks))
	return testID, nil
}

// EvaluateABTest concludes a test when every variant has reached the
// view threshold, returning the winner task ID. While any variant is
// still below the threshold it returns "" without concluding.
func (s *Store) EvaluateABTest(testID string) (string, error) {
	var (
		variantJSON string
		minViews    int
		status      string
	)
	err := s.db.QueryRow(
		`SELECT variant_task_ids, min_views, status FROM ab_tests WHERE test_id = ?`, testID,
	).Scan(&variantJSON, &minViews, &status)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("ab test %s not found", testID)
	}
	if err != nil {
		return "", err
	}
	if status == "concluded" {
		var winner sql.NullString
		err := s.db.QueryRow(`SELECT winner_task_id FROM ab_tests WHERE test_id = ?`, testID).Scan(&winner)
		return winner.String, err
	}

	var variants []string
	if err := json.Unmarshal([]byte(variantJSON), &variants); err != nil {
		return "", fmt.Errorf("corrupt variant list for test %s: %w", testID, err)
	}

	bestRetention := -1.0
	winner := ""
	ready := 0
	for _, taskID := range variants {
		var views int
		var retention float64
		err := s.db.QueryRow(
			`SELECT views, retention_rate FROM video_performance WHERE task_id = ?`, taskID,
		).Scan(&views, &retention)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return "", err
		}
		if views >= minViews {
			ready++
			if retention > bestRetention {
				bestRetention = retention
				winner = taskID
			}
		}
	}

	if ready < len(variants) || winner == "" {
		return "", nil
	}

	_, err = s.db.Exec(`
		UPDATE ab_tests SET status = 'concluded', winner_task_id = ?, concluded_at = ?
		WHERE test_id = ?`,
		winner, time.Now().UTC(), testID,
	)
	if err != nil {
		return "", fmt.Errorf("conclude ab test: %w", err)
	}
	logging.Get(logging.CategoryAnalytics).Info("A/B test %s concluded, winner: %s", testID, winner)
	return winner, nil
}

// ABTests lists all tests, newest first.
func (s *Store) ABTests() ([]ABTest, error) {
	rows, err := s.db.Query(`
		SELECT test_id, test_name, variant_task_ids, winner_task_id, min_views, status, created_at, concluded_at
		FROM ab_tests
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list ab tests: %w", err)
	}
	defer rows.Close()

	var out []ABTest
	for rows.Next() {
		var (
			t           ABTest
			variantJSON string
			winner      sql.NullString
			concludedAt sql.NullTime
		)
		if err := rows.Scan(&t.TestID, &t.Name, &variantJSON, &winner,
			&t.MinViews, &t.Status, &t.CreatedAt, &concludedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(variantJSON), &t.VariantTasks); err != nil {
			return nil, fmt.Errorf("corrupt variant list for test %s: %w", t.TestID, err)
		}
		t.WinnerTaskID = winner.String
		if concludedAt.Valid {
			t.ConcludedAt = &concludedAt.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
