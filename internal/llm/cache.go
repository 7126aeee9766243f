package llm

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"clipforge/internal/logging"
)

// Cache stores LLM responses in SQLite to avoid redundant API calls.
// Cache key: SHA256(kind + sorted params). Expired entries are treated
// as misses and removed lazily or via ClearExpired.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewCache creates or opens the response cache database.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "llm_cache.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS llm_cache (
		cache_key  TEXT PRIMARY KEY,
		response   TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives a deterministic cache key from the prompt kind and parameters.
func Key(kind string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := map[string]any{"type": kind}
	for _, k := range keys {
		payload[k] = params[k]
	}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for a key, or ("", false) on miss/expiry.
func (c *Cache) Get(kind string, params map[string]any) (string, bool) {
	key := Key(kind, params)

	var response string
	var createdAt int64
	err := c.db.QueryRow(
		"SELECT response, created_at FROM llm_cache WHERE cache_key = ?", key,
	).Scan(&response, &createdAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logging.Get(logging.CategoryLLM).Warn("[cache] read error: %v", err)
		}
		return "", false
	}

	age := time.Since(time.Unix(createdAt, 0))
	if age >= c.ttl {
		logging.LLM("[cache] EXPIRED for %s (age: %s)", kind, age.Truncate(time.Second))
		_, _ = c.db.Exec("DELETE FROM llm_cache WHERE cache_key = ?", key)
		return "", false
	}

	logging.LLM("[cache] HIT for %s (age: %s)", kind, age.Truncate(time.Second))
	return response, true
}

// Set stores a response under the derived key, replacing any previous entry.
func (c *Cache) Set(kind string, params map[string]any, response string) {
	key := Key(kind, params)
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO llm_cache (cache_key, response, created_at) VALUES (?, ?, ?)",
		key, response, time.Now().Unix(),
	)
	if err != nil {
		logging.Get(logging.CategoryLLM).Warn("[cache] write error: %v", err)
		return
	}
	logging.LLM("[cache] STORED for %s", kind)
}

// ClearExpired removes expired entries. Returns the number of rows deleted.
func (c *Cache) ClearExpired() (int64, error) {
	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.Exec("DELETE FROM llm_cache WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	logging.LLM("[cache] cleared %d expired entries", n)
	return n, nil
}
