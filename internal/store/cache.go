package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/u-ask/uask-dom-sub000/internal/survey"
)

// Cache is an engine.Cache persisted in the executions table. Entries
// are bound to the definitions of one compiled survey.
//
// engine.Cache has no error path: read and write failures are logged
// and a failed read is a miss.
type Cache struct {
	store   *Store
	catalog Catalog
	logger  *slog.Logger
}

// NewCache creates a cache over s resolving interviews through c.
// A nil logger uses slog.Default().
func NewCache(s *Store, c Catalog, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: s, catalog: c, logger: logger}
}

// Get returns the interview stored under key.
func (c *Cache) Get(key string) (survey.Interview, bool) {
	iv, err := c.store.ReadExecution(context.Background(), key, c.catalog)
	if errors.Is(err, sql.ErrNoRows) {
		return survey.Interview{}, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return survey.Interview{}, false
	}
	c.logger.Debug("cache hit", "key", key, "interview", iv.ID)
	return iv, true
}

// Put stores iv under key. An existing entry is kept.
func (c *Cache) Put(key string, iv survey.Interview) {
	if err := c.store.WriteExecution(context.Background(), key, iv); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// WriteExecution stores the record produced for key. Uses ON CONFLICT
// DO NOTHING: equal keys always produce equal records.
func (s *Store) WriteExecution(ctx context.Context, key string, iv survey.Interview) error {
	data, err := marshalInterview(iv)
	if err != nil {
		return fmt.Errorf("write execution: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (key, interview, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM executions))
		ON CONFLICT(key) DO NOTHING
	`, key, data)
	if err != nil {
		return fmt.Errorf("write execution: %w", err)
	}
	return nil
}

// ReadExecution returns the record stored for key, or an error wrapping
// sql.ErrNoRows.
func (s *Store) ReadExecution(ctx context.Context, key string, c Catalog) (survey.Interview, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT interview FROM executions WHERE key = ?`, key).Scan(&data)
	if err != nil {
		return survey.Interview{}, fmt.Errorf("read execution: %w", err)
	}
	return unmarshalInterview(data, c)
}

// CountExecutions returns the number of stored executions.
func (s *Store) CountExecutions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return n, nil
}
