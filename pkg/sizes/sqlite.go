package sizes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bubble_sizes (
	id         TEXT PRIMARY KEY,
	base_size  REAL NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps sizes in a SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenSQLite opens (and if needed creates) the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, logger *log.Logger) (*SQLiteStore, error) {
	logger = orDiscard(logger)
	logger.Debug("opening size database", "path", path)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and ":memory:"
	// databases are per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("size database ready", "path", path, "wal_mode", true)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (float64, bool, error) {
	var v float64
	err := s.db.QueryRowContext(ctx, `SELECT base_size FROM bubble_sizes WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get size %s: %w", id, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id string, size float64) error {
	if err := checkSize(size); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bubble_sizes (id, base_size, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET base_size = excluded.base_size, updated_at = excluded.updated_at`,
		id, size, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put size %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Increment(ctx context.Context, id string, delta float64) (float64, error) {
	if err := checkSize(delta); err != nil {
		return 0, err
	}
	var v float64
	err := s.db.QueryRowContext(ctx, `
		UPDATE bubble_sizes SET base_size = base_size + ?, updated_at = ?
		WHERE id = ? RETURNING base_size`,
		delta, time.Now().UTC(), id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment size %s: %w", id, err)
	}
	return v, nil
}

func (s *SQLiteStore) All(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, base_size FROM bubble_sizes`)
	if err != nil {
		return nil, fmt.Errorf("list sizes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var v float64
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
