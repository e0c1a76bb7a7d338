// Package store handles SQLite persistence of typing test results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/keyrush/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a result id does not exist.
var ErrNotFound = errors.New("result not found")

const selectedModeKey = "selected_mode"

// Store wraps SQLite access for result history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers; the engine and the HTTP API share one store.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			completed_at INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			elapsed_seconds REAL NOT NULL,
			text_length INTEGER NOT NULL,
			mistake_count INTEGER NOT NULL,
			text TEXT NOT NULL,
			mode TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_completed_at ON results(completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_mode ON results(mode);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores a finalized result.
func (s *Store) Append(ctx context.Context, res model.Result) error {
	rec := res.ToRecord()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, completed_at, wpm, accuracy, elapsed_seconds, text_length, mistake_count, text, mode, author)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date, rec.WPM, rec.Accuracy, rec.TimeElapsed, rec.TextLength, rec.ErrorCount, rec.Text, rec.Mode, rec.Author,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Delete removes one result by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every result and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	if err != nil {
		return 0, fmt.Errorf("clear results: %w", err)
	}
	return res.RowsAffected()
}

// List returns results matching cfg, most recent first.
func (s *Store) List(ctx context.Context, cfg model.StatsConfig) ([]model.Result, error) {
	where, args := filterClause(cfg)
	query := fmt.Sprintf(`SELECT id, completed_at, wpm, accuracy, elapsed_seconds, text_length, mistake_count, text, mode, author
		FROM results
		WHERE %s
		ORDER BY completed_at DESC, rowid DESC`, where)
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.Result
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.WPM, &rec.Accuracy, &rec.TimeElapsed, &rec.TextLength, &rec.ErrorCount, &rec.Text, &rec.Mode, &rec.Author); err != nil {
			return nil, err
		}
		res, err := rec.ToResult()
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", rec.ID, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Aggregate summarizes results matching cfg. An empty selection yields all zeros.
func (s *Store) Aggregate(ctx context.Context, cfg model.StatsConfig) (model.Aggregate, error) {
	where, args := filterClause(cfg)
	inner := fmt.Sprintf(`SELECT wpm, accuracy FROM results WHERE %s ORDER BY completed_at DESC, rowid DESC`, where)
	if cfg.Last > 0 {
		inner += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT COUNT(*), AVG(wpm), MAX(wpm), MIN(wpm), AVG(accuracy), MAX(accuracy) FROM (%s)`, inner)

	var (
		count                    int
		avgWPM, avgAcc           sql.NullFloat64
		maxWPM, minWPM, maxAccur sql.NullInt64
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count, &avgWPM, &maxWPM, &minWPM, &avgAcc, &maxAccur); err != nil {
		return model.Aggregate{}, fmt.Errorf("aggregate results: %w", err)
	}
	if count == 0 {
		return model.Aggregate{}, nil
	}
	return model.Aggregate{
		Count:       count,
		AvgWPM:      int(math.Round(avgWPM.Float64)),
		MaxWPM:      int(maxWPM.Int64),
		MinWPM:      int(minWPM.Int64),
		AvgAccuracy: int(math.Round(avgAcc.Float64)),
		MaxAccuracy: int(maxAccur.Int64),
	}, nil
}

// SelectedMode returns the last persisted mode selection, if any.
func (s *Store) SelectedMode(ctx context.Context) (model.Mode, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, selectedModeKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Mode{}, false, nil
	}
	if err != nil {
		return model.Mode{}, false, err
	}
	mode, err := model.ParseMode(value)
	if err != nil {
		// A stale id from an older catalog is treated as unset.
		return model.Mode{}, false, nil
	}
	return mode, true, nil
}

// SetSelectedMode persists the current mode selection.
func (s *Store) SetSelectedMode(ctx context.Context, mode model.Mode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		selectedModeKey, mode.ID())
	return err
}

func filterClause(cfg model.StatsConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Category != "" {
		modes := model.ModesFor(cfg.Category)
		placeholders := make([]string, len(modes))
		for i, m := range modes {
			placeholders[i] = "?"
			args = append(args, m.ID())
		}
		if len(placeholders) == 0 {
			clauses = append(clauses, "0=1")
		} else {
			clauses = append(clauses, fmt.Sprintf("mode IN (%s)", strings.Join(placeholders, ",")))
		}
	}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "completed_at >= ?")
		args = append(args, cfg.Since.UnixMilli())
	}
	return strings.Join(clauses, " AND "), args
}
