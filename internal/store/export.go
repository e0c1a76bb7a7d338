package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/verte-zerg/keyrush/internal/model"
)

// Export writes every result as an indented JSON array of records, most recent first.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	results, err := s.List(ctx, model.StatsConfig{})
	if err != nil {
		return 0, err
	}
	records := make([]model.Record, 0, len(results))
	for _, res := range results {
		records = append(records, res.ToRecord())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("encode records: %w", err)
	}
	return len(records), nil
}

// Import reads a JSON array of records and stores those whose id is not present yet.
// It returns the number of records inserted.
func (s *Store) Import(ctx context.Context, r io.Reader) (imported int, err error) {
	var records []model.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode records: %w", err)
	}
	results := make([]model.Result, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return 0, fmt.Errorf("record without id")
		}
		res, err := rec.ToResult()
		if err != nil {
			return 0, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		results = append(results, res)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO results (id, completed_at, wpm, accuracy, elapsed_seconds, text_length, mistake_count, text, mode, author)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	// Oldest first so rowid order matches completion order for equal timestamps.
	for i := len(results) - 1; i >= 0; i-- {
		rec := results[i].ToRecord()
		res, err := stmt.ExecContext(ctx, rec.ID, rec.Date, rec.WPM, rec.Accuracy, rec.TimeElapsed, rec.TextLength, rec.ErrorCount, rec.Text, rec.Mode, rec.Author)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		imported += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}
