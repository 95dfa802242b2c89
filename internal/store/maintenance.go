package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Sweep removes file records whose paths no longer exist on disk and prunes
// hash entries left without records. Running it twice with no filesystem
// change in between is a no-op the second time.
func (s *Store) Sweep(ctx context.Context) (SweepResult, error) {
	paths, err := s.RecordPaths(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var missing []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return SweepResult{}, err
		}
		if _, statErr := os.Lstat(path); os.IsNotExist(statErr) {
			missing = append(missing, path)
		}
	}

	var result SweepResult
	if len(missing) == 0 {
		return result, nil
	}

	err = s.txWithRetry(ctx, func(tx *sql.Tx) error {
		result = SweepResult{}
		for _, path := range missing {
			res, err := tx.ExecContext(ctx, `DELETE FROM file_records WHERE path = ?`, path)
			if err != nil {
				return fmt.Errorf("delete stale record: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			result.RecordsRemoved += affected
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM hash_entries WHERE digest NOT IN (SELECT DISTINCT digest FROM file_records)`)
		if err != nil {
			return fmt.Errorf("prune empty entries: %w", err)
		}
		pruned, err := res.RowsAffected()
		if err != nil {
			return err
		}
		result.EntriesPruned = pruned
		return nil
	})
	return result, err
}

// Stats aggregates database contents for status output.
func (s *Store) Stats(ctx context.Context) (Counts, error) {
	var counts Counts
	queries := []struct {
		dst   *int64
		query string
	}{
		{&counts.HashEntries, `SELECT COUNT(1) FROM hash_entries`},
		{&counts.FileRecords, `SELECT COUNT(1) FROM file_records`},
		{&counts.DuplicateGroups, `SELECT COUNT(1) FROM (SELECT digest FROM file_records GROUP BY digest HAVING COUNT(1) >= 2)`},
		{&counts.OrganizedTotal, `SELECT COUNT(1) FROM organize_log`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("stats query: %w", err)
		}
	}
	return counts, nil
}
