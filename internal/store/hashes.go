package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertFile records that path currently holds content with the given
// digest. A new digest creates its hash entry; re-hashing a path that moved
// to different content re-homes the record and prunes the old entry if it
// emptied out.
func (s *Store) UpsertFile(ctx context.Context, digest string, rec FileRecord) error {
	if digest == "" {
		return errors.New("digest is required")
	}
	if rec.Path == "" {
		return errors.New("file record path is required")
	}

	now := formatTime(time.Now())
	return s.txWithRetry(ctx, func(tx *sql.Tx) error {
		var oldDigest string
		err := tx.QueryRowContext(ctx, `SELECT digest FROM file_records WHERE path = ?`, rec.Path).Scan(&oldDigest)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lookup existing record: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO hash_entries (digest, first_seen_at) VALUES (?, ?)
             ON CONFLICT(digest) DO NOTHING`,
			digest, now,
		); err != nil {
			return fmt.Errorf("insert hash entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO file_records (path, digest, size, modified_at) VALUES (?, ?, ?, ?)
             ON CONFLICT(path) DO UPDATE SET digest = excluded.digest,
                 size = excluded.size, modified_at = excluded.modified_at`,
			rec.Path, digest, rec.Size, formatTime(rec.ModifiedAt),
		); err != nil {
			return fmt.Errorf("upsert file record: %w", err)
		}

		if oldDigest != "" && oldDigest != digest {
			if err := pruneEntryIfEmpty(ctx, tx, oldDigest); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveFile deletes the record for path and prunes its hash entry when no
// records remain. Removing an unknown path is a no-op.
func (s *Store) RemoveFile(ctx context.Context, path string) (bool, error) {
	var removed bool
	err := s.txWithRetry(ctx, func(tx *sql.Tx) error {
		removed = false
		var digest string
		err := tx.QueryRowContext(ctx, `SELECT digest FROM file_records WHERE path = ?`, path).Scan(&digest)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup record: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM file_records WHERE path = ?`, path); err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		removed = true
		return pruneEntryIfEmpty(ctx, tx, digest)
	})
	return removed, err
}

// Entry fetches one hash entry with its records ordered newest-first by
// modified time, tie-broken by path. Returns nil when the digest is unknown.
func (s *Store) Entry(ctx context.Context, digest string) (*HashEntry, error) {
	var firstSeen string
	err := s.db.QueryRowContext(ctx, `SELECT first_seen_at FROM hash_entries WHERE digest = ?`, digest).Scan(&firstSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hash entry: %w", err)
	}

	entry := HashEntry{Digest: digest, FirstSeen: parseTime(firstSeen)}
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, size, modified_at FROM file_records
         WHERE digest = ? ORDER BY modified_at DESC, path ASC`, digest)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		entry.Files = append(entry.Files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DuplicateEntries returns every hash entry with at least two live records,
// records ordered newest-first. Entry order is deterministic (by digest).
func (s *Store) DuplicateEntries(ctx context.Context) ([]HashEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.digest, e.first_seen_at, r.path, r.size, r.modified_at
         FROM file_records r
         JOIN hash_entries e ON e.digest = r.digest
         WHERE r.digest IN (
             SELECT digest FROM file_records GROUP BY digest HAVING COUNT(1) >= 2
         )
         ORDER BY r.digest ASC, r.modified_at DESC, r.path ASC`)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	var entries []HashEntry
	for rows.Next() {
		var (
			digest    string
			firstSeen string
			rec       FileRecord
			modified  string
		)
		if err := rows.Scan(&digest, &firstSeen, &rec.Path, &rec.Size, &modified); err != nil {
			return nil, fmt.Errorf("scan duplicate row: %w", err)
		}
		rec.ModifiedAt = parseTime(modified)

		if len(entries) == 0 || entries[len(entries)-1].Digest != digest {
			entries = append(entries, HashEntry{Digest: digest, FirstSeen: parseTime(firstSeen)})
		}
		last := &entries[len(entries)-1]
		last.Files = append(last.Files, rec)
	}
	return entries, rows.Err()
}

// RecordPaths returns every path currently indexed, for the maintenance sweep.
func (s *Store) RecordPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM file_records ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query record paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func pruneEntryIfEmpty(ctx context.Context, tx *sql.Tx, digest string) error {
	var remaining int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM file_records WHERE digest = ?`, digest).Scan(&remaining); err != nil {
		return fmt.Errorf("count remaining records: %w", err)
	}
	if remaining > 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM hash_entries WHERE digest = ?`, digest); err != nil {
		return fmt.Errorf("prune empty entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (FileRecord, error) {
	var (
		rec      FileRecord
		modified string
	)
	if err := row.Scan(&rec.Path, &rec.Size, &modified); err != nil {
		return FileRecord{}, fmt.Errorf("scan file record: %w", err)
	}
	rec.ModifiedAt = parseTime(modified)
	return rec, nil
}

// timeLayout pads fractional seconds to nine digits. Timestamps are stored
// as TEXT and compared with string operators in ORDER BY and range clauses,
// which is only correct when every value has the same width.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
