package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultHistoryLimit = 100

// AppendOrganized writes one completed move to the organize log. The move
// is not considered complete until this returns nil.
func (s *Store) AppendOrganized(ctx context.Context, rec OrganizedRecord) (int64, error) {
	if rec.OriginalPath == "" || rec.DestinationPath == "" {
		return 0, errors.New("organized record requires original and destination paths")
	}
	organizedAt := rec.OrganizedAt
	if organizedAt.IsZero() {
		organizedAt = time.Now()
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO organize_log (event_id, original_path, destination_path, category, size, organized_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		rec.EventID,
		rec.OriginalPath,
		rec.DestinationPath,
		rec.Category,
		rec.Size,
		formatTime(organizedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("append organize log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// History returns organize-log records newest-first, narrowed by the filter.
func (s *Store) History(ctx context.Context, filter HistoryFilter) ([]OrganizedRecord, error) {
	var (
		clauses []string
		args    []any
	)
	if category := strings.TrimSpace(filter.Category); category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, category)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "organized_at >= ?")
		args = append(args, formatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "organized_at < ?")
		args = append(args, formatTime(filter.Until))
	}

	query := `SELECT id, event_id, original_path, destination_path, category, size, organized_at FROM organize_log`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY organized_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []OrganizedRecord
	for rows.Next() {
		var (
			rec         OrganizedRecord
			organizedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.OriginalPath, &rec.DestinationPath, &rec.Category, &rec.Size, &organizedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.OrganizedAt = parseTime(organizedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CategoryCounts aggregates organize-log totals per category.
func (s *Store) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(1) FROM organize_log GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			category string
			count    int64
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}
