package queue

import (
	"context"
	"fmt"
	"time"
)

// CountsByStatus returns a count of work items grouped by status.
func (s *Store) CountsByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM work_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Counts aggregates queue state into a summary struct.
func (s *Store) Counts(ctx context.Context) (CountSummary, error) {
	byStatus, err := s.CountsByStatus(ctx)
	if err != nil {
		return CountSummary{}, err
	}
	summary := CountSummary{}
	for status, count := range byStatus {
		summary.Total += count
		switch status {
		case StatusPending:
			summary.Pending += count
		case StatusProcessing:
			summary.Processing += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, nil
}

// CleanupOld deletes terminal items older than cutoff while always keeping
// the newest keepRecent terminal rows regardless of age, so the activity feed
// survives a cleanup. Returns the number of rows deleted.
func (s *Store) CleanupOld(ctx context.Context, cutoff time.Time, keepRecent int) (int64, error) {
	if keepRecent < 0 {
		keepRecent = 0
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM work_items
         WHERE status IN (?, ?)
           AND COALESCE(completed_at, updated_at) < ?
           AND id NOT IN (
               SELECT id FROM work_items
               WHERE status IN (?, ?)
               ORDER BY COALESCE(completed_at, updated_at) DESC, id DESC
               LIMIT ?
           )`,
		StatusCompleted,
		StatusFailed,
		timestamp(cutoff),
		StatusCompleted,
		StatusFailed,
		keepRecent,
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup old items: %w", err)
	}
	return res.RowsAffected()
}

// ClearTerminal removes all completed and failed items from the queue.
func (s *Store) ClearTerminal(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM work_items WHERE status IN (?, ?)`,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear terminal items: %w", err)
	}
	return res.RowsAffected()
}
