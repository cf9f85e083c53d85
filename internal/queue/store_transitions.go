package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClaimNextDue atomically moves the next due pending item to processing and
// returns it. Selection order is priority DESC, created_at ASC; items whose
// scheduled_for has not elapsed are skipped. Returns nil when nothing is due.
//
// The conditional UPDATE on status is the claim: a row that lost the race is
// simply re-selected on the next pass, so no in-process lock is needed and
// the same store could back several worker processes.
func (s *Store) ClaimNextDue(ctx context.Context, now time.Time) (*Item, error) {
	ctx = ensureContext(ctx)
	nowStamp := timestamp(now)

	for {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT `+itemColumns+` FROM work_items
             WHERE status = ? AND (scheduled_for IS NULL OR scheduled_for <= ?)
             ORDER BY `+dispatchOrder+` LIMIT 1`,
			StatusPending,
			nowStamp,
		)
		candidate, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("select next due item: %w", err)
		}

		res, err := s.execWithRetry(
			ctx,
			`UPDATE work_items SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusProcessing,
			nowStamp,
			nowStamp,
			candidate.ID,
			StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("claim item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			// Lost the claim race; pick again.
			continue
		}
		return s.GetByID(ctx, candidate.ID)
	}
}

// MarkCompleted transitions an item to completed with its result path.
func (s *Store) MarkCompleted(ctx context.Context, id int64, resultPath string) error {
	now := timestamp(time.Now())
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE work_items
         SET status = ?, result_path = ?, error_message = NULL, completed_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusCompleted,
		resultPath,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark item completed: %w", err)
	}
	return nil
}

// MarkFailed transitions an item to failed with the captured error message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	now := timestamp(time.Now())
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE work_items
         SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusFailed,
		message,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark item failed: %w", err)
	}
	return nil
}

// RequeueStuck resets items that have been processing since before cutoff
// back to pending so the scheduler can claim them again. The retry counter is
// zeroed and the item becomes due immediately. Returns the number of items
// requeued; calling it when nothing is stuck is a no-op.
func (s *Store) RequeueStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE work_items
         SET status = ?, retry_count = 0, scheduled_for = ?, started_at = NULL,
             error_message = NULL, updated_at = ?
         WHERE status = ? AND started_at IS NOT NULL AND started_at < ?`,
		StatusPending,
		timestamp(now),
		timestamp(now),
		StatusProcessing,
		timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("requeue stuck items: %w", err)
	}
	return res.RowsAffected()
}
