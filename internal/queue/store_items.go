package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EnqueueBatch replaces any pending items for a plant with a fresh batch, one
// item per kind, spaced apart by spacing so the provider is never asked for
// two images of the same plant back to back. Enqueue is idempotent per plant:
// pending items are deleted, in-flight and terminal items are left alone.
func (s *Store) EnqueueBatch(ctx context.Context, plantID int64, priority int, startAt time.Time, spacing time.Duration, maxRetries int) ([]*Item, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enqueue tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM work_items WHERE plant_id = ? AND status = ?`,
		plantID,
		StatusPending,
	); err != nil {
		return nil, fmt.Errorf("delete superseded pending items: %w", err)
	}

	ids := make([]int64, 0, len(allKinds))
	for i, kind := range allKinds {
		scheduledFor := startAt.Add(time.Duration(i) * spacing)
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO work_items (
                plant_id, kind, status, priority, scheduled_for,
                retry_count, max_retries, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plantID,
			kind,
			StatusPending,
			priority,
			timestamp(scheduledFor),
			0,
			maxRetries,
			timestamp(now),
			timestamp(now),
		)
		if err != nil {
			return nil, fmt.Errorf("insert %s item: %w", kind, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enqueue: %w", err)
	}

	items := make([]*Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetByID fetches a work item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM work_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns work items filtered by status set (or all items when no status
// is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM work_items`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// PendingInDispatchOrder returns all pending items ordered exactly the way
// the scheduler claims them, due or not. Position in this slice is the
// user-visible queue position.
func (s *Store) PendingInDispatchOrder(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM work_items WHERE status = ? ORDER BY `+dispatchOrder,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// CountOpenForPlant returns how many of a plant's items are pending or
// processing. Zero means every item of the batch has reached a terminal
// status.
func (s *Store) CountOpenForPlant(ctx context.Context, plantID int64) (int, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM work_items WHERE plant_id = ? AND status IN (?, ?)`,
		plantID,
		StatusPending,
		StatusProcessing,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count open for plant: %w", err)
	}
	return count, nil
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
