package queue

import (
	"context"
	"database/sql"
	"fmt"
)

// NamedItem is a work item joined with its plant's display name for
// dashboard and CLI presentation.
type NamedItem struct {
	Item
	PlantName string
}

// ListWithPlantNames returns every work item joined with the owning plant's
// name, oldest first. Items whose plant has been deleted keep an empty name.
func (s *Store) ListWithPlantNames(ctx context.Context) ([]*NamedItem, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT w.`+joinedItemColumns+`, COALESCE(p.name, '')
         FROM work_items w
         LEFT JOIN plants p ON p.id = w.plant_id
         ORDER BY w.created_at, w.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list items with plant names: %w", err)
	}
	defer rows.Close()

	return collectNamedItems(rows)
}

// RecentTerminalWithPlantNames returns the newest terminal items joined with
// plant names, for the activity feed.
func (s *Store) RecentTerminalWithPlantNames(ctx context.Context, limit int) ([]*NamedItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT w.`+joinedItemColumns+`, COALESCE(p.name, '')
         FROM work_items w
         LEFT JOIN plants p ON p.id = w.plant_id
         WHERE w.status IN (?, ?)
         ORDER BY COALESCE(w.completed_at, w.updated_at) DESC, w.id DESC
         LIMIT ?`,
		StatusCompleted,
		StatusFailed,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent terminal items with plant names: %w", err)
	}
	defer rows.Close()

	return collectNamedItems(rows)
}

const joinedItemColumns = "id, w.plant_id, w.kind, w.status, w.priority, w.scheduled_for, w.retry_count, w.max_retries, w.result_path, w.error_message, w.started_at, w.completed_at, w.created_at, w.updated_at"

func collectNamedItems(rows *sql.Rows) ([]*NamedItem, error) {
	var items []*NamedItem
	for rows.Next() {
		named, err := scanNamedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, named)
	}
	return items, rows.Err()
}

func scanNamedItem(rows *sql.Rows) (*NamedItem, error) {
	var (
		id           int64
		plantID      int64
		kindStr      string
		statusStr    string
		priority     int
		scheduledRaw sql.NullString
		retryCount   int
		maxRetries   int
		resultPath   sql.NullString
		errorMessage sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		plantName    string
	)
	if err := rows.Scan(
		&id,
		&plantID,
		&kindStr,
		&statusStr,
		&priority,
		&scheduledRaw,
		&retryCount,
		&maxRetries,
		&resultPath,
		&errorMessage,
		&startedRaw,
		&completedRaw,
		&createdRaw,
		&updatedRaw,
		&plantName,
	); err != nil {
		return nil, err
	}

	named := &NamedItem{
		Item: Item{
			ID:           id,
			PlantID:      plantID,
			Kind:         Kind(kindStr),
			Status:       Status(statusStr),
			Priority:     priority,
			RetryCount:   retryCount,
			MaxRetries:   maxRetries,
			ResultPath:   resultPath.String,
			ErrorMessage: errorMessage.String,
		},
		PlantName: plantName,
	}
	named.ScheduledFor = parseNullableTime(scheduledRaw)
	named.StartedAt = parseNullableTime(startedRaw)
	named.CompletedAt = parseNullableTime(completedRaw)
	if created := parseNullableTime(createdRaw); created != nil {
		named.CreatedAt = *created
	}
	if updated := parseNullableTime(updatedRaw); updated != nil {
		named.UpdatedAt = *updated
	}
	return named, nil
}
