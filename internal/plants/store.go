package plants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"greenhouse/internal/queue"
)

// Store manages plant persistence. It shares the SQLite handle opened by the
// queue store; the plants table is created by the same migration set.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const plantColumns = "id, name, species, description, image_status, thumbnail_path, full_path, detail_path, image_error, generation_attempts, created_at, updated_at"

// Create inserts a new plant record with image generation not yet requested.
func (s *Store) Create(ctx context.Context, name, species, description string) (*Plant, error) {
	if name == "" {
		return nil, errors.New("plant name is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO plants (name, species, description, image_status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		name,
		species,
		description,
		ImagePending,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a plant by identifier. Returns nil when not found.
func (s *Store) GetByID(ctx context.Context, id int64) (*Plant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = ?`, id)
	plant, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return plant, nil
}

// List returns all plants ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Plant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+plantColumns+` FROM plants ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	var result []*Plant
	for rows.Next() {
		plant, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, plant)
	}
	return result, rows.Err()
}

// Delete removes a plant record.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plants WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete plant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetImageStatus updates the aggregate generation status and error message.
func (s *Store) SetImageStatus(ctx context.Context, id int64, status ImageStatus, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE plants SET image_status = ?, image_error = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(errMsg),
		now,
		id,
	); err != nil {
		return fmt.Errorf("set image status: %w", err)
	}
	return nil
}

// SetKindResult stores a generated image path into the slot for kind.
func (s *Store) SetKindResult(ctx context.Context, id int64, kind queue.Kind, path string) error {
	column, ok := kindColumn(kind)
	if !ok {
		return fmt.Errorf("unknown image kind %q", kind)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE plants SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		path,
		now,
		id,
	); err != nil {
		return fmt.Errorf("set %s result: %w", kind, err)
	}
	return nil
}

// MarkGenerationFailed records a batch failure: status failed, error captured,
// attempt counter incremented. A single kind failing fails the whole plant
// even when other kinds are still pending or already done.
func (s *Store) MarkGenerationFailed(ctx context.Context, id int64, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`UPDATE plants
         SET image_status = ?, image_error = ?, generation_attempts = generation_attempts + 1, updated_at = ?
         WHERE id = ?`,
		ImageFailed,
		errMsg,
		now,
		id,
	); err != nil {
		return fmt.Errorf("mark generation failed: %w", err)
	}
	return nil
}

// ImageTotals reports catalog-wide coverage for the status dashboard.
func (s *Store) ImageTotals(ctx context.Context) (Totals, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN thumbnail_path IS NOT NULL AND thumbnail_path != ''
                               AND full_path IS NOT NULL AND full_path != ''
                               AND detail_path IS NOT NULL AND detail_path != ''
                          THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN (thumbnail_path IS NULL OR thumbnail_path = '')
                               AND (full_path IS NULL OR full_path = '')
                               AND (detail_path IS NULL OR detail_path = '')
                          THEN 1 ELSE 0 END), 0)
         FROM plants`,
	)
	var totals Totals
	if err := row.Scan(&totals.Plants, &totals.WithAllImages, &totals.WithoutImages); err != nil {
		return Totals{}, fmt.Errorf("plant image totals: %w", err)
	}
	return totals, nil
}

func kindColumn(kind queue.Kind) (string, bool) {
	switch kind {
	case queue.KindThumbnail:
		return "thumbnail_path", true
	case queue.KindFull:
		return "full_path", true
	case queue.KindDetail:
		return "detail_path", true
	default:
		return "", false
	}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func scanPlant(scanner interface{ Scan(dest ...any) error }) (*Plant, error) {
	var (
		id            int64
		name          string
		species       sql.NullString
		description   sql.NullString
		statusStr     string
		thumbnailPath sql.NullString
		fullPath      sql.NullString
		detailPath    sql.NullString
		imageError    sql.NullString
		attempts      int
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&name,
		&species,
		&description,
		&statusStr,
		&thumbnailPath,
		&fullPath,
		&detailPath,
		&imageError,
		&attempts,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	plant := &Plant{
		ID:                 id,
		Name:               name,
		Species:            species.String,
		Description:        description.String,
		ImageStatus:        ImageStatus(statusStr),
		ThumbnailPath:      thumbnailPath.String,
		FullPath:           fullPath.String,
		DetailPath:         detailPath.String,
		ImageError:         imageError.String,
		GenerationAttempts: attempts,
	}
	if t, err := parseTime(createdRaw.String); err == nil {
		plant.CreatedAt = t
	}
	if t, err := parseTime(updatedRaw.String); err == nil {
		plant.UpdatedAt = t
	}
	return plant, nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
