package plants

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an operation references a missing plant.
var ErrNotFound = errors.New("plant not found")

// ImageStatus is the denormalized aggregate of a plant's generation batch.
type ImageStatus string

const (
	ImagePending    ImageStatus = "pending"
	ImageQueued     ImageStatus = "queued"
	ImageGenerating ImageStatus = "generating"
	ImageCompleted  ImageStatus = "completed"
	ImageFailed     ImageStatus = "failed"
)

// Plant is a catalog record that work items generate images for.
type Plant struct {
	ID                 int64
	Name               string
	Species            string
	Description        string
	ImageStatus        ImageStatus
	ThumbnailPath      string
	FullPath           string
	DetailPath         string
	ImageError         string
	GenerationAttempts int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ResultPaths returns the per-kind result slots that are populated.
func (p *Plant) ResultPaths() []string {
	var paths []string
	for _, path := range []string{p.ThumbnailPath, p.FullPath, p.DetailPath} {
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths
}

// HasAllImages reports whether every per-kind result slot is populated.
func (p *Plant) HasAllImages() bool {
	return p.ThumbnailPath != "" && p.FullPath != "" && p.DetailPath != ""
}

// Totals summarizes catalog-wide image coverage for dashboards.
type Totals struct {
	Plants        int
	WithAllImages int
	WithoutImages int
}
