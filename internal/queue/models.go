package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a work item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind identifies which image variant a work item produces. The order of
// AllKinds is the order items are scheduled in at enqueue time.
type Kind string

const (
	KindThumbnail Kind = "thumbnail"
	KindFull      Kind = "full"
	KindDetail    Kind = "detail"
)

var allKinds = []Kind{KindThumbnail, KindFull, KindDetail}

// AllKinds returns the fixed, ordered list of image kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// KindOrdinal returns the 1-based position of kind within AllKinds, or 0 for
// unknown kinds. Used to express per-owner progress as "n of total".
func KindOrdinal(kind Kind) int {
	for i, k := range allKinds {
		if k == kind {
			return i + 1
		}
	}
	return 0
}

// Item represents a work item persisted in SQLite. One item produces one
// image variant for one plant.
type Item struct {
	ID           int64
	PlantID      int64
	Kind         Kind
	Status       Status
	Priority     int
	ScheduledFor *time.Time
	RetryCount   int
	MaxRetries   int
	ResultPath   string
	ErrorMessage string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CountSummary describes aggregated queue counts per lifecycle state.
type CountSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
