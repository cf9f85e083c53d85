// Package status aggregates plant and queue state into the read models the
// CLI and daemon report from. It depends only on the stores, so status can
// be rendered without a provider client configured.
package status

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

// ActivityLimit caps the recent-activity feed in generation reports.
const ActivityLimit = 10

var titleCaser = cases.Title(language.English)

// Aggregator reads both stores to build combined reports.
type Aggregator struct {
	store  *queue.Store
	plants *plants.Store
}

// NewAggregator wires an aggregator over the shared stores.
func NewAggregator(store *queue.Store, plantStore *plants.Store) *Aggregator {
	return &Aggregator{store: store, plants: plantStore}
}

// Activity is one line of the recent-activity feed.
type Activity struct {
	Message string
	When    time.Time
}

// GenerationReport summarizes catalog coverage, queue counts, and recent
// terminal activity.
type GenerationReport struct {
	Plants   plants.Totals
	Queue    queue.CountSummary
	Activity []Activity
}

// GenerationStatus builds the dashboard report.
func (a *Aggregator) GenerationStatus(ctx context.Context) (*GenerationReport, error) {
	totals, err := a.plants.ImageTotals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := a.store.RecentTerminalWithPlantNames(ctx, ActivityLimit)
	if err != nil {
		return nil, err
	}

	report := &GenerationReport{Plants: totals, Queue: counts}
	for _, item := range recent {
		report.Activity = append(report.Activity, Activity{
			Message: activityMessage(item),
			When:    activityTime(item),
		})
	}
	return report, nil
}

// QueueEntry is one work item annotated for presentation. Position is the
// 1-based place among pending items in dispatch order and zero for items no
// longer pending. Progress reads "n/3" while the batch is being worked.
type QueueEntry struct {
	queue.NamedItem
	Position int
	Progress string
}

// QueueReport lists every work item with its dispatch position.
type QueueReport struct {
	Counts  queue.CountSummary
	Entries []QueueEntry
}

// QueueStatus builds the per-item queue view. Pending positions are derived
// from the same ordering the scheduler claims in, so position 1 is always
// the next item to start.
func (a *Aggregator) QueueStatus(ctx context.Context) (*QueueReport, error) {
	counts, err := a.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	items, err := a.store.ListWithPlantNames(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := a.store.PendingInDispatchOrder(ctx)
	if err != nil {
		return nil, err
	}

	positions := make(map[int64]int, len(pending))
	for idx, item := range pending {
		positions[item.ID] = idx + 1
	}

	report := &QueueReport{Counts: counts}
	for _, item := range items {
		entry := QueueEntry{NamedItem: *item}
		if item.Status == queue.StatusPending {
			entry.Position = positions[item.ID]
		}
		if item.Status == queue.StatusProcessing {
			entry.Progress = fmt.Sprintf("%d/%d", queue.KindOrdinal(item.Kind), len(queue.AllKinds()))
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

func activityMessage(item *queue.NamedItem) string {
	name := item.PlantName
	if name == "" {
		name = fmt.Sprintf("plant %d", item.PlantID)
	}
	verb := "completed"
	if item.Status == queue.StatusFailed {
		verb = "failed"
		if item.ErrorMessage != "" {
			return fmt.Sprintf("%s %s image failed: %s", titleCaser.String(name), item.Kind, item.ErrorMessage)
		}
	}
	return fmt.Sprintf("%s %s image %s", titleCaser.String(name), item.Kind, verb)
}

func activityTime(item *queue.NamedItem) time.Time {
	if item.CompletedAt != nil {
		return *item.CompletedAt
	}
	return item.UpdatedAt
}
