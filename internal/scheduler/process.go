package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"greenhouse/internal/generator"
	"greenhouse/internal/logging"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

// dispatch hands a claimed item to a worker goroutine and returns to the
// loop immediately. The worker owns the item until it reaches a terminal
// status.
func (s *Scheduler) dispatch(ctx context.Context, item *queue.Item) {
	s.active.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.active.Add(-1)
		s.processItem(ctx, item)
		s.afterCompletion(ctx)
	}()
}

// processItem runs one claimed item to a terminal status. Every failure
// path marks both the item and its plant; the item is never left in
// processing except by a crash, which the stuck sweep repairs.
func (s *Scheduler) processItem(ctx context.Context, item *queue.Item) {
	logger := s.logger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.Int64(logging.FieldPlantID, item.PlantID),
		logging.String(logging.FieldKind, string(item.Kind)),
		logging.String(logging.FieldRequestID, uuid.NewString()),
	)
	started := time.Now()
	logger.Info("processing item")

	plant, err := s.plants.GetByID(ctx, item.PlantID)
	if err != nil {
		s.failItem(ctx, logger, item, 0, fmt.Sprintf("load plant: %v", err))
		return
	}
	if plant == nil {
		s.failItem(ctx, logger, item, 0, "plant not found")
		return
	}

	// A plant that already failed stays failed; later items still run so
	// their results are not lost, but they never revive the status.
	if plant.ImageStatus != plants.ImageFailed {
		if err := s.plants.SetImageStatus(ctx, plant.ID, plants.ImageGenerating, ""); err != nil {
			logger.Error("set plant generating", logging.Error(err))
		}
	}

	prompt := generator.BuildPrompt(plant, item.Kind)
	path, err := s.gen.Generate(ctx, prompt, generator.AspectFor(item.Kind))
	if err != nil {
		s.failItem(ctx, logger, item, plant.ID, err.Error())
		return
	}

	if err := s.store.MarkCompleted(ctx, item.ID, path); err != nil {
		logger.Error("mark item completed", logging.Error(err))
		return
	}
	if err := s.plants.SetKindResult(ctx, plant.ID, item.Kind, path); err != nil {
		logger.Error("record result path", logging.Error(err))
	}
	s.finishPlantIfDone(ctx, logger, plant.ID)
	logger.Info("item completed",
		logging.String("result_path", path),
		logging.Duration("elapsed", time.Since(started)))
}

// failItem records a terminal failure on the item and, when the plant is
// known, on the plant. A single failed kind fails the whole batch.
func (s *Scheduler) failItem(ctx context.Context, logger *slog.Logger, item *queue.Item, plantID int64, message string) {
	logger.Error("item failed", logging.String("error_message", message))
	if err := s.store.MarkFailed(ctx, item.ID, message); err != nil {
		logger.Error("mark item failed", logging.Error(err))
	}
	if plantID != 0 {
		if err := s.plants.MarkGenerationFailed(ctx, plantID, message); err != nil {
			logger.Error("mark plant failed", logging.Error(err))
		}
	}
}

// finishPlantIfDone flips the plant to completed once no open items remain,
// unless an earlier item already failed the plant. Failure always wins over
// later successes.
func (s *Scheduler) finishPlantIfDone(ctx context.Context, logger *slog.Logger, plantID int64) {
	open, err := s.store.CountOpenForPlant(ctx, plantID)
	if err != nil {
		logger.Error("count open items", logging.Error(err))
		return
	}
	if open > 0 {
		return
	}
	plant, err := s.plants.GetByID(ctx, plantID)
	if err != nil || plant == nil {
		return
	}
	if plant.ImageStatus == plants.ImageFailed {
		return
	}
	if err := s.plants.SetImageStatus(ctx, plantID, plants.ImageCompleted, ""); err != nil {
		logger.Error("set plant completed", logging.Error(err))
		return
	}
	logger.Info("plant batch completed", logging.Int64(logging.FieldPlantID, plantID))
}

// afterCompletion counts finished items and runs retention cleanup every
// maintainEvery completions. The deterministic cadence keeps maintenance
// testable and bounds how much garbage can pile up between runs.
func (s *Scheduler) afterCompletion(ctx context.Context) {
	total := s.completions.Add(1)
	if s.maintainEvery <= 0 || total%int64(s.maintainEvery) != 0 {
		return
	}
	if _, err := s.CleanupOld(ctx); err != nil {
		s.logger.Error("maintenance cleanup", logging.Error(err))
	}
}
