package usecase

import (
	"context"
	"fmt"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/repository"
	"NightScan/internal/domain/service"
	"NightScan/pkg/config"
	"NightScan/pkg/logger"
	"NightScan/pkg/queue"
)

// TrainingSummary reports the training phase's outcome.
type TrainingSummary struct {
	Queued    []string
	Trained   int
	Failed    int
	Failures  []*models.TrainingFailure
	Durations map[string]time.Duration
}

// Trainer maintains model staleness and runs the nightly retraining
// queue: stale or missing models first, ordered by opportunity score so
// the most promising symbols are retrained before the quota runs out.
type Trainer struct {
	forecasts service.ForecastService
	store     repository.ModelStore
	metrics   repository.Metrics
	cfg       config.TrainingConfig
	log       *logger.Logger
	now       func() time.Time
}

func NewTrainer(fs service.ForecastService, store repository.ModelStore, metrics repository.Metrics, cfg config.TrainingConfig, log *logger.Logger) *Trainer {
	return &Trainer{
		forecasts: fs,
		store:     store,
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// BuildQueue selects the symbols needing (re)training: no model record,
// or a record older than the staleness threshold. Ordered by descending
// opportunity score and truncated to maxPerNight.
func (t *Trainer) BuildQueue(scores []models.OpportunityScore, maxPerNight int) []string {
	threshold := time.Duration(t.cfg.StalenessDays) * 24 * time.Hour
	now := t.now()

	ranked := Rank(scores)
	out := make([]string, 0, maxPerNight)
	for _, sc := range ranked {
		rec, ok := t.store.Get(sc.Symbol)
		if ok && !rec.StaleAfter(now, threshold) {
			continue
		}
		out = append(out, sc.Symbol)
		if maxPerNight > 0 && len(out) >= maxPerNight {
			break
		}
	}
	return out
}

// Train runs the queue with failure isolation: one symbol's failure is
// recorded and the rest of the queue proceeds. Priority order follows the
// queue order even under bounded concurrency.
func (t *Trainer) Train(ctx context.Context, queued []string, histories map[string][]models.Candle) *TrainingSummary {
	summary := &TrainingSummary{
		Queued:    queued,
		Durations: make(map[string]time.Duration),
	}

	tasks := make([]queue.Task, 0, len(queued))
	for i, symbol := range queued {
		symbol := symbol
		history := histories[symbol]
		tasks = append(tasks, queue.Task{
			Key:      symbol,
			Priority: float64(len(queued) - i), // preserve queue order
			Run: func(ctx context.Context) error {
				return t.trainOne(ctx, symbol, history)
			},
		})
	}

	runner := queue.NewRunner(t.log, &queue.Config{Workers: t.cfg.Workers})
	for _, res := range runner.Execute(ctx, tasks) {
		summary.Durations[res.Key] = res.Duration
		if res.Err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, &models.TrainingFailure{Symbol: res.Key, Err: res.Err})
			if t.metrics != nil {
				t.metrics.RecordModelTrained("failure")
			}
			continue
		}
		summary.Trained++
		if t.metrics != nil {
			t.metrics.RecordModelTrained("success")
		}
	}

	return summary
}

func (t *Trainer) trainOne(ctx context.Context, symbol string, history []models.Candle) error {
	if len(history) == 0 {
		return fmt.Errorf("train %s: no history available", symbol)
	}

	rec, err := t.forecasts.Train(ctx, symbol, history)
	if err != nil {
		return err
	}
	if err := t.store.Put(rec); err != nil {
		return fmt.Errorf("persist model record %s: %w", symbol, err)
	}

	t.log.Info("model trained",
		logger.String("symbol", symbol),
		logger.Float64("train_loss", rec.TrainLoss),
		logger.Int("samples", rec.Samples))
	return nil
}
