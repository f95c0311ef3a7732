package repository

import (
	"context"
	"fmt"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/pkg/kafka"
	"NightScan/pkg/logger"
)

// Notification event kinds on the wire.
const (
	eventRunCompleted = "run_completed"
	eventRunFailed    = "run_failed"
)

type completionEvent struct {
	Event         string                    `json:"event"`
	RunID         string                    `json:"run_id"`
	Mode          string                    `json:"mode"`
	StartedAt     time.Time                 `json:"started_at"`
	EndedAt       time.Time                 `json:"ended_at"`
	Regime        string                    `json:"regime,omitempty"`
	CrashRisk     float64                   `json:"crash_risk,omitempty"`
	Stats         models.RunStats           `json:"stats"`
	Opportunities []models.OpportunityScore `json:"top_opportunities,omitempty"`
	Warnings      int                       `json:"warnings"`
}

type errorEvent struct {
	Event      string    `json:"event"`
	RunID      string    `json:"run_id"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaNotifier publishes run completion and failure events to the
// notification topic. Delivery is fire-and-forget from the pipeline's
// point of view; failures surface as run warnings only.
type KafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

var _ service.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, log: log}
}

func (n *KafkaNotifier) SendCompletion(ctx context.Context, state *models.PipelineRunState) error {
	ev := completionEvent{
		Event:         eventRunCompleted,
		RunID:         state.RunID,
		Mode:          state.Mode,
		StartedAt:     state.StartedAt,
		EndedAt:       state.EndedAt,
		Stats:         state.Stats,
		Opportunities: state.Opportunities,
		Warnings:      len(state.Warnings),
	}
	if state.Regime != nil {
		ev.Regime = state.Regime.Label
		ev.CrashRisk = state.Regime.CrashRisk
	}

	if err := n.producer.Publish(ctx, state.RunID, ev); err != nil {
		return fmt.Errorf("publish completion: %w", err)
	}
	n.log.Info("completion notification sent", logger.String("run_id", state.RunID))
	return nil
}

func (n *KafkaNotifier) SendError(ctx context.Context, runID string, runErr error) error {
	ev := errorEvent{
		Event:      eventRunFailed,
		RunID:      runID,
		Error:      runErr.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if err := n.producer.Publish(ctx, runID, ev); err != nil {
		return fmt.Errorf("publish error event: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// LogNotifier is the fallback when kafka is disabled: notifications go to
// the log so a bare deployment still surfaces run outcomes.
type LogNotifier struct {
	log *logger.Logger
}

var _ service.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendCompletion(ctx context.Context, state *models.PipelineRunState) error {
	n.log.Info("run completed",
		logger.String("run_id", state.RunID),
		logger.Int("opportunities", len(state.Opportunities)),
		logger.Int("models_trained", state.Stats.ModelsTrained),
		logger.Int("warnings", len(state.Warnings)))
	return nil
}

func (n *LogNotifier) SendError(ctx context.Context, runID string, runErr error) error {
	n.log.Error("run failed",
		logger.String("run_id", runID),
		logger.Error(runErr))
	return nil
}
