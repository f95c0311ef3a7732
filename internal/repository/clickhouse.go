package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"NightScan/internal/domain/models"
	domrepo "NightScan/internal/domain/repository"
	"NightScan/pkg/clickhouse"
)

// Schema DDL, idempotent.
var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS candles (
		symbol LowCardinality(String),
		date   Date,
		open   Float64,
		high   Float64,
		low    Float64,
		close  Float64,
		volume Float64
	) ENGINE = ReplacingMergeTree()
	ORDER BY (symbol, date)`,

	`CREATE TABLE IF NOT EXISTS runs (
		run_id     String,
		mode       LowCardinality(String),
		started_at DateTime,
		ended_at   DateTime,
		failed     UInt8,
		regime     LowCardinality(String),
		crash_risk Float64,
		stats      String,
		warnings   UInt32
	) ENGINE = MergeTree()
	ORDER BY started_at`,

	`CREATE TABLE IF NOT EXISTS opportunities (
		run_id     String,
		symbol     LowCardinality(String),
		sector     LowCardinality(String),
		score      Float64,
		signal     LowCardinality(String),
		confidence Float64,
		adjusted_risk Float64,
		haircut    Float64,
		created_at DateTime
	) ENGINE = MergeTree()
	ORDER BY (run_id, score)`,
}

// CHCandleStore persists fetched daily candles for later training runs
// and offline analysis.
type CHCandleStore struct {
	client *clickhouse.Client
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)

func NewCHCandleStore(ctx context.Context, client *clickhouse.Client) (*CHCandleStore, error) {
	if err := client.InitSchema(ctx, clickhouseSchema); err != nil {
		return nil, err
	}
	return &CHCandleStore{client: client}, nil
}

func (s *CHCandleStore) StoreCandles(ctx context.Context, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin candle batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO candles (symbol, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare candle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.Symbol, c.Date, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert candle %s %s: %w", c.Symbol, c.Date.Format("2006-01-02"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit candle batch: %w", err)
	}
	return nil
}

func (s *CHCandleStore) LatestCandles(ctx context.Context, symbol string, n int) ([]models.Candle, error) {
	rows, err := s.client.DB().QueryContext(ctx,
		`SELECT symbol, date, open, high, low, close, volume
		 FROM candles FINAL
		 WHERE symbol = ?
		 ORDER BY date DESC
		 LIMIT ?`, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("query candles %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.Date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}

	// Reverse into ascending order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *CHCandleStore) Close() error { return nil }

// CHResultSink records each run's summary and scored symbols for the
// run-history views.
type CHResultSink struct {
	client *clickhouse.Client
}

var _ domrepo.ResultSink = (*CHResultSink)(nil)

func NewCHResultSink(ctx context.Context, client *clickhouse.Client) (*CHResultSink, error) {
	if err := client.InitSchema(ctx, clickhouseSchema); err != nil {
		return nil, err
	}
	return &CHResultSink{client: client}, nil
}

func (s *CHResultSink) StoreRun(ctx context.Context, state *models.PipelineRunState, scores []models.OpportunityScore) error {
	statsJSON, err := json.Marshal(state.Stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}

	regimeLabel, crashRisk := "", 0.0
	if state.Regime != nil {
		regimeLabel = state.Regime.Label
		crashRisk = state.Regime.CrashRisk
	}

	failed := 0
	if state.Failed {
		failed = 1
	}

	if _, err := s.client.DB().ExecContext(ctx,
		`INSERT INTO runs (run_id, mode, started_at, ended_at, failed, regime, crash_risk, stats, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.RunID, state.Mode, state.StartedAt, state.EndedAt, failed,
		regimeLabel, crashRisk, string(statsJSON), uint32(len(state.Warnings))); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(scores) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin opportunity batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO opportunities (run_id, symbol, sector, score, signal, confidence, adjusted_risk, haircut, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare opportunity insert: %w", err)
	}
	defer stmt.Close()

	for _, sc := range scores {
		adjusted, haircut := 0.0, 0.0
		if sc.Risk != nil {
			adjusted = sc.Risk.AdjustedRisk
			haircut = sc.Risk.PositionHaircut
		}
		if _, err := stmt.ExecContext(ctx, state.RunID, sc.Symbol, sc.Sector, sc.Score,
			string(sc.Signal), sc.Confidence, adjusted, haircut, sc.Timestamp); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert opportunity %s: %w", sc.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit opportunity batch: %w", err)
	}
	return nil
}

func (s *CHResultSink) Close() error { return nil }
