package forecast

import (
	"context"
	"fmt"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/domain/service"
	"NightScan/pkg/config"
	xhttp "NightScan/pkg/http"
	"NightScan/pkg/util"
)

// Client bridges to the external time-series modeling capability. The
// model architecture lives behind the HTTP boundary; this side only
// submits history and reads back directional forecasts.
type Client struct {
	cfg    config.ForecastConfig
	client *xhttp.Client
}

func NewClient(cfg config.ForecastConfig) *Client {
	return &Client{
		cfg: cfg,
		client: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithRetry(cfg.RetryMax, 500*time.Millisecond),
		),
	}
}

var _ service.ForecastService = (*Client)(nil)

type candlePayload struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type trainRequest struct {
	Symbol  string          `json:"symbol"`
	Candles []candlePayload `json:"candles"`
}

type trainResponse struct {
	Symbol       string  `json:"symbol"`
	ArtifactPath string  `json:"artifact_path"`
	TrainLoss    float64 `json:"train_loss"`
	Samples      int     `json:"samples"`
}

type predictResponse struct {
	Symbol     string  `json:"symbol"`
	Direction  float64 `json:"direction"`  // [-1,1]
	Confidence float64 `json:"confidence"` // [0,1]
	Trained    bool    `json:"trained"`
}

// Train submits the symbol's history for model fitting and returns the
// resulting model record.
func (c *Client) Train(ctx context.Context, symbol string, history []models.Candle) (*models.ModelRecord, error) {
	var resp trainResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.BaseURL + "/v1/train",
		Body:   trainRequest{Symbol: symbol, Candles: toPayload(history)},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("forecast train %s: %w", symbol, err)
	}

	return &models.ModelRecord{
		Symbol:       symbol,
		TrainedAt:    time.Now().UTC(),
		ArtifactPath: resp.ArtifactPath,
		TrainLoss:    resp.TrainLoss,
		Samples:      resp.Samples,
	}, nil
}

// Predict asks the trained model for a next-day directional forecast.
func (c *Client) Predict(ctx context.Context, symbol string, history []models.Candle) (service.Forecast, error) {
	var resp predictResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.BaseURL + "/v1/predict",
		Body:   trainRequest{Symbol: symbol, Candles: toPayload(history)},
	}, &resp)
	if err != nil {
		return service.Forecast{}, fmt.Errorf("forecast predict %s: %w", symbol, err)
	}
	if !resp.Trained {
		return service.Forecast{}, fmt.Errorf("forecast predict %s: %w", symbol, models.ErrModelUnavailable)
	}

	return service.Forecast{
		Direction:    util.Clamp(resp.Direction, -1, 1),
		Confidence:   util.Clamp(resp.Confidence, 0, 1),
		ModelTrained: true,
	}, nil
}

func toPayload(history []models.Candle) []candlePayload {
	out := make([]candlePayload, len(history))
	for i, c := range history {
		out[i] = candlePayload{
			Date:   util.DateStamp(c.Date),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		}
	}
	return out
}
