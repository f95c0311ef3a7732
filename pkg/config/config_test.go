package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"NightScan/internal/domain/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validBody = `
providers:
  primary:
    name: marketfeed
    base_url: http://localhost:9101
forecast:
  base_url: http://localhost:9104
sentiment:
  base_url: http://localhost:9103
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validBody))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.TopN != 10 {
		t.Fatalf("TopN default = %d, want 10", cfg.Pipeline.TopN)
	}
	if cfg.Ensemble.ForecastWeight != 0.45 {
		t.Fatalf("forecast weight default = %v, want 0.45", cfg.Ensemble.ForecastWeight)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	body := validBody + `
ensemble:
  forecast_weight: 0.9
  trend_weight: 0.9
  technical_weight: 0.1
  sentiment_weight: 0.1
`
	_, err := Load(writeConfig(t, body))
	if err == nil {
		t.Fatal("want validation error for weights summing to 2.0")
	}
	if !errors.Is(err, models.ErrConfigValidation) {
		t.Fatalf("err = %v, want ErrConfigValidation", err)
	}
}

func TestLoadRejectsMissingPrimaryProvider(t *testing.T) {
	body := `
forecast:
  base_url: http://localhost:9104
sentiment:
  enabled: false
`
	_, err := Load(writeConfig(t, body))
	if !errors.Is(err, models.ErrConfigValidation) {
		t.Fatalf("err = %v, want ErrConfigValidation", err)
	}
}
