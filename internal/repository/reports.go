package repository

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"NightScan/internal/domain/models"
	domrepo "NightScan/internal/domain/repository"
	"NightScan/pkg/util"
)

// FileReportWriter renders the run artifacts into a date-stamped output
// directory: JSON summary, opportunity CSV, event-risk CSV and the HTML
// overview.
type FileReportWriter struct {
	dir string
	now func() time.Time
}

var _ domrepo.ReportWriter = (*FileReportWriter)(nil)

func NewFileReportWriter(dir string) (*FileReportWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileReportWriter{dir: dir, now: time.Now}, nil
}

func (w *FileReportWriter) stamp() string {
	return util.DateStamp(w.now())
}

func (w *FileReportWriter) WriteJSON(state *models.PipelineRunState) (string, error) {
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run summary: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("summary-%s.json", w.stamp()))
	if err := atomicWrite(path, b); err != nil {
		return "", err
	}
	return path, nil
}

func (w *FileReportWriter) WriteCSV(scores []models.OpportunityScore) (string, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{"symbol", "sector", "score", "signal", "confidence", "direction", "haircut"}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, sc := range scores {
		direction := 0.0
		if sc.Prediction != nil {
			direction = sc.Prediction.Direction
		}
		haircut := 0.0
		if sc.Risk != nil {
			haircut = sc.Risk.PositionHaircut
		}
		row := []string{
			sc.Symbol,
			sc.Sector,
			formatFloat(sc.Score),
			string(sc.Signal),
			formatFloat(sc.Confidence),
			formatFloat(direction),
			formatFloat(haircut),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("opportunities-%s.csv", w.stamp()))
	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func (w *FileReportWriter) WriteEventRiskCSV(scores []models.OpportunityScore) (string, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{"symbol", "nearest_event", "days_until", "event_risk", "adjusted_risk", "skip_trading", "haircut", "data_quality"}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, sc := range scores {
		if sc.Risk == nil {
			continue
		}
		r := sc.Risk
		row := []string{
			sc.Symbol,
			string(r.NearestEvent),
			formatFloat(r.DaysUntilEvent),
			formatFloat(r.EventRisk),
			formatFloat(r.AdjustedRisk),
			strconv.FormatBool(r.SkipTrading),
			formatFloat(r.PositionHaircut),
			r.DataQualityNote,
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("event-risk-%s.csv", w.stamp()))
	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Overnight Scan {{.Date}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 10px; text-align: left; }
.skip { color: #a00; }
.buy { color: #070; font-weight: bold; }
</style>
</head>
<body>
<h1>Overnight Scan &mdash; {{.Date}}</h1>
<p>Run {{.State.RunID}} ({{.State.Mode}} mode), started {{.State.StartedAt.Format "15:04:05 MST"}}.</p>

{{with .State.Regime}}
<h2>Market Regime</h2>
<p>Regime <b>{{.Label}}</b>, annualized volatility {{pct .AnnualizedVol}}, crash risk {{printf "%.2f" .CrashRisk}}.</p>
{{end}}

<h2>Top Opportunities</h2>
<table>
<tr><th>Symbol</th><th>Sector</th><th>Score</th><th>Signal</th><th>Confidence</th></tr>
{{range .State.Opportunities}}
<tr>
<td>{{.Symbol}}</td><td>{{.Sector}}</td><td>{{printf "%.1f" .Score}}</td>
<td class="{{if eq .Signal "SKIP"}}skip{{else if eq .Signal "BUY"}}buy{{end}}">{{.Signal}}</td>
<td>{{printf "%.2f" .Confidence}}</td>
</tr>
{{end}}
</table>

<h2>Sectors</h2>
<table>
<tr><th>Sector</th><th>Symbols</th><th>Avg Score</th><th>Buys</th><th>Skips</th></tr>
{{range .State.Sectors}}
<tr><td>{{.Sector}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .AvgScore}}</td><td>{{.Buys}}</td><td>{{.Skips}}</td></tr>
{{end}}
</table>

<h2>Run Stats</h2>
<p>Scanned {{.State.Stats.StocksScanned}}, skipped {{.State.Stats.StocksSkipped}},
signals {{.State.Stats.SignalsBuilt}}, excluded {{.State.Stats.SymbolsExcluded}},
models trained {{.State.Stats.ModelsTrained}} (failed {{.State.Stats.TrainingFailed}}),
skip overrides {{.State.Stats.SkipOverrides}}.</p>

{{if .State.Warnings}}
<h2>Warnings</h2>
<ul>
{{range .State.Warnings}}<li>{{.}}</li>{{end}}
</ul>
{{end}}

{{if .State.DataQuality}}
<h2>Data quality</h2>
<ul>
{{range .State.DataQuality}}<li>{{.}}</li>{{end}}
</ul>
{{end}}
</body>
</html>
`))

func (w *FileReportWriter) WriteHTML(state *models.PipelineRunState, scores []models.OpportunityScore) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Date   string
		State  *models.PipelineRunState
		Scores []models.OpportunityScore
	}{
		Date:   w.stamp(),
		State:  state,
		Scores: scores,
	}
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html report: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("report-%s.html", w.stamp()))
	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
