package regime

import (
	"context"
	"fmt"
	"math"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/pkg/cache"
	"NightScan/pkg/config"
	"NightScan/pkg/logger"
	"NightScan/pkg/util"
)

const (
	// posteriorWindow is how many trailing returns feed the regime
	// posterior. Shorter than the fit window so the label tracks the
	// current market, not the whole history.
	posteriorWindow = 10

	// stickyThreshold guards against label flapping: the argmax state
	// must reach this posterior before the label switches away from the
	// previously cached one.
	stickyThreshold = 0.55

	tradingDaysPerYear = 252
)

var stateLabels = []string{models.RegimeCalm, models.RegimeNormal, models.RegimeHighVol}

// Engine classifies the market volatility regime from benchmark returns.
// The fit is seeded and the cache holds at most one state per calendar
// day, so a rerun within the same day returns the identical state.
type Engine struct {
	cfg   config.RegimeConfig
	cache cache.Service
	log   *logger.Logger
}

func NewEngine(cfg config.RegimeConfig, c cache.Service, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, cache: c, log: log}
}

// Analyse fits the mixture over the return window and derives the regime
// state for windowEnd's calendar day. With fewer than MinObservations
// returns it falls back to the cached state if one exists, otherwise it
// reports ErrInsufficientData alongside an unknown state.
func (e *Engine) Analyse(ctx context.Context, returns []float64, windowEnd time.Time) (*models.RegimeState, error) {
	key := cache.Key("regime", "state")

	var cached models.RegimeState
	haveCached := false
	if err := e.cache.Get(ctx, key, &cached); err == nil {
		haveCached = true
		if util.SameCalendarDay(cached.ComputedAt, windowEnd) {
			e.log.Debug("regime state served from cache",
				logger.String("label", cached.Label))
			return &cached, nil
		}
	}

	if len(returns) < e.cfg.MinObservations {
		if haveCached {
			e.log.Warn("regime window too short, holding previous state",
				logger.Int("observations", len(returns)),
				logger.String("label", cached.Label))
			return &cached, nil
		}
		return &models.RegimeState{Label: models.RegimeUnknown, ComputedAt: windowEnd},
			fmt.Errorf("regime: %d observations: %w", len(returns), models.ErrInsufficientData)
	}

	mixture := fitGMM(returns, e.cfg.States, e.cfg.Seed)

	tail := returns
	if len(tail) > posteriorWindow {
		tail = tail[len(tail)-posteriorWindow:]
	}
	post := mixture.posterior(tail)

	probs := make(map[string]float64, len(stateLabels))
	for i, p := range post {
		probs[labelFor(i, len(post))] += p
	}

	label := argmaxLabel(probs)
	if haveCached && cached.Label != label && cached.Known() {
		if probs[label] < stickyThreshold {
			label = cached.Label
		}
	}

	dailyVol := e.ewmaVol(returns)
	annVol := dailyVol * math.Sqrt(tradingDaysPerYear)

	state := &models.RegimeState{
		Label:         label,
		Probabilities: probs,
		DailyVol:      dailyVol,
		AnnualizedVol: annVol,
		CrashRisk:     crashRisk(probs[models.RegimeHighVol], dailyVol, returns),
		WindowStart:   windowEnd.AddDate(0, 0, -len(returns)),
		WindowEnd:     windowEnd,
		ComputedAt:    windowEnd,
	}

	if err := e.cache.Set(ctx, key, state, e.cfg.CacheTTL); err != nil {
		e.log.Warn("regime cache write failed", logger.Error(err))
	}

	e.log.Info("regime computed",
		logger.String("label", state.Label),
		logger.Float64("crash_risk", state.CrashRisk),
		logger.Float64("annualized_vol", state.AnnualizedVol))
	return state, nil
}

// ewmaVol applies the RiskMetrics recursion over the full window and
// returns the final daily volatility.
func (e *Engine) ewmaVol(returns []float64) float64 {
	lambda := e.cfg.EWMALambda
	variance := 0.0
	for _, r := range returns {
		variance = lambda*variance + (1-lambda)*r*r
	}
	return math.Sqrt(variance)
}

// crashRisk blends the high-vol posterior with how far current EWMA vol
// sits above the window's baseline vol. Bounded [0,1] by construction.
func crashRisk(pHighVol, dailyVol float64, returns []float64) float64 {
	base := stddev(returns)
	z := 0.0
	if base > 0 {
		z = (dailyVol - base) / base
	}
	// Logistic squash of the vol excess: z=0 maps to 0.5, strongly
	// elevated vol saturates toward 1.
	volComponent := 1.0 / (1.0 + math.Exp(-2.0*z))

	risk := 0.6*pHighVol + 0.4*volComponent
	return util.Clamp(risk, 0, 1)
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	v := 0.0
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return math.Sqrt(v / float64(len(xs)-1))
}

// labelFor maps a variance-sorted component index to a regime label.
// The lowest-variance component is calm, the highest is high_vol, and
// everything between folds into normal, so any configured component
// count projects onto the same three-label surface with no posterior
// mass lost.
func labelFor(i, n int) string {
	switch {
	case i == 0:
		return models.RegimeCalm
	case i == n-1:
		return models.RegimeHighVol
	default:
		return models.RegimeNormal
	}
}

func argmaxLabel(probs map[string]float64) string {
	best := math.Inf(-1)
	label := models.RegimeUnknown
	for _, l := range stateLabels {
		if p, ok := probs[l]; ok && p > best {
			best, label = p, l
		}
	}
	return label
}
