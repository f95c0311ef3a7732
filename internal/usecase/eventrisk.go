package usecase

import (
	"math"
	"time"

	"NightScan/internal/domain/models"
	"NightScan/internal/universe"
	"NightScan/pkg/config"
	"NightScan/pkg/util"
)

// EventRiskGuard derives the per-symbol risk verdict from the event
// calendar and the market regime.
type EventRiskGuard struct {
	cfg config.EventRiskConfig
	now func() time.Time
}

func NewEventRiskGuard(cfg config.EventRiskConfig) *EventRiskGuard {
	return &EventRiskGuard{cfg: cfg, now: time.Now}
}

// Assess evaluates one symbol. Inside the hard window around an event,
// skip_trading is set unconditionally. Outside it, event risk decays with
// distance and is blended with crash risk via the probabilistic OR
//
//	adjusted = event + (1 - event) * crash
//
// which is monotone in both inputs and bounded to [0,1]. Symbols whose
// calendar rows could not be parsed get no event-risk information but
// carry a data-quality note; they are never silently treated as risk-free.
func (g *EventRiskGuard) Assess(symbol string, cal *universe.Calendar, regime *models.RegimeState) models.EventRiskAssessment {
	now := g.now()
	out := models.EventRiskAssessment{Symbol: symbol}

	if cal != nil && cal.HasMalformedRows(symbol) {
		out.DataQualityNote = "event calendar rows unparseable; no event-risk information"
	}

	var events []models.EventRecord
	if cal != nil {
		events = cal.EventsFor(symbol)
	}

	if nearest, ok := g.nearestEvent(now, events); ok {
		days := util.DaysBetween(now, nearest.Date)
		out.HasEvent = true
		out.NearestEvent = nearest.Type
		out.DaysUntilEvent = days
		out.SkipTrading = g.inSkipWindow(now, nearest.Date)
		out.EventRisk = g.typeWeight(nearest.Type) * g.proximity(now, nearest.Date)
	}

	crash := 0.0
	if regime.Known() {
		crash = regime.CrashRisk
	}
	out.AdjustedRisk = util.Clamp(out.EventRisk+(1-out.EventRisk)*crash, 0, 1)
	out.PositionHaircut = g.haircut(out.AdjustedRisk, out.SkipTrading)

	return out
}

// nearestEvent picks the calendar row closest in absolute time.
func (g *EventRiskGuard) nearestEvent(now time.Time, events []models.EventRecord) (models.EventRecord, bool) {
	best := models.EventRecord{}
	bestDist := math.Inf(1)
	found := false
	for _, e := range events {
		d := math.Abs(util.DaysBetween(now, e.Date))
		if d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

func (g *EventRiskGuard) inSkipWindow(now, event time.Time) bool {
	return now.After(event.Add(-g.cfg.SkipWindowBefore)) &&
		now.Before(event.Add(g.cfg.SkipWindowAfter))
}

// proximity is 1 inside the hard skip window and decays linearly to zero
// at the edge of the elevated window on either side of the event.
func (g *EventRiskGuard) proximity(now, event time.Time) float64 {
	if g.inSkipWindow(now, event) {
		return 1
	}

	var inner, span, dist time.Duration
	if now.Before(event) {
		inner, span = g.cfg.SkipWindowBefore, g.cfg.ElevatedWindow
		dist = event.Sub(now)
	} else {
		inner, span = g.cfg.SkipWindowAfter, g.cfg.ElevatedWindow
		dist = now.Sub(event)
	}

	if span <= inner || dist >= span {
		return 0
	}
	return float64(span-dist) / float64(span-inner)
}

func (g *EventRiskGuard) typeWeight(t models.EventType) float64 {
	switch t {
	case models.EventRegulatory:
		return g.cfg.RegulatoryWeight
	case models.EventEarnings:
		return g.cfg.EarningsWeight
	case models.EventDividendEx:
		return g.cfg.DividendWeight
	case models.EventAGM:
		return g.cfg.AGMWeight
	}
	return 0
}

// haircut maps adjusted risk to the tiered position-size reduction. The
// hard skip always takes the full haircut.
func (g *EventRiskGuard) haircut(adjusted float64, skip bool) float64 {
	switch {
	case skip:
		return models.HaircutFull
	case adjusted >= g.cfg.HaircutHeavyAt:
		return models.HaircutHeavy
	case adjusted >= g.cfg.HaircutMediumAt:
		return models.HaircutMedium
	case adjusted >= g.cfg.HaircutLightAt:
		return models.HaircutLight
	}
	return models.HaircutNone
}
