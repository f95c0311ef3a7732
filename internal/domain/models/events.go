package models

import "time"

// EventType enumerates known high-volatility calendar events.
type EventType string

const (
	EventEarnings   EventType = "earnings"
	EventDividendEx EventType = "dividend_ex_date"
	EventRegulatory EventType = "regulatory_report"
	EventAGM        EventType = "agm"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventEarnings, EventDividendEx, EventRegulatory, EventAGM:
		return true
	}
	return false
}

// EventRecord is one calendar row: symbol, event type, date. Static per run.
type EventRecord struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Type   EventType `yaml:"type" json:"type"`
	Date   time.Time `yaml:"-" json:"date"`
}

// Position-size haircut tiers applied as adjusted risk rises short of a hard
// skip. Values are fractions of the nominal position removed.
const (
	HaircutNone   = 0.0
	HaircutLight  = 0.20
	HaircutMedium = 0.45
	HaircutHeavy  = 0.70
	HaircutFull   = 1.0
)

// EventRiskAssessment is the per-symbol risk verdict for a run. Derived
// fresh each run and never mutated after creation.
type EventRiskAssessment struct {
	Symbol          string    `json:"symbol"`
	NearestEvent    EventType `json:"nearest_event,omitempty"`
	DaysUntilEvent  float64   `json:"days_until_event"` // negative when the event has passed
	HasEvent        bool      `json:"has_event"`
	EventRisk       float64   `json:"event_risk"`    // [0,1]
	AdjustedRisk    float64   `json:"adjusted_risk"` // event risk blended with crash risk
	SkipTrading     bool      `json:"skip_trading"`
	PositionHaircut float64   `json:"position_haircut"`
	DataQualityNote string    `json:"data_quality_note,omitempty"`
}
