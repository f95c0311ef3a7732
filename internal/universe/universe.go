package universe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"NightScan/internal/domain/models"
	"NightScan/pkg/util"
)

// Member is one universe entry.
type Member struct {
	Symbol string `yaml:"symbol"`
	Sector string `yaml:"sector"`
}

// Universe is the configured stock universe plus the benchmark used by
// the regime engine. Loaded once at startup; read-only afterwards.
type Universe struct {
	Benchmark string
	Members   []Member
	sectors   map[string]string
}

type universeFile struct {
	Benchmark string   `yaml:"benchmark"`
	Members   []Member `yaml:"members"`
}

// Load reads the universe file. An empty universe is a configuration
// error; the pipeline has nothing to scan.
func Load(path, defaultBenchmark string) (*Universe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}

	var f universeFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(f.Members) == 0 {
		return nil, fmt.Errorf("universe %s: no members", path)
	}

	benchmark := f.Benchmark
	if benchmark == "" {
		benchmark = defaultBenchmark
	}

	u := &Universe{
		Benchmark: benchmark,
		Members:   f.Members,
		sectors:   make(map[string]string, len(f.Members)),
	}
	for _, m := range f.Members {
		u.sectors[m.Symbol] = m.Sector
	}
	return u, nil
}

// Symbols returns the member symbols in file order.
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.Members))
	for i, m := range u.Members {
		out[i] = m.Symbol
	}
	return out
}

// Sector returns the member's sector, or "unknown".
func (u *Universe) Sector(symbol string) string {
	if s, ok := u.sectors[symbol]; ok && s != "" {
		return s
	}
	return "unknown"
}

// Truncate returns a copy limited to the first n members, used by test
// mode. The benchmark is preserved.
func (u *Universe) Truncate(n int) *Universe {
	if n <= 0 || n >= len(u.Members) {
		return u
	}
	out := &Universe{
		Benchmark: u.Benchmark,
		Members:   u.Members[:n],
		sectors:   u.sectors,
	}
	return out
}

type calendarRow struct {
	Symbol string `yaml:"symbol"`
	Type   string `yaml:"type"`
	Date   string `yaml:"date"`
}

type calendarFile struct {
	Events []calendarRow `yaml:"events"`
}

// Calendar is the parsed event calendar plus the symbols whose rows
// could not be parsed. Those symbols carry no event-risk information and
// must be treated conservatively downstream, never as zero risk.
type Calendar struct {
	Events    []models.EventRecord
	Malformed map[string]string // symbol -> first parse problem
}

// LoadCalendar reads the event calendar. Malformed rows are collected as
// warnings instead of failing the load; rows with no usable symbol are
// counted under "?".
func LoadCalendar(path string) (*Calendar, []error, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read calendar: %w", err)
	}

	var f calendarFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, nil, fmt.Errorf("parse calendar: %w", err)
	}

	cal := &Calendar{Malformed: make(map[string]string)}
	var warnings []error

	for i, row := range f.Events {
		symbol := row.Symbol
		if symbol == "" {
			symbol = "?"
		}

		bad := func(problem string) {
			warnings = append(warnings, fmt.Errorf("row %d (%s): %s: %w", i, symbol, problem, models.ErrCalendarParse))
			if _, seen := cal.Malformed[symbol]; !seen {
				cal.Malformed[symbol] = problem
			}
		}

		if row.Symbol == "" {
			bad("missing symbol")
			continue
		}
		et := models.EventType(row.Type)
		if !et.Valid() {
			bad(fmt.Sprintf("unknown event type %q", row.Type))
			continue
		}
		date, ok := util.ParseTime(row.Date)
		if !ok {
			bad(fmt.Sprintf("unparseable date %q", row.Date))
			continue
		}

		cal.Events = append(cal.Events, models.EventRecord{
			Symbol: row.Symbol,
			Type:   et,
			Date:   date,
		})
	}

	return cal, warnings, nil
}

// EventsFor returns the symbol's calendar rows.
func (c *Calendar) EventsFor(symbol string) []models.EventRecord {
	var out []models.EventRecord
	for _, e := range c.Events {
		if e.Symbol == symbol {
			out = append(out, e)
		}
	}
	return out
}

// HasMalformedRows reports whether the symbol had unusable calendar data.
func (c *Calendar) HasMalformedRows(symbol string) bool {
	_, ok := c.Malformed[symbol]
	return ok
}
