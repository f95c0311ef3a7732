package logger

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// WarningEntry is one deduplicated warning or error observed during a run.
type WarningEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// WarningCollector aggregates warn/error log events for one pipeline run so
// they can be surfaced in the run summary's data-quality section. Entries
// are deduplicated on (level, message, fields).
type WarningCollector struct {
	mu      sync.Mutex
	entries map[string]*WarningEntry
}

func NewWarningCollector() *WarningCollector {
	return &WarningCollector{entries: make(map[string]*WarningEntry)}
}

// Add records one event, merging it into an existing entry when the same
// event was already seen.
func (c *WarningCollector) Add(level, message string, fields map[string]interface{}) {
	now := time.Now()
	key := c.key(level, message, fields)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	c.entries[key] = &WarningEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// Drain returns the collected entries ordered by first occurrence and
// resets the collector.
func (c *WarningCollector) Drain() []WarningEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]WarningEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	c.entries = make(map[string]*WarningEntry)

	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out
}

// Summaries renders the entries as one-line strings for the run state file.
func (c *WarningCollector) Summaries() []string {
	entries := c.Drain()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("[%s] %s", e.Level, e.Message)
		if sym, ok := e.Fields["symbol"]; ok {
			line += fmt.Sprintf(" symbol=%v", sym)
		}
		if e.Count > 1 {
			line += fmt.Sprintf(" (x%d)", e.Count)
		}
		out = append(out, line)
	}
	return out
}

func (c *WarningCollector) key(level, message string, fields map[string]interface{}) string {
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}{level, message, fields}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}
