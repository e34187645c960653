// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Domain identifies which kind of items a session drills.
type Domain int

const (
	DomainArithmetic Domain = iota + 1
	DomainSpelling
)

var domainNames = [...]string{DomainArithmetic: "arithmetic", DomainSpelling: "spelling"}

// String returns the domain name used in mode keys and settings.
func (d Domain) String() string {
	if d.IsValid() {
		return domainNames[d]
	}
	return fmt.Sprintf("Domain(%d)", int(d))
}

// IsValid reports whether d is a known domain.
func (d Domain) IsValid() bool {
	return d == DomainArithmetic || d == DomainSpelling
}

// MarshalText implements encoding.TextMarshaler.
func (d Domain) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("invalid domain %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Domain) UnmarshalText(text []byte) error {
	parsed, ok := ParseDomain(string(text))
	if !ok {
		return fmt.Errorf("invalid domain %q", text)
	}
	*d = parsed
	return nil
}

// ParseDomain accepts the domain name or a short alias.
func ParseDomain(s string) (Domain, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arithmetic", "math", "mul", "times":
		return DomainArithmetic, true
	case "spelling", "spell", "words":
		return DomainSpelling, true
	default:
		return 0, false
	}
}

// Item is one practice unit. Arithmetic facts use X and Y; spelling items use
// the remaining fields.
type Item struct {
	ID       string
	Domain   Domain
	X        int
	Y        int
	Masked   string
	Full     string
	Options  []string
	Answer   int
	Category string
}

// HasCategory reports whether the item contributes to category stats.
func (it Item) HasCategory() bool {
	return it.Category != ""
}

// Product returns the expected answer of an arithmetic fact.
func (it Item) Product() int {
	return it.X * it.Y
}

// CorrectOption returns the correct fill for a spelling item.
func (it Item) CorrectOption() string {
	if it.Answer < 0 || it.Answer >= len(it.Options) {
		return ""
	}
	return it.Options[it.Answer]
}

// Prompt renders the question text.
func (it Item) Prompt() string {
	if it.Domain == DomainArithmetic {
		return fmt.Sprintf("%d × %d = ?", it.X, it.Y)
	}
	return it.Masked
}

// Solution renders the correct answer for feedback lines.
func (it Item) Solution() string {
	if it.Domain == DomainArithmetic {
		return fmt.Sprintf("%d", it.Product())
	}
	return it.Full
}

// PerformanceRecord counts attempts and failures for one item or category.
type PerformanceRecord struct {
	Attempts int `json:"attempts"`
	Wrongs   int `json:"wrongs"`
}

// Valid reports whether the counters are consistent.
func (r PerformanceRecord) Valid() bool {
	return r.Attempts >= 0 && r.Wrongs >= 0 && r.Wrongs <= r.Attempts
}

// Accuracy returns the share of correct attempts, 1 when never attempted.
func (r PerformanceRecord) Accuracy() float64 {
	if r.Attempts == 0 {
		return 1.0
	}
	return float64(r.Attempts-r.Wrongs) / float64(r.Attempts)
}

// BestRecord is the best completed session for one mode key.
type BestRecord struct {
	Score     int     `json:"score"`
	Total     int     `json:"total"`
	Time      float64 `json:"time"`
	Timestamp int64   `json:"timestamp"`
}

// IsBetter reports whether candidate beats old: strictly higher score, or the
// same score in strictly less time. A nil old record is always beaten.
func IsBetter(candidate BestRecord, old *BestRecord) bool {
	if old == nil {
		return true
	}
	if candidate.Score != old.Score {
		return candidate.Score > old.Score
	}
	return candidate.Time < old.Time
}

// ModeKey identifies a configuration for record keeping.
func ModeKey(domain Domain, tasks, seconds int) string {
	return fmt.Sprintf("%s|%d|%d", domain, tasks, seconds)
}

// Config defines practice settings.
type Config struct {
	Domain         Domain
	Tasks          int
	Seconds        int
	TableSize      int
	ContentPath    string
	ExclusionDepth int
	HistorySize    int
	Seed           int64
}

// Settings is the last-used configuration persisted between runs.
type Settings struct {
	Domain    string `json:"domain"`
	Tasks     int    `json:"tasks"`
	Seconds   int    `json:"seconds"`
	TableSize int    `json:"table_size"`
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Domain      string
	Last        int
	CurveWindow int
	Top         int
}

// SessionRecord captures a completed quiz session.
type SessionRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Domain    string    `json:"domain"`
	Tasks     int       `json:"tasks"`
	Seconds   int       `json:"seconds"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	ElapsedMs int64     `json:"elapsed_ms"`
}

// NamedRecord pairs an identifier with its performance counters.
type NamedRecord struct {
	ID     string
	Record PerformanceRecord
}
