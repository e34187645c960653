package session

import (
	"github.com/verte-zerg/tuiquiz/internal/content"
	"github.com/verte-zerg/tuiquiz/internal/history"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/selector"
)

const (
	DefaultTasks   = 10
	DefaultSeconds = 10
	MinSeconds     = 3
	MaxSeconds     = 120
)

// Normalize fills defaults and clamps cfg to the supported ranges. A zero
// seconds value selects the default; any other value is clamped. An unset
// exclusion depth selects selector.DefaultDepth.
func Normalize(cfg model.Config) model.Config {
	if !cfg.Domain.IsValid() {
		cfg.Domain = model.DomainArithmetic
	}
	if cfg.Tasks <= 0 {
		cfg.Tasks = DefaultTasks
	}
	switch {
	case cfg.Seconds == 0:
		cfg.Seconds = DefaultSeconds
	case cfg.Seconds < MinSeconds:
		cfg.Seconds = MinSeconds
	case cfg.Seconds > MaxSeconds:
		cfg.Seconds = MaxSeconds
	}
	cfg.TableSize = content.ClampTableSize(cfg.TableSize)
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = history.DefaultSize
	}
	if cfg.ExclusionDepth <= 0 {
		cfg.ExclusionDepth = selector.DefaultDepth
	}
	if cfg.ExclusionDepth > cfg.HistorySize {
		cfg.ExclusionDepth = cfg.HistorySize
	}
	return cfg
}

// Verdict returns the closing message for score out of total.
func Verdict(score, total int) string {
	if total <= 0 {
		return "No questions answered."
	}
	pct := float64(score) / float64(total) * 100
	switch {
	case pct >= 95:
		return "Phenomenal! Complete mastery."
	case pct >= 85:
		return "Fantastic work! Keep it up!"
	case pct >= 70:
		return "Great job! You're getting very strong."
	case pct >= 50:
		return "Good effort. Practice makes perfect!"
	default:
		return "Keep practicing. You'll crush it next time!"
	}
}
