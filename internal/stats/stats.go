// Package stats contains the weight model plus statistics calculations and
// reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes accuracy and mean seconds per task for a session.
func SessionMetrics(score, total int, elapsedMs int64) (accuracy, secsPerTask float64) {
	if total <= 0 {
		return 0, 0
	}
	accuracy = float64(score) / float64(total)
	secsPerTask = float64(elapsedMs) / 1000.0 / float64(total)
	return accuracy, secsPerTask
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Summary aggregates a list of sessions.
type Summary struct {
	Sessions       int
	AvgAccuracy    float64
	BestAccuracy   float64
	AvgSecsPerTask float64
	Answered       int
}

// Summarize aggregates sessions.
func Summarize(sessions []model.SessionRecord) Summary {
	var s Summary
	if len(sessions) == 0 {
		return s
	}
	var totalAcc, totalSecs float64
	for _, rec := range sessions {
		acc, secs := SessionMetrics(rec.Score, rec.Total, rec.ElapsedMs)
		totalAcc += acc
		totalSecs += secs
		s.BestAccuracy = math.Max(s.BestAccuracy, acc)
		s.Answered += rec.Total
	}
	s.Sessions = len(sessions)
	s.AvgAccuracy = totalAcc / float64(len(sessions))
	s.AvgSecsPerTask = totalSecs / float64(len(sessions))
	return s
}

// RenderSummary prints a summary for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Questions: %d", s.Answered),
		fmt.Sprintf("Avg Accuracy: %.2f%%", s.AvgAccuracy*100),
		fmt.Sprintf("Best Accuracy: %.2f%%", s.BestAccuracy*100),
		fmt.Sprintf("Avg Time/Task: %.2fs", s.AvgSecsPerTask),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// AccuracyCurve returns per-session accuracy percentages smoothed over window.
func AccuracyCurve(sessions []model.SessionRecord, window int) []float64 {
	values := make([]float64, len(sessions))
	for i, s := range sessions {
		acc, _ := SessionMetrics(s.Score, s.Total, s.ElapsedMs)
		values[i] = acc * 100
	}
	return MovingAverage(values, window)
}

// RenderCurve prints the smoothed accuracy sparkline, keeping the most recent
// width points.
func RenderCurve(w io.Writer, sessions []model.SessionRecord, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	curve := AccuracyCurve(sessions, window)
	if width > 0 && len(curve) > width {
		curve = curve[len(curve)-width:]
	}
	if _, err := fmt.Fprintf(w, "Accuracy (window %d)\n", window); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[%s] %.1f%%\n\n", Sparkline(curve), curve[len(curve)-1]); err != nil {
		return err
	}
	return nil
}

// RenderRecordTable prints per-id counters, weakest first.
func RenderRecordTable(w io.Writer, title string, recs []model.NamedRecord, weight func(model.PerformanceRecord) float64) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintf(w, "No %s stats found.\n", strings.ToLower(title))
		return err
	}
	sorted := SortByWeight(recs, weight)
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := []string{"Id", "Accuracy", "Weight", "Attempts", "Wrong"}
	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, []string{
			r.ID,
			fmt.Sprintf("%.2f%%", r.Record.Accuracy()*100),
			fmt.Sprintf("%.3f", weight(r.Record)),
			fmt.Sprintf("%d", r.Record.Attempts),
			fmt.Sprintf("%d", r.Record.Wrongs),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SortByWeight orders records by descending weight, then id.
func SortByWeight(recs []model.NamedRecord, weight func(model.PerformanceRecord) float64) []model.NamedRecord {
	out := append([]model.NamedRecord(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := weight(out[i].Record), weight(out[j].Record)
		if wi == wj {
			return out[i].ID < out[j].ID
		}
		return wi > wj
	})
	return out
}
