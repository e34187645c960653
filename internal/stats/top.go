package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

// Weakest returns the ids of the n heaviest records under weight.
func Weakest(recs []model.NamedRecord, n int, weight func(model.PerformanceRecord) float64) []string {
	if n <= 0 || len(recs) == 0 {
		return nil
	}
	sorted := SortByWeight(recs, weight)
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sorted[i].ID)
	}
	return out
}

// RenderBestRecords prints the best record for every mode key.
func RenderBestRecords(w io.Writer, recs []store.KeyedRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No records yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Best Records"); err != nil {
		return err
	}
	headers := []string{"Mode", "Score", "Time", "Set"}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		set := "-"
		if r.Record.Timestamp > 0 {
			set = time.UnixMilli(r.Record.Timestamp).Format("2006-01-02")
		}
		rows = append(rows, []string{
			r.ModeKey,
			fmt.Sprintf("%d/%d", r.Record.Score, r.Record.Total),
			fmt.Sprintf("%.1fs", r.Record.Time),
			set,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
