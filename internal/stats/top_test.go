package stats

import (
	"testing"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

func TestWeakest(t *testing.T) {
	recs := []model.NamedRecord{
		{ID: "2×2", Record: model.PerformanceRecord{Attempts: 4, Wrongs: 0}},
		{ID: "7×8", Record: model.PerformanceRecord{Attempts: 4, Wrongs: 3}},
		{ID: "6×7", Record: model.PerformanceRecord{Attempts: 0, Wrongs: 0}},
	}
	top := Weakest(recs, 2, ItemWeight)
	if len(top) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(top))
	}
	if top[0] != "7×8" || top[1] != "6×7" {
		t.Fatalf("unexpected order: %v", top)
	}
	if got := Weakest(recs, 0, ItemWeight); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
