package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "tuiquiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	log := store.NewSessions(st)
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		_, err := log.Insert(ctx, model.SessionRecord{
			StartedAt: start,
			EndedAt:   start.Add(30 * time.Second),
			Domain:    "arithmetic",
			Tasks:     5,
			Seconds:   10,
			Score:     3 + i%2,
			Total:     5,
			ElapsedMs: 30000,
		})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	counters, err := store.LoadStats(ctx, st)
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	_ = counters.Record(ctx, model.Item{ID: "7×8", Domain: model.DomainArithmetic}, false)
	_ = counters.Record(ctx, model.Item{ID: "2×2", Domain: model.DomainArithmetic}, true)
	_ = counters.Record(ctx, model.Item{ID: "sp:x", Domain: model.DomainSpelling, Category: "ei/ie"}, false)
	if _, _, err := store.NewRecords(st).Submit(ctx, model.ModeKey(model.DomainArithmetic, 5, 10), model.BestRecord{Score: 4, Total: 5, Time: 30}); err != nil {
		t.Fatalf("submit record: %v", err)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Domain: "arithmetic", Last: 2, Top: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if len(report.Items) != 2 || report.Items[0].ID != "7×8" || report.Items[1].ID != "sp:x" {
		t.Fatalf("unexpected items: %+v", report.Items)
	}
	if len(report.Categories) != 1 || len(report.Records) != 1 {
		t.Fatalf("unexpected categories/records: %+v %+v", report.Categories, report.Records)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, 2, 40); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Best Records", "arithmetic|5|10", "Items", "Categories", "ei/ie"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestSparklineFlatAndRange(t *testing.T) {
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("flat sparkline = %q", got)
	}
	got := Sparkline([]float64{0, 100})
	if got != " @" {
		t.Fatalf("range sparkline = %q", got)
	}
}

func TestSessionMetrics(t *testing.T) {
	acc, secs := SessionMetrics(4, 5, 20000)
	if acc != 0.8 || secs != 4 {
		t.Fatalf("metrics = %v %v", acc, secs)
	}
	if acc, secs := SessionMetrics(0, 0, 100); acc != 0 || secs != 0 {
		t.Fatalf("expected zero metrics for empty session")
	}
}

func TestLabeledItems(t *testing.T) {
	pool := []model.Item{
		{ID: "sp:1", Domain: model.DomainSpelling, Full: "believe"},
		{ID: "3×7", Domain: model.DomainArithmetic, X: 3, Y: 7},
	}
	r := Report{
		Items:  []model.NamedRecord{{ID: "sp:1"}, {ID: "3×7"}, {ID: "sp:gone"}},
		Labels: Labels(pool),
	}
	got := r.LabeledItems()
	if got[0].ID != "believe" || got[1].ID != "3×7" || got[2].ID != "sp:gone" {
		t.Fatalf("unexpected labels: %+v", got)
	}
	if r.Items[0].ID != "sp:1" {
		t.Fatalf("labeling must not modify the report")
	}
}
