package statsui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

func seededKV(t *testing.T) store.KV {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemory()
	st, err := store.LoadStats(ctx, kv)
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	_ = st.Record(ctx, model.Item{ID: "sp:1", Domain: model.DomainSpelling, Category: "ei/ie"}, false)
	_ = st.Record(ctx, model.Item{ID: "3×7", Domain: model.DomainArithmetic}, true)
	if _, err := store.NewSessions(kv).Insert(ctx, model.SessionRecord{Domain: "spelling", Tasks: 4, Seconds: 10, Score: 3, Total: 4, ElapsedMs: 20000}); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if _, _, err := store.NewRecords(kv).Submit(ctx, "spelling|4|10", model.BestRecord{Score: 3, Total: 4, Time: 20}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return kv
}

func TestTabsRenderReport(t *testing.T) {
	m := NewModel(seededKV(t), model.StatsConfig{CurveWindow: 5}, map[string]string{"sp:1": "believe"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if out := m.View(); !strings.Contains(out, "Sessions") || !strings.Contains(out, "Weakest") {
		t.Fatalf("overview missing content:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "believe") || !strings.Contains(out, "3×7") {
		t.Fatalf("items tab missing rows:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "ei/ie") {
		t.Fatalf("categories tab missing rows:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "spelling|4|10") {
		t.Fatalf("records tab missing rows:\n%s", out)
	}
}

func TestApplyFilter(t *testing.T) {
	m := NewModel(store.NewMemory(), model.StatsConfig{CurveWindow: 1}, nil)
	m.filterInputs[0].SetValue("spell")
	m.filterInputs[1].SetValue("10")
	m.filterInputs[2].SetValue("")
	m.filterInputs[3].SetValue("3")
	if err := m.applyFilter(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.cfg.Domain != "spelling" || m.cfg.Last != 10 || m.cfg.CurveWindow != 1 || m.cfg.Top != 3 {
		t.Fatalf("unexpected config %+v", m.cfg)
	}
	m.filterInputs[0].SetValue("chess")
	if err := m.applyFilter(); err == nil {
		t.Fatalf("expected invalid domain error")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(1) != 5 || nextCurveWindow(7) != 10 || prevCurveWindow(10) != 5 || prevCurveWindow(5) != 1 {
		t.Fatalf("unexpected curve window steps")
	}
}
