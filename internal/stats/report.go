package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions   []model.SessionRecord
	Items      []model.NamedRecord
	Categories []model.NamedRecord
	Records    []store.KeyedRecord
	// Labels maps item ids to readable names; ids without a label print as is.
	Labels map[string]string
}

// Labels builds readable names for pool items. Spelling ids are hashes, so
// the full word is shown instead.
func Labels(pool []model.Item) map[string]string {
	out := make(map[string]string, len(pool))
	for _, it := range pool {
		if it.Domain == model.DomainSpelling && it.Full != "" {
			out[it.ID] = it.Full
		}
	}
	return out
}

// LabeledItems returns the item records with ids replaced by labels.
func (r Report) LabeledItems() []model.NamedRecord {
	if len(r.Labels) == 0 {
		return r.Items
	}
	out := make([]model.NamedRecord, len(r.Items))
	for i, rec := range r.Items {
		out[i] = rec
		if label, ok := r.Labels[rec.ID]; ok {
			out[i].ID = label
		}
	}
	return out
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, kv store.KV, cfg model.StatsConfig, opts ...store.Option) (Report, error) {
	sessions, err := store.NewSessions(kv, opts...).List(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	st, err := store.LoadStats(ctx, kv, opts...)
	if err != nil {
		return Report{}, err
	}
	records, err := store.NewRecords(kv, opts...).List(ctx)
	if err != nil {
		return Report{}, err
	}
	items := st.Items.All()
	if cfg.Top > 0 {
		items = SortByWeight(items, ItemWeight)
		if len(items) > cfg.Top {
			items = items[:cfg.Top]
		}
	}
	return Report{
		Sessions:   sessions,
		Items:      items,
		Categories: st.Categories.All(),
		Records:    records,
	}, nil
}

// Render prints the full plain-text report.
func (r Report) Render(w io.Writer, window, width int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderCurve(w, r.Sessions, window, width); err != nil {
		return err
	}
	if err := RenderBestRecords(w, r.Records); err != nil {
		return err
	}
	if err := RenderRecordTable(w, "Items", r.LabeledItems(), ItemWeight); err != nil {
		return err
	}
	return RenderRecordTable(w, "Categories", r.Categories, CategoryMultiplier)
}
