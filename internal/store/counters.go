package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Namespaces of the two stat families.
const (
	ItemStatsNS     = "stats.items"
	CategoryStatsNS = "stats.categories"
)

// Counters holds attempt/failure counters for one namespace. Reads are served
// from memory; every mutation is written through before returning.
type Counters struct {
	ns   Namespace
	recs map[string]model.PerformanceRecord
	warn func(format string, args ...any)
}

// LoadCounters reads every record of the namespace. Values that fail to
// decode, or decode to inconsistent counters, are reported and treated as
// absent.
func LoadCounters(ctx context.Context, kv KV, name string, opts ...Option) (*Counters, error) {
	o := buildOptions(opts)
	c := &Counters{
		ns:   NewNamespace(kv, name),
		recs: map[string]model.PerformanceRecord{},
		warn: o.warn,
	}
	entries, err := c.ns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	for _, e := range entries {
		var rec model.PerformanceRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			c.warn("ignoring corrupt %s record %q: %v\n", name, e.Key, err)
			continue
		}
		if !rec.Valid() {
			c.warn("ignoring inconsistent %s record %q: %+v\n", name, e.Key, rec)
			continue
		}
		c.recs[e.Key] = rec
	}
	return c, nil
}

// Get returns the record for id.
func (c *Counters) Get(id string) (model.PerformanceRecord, bool) {
	rec, ok := c.recs[id]
	return rec, ok
}

// RecordOutcome increments attempts, and wrongs when correct is false. The
// in-memory record is updated even when the flush fails.
func (c *Counters) RecordOutcome(ctx context.Context, id string, correct bool) error {
	rec := c.recs[id]
	rec.Attempts++
	if !correct {
		rec.Wrongs++
	}
	c.recs[id] = rec
	return c.ns.SetJSON(ctx, id, rec)
}

// All returns every record sorted by id.
func (c *Counters) All() []model.NamedRecord {
	out := make([]model.NamedRecord, 0, len(c.recs))
	for id, rec := range c.recs {
		out = append(out, model.NamedRecord{ID: id, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of tracked ids.
func (c *Counters) Len() int {
	return len(c.recs)
}

// Stats bundles the per-item and per-category counters.
type Stats struct {
	Items      *Counters
	Categories *Counters
}

// LoadStats loads both stat namespaces from kv.
func LoadStats(ctx context.Context, kv KV, opts ...Option) (*Stats, error) {
	items, err := LoadCounters(ctx, kv, ItemStatsNS, opts...)
	if err != nil {
		return nil, err
	}
	cats, err := LoadCounters(ctx, kv, CategoryStatsNS, opts...)
	if err != nil {
		return nil, err
	}
	return &Stats{Items: items, Categories: cats}, nil
}

// ItemRecord returns the per-item record.
func (s *Stats) ItemRecord(id string) (model.PerformanceRecord, bool) {
	return s.Items.Get(id)
}

// CategoryRecord returns the per-category record.
func (s *Stats) CategoryRecord(tag string) (model.PerformanceRecord, bool) {
	return s.Categories.Get(tag)
}

// Record stores the outcome for the item and, when it has one, its category.
// Both updates are attempted; the first error is returned.
func (s *Stats) Record(ctx context.Context, item model.Item, correct bool) error {
	err := s.Items.RecordOutcome(ctx, item.ID, correct)
	if item.HasCategory() {
		if cerr := s.Categories.RecordOutcome(ctx, item.Category, correct); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
