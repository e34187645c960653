package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// RecordsNS holds best records keyed by mode key.
const RecordsNS = "records"

// KeyedRecord pairs a mode key with its best record.
type KeyedRecord struct {
	ModeKey string
	Record  model.BestRecord
}

// Records persists the best session per mode key.
type Records struct {
	ns   Namespace
	warn func(format string, args ...any)
}

// NewRecords returns a best-record store on kv.
func NewRecords(kv KV, opts ...Option) *Records {
	o := buildOptions(opts)
	return &Records{ns: NewNamespace(kv, RecordsNS), warn: o.warn}
}

// Get returns the best record for key, or nil when none exists or the stored
// value is corrupt.
func (r *Records) Get(ctx context.Context, key string) (*model.BestRecord, error) {
	data, ok, err := r.ns.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %q: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	var rec model.BestRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.warn("ignoring corrupt record %q: %v\n", key, err)
		return nil, nil
	}
	return &rec, nil
}

// Submit stores candidate when it beats the current record. It returns
// whether the record improved and the record it was compared against.
func (r *Records) Submit(ctx context.Context, key string, candidate model.BestRecord) (bool, *model.BestRecord, error) {
	prev, err := r.Get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if !model.IsBetter(candidate, prev) {
		return false, prev, nil
	}
	if err := r.ns.SetJSON(ctx, key, candidate); err != nil {
		return false, prev, err
	}
	return true, prev, nil
}

// List returns every readable record ordered by mode key.
func (r *Records) List(ctx context.Context) ([]KeyedRecord, error) {
	entries, err := r.ns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	out := make([]KeyedRecord, 0, len(entries))
	for _, e := range entries {
		var rec model.BestRecord
		if err := json.Unmarshal(e.Value, &rec); err != nil {
			r.warn("ignoring corrupt record %q: %v\n", e.Key, err)
			continue
		}
		out = append(out, KeyedRecord{ModeKey: e.Key, Record: rec})
	}
	return out, nil
}
