package stats

import "github.com/verte-zerg/tuiquiz/internal/model"

// Bounds of the weight model. An untouched item weighs ItemFloor+0.5 and an
// untouched category multiplies by CategoryFloor+0.5.
const (
	ItemFloor     = 0.05
	CategoryFloor = 0.5
)

// Source provides performance records by item id and category tag.
type Source interface {
	ItemRecord(id string) (model.PerformanceRecord, bool)
	CategoryRecord(tag string) (model.PerformanceRecord, bool)
}

// smoothedFailure is (wrongs+1)/(attempts+2); never 0 and never 1.
func smoothedFailure(r model.PerformanceRecord) float64 {
	return float64(r.Wrongs+1) / float64(r.Attempts+2)
}

// ItemWeight maps item counters to a sampling weight in (0.05, 1.05).
func ItemWeight(r model.PerformanceRecord) float64 {
	return ItemFloor + smoothedFailure(r)
}

// CategoryMultiplier maps category counters to a multiplier in (0.5, 1.5).
func CategoryMultiplier(r model.PerformanceRecord) float64 {
	return CategoryFloor + smoothedFailure(r)
}

// EffectiveWeight combines the item weight with its category multiplier.
// Items without a category use the item weight alone. Missing records count
// as zero attempts.
func EffectiveWeight(item model.Item, src Source) float64 {
	var rec model.PerformanceRecord
	if src != nil {
		rec, _ = src.ItemRecord(item.ID)
	}
	w := ItemWeight(rec)
	if !item.HasCategory() {
		return w
	}
	var cat model.PerformanceRecord
	if src != nil {
		cat, _ = src.CategoryRecord(item.Category)
	}
	return w * CategoryMultiplier(cat)
}
