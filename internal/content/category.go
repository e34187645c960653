package content

import (
	"sort"
	"strings"
)

// OtherCategory collects items whose option set is too large to name.
const OtherCategory = "other"

const maxCategoryOptions = 4

// Category derives the rule tag from an item's options: the distinct
// lower-cased options, sorted and joined with "/". The same option set always
// maps to the same tag regardless of order.
func Category(options []string) string {
	seen := map[string]struct{}{}
	parts := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.ToLower(strings.TrimSpace(opt))
		if _, ok := seen[opt]; ok {
			continue
		}
		seen[opt] = struct{}{}
		parts = append(parts, opt)
	}
	if len(parts) == 0 || len(parts) > maxCategoryOptions {
		return OtherCategory
	}
	sort.Strings(parts)
	return strings.Join(parts, "/")
}
