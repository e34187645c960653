// Package content builds item pools: arithmetic facts and spelling items
// loaded from content files.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Blank marks the gap in a masked spelling template.
const Blank = "_"

// ErrNoItems is returned when a content source yields no usable item.
var ErrNoItems = errors.New("content: no usable items")

//go:embed fallback.txt
var fallbackText []byte

// Format identifies a content file layout.
type Format int

const (
	FormatLines Format = iota
	FormatJSON
	FormatNDJSON
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "lines"
	}
}

// Result describes a parsed content source.
type Result struct {
	Items    []model.Item
	Dropped  int
	Format   Format
	Fallback bool
}

// DetectFormat picks the layout by extension, sniffing the first byte of
// other files so JSON saved as .txt still loads.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatNDJSON
	}
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		return FormatNDJSON
	case len(trimmed) > 0 && trimmed[0] == '[':
		// A line such as "[y]es, [i, y]" also starts with a bracket.
		inner := bytes.TrimSpace(trimmed[1:])
		if len(inner) > 0 && (inner[0] == '{' || inner[0] == ']') {
			return FormatJSON
		}
		return FormatLines
	default:
		return FormatLines
	}
}

// Parse decodes data in the given format. Malformed and duplicate items are
// counted in Dropped.
func Parse(data []byte, format Format) Result {
	var res Result
	switch format {
	case FormatJSON:
		res = parseJSONArray(data)
	case FormatNDJSON:
		res = parseNDJSON(data)
	default:
		res = parseLines(data)
	}
	res.Format = format
	res.Items, res.Dropped = dedupe(res.Items, res.Dropped)
	return res
}

// LoadFile reads and parses a content file. It returns ErrNoItems alongside
// the result when nothing usable was found.
func LoadFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read content: %w", err)
	}
	res := Parse(data, DetectFormat(path, data))
	if len(res.Items) == 0 {
		return res, fmt.Errorf("%s: %w", path, ErrNoItems)
	}
	return res, nil
}

// Fallback returns the built-in spelling pool.
func Fallback() []model.Item {
	return parseLines(fallbackText).Items
}

// SpellingPool loads path, substituting the built-in pool when path is empty
// or parses to nothing. Read errors are returned.
func SpellingPool(path string) (Result, error) {
	if path == "" {
		return Result{Items: Fallback(), Fallback: true}, nil
	}
	res, err := LoadFile(path)
	if errors.Is(err, ErrNoItems) {
		res.Items = Fallback()
		res.Fallback = true
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Pool returns the item pool for cfg.
func Pool(cfg model.Config) (Result, error) {
	if cfg.Domain == model.DomainSpelling {
		return SpellingPool(cfg.ContentPath)
	}
	return Result{Items: Facts(cfg.TableSize)}, nil
}

// SpellingID hashes the item content so the id is stable across runs.
func SpellingID(masked string, options []string, full string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(masked))
	for _, opt := range options {
		_, _ = h.Write([]byte{0x1f})
		_, _ = h.Write([]byte(opt))
	}
	_, _ = h.Write([]byte{0x1e})
	_, _ = h.Write([]byte(full))
	return fmt.Sprintf("sp:%016x", h.Sum64())
}

func newSpellingItem(masked, full string, options []string, answer int) model.Item {
	return model.Item{
		ID:       SpellingID(masked, options, full),
		Domain:   model.DomainSpelling,
		Masked:   masked,
		Full:     full,
		Options:  options,
		Answer:   answer,
		Category: Category(options),
	}
}

func dedupe(items []model.Item, dropped int) ([]model.Item, int) {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			dropped++
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, dropped
}
