// Package selector picks the next practice item with relaxed recency
// exclusion and failure-weighted sampling.
package selector

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuiquiz/internal/history"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/stats"
)

// DefaultDepth is the initial exclusion depth.
const DefaultDepth = 5

// ErrEmptyPool is returned when there is nothing to select from.
var ErrEmptyPool = errors.New("selector: empty pool")

// Rand is the randomness the selector needs. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Selector draws items. It is not safe for concurrent use.
type Selector struct {
	rnd   Rand
	depth int
}

// New returns a Selector seeded with the current time.
func New(depth int) *Selector {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())), depth)
}

// NewWithRand returns a Selector drawing from rnd. A negative depth falls back
// to DefaultDepth.
func NewWithRand(rnd Rand, depth int) *Selector {
	if depth < 0 {
		depth = DefaultDepth
	}
	return &Selector{rnd: rnd, depth: depth}
}

// Depth returns the initial exclusion depth.
func (s *Selector) Depth() int {
	return s.depth
}

// Next selects an item from pool. Candidates exclude the most recent window
// entries, starting at the configured depth and relaxing one step at a time
// down to zero, and always exclude ids in used. When nothing survives even at
// depth zero the draw is uniform over the whole pool. Arithmetic facts come
// back with their operands randomly oriented.
func (s *Selector) Next(pool []model.Item, src stats.Source, win *history.Window, used *history.UsedSet) (model.Item, error) {
	if len(pool) == 0 {
		return model.Item{}, ErrEmptyPool
	}
	for depth := s.depth; depth >= 0; depth-- {
		candidates := filterPool(pool, win.Exclusion(depth), used)
		if len(candidates) == 0 {
			continue
		}
		return s.orient(s.weighted(candidates, src)), nil
	}
	return s.orient(pool[s.rnd.Intn(len(pool))]), nil
}

func filterPool(pool []model.Item, excluded map[string]struct{}, used *history.UsedSet) []model.Item {
	out := make([]model.Item, 0, len(pool))
	for _, it := range pool {
		if _, ok := excluded[it.ID]; ok {
			continue
		}
		if used.Has(it.ID) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// weighted is a roulette-wheel draw: r in [0,total) minus each weight in turn
// until it drops to zero or below.
func (s *Selector) weighted(candidates []model.Item, src stats.Source) model.Item {
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, it := range candidates {
		w := stats.EffectiveWeight(it, src)
		weights[i] = w
		total += w
	}
	r := s.rnd.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

func (s *Selector) orient(it model.Item) model.Item {
	if it.Domain != model.DomainArithmetic {
		return it
	}
	if s.rnd.Float64() < 0.5 {
		it.X, it.Y = it.Y, it.X
	}
	return it
}
