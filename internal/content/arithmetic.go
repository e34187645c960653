package content

import (
	"fmt"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// Table size bounds for arithmetic facts.
const (
	DefaultTableSize = 10
	MaxTableSize     = 30
)

// CanonicalID names the unordered pair so both orientations share stats.
func CanonicalID(x, y int) string {
	if x > y {
		x, y = y, x
	}
	return fmt.Sprintf("%d×%d", x, y)
}

// Facts returns one item per unordered pair in [1,n]; n is clamped to
// [1,MaxTableSize]. A table of 10 yields 55 facts.
func Facts(n int) []model.Item {
	n = ClampTableSize(n)
	pool := make([]model.Item, 0, n*(n+1)/2)
	for x := 1; x <= n; x++ {
		for y := x; y <= n; y++ {
			pool = append(pool, model.Item{
				ID:     CanonicalID(x, y),
				Domain: model.DomainArithmetic,
				X:      x,
				Y:      y,
			})
		}
	}
	return pool
}

// ClampTableSize defaults non-positive sizes and caps large ones.
func ClampTableSize(n int) int {
	if n <= 0 {
		return DefaultTableSize
	}
	if n > MaxTableSize {
		return MaxTableSize
	}
	return n
}
