package session

import (
	"fmt"
	"time"
)

// Deadline is a single-shot countdown for one question. Exactly one of
// Resolve or Cancel takes effect; later calls report false.
type Deadline struct {
	seq      uint64
	start    time.Time
	limit    time.Duration
	resolved bool
	canceled bool
}

func newDeadline(seq uint64, start time.Time, limit time.Duration) *Deadline {
	return &Deadline{seq: seq, start: start, limit: limit}
}

// Seq identifies the question the deadline belongs to.
func (d *Deadline) Seq() uint64 {
	return d.seq
}

// Limit returns the full allotment.
func (d *Deadline) Limit() time.Duration {
	return d.limit
}

// Remaining returns the time left at now, never negative. It is for display.
func (d *Deadline) Remaining(now time.Time) time.Duration {
	left := d.limit - now.Sub(d.start)
	if left < 0 {
		return 0
	}
	return left
}

// Elapsed returns the time spent at now, capped at the allotment.
func (d *Deadline) Elapsed(now time.Time) time.Duration {
	spent := now.Sub(d.start)
	if spent < 0 {
		return 0
	}
	if spent > d.limit {
		return d.limit
	}
	return spent
}

// Pending reports whether the deadline can still resolve.
func (d *Deadline) Pending() bool {
	return !d.resolved && !d.canceled
}

// Resolve locks the deadline. It returns false when already resolved or
// canceled.
func (d *Deadline) Resolve() bool {
	if !d.Pending() {
		return false
	}
	d.resolved = true
	return true
}

// Cancel disarms the deadline so a late expiry is ignored.
func (d *Deadline) Cancel() {
	d.canceled = true
}

// FormatRemaining renders the countdown as MM:SS, rounding seconds up.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
