// Package stats provides a lock-free request counter shared by concurrent handlers.
package stats

import (
	"math"
	"sync/atomic"
)

// Counter is a monotonic counter, thread-safe. Zero value is ready to use.
// It saturates at math.MaxUint64 instead of wrapping to zero.
type Counter struct {
	val atomic.Uint64
}

// Inc adds one to the counter and returns the new value.
func (c *Counter) Inc() uint64 {
	for {
		cur := c.val.Load()
		if cur == math.MaxUint64 {
			return cur
		}
		if c.val.CompareAndSwap(cur, cur+1) {
			return cur + 1
		}
	}
}

// Value returns the current counter value.
func (c *Counter) Value() uint64 {
	return c.val.Load()
}
