// Package stamp produces the fixed-width timestamps used in lock marker and
// metadata log keys. Equal-width decimal strings sort lexicographically in
// the same order as the instants they encode.
package stamp

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Width is the number of digits in a stamp.
const Width = 20

// NowMicro returns the current time in microseconds since the Unix epoch.
var NowMicro = func() int64 { return time.Now().UnixMicro() }

// Clock hands out strictly increasing stamps within one process. When the
// wall clock stalls or goes backwards it continues from the last value.
type Clock struct {
	mu   sync.Mutex
	last int64
}

func NewClock() *Clock { return &Clock{} }

func (c *Clock) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next()
}

// With issues a stamp and runs fn with it while holding the clock, so the
// writes of every caller sharing c land in stamp order.
func (c *Clock) With(fn func(ts string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.next())
}

func (c *Clock) next() string {
	us := NowMicro()
	if us <= c.last {
		us = c.last + 1
	}
	c.last = us
	return FormatMicro(us)
}

var defaultClock = NewClock()

// Default returns the process-wide clock.
func Default() *Clock { return defaultClock }

// Next returns a stamp from the process-wide clock.
func Next() string { return defaultClock.Next() }

func FormatMicro(us int64) string {
	return fmt.Sprintf("%0*d", Width, us)
}

func Format(t time.Time) string {
	return FormatMicro(t.UnixMicro())
}

// Parse turns a stamp back into a time.
func Parse(s string) (time.Time, error) {
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil || us < 0 {
		return time.Time{}, fmt.Errorf("stamp: invalid stamp %q", s)
	}
	return time.UnixMicro(us), nil
}
