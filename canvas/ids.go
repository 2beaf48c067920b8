package canvas

import (
	"strconv"
	"sync"
	"time"

	"github.com/b0ase/cashboard/model"
)

// IDFunc produces fresh node ids.
type IDFunc func() model.ID

// MillisIDs returns a generator of "n<unix millis>" ids. Calls within the same
// millisecond advance past the last issued value, so ids never repeat inside
// one generator.
func MillisIDs(now func() time.Time) IDFunc {
	if now == nil {
		now = time.Now
	}
	var (
		mu   sync.Mutex
		last int64
	)
	return func() model.ID {
		mu.Lock()
		defer mu.Unlock()
		ms := now().UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		last = ms
		return model.ID("n" + strconv.FormatInt(ms, 10))
	}
}

// lastN returns the trailing n characters of s.
func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
