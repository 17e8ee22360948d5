package report

import (
	"sync"
	"time"
)

// TimestampFormat is used for report timestamps. It has a fixed width and is in UTC, so
// timestamps sort lexically in time order.
const TimestampFormat = "20060102T150405.000000000Z"

var lastTimestamp time.Time  //nolint:gochecknoglobals
var timestampLock sync.Mutex //nolint:gochecknoglobals

// NextTimestamp returns the current time as a report timestamp. Values are strictly increasing
// within the process even if the clock does not advance between calls.
func NextTimestamp() string {
	return nextTimestamp(time.Now())
}

func nextTimestamp(now time.Time) string {
	timestampLock.Lock()
	defer timestampLock.Unlock()
	t := now.UTC()
	if !t.After(lastTimestamp) {
		t = lastTimestamp.Add(time.Nanosecond)
	}
	lastTimestamp = t
	return t.Format(TimestampFormat)
}
