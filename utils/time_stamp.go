package utils

import (
	"fmt"
	"time"
)

// NowNano returns the current wall-clock time as nanoseconds since epoch.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// SessionName returns a unique session directory name:
//
//	<prefix>_YYYYMMDD_HHMMSS_<first 8 chars of session id>
func SessionName(prefix, sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%s_%s", prefix, time.Now().Format("20060102_150405"), short)
}

// TickInterval converts a rate in Hz to a ticker period, never below 1µs.
func TickInterval(hz float64) time.Duration {
	if hz <= 0 {
		return time.Second
	}
	d := time.Duration(float64(time.Second) / hz)
	if d < time.Microsecond {
		d = time.Microsecond
	}
	return d
}
