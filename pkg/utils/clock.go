package utils

import "time"

var started = time.Now()

func Now() time.Time {
	return time.Now()
}

// Clock returns the duration since process start. It never jumps
// backwards, so it is safe for timeout arithmetic.
func Clock() time.Duration {
	return time.Since(started)
}
