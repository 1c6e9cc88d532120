package timex

import "time"

// NowNs returns Unix nanoseconds, the timestamp unit of published state.
func NowNs() int64 { return time.Now().UnixNano() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint64) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return 1_000_000_000 / freqHz
}

// FrameMicros returns the length of one output frame in microseconds.
func FrameMicros(freqHz uint64) uint64 {
	return PeriodFromHz(freqHz) / 1_000
}
