package ramp

import (
	"time"

	"escgate-go/x/mathx"
)

// Step receives each intermediate level.
type Step func(level uint16)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear walks from 'from' to 'to' in 'steps' evenly spaced increments over
// 'total'. It is caller-driven: run it from a goroutine and let Tick handle
// timing and cancellation. steps==0 or total<=0 snaps to 'to'. The final
// level is always 'to' unless Tick cancels first.
func Linear(from, to uint16, total time.Duration, steps uint16, tick Tick, set Step) {
	if steps == 0 || total <= 0 {
		set(to)
		return
	}
	stepDur := mathx.Max(total/time.Duration(steps), time.Millisecond)

	delta := int32(to) - int32(from)
	lo, hi := int32(from), int32(to)
	for i := int32(1); i < int32(steps); i++ {
		if !tick(stepDur) {
			return
		}
		// Truncating division keeps intermediate levels between the end points.
		lvl := int32(from) + delta*i/int32(steps)
		set(uint16(mathx.Clamp(lvl, lo, hi)))
	}
	if !tick(stepDur) {
		return
	}
	set(to)
}
