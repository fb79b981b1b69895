// Package pool pools time.Timer instances for bounded waits on hot paths.
package pool

import (
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a timer armed with duration d, reusing a pooled timer
// when one is available. Release it with PutTimer.
func GetTimer(d time.Duration) *time.Timer {
	if v := timerPool.Get(); v != nil {
		t, _ := v.(*time.Timer) // the pool only ever holds *time.Timer
		if t.Reset(d) {
			// The timer was still active; drain a stale fire.
			select {
			case <-t.C:
			default:
			}
		}
		return t
	}
	return time.NewTimer(d)
}

// PutTimer stops t and returns it to the pool.
//
// t must not be accessed after the call.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		// Drain t.C if the caller has not received the fire.
		select {
		case <-t.C:
		default:
		}
	}
	timerPool.Put(t)
}
