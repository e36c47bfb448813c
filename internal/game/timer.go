package game

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// roundTimer owns the session's single pending deferred action. Arming a new
// timer always stops and drains the previous one in the same call, so at
// most one firing can ever be observable. The session's run loop is the only
// reader of C, which is what makes Stop a hard cancellation: a stopped
// timer's tick is drained before the loop can see it.
type roundTimer struct {
	clock    clockwork.Clock
	timer    clockwork.Timer
	deadline time.Time
}

func newRoundTimer(clock clockwork.Clock) *roundTimer {
	return &roundTimer{clock: clock}
}

// Arm schedules a firing after d, replacing any pending one.
func (t *roundTimer) Arm(d time.Duration) {
	t.Stop()
	t.timer = t.clock.NewTimer(d)
	t.deadline = t.clock.Now().Add(d)
}

// Stop cancels the pending firing, if any. Safe to call at any time,
// including right after the timer fired.
func (t *roundTimer) Stop() {
	if t.timer == nil {
		return
	}
	if !t.timer.Stop() {
		select {
		case <-t.timer.Chan():
		default:
		}
	}
	t.timer = nil
}

// C is the firing channel, nil while nothing is pending (a nil channel never
// selects).
func (t *roundTimer) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.Chan()
}

// Armed reports whether a firing is pending.
func (t *roundTimer) Armed() bool {
	return t.timer != nil
}

// Remaining is the time left until the pending firing, zero when nothing is
// pending or the deadline has passed.
func (t *roundTimer) Remaining() time.Duration {
	if t.timer == nil {
		return 0
	}
	rem := t.deadline.Sub(t.clock.Now())
	if rem < 0 {
		return 0
	}
	return rem
}
