package bench

import (
	"fmt"
	"time"
)

// Clock supplies instants to a Timer. time.Now carries a monotonic
// reading, so SystemClock is immune to wall-clock jumps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the default clock.
var SystemClock Clock = systemClock{}

// Timer measures one interval, excluding the time spent between Pause and
// Resume. The zero value is not usable; use NewTimer.
type Timer struct {
	clock Clock

	start      time.Time
	stop       time.Time
	pauseStart time.Time
	paused     time.Duration

	started bool
	stopped bool
	running bool
	inPause bool
}

// NewTimer returns a timer reading from c, or SystemClock when c is nil.
func NewTimer(c Clock) *Timer {
	if c == nil {
		c = SystemClock
	}
	return &Timer{clock: c}
}

// Start begins the measured interval. A stopped timer is read-only.
func (t *Timer) Start() error {
	if t.running {
		return fmt.Errorf("%w: start while running", ErrTimerMisuse)
	}
	if t.stopped {
		return fmt.Errorf("%w: start after stop", ErrTimerMisuse)
	}
	t.start = t.clock.Now()
	t.started = true
	t.running = true
	return nil
}

// Pause opens an exclusion window.
func (t *Timer) Pause() error {
	if !t.running {
		return fmt.Errorf("%w: pause while not running", ErrTimerMisuse)
	}
	if t.inPause {
		return fmt.Errorf("%w: pause while paused", ErrTimerMisuse)
	}
	t.pauseStart = t.clock.Now()
	t.inPause = true
	return nil
}

// Resume closes the exclusion window opened by Pause.
func (t *Timer) Resume() error {
	if !t.inPause {
		return fmt.Errorf("%w: resume while not paused", ErrTimerMisuse)
	}
	t.paused += t.clock.Now().Sub(t.pauseStart)
	t.inPause = false
	return nil
}

// Stop ends the measured interval. An open pause is closed at the stop
// instant.
func (t *Timer) Stop() error {
	if !t.running {
		return fmt.Errorf("%w: stop while not running", ErrTimerMisuse)
	}
	now := t.clock.Now()
	if t.inPause {
		t.paused += now.Sub(t.pauseStart)
		t.inPause = false
	}
	t.stop = now
	t.running = false
	t.stopped = true
	return nil
}

// Elapsed returns stop - start - paused. Until Stop has been called it
// returns ErrUnavailable, never a zero duration.
func (t *Timer) Elapsed() (time.Duration, error) {
	if t.running || !t.stopped {
		return 0, ErrUnavailable
	}
	return t.stop.Sub(t.start) - t.paused, nil
}

// Wall returns real time since Start, pauses included. It is the budget
// clock of the iteration protocol.
func (t *Timer) Wall() time.Duration {
	switch {
	case !t.started:
		return 0
	case t.running:
		return t.clock.Now().Sub(t.start)
	default:
		return t.stop.Sub(t.start)
	}
}

// Running reports whether the timer has been started and not stopped.
func (t *Timer) Running() bool { return t.running }

// Paused reports whether an exclusion window is open.
func (t *Timer) Paused() bool { return t.inPause }
