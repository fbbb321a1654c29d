package bench

import (
	"context"
	"errors"
	"time"
)

var errFlush = errors.New("flush rejected")

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeBatch counts staged work and advances the clock by cost on every
// execute. failAt makes the n-th execute fail.
type fakeBatch struct {
	clock    *fakeClock
	cost     time.Duration
	failAt   int
	staged   int
	executed int
	flushed  int
	released int
}

func (b *fakeBatch) Add() { b.staged++ }

func (b *fakeBatch) Execute(context.Context) error {
	b.executed++
	if b.clock != nil {
		b.clock.Advance(b.cost)
	}
	if b.failAt > 0 && b.executed == b.failAt {
		return errFlush
	}
	b.flushed += b.staged
	b.staged = 0
	return nil
}

func (b *fakeBatch) Release() { b.released++ }
