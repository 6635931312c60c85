package irc

import (
	"testing"
	"time"
)

// fakeClock lets a test advance FloodPreventer's notion of "now" deterministically.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestFloodPreventer(maxBurst int, period time.Duration) (*FloodPreventer, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	f := NewFloodPreventer(maxBurst, period)
	f.now = clk.now
	return f, clk
}

// TestFloodPreventerAllowsBurstWithNoDelay checks that MaxBurst+1 messages may be sent
// back-to-back with SendDelay reporting no wait, and that the next one must wait.
func TestFloodPreventerAllowsBurstWithNoDelay(t *testing.T) {
	const maxBurst = 4
	f, _ := newTestFloodPreventer(maxBurst, time.Second)

	// The counter starts at zero and MessageSent only increments it after a send, so
	// maxBurst+1 total calls land at or under the burst allowance before SendDelay starts
	// reporting a wait.
	for i := 0; i <= maxBurst; i++ {
		if d := f.SendDelay(); d != 0 {
			t.Fatalf("message %d: expected no delay within burst allowance; got %v", i, d)
		}
		f.MessageSent()
	}

	if d := f.SendDelay(); d <= 0 {
		t.Error("expected a positive delay once the burst allowance is exhausted")
	}
}

func TestFloodPreventerDelayDrainsOverTime(t *testing.T) {
	f, clk := newTestFloodPreventer(1, time.Second)

	f.SendDelay()
	f.MessageSent()
	f.SendDelay()
	f.MessageSent()

	d := f.SendDelay()
	if d <= 0 {
		t.Fatal("expected a delay after exceeding the burst allowance")
	}

	clk.advance(d)
	if remaining := f.SendDelay(); remaining > 0 {
		t.Errorf("expected the delay to be fully drained after advancing the clock by it; got %v remaining", remaining)
	}
}

func TestFloodPreventerCounterSaturates(t *testing.T) {
	f, _ := newTestFloodPreventer(1, time.Second)
	f.counter = maxCounter - 1

	f.MessageSent()
	f.MessageSent()
	f.MessageSent()

	if f.counter != maxCounter {
		t.Errorf("expected counter to saturate at maxCounter; got %v", f.counter)
	}
}

func TestFloodPreventerZeroPeriodNeverDelays(t *testing.T) {
	f, _ := newTestFloodPreventer(0, 0)
	for i := 0; i < 10; i++ {
		if d := f.SendDelay(); d != 0 {
			t.Fatalf("expected a zero Period to disable pacing entirely; got delay %v", d)
		}
		f.MessageSent()
	}
}
