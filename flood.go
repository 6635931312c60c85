package irc

import "time"

// maxCounter is the saturation ceiling for FloodPreventer's internal counter, carried over
// from the observed source (spec.md §9 open question: "whether this ceiling is observable
// in practice is unclear"). Saturating here just guards against unbounded growth if a
// caller never drains the queue; it has no effect on send_delay's return value under any
// realistic burst/period configuration.
const maxCounter = 1<<31 - 1

// FloodPreventer implements a token-bucket pacing algorithm: the Client consults
// SendDelay before popping each queued outbound message, and calls MessageSent after each
// successful write. Configured with MaxBurst and Period (the time it takes one "token" to
// drain from the counter). SendDelay reports no wait until the counter exceeds MaxBurst, so
// MaxBurst+1 messages can be sent back-to-back with no delay.
//
// The zero value is not usable; construct with NewFloodPreventer.
type FloodPreventer struct {
	MaxBurst float64
	Period   time.Duration

	counter   float64
	lastEpoch time.Time
	now       func() time.Time
}

// NewFloodPreventer constructs a FloodPreventer with the given burst size and period; a
// fresh FloodPreventer lets maxBurst+1 messages go out with no delay before the next must
// wait.
func NewFloodPreventer(maxBurst int, period time.Duration) *FloodPreventer {
	return &FloodPreventer{
		MaxBurst: float64(maxBurst),
		Period:   period,
		now:      time.Now,
	}
}

// SendDelay returns how long the caller should wait before sending the next message, or 0
// if it may send immediately. Calling SendDelay does not itself register a send; callers
// must call MessageSent after the message is actually written.
func (f *FloodPreventer) SendDelay() time.Duration {
	now := f.clock()
	if f.lastEpoch.IsZero() {
		f.lastEpoch = now
	}
	elapsed := now.Sub(f.lastEpoch)
	periodNS := float64(f.Period.Nanoseconds())
	if periodNS <= 0 {
		return 0
	}

	f.counter -= float64(elapsed.Nanoseconds()) / periodNS
	if f.counter < 0 {
		f.counter = 0
	}

	elapsedMod := time.Duration(int64(elapsed) % int64(f.Period))
	f.lastEpoch = now.Add(-elapsedMod)

	delay := time.Duration((f.counter-f.MaxBurst)*periodNS) - elapsed
	if delay < 0 {
		return 0
	}
	return delay
}

// MessageSent must be called once for every message the Client actually writes to the
// connection, incrementing the token counter that SendDelay drains over time.
func (f *FloodPreventer) MessageSent() {
	f.counter++
	if f.counter > maxCounter {
		f.counter = maxCounter
	}
}

func (f *FloodPreventer) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}
