package sink

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/difflyhq/difflycore/internal/engine"
	"github.com/difflyhq/difflycore/internal/events"
)

// Retry decorates another engine.Sink with automatic retry, the way the
// teacher's RetrySink decorates its indexer sinks: attempt delivery up to
// attempts times, waiting delay between attempts, propagating the last
// attempt's error if all of them fail.
//
// If attempts is < 1, it defaults to 1 (no retries). If delayMs is 0, it
// defaults to 1000ms.
type Retry struct {
	inner    engine.Sink
	attempts int
	delay    time.Duration
}

// NewRetry builds a retrying sink around inner.
func NewRetry(inner engine.Sink, attempts int, delayMs int) engine.Sink {
	if inner == nil {
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}
	if delayMs == 0 {
		delayMs = 1000
	}
	return &Retry{
		inner:    inner,
		attempts: attempts,
		delay:    time.Duration(delayMs) * time.Millisecond,
	}
}

// OnEvent forwards ev to the wrapped sink, retrying on failure.
func (r *Retry) OnEvent(ev events.Event) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = r.inner.OnEvent(ev)
		if err == nil {
			return nil
		}
		logrus.Warnf("sink delivery failed (attempt %d/%d): %v", attempt, r.attempts, err)
		if attempt < r.attempts {
			time.Sleep(r.delay)
		}
	}
	return err
}
