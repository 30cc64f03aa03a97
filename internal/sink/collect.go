package sink

import "github.com/difflyhq/difflycore/internal/events"

// Collect is an in-memory sink, used by tests and by the HTTP job server
// (internal/diffserver) to buffer a run's full event list before it is
// polled by the client.
type Collect struct {
	Events []events.Event
}

// NewCollect builds an empty in-memory sink.
func NewCollect() *Collect {
	return &Collect{}
}

// OnEvent appends ev to Events.
func (c *Collect) OnEvent(ev events.Event) error {
	c.Events = append(c.Events, ev)
	return nil
}
