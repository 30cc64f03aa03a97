package diffserver

import "sync/atomic"

// cancelFlag is an engine.CancelCheck backed by an atomic flag, tripped by
// DELETE /jobs/{id} and polled by the engine between event emissions.
type cancelFlag struct {
	flag int32
}

func newCancelFlag() *cancelFlag {
	return &cancelFlag{}
}

func (c *cancelFlag) Cancelled() bool {
	return atomic.LoadInt32(&c.flag) != 0
}

func (c *cancelFlag) Trip() {
	atomic.StoreInt32(&c.flag, 1)
}
