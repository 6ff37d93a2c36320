package server

import "github.com/puzpuzpuz/xsync/v3"

// Stats is a snapshot of the server counters
type Stats struct {
	Accepted int64
	Active   int64
	Requests int64
	Closed   int64
}

// counters are written by the event loop and may be read from any goroutine
type counters struct {
	accepted *xsync.Counter
	active   *xsync.Counter
	requests *xsync.Counter
	closed   *xsync.Counter
}

func newCounters() *counters {
	return &counters{
		accepted: xsync.NewCounter(),
		active:   xsync.NewCounter(),
		requests: xsync.NewCounter(),
		closed:   xsync.NewCounter(),
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Accepted: c.accepted.Value(),
		Active:   c.active.Value(),
		Requests: c.requests.Value(),
		Closed:   c.closed.Value(),
	}
}
