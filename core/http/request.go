package http

import "pollhttp/core/protocol"

// Request is produced by the parser and lives until the dispatcher returns. Strings
// are backed by a per-request arena, so they stay valid if retained
type Request struct {
	Method protocol.Method
	// Target is the raw request target, before splitting
	Target  string
	Path    string
	Query   string
	Version string
	Headers Headers
	Body    []byte
}

func NewRequest() *Request {
	return &Request{
		Headers: make(Headers),
	}
}

// KeepAlive applies the connection negotiation rules to the request
func (r *Request) KeepAlive() bool {
	connection, present := r.Headers.Find(protocol.HeaderConnection)

	return protocol.KeepAlive(r.Version, connection, present)
}
