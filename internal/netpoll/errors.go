package netpoll

import "errors"

var (
	// ErrWouldBlock is the normal outcome of a non-blocking call that has nothing
	// to do right now. It is never a failure
	ErrWouldBlock = errors.New("operation would block")
	ErrBadAddress = errors.New("bad IPv4 address")
)
