//go:build linux || darwin || freebsd || netbsd || openbsd

package netpoll

import (
	"golang.org/x/sys/unix"
	"os"
	"time"
)

// Poller is a level-triggered readiness query. The interest set is rebuilt by the
// caller before every Wait: Reset, then Add every descriptor
type Poller struct {
	fds []unix.PollFd
}

func NewPoller(capacity int) *Poller {
	return &Poller{
		fds: make([]unix.PollFd, 0, capacity),
	}
}

func (p *Poller) Reset() {
	p.fds = p.fds[:0]
}

// Add registers read interest and, if write is set, write interest too. The returned
// slot is valid until the next Reset
func (p *Poller) Add(fd int, write bool) (slot int) {
	events := int16(unix.POLLIN)
	if write {
		events |= unix.POLLOUT
	}

	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: events})

	return len(p.fds) - 1
}

func (p *Poller) Len() int {
	return len(p.fds)
}

// Wait blocks for at most timeout. An interrupted wait is reported as zero ready
// descriptors
func (p *Poller) Wait(timeout time.Duration) (int, error) {
	for i := range p.fds {
		p.fds[i].Revents = 0
	}

	n, err := unix.Poll(p.fds, pollMillis(timeout))
	switch err {
	case nil:
		return n, nil
	case unix.EINTR:
		return 0, nil
	default:
		return 0, os.NewSyscallError("poll", err)
	}
}

// Readable also reports hang-ups and errors, so that the following read surfaces them
func (p *Poller) Readable(slot int) bool {
	return p.fds[slot].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0
}

func (p *Poller) Writable(slot int) bool {
	return p.fds[slot].Events&unix.POLLOUT != 0 &&
		p.fds[slot].Revents&(unix.POLLOUT|unix.POLLERR) != 0
}

// pollMillis rounds the timeout up to whole milliseconds, so that a positive timeout
// never turns into a non-blocking poll. A negative one waits forever
func pollMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}

	return int((timeout + time.Millisecond - 1) / time.Millisecond)
}
