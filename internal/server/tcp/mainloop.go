//go:build linux || darwin || freebsd || netbsd || openbsd

package tcp

import (
	"context"
	"errors"
	"github.com/sirupsen/logrus"
	"io"
	"pollhttp/internal/connect"
	"pollhttp/internal/netpoll"
	"time"
)

// Session is the protocol bound to a single client
type Session interface {
	// OnReadable runs the read path. Returning an error closes the connection without
	// sending anything else
	OnReadable() error
}

type Config struct {
	// PollTimeout bounds a single readiness wait, and so how late a stop is noticed
	PollTimeout    time.Duration
	ReadBufferSize int
	MaxInputSize   int
	Logger         logrus.FieldLogger
	// OnClose, if set, is called for every client right before its descriptor is closed
	OnClose func(client *Client)
}

const (
	defaultPollTimeout    = time.Second
	defaultReadBufferSize = 8 * 1024
	defaultMaxInputSize   = 1 << 20
)

func (c Config) withDefaults() Config {
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}

	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultReadBufferSize
	}

	if c.MaxInputSize <= 0 {
		c.MaxInputSize = defaultMaxInputSize
	}

	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}

	return c
}

type entry struct {
	client  *Client
	session Session
}

type slot struct {
	fd    int
	index int
}

type loop struct {
	cfg     Config
	sock    *netpoll.Listener
	onConn  func(client *Client) Session
	poller  *netpoll.Poller
	wait    func(timeout time.Duration) (int, error)
	conns   *connect.Table[*entry]
	buff    []byte
	fds     []int
	slots   []slot
	closing []int
}

// Run serves the listener on the calling goroutine until ctx is done. Every iteration
// waits for readiness of the listener and all the clients, accepts everything pending,
// runs the read and write paths and finally closes whatever is finished. The context
// is checked between iterations only, so cancellation is observed within PollTimeout.
// Every client is closed on return; the listener is left to the caller
func Run(ctx context.Context, sock *netpoll.Listener, cfg Config, onConn func(client *Client) Session) error {
	l := newLoop(sock, cfg, onConn)
	defer l.teardown()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.iterate()
	}
}

func newLoop(sock *netpoll.Listener, cfg Config, onConn func(client *Client) Session) *loop {
	cfg = cfg.withDefaults()
	l := &loop{
		cfg:    cfg,
		sock:   sock,
		onConn: onConn,
		poller: netpoll.NewPoller(64),
		conns:  connect.New[*entry](),
		buff:   make([]byte, cfg.ReadBufferSize),
	}
	l.wait = l.poller.Wait

	return l
}

func (l *loop) iterate() {
	l.poller.Reset()
	listenerSlot := l.poller.Add(l.sock.Fd(), false)

	l.fds = l.conns.Fds(l.fds[:0])
	l.slots = l.slots[:0]
	for _, fd := range l.fds {
		e, _ := l.conns.Get(fd)
		l.slots = append(l.slots, slot{
			fd:    fd,
			index: l.poller.Add(fd, e.client.Pending() > 0),
		})
	}

	if _, err := l.wait(l.cfg.PollTimeout); err != nil {
		// the failed wait did not block, so serve out its timeout here instead
		l.cfg.Logger.WithError(err).Warn("readiness wait failed")
		time.Sleep(l.cfg.PollTimeout)

		return
	}

	if l.poller.Readable(listenerSlot) {
		l.acceptAll()
	}

	l.closing = l.closing[:0]
	for _, s := range l.slots {
		e, found := l.conns.Get(s.fd)
		if !found {
			continue
		}

		var err error
		if l.poller.Readable(s.index) {
			err = e.session.OnReadable()
		}

		if err == nil && l.poller.Writable(s.index) {
			err = e.client.Flush()
		}

		switch {
		case err != nil:
			l.logClosure(e.client, err)
		case e.client.Pending() == 0 && !e.client.KeepAlive():
			l.logger(e.client).Debug("response sent, closing")
		default:
			continue
		}

		l.closing = append(l.closing, s.fd)
	}

	for _, fd := range l.closing {
		if e, found := l.conns.Delete(fd); found {
			l.release(e.client)
		}
	}
}

func (l *loop) acceptAll() {
	for {
		conn, err := l.sock.Accept()
		switch {
		case errors.Is(err, netpoll.ErrWouldBlock):
			return
		case err != nil:
			l.cfg.Logger.WithError(err).Warn("error accepting a connection")
			return
		}

		client := NewClient(conn.Fd(), conn.RemoteAddr(), conn, l.buff, l.cfg.MaxInputSize)
		l.conns.Set(conn.Fd(), &entry{
			client:  client,
			session: l.onConn(client),
		})
		l.logger(client).Debug("accepted")
	}
}

func (l *loop) release(client *Client) {
	if l.cfg.OnClose != nil {
		l.cfg.OnClose(client)
	}

	if err := client.Close(); err != nil {
		l.logger(client).WithError(err).Warn("error closing a connection")
	}
}

func (l *loop) teardown() {
	l.conns.Clear(func(_ int, e *entry) {
		l.release(e.client)
	})
}

func (l *loop) logClosure(client *Client, err error) {
	if errors.Is(err, io.EOF) {
		l.logger(client).Debug("peer closed the connection")
		return
	}

	l.logger(client).WithError(err).Warn("closing the connection on I/O error")
}

func (l *loop) logger(client *Client) logrus.FieldLogger {
	return l.cfg.Logger.WithFields(logrus.Fields{
		"fd":     client.Fd(),
		"remote": client.RemoteAddr(),
	})
}
