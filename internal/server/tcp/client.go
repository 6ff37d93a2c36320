package tcp

import (
	"errors"
	"io"
	"pollhttp/internal/netpoll"
)

// Transport is a non-blocking byte stream. Read and Write return netpoll.ErrWouldBlock
// when no progress can be made right now, Read returns io.EOF once the peer is gone
type Transport interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

// Client is the state of one accepted connection: its transport, the bytes received
// but not yet handled and the bytes queued but not yet sent
type Client struct {
	fd        int
	remote    string
	transport Transport
	// buff is the scratch space for reads. The loop shares a single one between all
	// the clients, as only one of them is ever read at a time
	buff     []byte
	in       []byte
	out      []byte
	sent     int
	maxInput int
	// keepAlive is decided per request. The connection is closed as soon as the output
	// is drained while it is false
	keepAlive bool
}

func NewClient(fd int, remote string, transport Transport, buff []byte, maxInput int) *Client {
	return &Client{
		fd:        fd,
		remote:    remote,
		transport: transport,
		buff:      buff,
		maxInput:  maxInput,
		keepAlive: true,
	}
}

// Fill drains the transport into the input buffer until it would block. Exceeding
// the input limit discards everything received so far and returns ErrInputTooLarge,
// leaving the rest in the transport. io.EOF means the peer closed the connection
func (c *Client) Fill() error {
	for {
		n, err := c.transport.Read(c.buff)
		switch {
		case errors.Is(err, netpoll.ErrWouldBlock):
			return nil
		case err != nil:
			return err
		case n == 0:
			return io.EOF
		}

		if len(c.in)+n > c.maxInput {
			c.in = c.in[:0]
			return ErrInputTooLarge
		}

		c.in = append(c.in, c.buff[:n]...)
	}
}

// Input returns the accumulated unhandled bytes. The slice is only valid until the
// next Fill or ClearInput
func (c *Client) Input() []byte {
	return c.in
}

func (c *Client) ClearInput() {
	c.in = c.in[:0]
}

// Queue lets fn append outgoing bytes to the output buffer
func (c *Client) Queue(fn func(buff []byte) []byte) {
	c.out = fn(c.out)
}

// Pending is the number of queued bytes not sent yet
func (c *Client) Pending() int {
	return len(c.out) - c.sent
}

// Flush writes the output until it is drained or the transport would block. Only
// the sent prefix is dropped on a partial write
func (c *Client) Flush() error {
	for c.Pending() > 0 {
		n, err := c.transport.Write(c.out[c.sent:])
		if n > 0 {
			c.sent += n
		}

		switch {
		case errors.Is(err, netpoll.ErrWouldBlock):
			return nil
		case err != nil:
			return err
		case n == 0:
			// nothing was accepted without an error; wait for the next writability signal
			return nil
		}
	}

	c.out = c.out[:0]
	c.sent = 0

	return nil
}

func (c *Client) KeepAlive() bool {
	return c.keepAlive
}

func (c *Client) SetKeepAlive(keepAlive bool) {
	c.keepAlive = keepAlive
}

func (c *Client) Fd() int {
	return c.fd
}

func (c *Client) RemoteAddr() string {
	return c.remote
}

func (c *Client) Close() error {
	return c.transport.Close()
}
