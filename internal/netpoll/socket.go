//go:build linux || darwin || freebsd || netbsd || openbsd

package netpoll

import (
	"fmt"
	"golang.org/x/sys/unix"
	"io"
	"net"
	"net/netip"
	"os"
	"strconv"
)

type Listener struct {
	fd   int
	host string
	port int
}

// Listen binds a non-blocking IPv4 listener. Port 0 picks an ephemeral port, which
// is reported by Port afterwards
func Listen(host string, port, backlog int) (*Listener, error) {
	sa := &unix.SockaddrInet4{Port: port}
	if len(host) == 0 {
		host = "0.0.0.0"
	} else {
		addr, err := netip.ParseAddr(host)
		if err != nil || !addr.Is4() {
			return nil, fmt.Errorf("%w: %q", ErrBadAddress, host)
		}

		sa.Addr = addr.As4()
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	unix.CloseOnExec(fd)

	if err = setup(fd, sa, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	l := &Listener{fd: fd, host: host, port: port}
	if bound, err := unix.Getsockname(fd); err == nil {
		if inet4, ok := bound.(*unix.SockaddrInet4); ok {
			l.port = inet4.Port
		}
	}

	return l, nil
}

func setup(fd int, sa *unix.SockaddrInet4, backlog int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		return os.NewSyscallError("bind", err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		return os.NewSyscallError("listen", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		return os.NewSyscallError("setnonblock", err)
	}

	return nil
}

func (l *Listener) Fd() int {
	return l.fd
}

func (l *Listener) Port() int {
	return l.port
}

func (l *Listener) Addr() string {
	return net.JoinHostPort(l.host, strconv.Itoa(l.port))
}

func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

// Accept takes one pending connection off the queue. ErrWouldBlock means the queue
// is drained
func (l *Listener) Accept() (*Conn, error) {
	for {
		fd, sa, err := unix.Accept(l.fd)
		switch err {
		case nil:
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
			return nil, ErrWouldBlock
		default:
			return nil, os.NewSyscallError("accept", err)
		}

		unix.CloseOnExec(fd)

		if err = unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fd)
			return nil, os.NewSyscallError("setnonblock", err)
		}

		return &Conn{fd: fd, remote: sockaddrString(sa)}, nil
	}
}

// Conn is a non-blocking stream socket. Read and Write never block: they return
// ErrWouldBlock instead. Read reports an orderly peer shutdown as io.EOF
type Conn struct {
	fd     int
	remote string
}

func (c *Conn) Fd() int {
	return c.fd
}

func (c *Conn) RemoteAddr() string {
	return c.remote
}

func (c *Conn) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, b)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		default:
			return 0, os.NewSyscallError("read", err)
		}

		if n == 0 && len(b) > 0 {
			return 0, io.EOF
		}

		return n, nil
	}
}

func (c *Conn) Write(b []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, b)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, ErrWouldBlock
		default:
			return 0, os.NewSyscallError("write", err)
		}
	}
}

func (c *Conn) Close() error {
	return unix.Close(c.fd)
}

func sockaddrString(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(addr.Addr), uint16(addr.Port)).String()
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(addr.Addr), uint16(addr.Port)).String()
	case *unix.SockaddrUnix:
		return addr.Name
	default:
		return "?"
	}
}
