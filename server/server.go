//go:build linux || darwin || freebsd || netbsd || openbsd

package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"net"
	"pollhttp/core/http"
	"pollhttp/internal/netpoll"
	"pollhttp/internal/scan/http1"
	"pollhttp/internal/server/serve"
	"pollhttp/internal/server/tcp"
	"strconv"
	"sync"
	"sync/atomic"
)

var (
	ErrServerRunning = errors.New("server is already running")
	ErrServerClosed  = errors.New("server is closed")
	ErrNotListening  = errors.New("server is not listening")
)

// Server accepts connections and serves every one of them on a single goroutine,
// the one calling Serve. A Server is single-use: once stopped it stays stopped
type Server struct {
	cfg        Config
	dispatcher http.Dispatcher
	stats      *counters

	mu      sync.Mutex
	sock    *netpoll.Listener
	running atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New makes a server. A nil dispatcher answers every request with Not Found
func New(cfg Config, dispatcher http.Dispatcher) *Server {
	return &Server{
		cfg:        cfg.withDefaults(),
		dispatcher: dispatcher,
		stats:      newCounters(),
		stop:       make(chan struct{}),
	}
}

// Listen binds the listening socket. It is split from Serve so the bound port is
// known before the event loop starts
func (s *Server) Listen() error {
	if s.stopped() {
		return ErrServerClosed
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	sock, err := netpoll.Listen(s.cfg.Host, s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sock != nil {
		_ = sock.Close()
		return ErrServerRunning
	}

	s.sock = sock

	return nil
}

// Serve runs the event loop until Stop is called or ctx is done. Stopping via Stop
// returns nil, otherwise the context error is returned. The listener and every
// client are closed on return
func (s *Server) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerRunning
	}
	defer s.running.Store(false)

	s.mu.Lock()
	sock := s.sock
	s.mu.Unlock()

	if sock == nil {
		return ErrNotListening
	}

	defer s.closeListener()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.cfg.Logger.WithField("addr", sock.Addr()).Info("listening")

	err := tcp.Run(ctx, sock, tcp.Config{
		PollTimeout:    s.cfg.PollTimeout,
		ReadBufferSize: s.cfg.ReadBufferSize,
		MaxInputSize:   s.cfg.MaxRequestSize,
		Logger:         s.cfg.Logger,
		OnClose:        s.onClose,
	}, s.onConn)

	s.cfg.Logger.WithField("addr", sock.Addr()).Info("stopped")

	if s.stopped() {
		return nil
	}

	return err
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	return s.Serve(ctx)
}

// Stop requests a shutdown. It does not wait: the event loop notices it within
// PollTimeout, after which Serve returns. Calling Stop more than once is fine
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Port returns the bound port, or 0 when not listening
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sock == nil {
		return 0
	}

	return s.sock.Port()
}

func (s *Server) Stats() Stats {
	return s.stats.snapshot()
}

func (s *Server) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sock == nil {
		return
	}

	if err := s.sock.Close(); err != nil {
		s.cfg.Logger.WithError(err).Warn("error closing the listener")
	}

	s.sock = nil
}

func (s *Server) onConn(client *tcp.Client) tcp.Session {
	s.stats.accepted.Inc()
	s.stats.active.Inc()

	return serve.New(client, http1.NewScanner(s.cfg.MaxRequestSize), serve.Config{
		Dispatcher: s.dispatcher,
		Logger:     s.cfg.Logger,
		OnRequest:  s.onRequest,
	})
}

func (s *Server) onRequest(request *http.Request, response *http.Response) {
	s.stats.requests.Inc()
	s.cfg.Logger.WithFields(logrus.Fields{
		"method": request.Method.String(),
		"path":   request.Path,
		"status": response.Status,
	}).Debug("request served")
}

func (s *Server) onClose(*tcp.Client) {
	s.stats.active.Dec()
	s.stats.closed.Inc()
}
