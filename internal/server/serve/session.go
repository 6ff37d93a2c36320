package serve

import (
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"pollhttp/core/http"
	"pollhttp/core/protocol"
	"pollhttp/internal/scan"
	"pollhttp/internal/server/tcp"
)

type Config struct {
	// Dispatcher may be nil, in which case every request is answered with Not Found
	Dispatcher http.Dispatcher
	Logger     logrus.FieldLogger
	// OnRequest, if set, is called once the response to a complete request is queued
	OnRequest func(request *http.Request, response *http.Response)
}

// Session speaks HTTP/1.1 on top of a single client. At most one request is in flight:
// bytes following a complete request in the same read are dropped together with it
type Session struct {
	client  *tcp.Client
	scanner scan.Scanner
	cfg     Config
	// closing is set once a response with keep-alive off is queued. Anything received
	// afterwards is discarded until the connection goes away
	closing bool
}

func New(client *tcp.Client, scanner scan.Scanner, cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	return &Session{
		client:  client,
		scanner: scanner,
		cfg:     cfg,
	}
}

func (s *Session) OnReadable() error {
	err := s.client.Fill()
	switch {
	case errors.Is(err, tcp.ErrInputTooLarge):
		if !s.closing {
			s.reject(protocol.StatusRequestTooLarge)
		}

		return nil
	case err != nil:
		return err
	}

	if s.closing {
		s.client.ClearInput()
		return nil
	}

	request, done, err := s.scanner.Scan(s.client.Input())
	switch {
	case err != nil:
		s.logger().WithError(err).Debug("malformed request")
		s.reject(protocol.StatusBadRequest)
	case done:
		s.serve(request)
	}

	return nil
}

func (s *Session) serve(request *http.Request) {
	keepAlive := request.KeepAlive()

	response, panicked := s.dispatch(request)
	if panicked {
		keepAlive = false
	}

	response.SetKeepAlive(keepAlive)
	s.queue(response, keepAlive)

	if s.cfg.OnRequest != nil {
		s.cfg.OnRequest(request, response)
	}
}

// dispatch never fails: an unmatched route becomes Not Found, a panicking handler
// becomes Internal Server Error with the connection closed afterwards
func (s *Session) dispatch(request *http.Request) (response *http.Response, panicked bool) {
	if s.cfg.Dispatcher == nil {
		return http.NewTextResponse(protocol.StatusNotFound), false
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger().WithFields(logrus.Fields{
				"method": request.Method.String(),
				"path":   request.Path,
				"panic":  fmt.Sprint(r),
			}).Error("dispatcher panicked")

			response, panicked = http.NewTextResponse(protocol.StatusInternalServerError), true
		}
	}()

	response, found := s.cfg.Dispatcher.Route(request)
	if !found || response == nil {
		return http.NewTextResponse(protocol.StatusNotFound), false
	}

	return response, false
}

func (s *Session) reject(status int) {
	response := http.NewTextResponse(status)
	response.SetKeepAlive(false)
	s.queue(response, false)
}

func (s *Session) queue(response *http.Response, keepAlive bool) {
	s.client.SetKeepAlive(keepAlive)
	s.client.Queue(response.AppendTo)
	s.client.ClearInput()
	s.scanner.Release()
	s.closing = !keepAlive
}

func (s *Session) logger() logrus.FieldLogger {
	return s.cfg.Logger.WithFields(logrus.Fields{
		"fd":     s.client.Fd(),
		"remote": s.client.RemoteAddr(),
	})
}
