package server

import (
	"github.com/sirupsen/logrus"
	"time"
)

const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultBacklog        = 128
	DefaultMaxRequestSize = 1 << 20
	DefaultReadBufferSize = 8 * 1024
	DefaultPollTimeout    = time.Second
)

type Config struct {
	// Host is an IPv4 address. Empty means all interfaces
	Host string
	// Port 0 binds an ephemeral port, see Server.Port
	Port    int
	Backlog int
	// MaxRequestSize caps the bytes buffered for a single request. Going over it is
	// answered with 413 and the connection is closed
	MaxRequestSize int
	ReadBufferSize int
	// PollTimeout bounds every readiness wait, and so how long Stop takes to be noticed
	PollTimeout time.Duration
	Logger      logrus.FieldLogger
}

func DefaultConfig() Config {
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		Backlog:        DefaultBacklog,
		MaxRequestSize: DefaultMaxRequestSize,
		ReadBufferSize: DefaultReadBufferSize,
		PollTimeout:    DefaultPollTimeout,
		Logger:         logrus.StandardLogger(),
	}
}

// withDefaults fills every zero field except Port, as port 0 is meaningful
func (c Config) withDefaults() Config {
	if len(c.Host) == 0 {
		c.Host = DefaultHost
	}

	if c.Backlog <= 0 {
		c.Backlog = DefaultBacklog
	}

	if c.MaxRequestSize <= 0 {
		c.MaxRequestSize = DefaultMaxRequestSize
	}

	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}

	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}

	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}

	return c
}
