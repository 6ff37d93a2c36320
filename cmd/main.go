package main

import (
	"context"
	"flag"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"pollhttp/core/http"
	"pollhttp/router"
	"pollhttp/server"
	"strconv"
	"syscall"
)

const (
	envPort     = "POLLHTTP_PORT"
	envLogLevel = "POLLHTTP_LOG_LEVEL"
)

func main() {
	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.Host, "host", cfg.Host, "IPv4 address to listen on")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "port to listen on, 0 picks a free one")
	flag.IntVar(&cfg.MaxRequestSize, "max-request-size", cfg.MaxRequestSize, "max bytes buffered per request")
	flag.DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "upper bound of a single readiness wait")
	staticPrefix := flag.String("static-prefix", "/static", "URL prefix of the static directory")
	staticRoot := flag.String("static-root", "static", "static directory, empty disables it")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if v := os.Getenv(envPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			logrus.WithField("value", v).Fatal("bad " + envPort)
		}

		cfg.Port = port
	}

	if v := os.Getenv(envLogLevel); v != "" {
		*logLevel = v
	}

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.WithError(err).Fatal("bad log level")
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(level)
	cfg.Logger = logger

	r := router.New().
		Get("/hello", func(_ *http.Request, response *http.Response) {
			response.SetContentType("application/json")
			response.Body = []byte(`{"message":"Hello, Go Web Server!"}`)
		}).
		Static(*staticPrefix, *staticRoot)

	srv := server.New(cfg, r)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.WithField("signal", sig.String()).Info("shutting down")
		srv.Stop()
	}()

	if err = srv.ListenAndServe(context.Background()); err != nil {
		logger.WithError(err).Fatal("failed to start the server")
	}

	stats := srv.Stats()
	logger.WithFields(logrus.Fields{
		"accepted": stats.Accepted,
		"requests": stats.Requests,
	}).Info("bye")
}
