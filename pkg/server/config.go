package server

import (
	"log/slog"
	"net"

	"github.com/citadel-web/citadel/pkg/handler"
)

// Config holds the parameters shared by every worker: the resolved bind
// address, the worker count, and the handler factory. It is immutable
// after construction and safe to read from all worker threads without
// synchronization.
type Config struct {
	addr       *net.TCPAddr
	numWorkers int
	newHandler handler.NewHandler
	logger     *slog.Logger
	metrics    *Metrics
}

// Option configures a Config at construction time. There is no mutation
// path once NewConfig returns.
type Option func(*Config)

// WithLogger sets the logger shared by the workers. Defaults to
// slog.Default with a "component" attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithMetrics attaches a metrics collector. Without it the runtime runs
// unmetered.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.metrics = m
	}
}

// NewConfig builds the immutable shared configuration.
func NewConfig(addr *net.TCPAddr, numWorkers int, nh handler.NewHandler, opts ...Option) (*Config, error) {
	if addr == nil {
		return nil, ErrNoAddress
	}
	if numWorkers < 1 {
		return nil, ErrInvalidWorkerCount
	}
	if nh == nil {
		return nil, ErrNoHandlerFactory
	}

	c := &Config{
		addr:       addr,
		numWorkers: numWorkers,
		newHandler: nh,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "server")
	}
	return c, nil
}

// Addr returns the resolved bind address.
func (c *Config) Addr() *net.TCPAddr { return c.addr }

// NumWorkers returns the configured worker count.
func (c *Config) NumWorkers() int { return c.numWorkers }

// NewHandler returns the shared handler factory.
func (c *Config) NewHandler() handler.NewHandler { return c.newHandler }

// Logger returns the shared logger.
func (c *Config) Logger() *slog.Logger { return c.logger }

// Metrics returns the attached metrics collector, or nil.
func (c *Config) Metrics() *Metrics { return c.metrics }
