package series

import (
	"log/slog"
	"runtime"
)

// Config collects the options every container/facade constructor in
// this module accepts, mirroring the teacher's Options struct-of-funcs
// idiom (edb.Options) but built functional-option style so embedding
// packages (seriessorted, remote) can apply the same Option values
// without this package exposing mutable fields directly.
type Config struct {
	logger            *slog.Logger
	notifyConcurrency int
	metrics           *Metrics
}

func defaultConfig() Config {
	return Config{
		logger:            slog.New(slog.DiscardHandler),
		notifyConcurrency: runtime.GOMAXPROCS(0) * 4,
		metrics:           NewMetrics(),
	}
}

// Logger returns the configured logger, never nil.
func (c Config) Logger() *slog.Logger { return c.logger }

// NotifyConcurrency returns the configured notification worker pool bound.
func (c Config) NotifyConcurrency() int { return c.notifyConcurrency }

// Metrics returns the configured counters, never nil.
func (c Config) Metrics() *Metrics { return c.metrics }

// Option configures a container, async cursor, or remote facade.
type Option func(*Config)

// NewConfig applies opts over the package defaults, for use by
// constructors in other packages (seriessorted.New, remote.Open, ...)
// that accept ...series.Option.
func NewConfig(opts ...Option) Config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger attaches a structured logger; the default is silent.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNotifyConcurrency bounds the notification worker pool's
// in-flight goroutine count. Zero or negative leaves the default
// (GOMAXPROCS*4) in place.
func WithNotifyConcurrency(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.notifyConcurrency = n
		}
	}
}

// WithMetrics directs a container or facade to publish into m instead
// of its own private Metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		if m != nil {
			c.metrics = m
		}
	}
}
