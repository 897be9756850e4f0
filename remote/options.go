package remote

import (
	"log/slog"

	series "github.com/chronocursor/seriesdb"
)

// config collects the options a ChunkedSeries accepts, mirroring the
// root package's series.Config struct-of-funcs idiom (itself ported
// from the teacher's edb.Options) but scoped to what a remote facade
// needs: a logger for I/O tracing and a Metrics sink shared with any
// seriessorted.Container callers embed alongside it.
type config struct {
	logger  *slog.Logger
	metrics *series.Metrics
}

func defaultConfig() config {
	return config{
		logger:  slog.New(slog.DiscardHandler),
		metrics: series.NewMetrics(),
	}
}

// Option configures a ChunkedSeries at Open time.
type Option func(*config)

// WithLogger attaches a structured logger that traces chunk loads,
// saves, lock acquisition and index refreshes. The default is silent.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics directs a ChunkedSeries to publish its chunk cache's
// mutation/notification counters into m instead of a private Metrics,
// matching series.WithMetrics so a caller can share one Metrics across
// a Container and the ChunkedSeries that backs its remote tier.
func WithMetrics(m *series.Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}
