package series

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()
	if c.Logger() == nil {
		t.Fatalf("Logger() = nil")
	}
	if c.NotifyConcurrency() <= 0 {
		t.Fatalf("NotifyConcurrency() = %d", c.NotifyConcurrency())
	}
	if c.Metrics() == nil {
		t.Fatalf("Metrics() = nil")
	}
}

func TestWithLogger(t *testing.T) {
	l := slog.Default()
	c := NewConfig(WithLogger(l))
	if c.Logger() != l {
		t.Fatalf("WithLogger did not override Logger()")
	}
}

func TestWithNotifyConcurrency(t *testing.T) {
	c := NewConfig(WithNotifyConcurrency(7))
	if c.NotifyConcurrency() != 7 {
		t.Fatalf("NotifyConcurrency() = %d, wanted 7", c.NotifyConcurrency())
	}
}

func TestWithNotifyConcurrency_IgnoresNonPositive(t *testing.T) {
	def := NewConfig().NotifyConcurrency()
	c := NewConfig(WithNotifyConcurrency(0))
	if c.NotifyConcurrency() != def {
		t.Fatalf("WithNotifyConcurrency(0) changed the default")
	}
}

func TestWithMetrics(t *testing.T) {
	m := NewMetrics()
	c := NewConfig(WithMetrics(m))
	if c.Metrics() != m {
		t.Fatalf("WithMetrics did not override Metrics()")
	}
}

func TestNewConfig_DefaultLoggerDiscardsRecords(t *testing.T) {
	c := NewConfig()
	if c.Logger().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("default Logger() is enabled for some level, wanted fully discarded")
	}
}
