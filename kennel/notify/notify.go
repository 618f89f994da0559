// Package notify tells the kennel operator about new inquiries. Delivery is
// best effort: callers log a failed notification and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
)

// Notifier delivers one inquiry to the operator.
type Notifier interface {
	Notify(ctx context.Context, r inquiry.Record) error
}

var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "kennelbot_notifications_total",
	Help: "Operator notifications by notifier and result.",
}, []string{"notifier", "result"})

func observe(ctx context.Context, name string, err error) {
	result := "ok"
	level := slog.LevelInfo
	attrs := []slog.Attr{slog.String("notifier", name)}
	if err != nil {
		result = "fail"
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	notificationsTotal.WithLabelValues(name, result).Inc()
	logger.LogEvent(ctx, logger.Notify, level, "deliver",
		append([]slog.Attr{slog.String("status", result)}, attrs...)...)
}

// Noop discards every inquiry.
type Noop struct{}

func (Noop) Notify(context.Context, inquiry.Record) error { return nil }

// Multi fans an inquiry out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r inquiry.Record) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine drops nil entries and returns Noop, the single notifier, or a Multi.
func Combine(ns ...Notifier) Notifier {
	var out Multi
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	switch len(out) {
	case 0:
		return Noop{}
	case 1:
		return out[0]
	}
	return out
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, r inquiry.Record) error

func (f Func) Notify(ctx context.Context, r inquiry.Record) error { return f(ctx, r) }

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("notify %s: %w", name, err)
}
