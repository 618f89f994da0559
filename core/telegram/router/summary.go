package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kennelbot/core/logger"
	tghelpers "github.com/m3rciful/kennelbot/core/telegram/helpers"
	"github.com/m3rciful/kennelbot/core/telegram/middleware"
)

// call is one routed handler invocation; it logs a handler.handled line
// when done.
type call struct {
	name  string
	start time.Time
	// status overrides the ok/fail status derived from the error.
	status string
	extras []slog.Attr
}

func newCall(name string, extras ...slog.Attr) *call {
	return &call{name: normalizeHandlerName(name), start: time.Now(), extras: extras}
}

func (k *call) run(c tele.Context, h tele.HandlerFunc) error {
	tghelpers.WithHandler(c, k.name)
	var err error
	if h != nil {
		err = h(c)
	} else if k.status == "" {
		k.status = "skip"
	}
	k.log(c, err)
	return err
}

func (k *call) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, k.name)
	msgs, kb := middleware.GetCounters(c)

	status, outcome := "ok", "ok"
	if err != nil {
		status, outcome = "fail", "fail"
	}
	if k.status != "" {
		status = k.status
	}

	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(k.start)),
	}, k.extras...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
}

// guard applies the per-route middleware every routed handler shares.
func guard(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers a Code() string carried by the error chain and falls
// back to the Go type name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}
