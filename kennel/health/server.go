// Package health serves the liveness line hosting platforms poll and the
// Prometheus metrics of the bot.
package health

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/kennelbot/core/logger"
)

// Banner is the body of the liveness endpoints.
const Banner = "🐕 Cane Corso Bot is running!"

// Handler routes /, /health and /metrics.
func Handler() http.Handler {
	mux := http.NewServeMux()
	alive := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	}
	mux.HandleFunc("GET /{$}", alive)
	mux.HandleFunc("GET /health", alive)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Server is the health HTTP server.
type Server struct {
	srv *http.Server
}

// NewServer binds Handler to addr.
func NewServer(addr string) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		logger.LogEvent(ctx, logger.Health, slog.LevelError, "listen",
			slog.String("status", "fail"),
			slog.String("listen", s.srv.Addr),
			slog.String("err", err.Error()),
		)
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger.LogEvent(ctx, logger.Health, slog.LevelInfo, "listen",
		slog.String("status", "ok"),
		slog.String("listen", ln.Addr().String()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logger.LogEvent(shutdownCtx, logger.Health, slog.LevelWarn, "shutdown",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.LogEvent(shutdownCtx, logger.Health, slog.LevelInfo, "shutdown", slog.String("status", "ok"))
	return nil
}
