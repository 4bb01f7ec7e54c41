// Package ops serves the operational endpoints: Prometheus metrics and a
// health check.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/metrics"
)

// Pinger reports whether a backend is reachable. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler routes /metrics and /healthz. Every named check must pass for
// /healthz to answer 200.
func Handler(checks map[string]Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Use(requestLog)
	r.Use(recoverer)

	r.Get("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, p := range checks {
			if err := p.PingContext(ctx); err != nil {
				logger.WithCtx(ctx).Warn("ops: health check failed", "check", name, "error", err)
				body[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
	return r
}

// Serve listens on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	logger.Info("ops: listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}
