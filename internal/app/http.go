package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger проверка доступности БД для /healthz
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHTTPServer собирает служебный HTTP сервер: websocket, метрики и healthcheck
func NewHTTPServer(addr string, ws http.Handler, gatherer prometheus.Gatherer, db Pinger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", ws)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
