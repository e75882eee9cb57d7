package server

import (
	"net/http"
	"time"

	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"
	"trino-query-log/internal/model"
)

// NewMux
//
// 엔드포인트:
//   - POST /v1/query-created, /v1/query-completed, /v1/split-completed
//   - GET  /metrics : prometheus
//   - GET  /health  : health check
//
// 메서드가 다르면 ServeMux 가 405 를 돌려준다.
func NewMux(h *Handler, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	for _, kind := range model.Kinds {
		mux.Handle("POST "+EventPath(kind), h.HandleEvent(kind))
	}
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /health", h.HandleHealth)
	return mux
}

// NewServer
//
// coordinator 는 이벤트마다 짧은 JSON 을 보내므로 timeout 을 짧게 잡는다.
// QueryCompleted 는 쿼리 텍스트와 plan 때문에 수 MB 가 될 수 있어 ReadTimeout 은 여유를 둔다.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
