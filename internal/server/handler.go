package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"trino-query-log/internal/config"
	"trino-query-log/internal/listener"
	"trino-query-log/internal/metrics"
	"trino-query-log/internal/model"
	"trino-query-log/internal/pool"

	"github.com/rs/zerolog"
)

// 이벤트 종류별 수신 경로
var eventPaths = map[model.Kind]string{
	model.KindQueryCreated:   "/v1/query-created",
	model.KindQueryCompleted: "/v1/query-completed",
	model.KindSplitCompleted: "/v1/split-completed",
}

// EventPath 는 kind 의 수신 경로.
func EventPath(kind model.Kind) string {
	return eventPaths[kind]
}

type Handler struct {
	cfg      config.Config
	metrics  *metrics.Metrics
	listener listener.EventListener
	log      zerolog.Logger
}

func NewHandler(cfg config.Config, m *metrics.Metrics, l listener.EventListener, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		metrics:  m,
		listener: l,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// HandleEvent
//
// coordinator 가 POST 하는 이벤트 JSON 하나를 listener 에 넘긴다.
//
//  1. 요청 길이 제한(MaxBodySize) → 초과 시 413
//  2. BodyPool 버퍼로 body 읽기
//  3. kind 에 맞게 디코딩 → 실패 시 400
//  4. listener 콜백 호출 → 204
//
// 필터링이나 직렬화 실패는 listener 안에서 끝나므로 응답에 영향을 주지 않는다.
func (h *Handler) HandleEvent(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.metrics.HTTPRequestsTotal.WithLabelValues(string(kind)).Inc()

		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodySize)
		defer r.Body.Close()

		buf := pool.BodyPool.Get().(*bytes.Buffer)
		buf.Reset()
		defer pool.PutBody(buf, h.cfg.MaxBodySize*2)

		if _, err := io.Copy(buf, r.Body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.metrics.HTTPRequestsRejectedBodyTooLargeTotal.Inc()
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			h.metrics.HTTPRequestsRejectedBadPayloadTotal.Inc()
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := listener.Deliver(h.listener, kind, buf.Bytes()); err != nil {
			h.metrics.HTTPRequestsRejectedBadPayloadTotal.Inc()
			h.log.Debug().Err(err).Str("kind", string(kind)).Msg("bad event payload")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleHealth 는 load balancer health check 용.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}
