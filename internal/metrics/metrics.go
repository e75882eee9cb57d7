package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 필터 탈락 사유 (EventsFiltered reason label)
const (
	ReasonDisabled  = "disabled"
	ReasonQueryType = "query_type"
	ReasonCatalog   = "catalog"
)

// Metrics 는 프로세스 상태를 나타내는 prometheus 지표 모음이다.
// 인스턴스마다 별도 Registry 를 가지므로 테스트에서 여러 개 만들어도 충돌하지 않는다.
type Metrics struct {
	Registry *prometheus.Registry

	// ======================
	// listener 레벨 지표 (label: kind)
	// ======================

	// EventsReceived
	// - 엔진으로부터 받은 이벤트 수 (필터 여부와 무관).
	EventsReceived *prometheus.CounterVec

	// EventsLogged
	// - 필터를 통과해서 sink 에 한 줄로 넘겨진 이벤트 수.
	EventsLogged *prometheus.CounterVec

	// EventsFiltered
	// - 설정에 의해 기록되지 않은 이벤트 수 (label: reason).
	// - 오류가 아니라 정상적인 no-op 결과다.
	EventsFiltered *prometheus.CounterVec

	// SerializeErrors
	// - JSON 직렬화 실패로 버려진 이벤트 수.
	SerializeErrors *prometheus.CounterVec

	// SinkErrors
	// - sink write 실패 수. 이벤트는 재시도하지 않는다.
	SinkErrors *prometheus.CounterVec

	// ======================
	// HTTP 레벨 지표
	// ======================

	HTTPRequestsTotal                     *prometheus.CounterVec // label: kind
	HTTPRequestsRejectedBodyTooLargeTotal prometheus.Counter
	HTTPRequestsRejectedBadPayloadTotal   prometheus.Counter

	// ======================
	// archive sink 지표
	// ======================

	// ArchiveLinesQueued / ArchiveLinesDropped
	// - archive 채널에 들어간 / 채널이 가득 차서 버려진 라인 수.
	ArchiveLinesQueued  prometheus.Counter
	ArchiveLinesDropped prometheus.Counter

	// S3LinesStored
	// - 최종적으로 S3 에 성공 저장된 라인 수 (배치 수 아님).
	S3LinesStored prometheus.Counter

	// S3PutErrors
	// - PutObject 실패 "시도" 횟수. retry 마다 증가한다.
	S3PutErrors prometheus.Counter

	// DLQ 지표
	DLQLinesEnqueued   prometheus.Counter
	DLQLinesReuploaded prometheus.Counter
	DLQLinesDropped    prometheus.Counter
	DLQFilesExpired    prometheus.Counter
	DLQFilesCurrent    prometheus.Gauge
	DLQSizeBytes       prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		Registry: reg,

		EventsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "querylog_events_received_total",
			Help: "Total number of engine events received by the listener.",
		}, []string{"kind"}),
		EventsLogged: f.NewCounterVec(prometheus.CounterOpts{
			Name: "querylog_events_logged_total",
			Help: "Total number of events written to the sink as a log line.",
		}, []string{"kind"}),
		EventsFiltered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "querylog_events_filtered_total",
			Help: "Total number of events skipped by configuration, labelled by reason.",
		}, []string{"kind", "reason"}),
		SerializeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "querylog_serialize_errors_total",
			Help: "Total number of events dropped because JSON serialization failed.",
		}, []string{"kind"}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "querylog_sink_errors_total",
			Help: "Total number of sink write failures.",
		}, []string{"kind"}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "querylog_http_requests_total",
			Help: "Total number of event delivery requests.",
		}, []string{"kind"}),
		HTTPRequestsRejectedBodyTooLargeTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_http_requests_rejected_body_too_large_total",
			Help: "Total number of requests rejected with 413.",
		}),
		HTTPRequestsRejectedBadPayloadTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_http_requests_rejected_bad_payload_total",
			Help: "Total number of requests rejected with 400.",
		}),

		ArchiveLinesQueued: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_archive_lines_queued_total",
			Help: "Total number of log lines queued for archiving.",
		}),
		ArchiveLinesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_archive_lines_dropped_total",
			Help: "Total number of log lines dropped because the archive queue was full.",
		}),
		S3LinesStored: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_s3_lines_stored_total",
			Help: "Total number of log lines stored in S3.",
		}),
		S3PutErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_s3_put_errors_total",
			Help: "Total number of failed S3 PutObject attempts.",
		}),
		DLQLinesEnqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_dlq_lines_enqueued_total",
			Help: "Total number of log lines saved to the local DLQ.",
		}),
		DLQLinesReuploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_dlq_lines_reuploaded_total",
			Help: "Total number of log lines re-uploaded from the local DLQ.",
		}),
		DLQLinesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_dlq_lines_dropped_total",
			Help: "Total number of log lines dropped because the DLQ was full.",
		}),
		DLQFilesExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "querylog_dlq_files_expired_total",
			Help: "Total number of DLQ files removed by TTL or capacity policy.",
		}),
		DLQFilesCurrent: f.NewGauge(prometheus.GaugeOpts{
			Name: "querylog_dlq_files_current",
			Help: "Current number of files in the local DLQ.",
		}),
		DLQSizeBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "querylog_dlq_size_bytes",
			Help: "Current size of the local DLQ in bytes.",
		}),
	}
	return m
}

// Handler 는 /metrics 엔드포인트용 http.Handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
