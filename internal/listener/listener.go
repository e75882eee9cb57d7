// Package listener 는 엔진 이벤트를 받아 설정에 따라 걸러내고
// 한 줄짜리 JSON 로그로 sink 에 넘긴다.
package listener

import (
	"fmt"
	"regexp"

	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"
	"trino-query-log/internal/model"
	"trino-query-log/internal/projection"
	"trino-query-log/internal/serializer"
	"trino-query-log/internal/sink"
	"trino-query-log/internal/truncate"

	"github.com/rs/zerolog"
)

// EventListener 는 엔진이 호출하는 세 가지 이벤트 콜백.
// 구현체는 여러 goroutine 에서 동시에 호출되어도 안전해야 하며,
// 어떤 경우에도 panic 이나 error 를 호출자에게 돌려주지 않는다.
type EventListener interface {
	QueryCreated(event *model.QueryCreatedEvent)
	QueryCompleted(event *model.QueryCompletedEvent)
	SplitCompleted(event *model.SplitCompletedEvent)
}

// Dispatcher
// ------------------------------------------------------------
// Properties 기반 필터 + truncate + projection + serialize + emit.
//
// 생성 후 상태가 바뀌지 않는다. 이벤트 처리 중 공유 가변 상태가 없으므로
// lock 없이 동시 호출된다. (sink 의 라인 원자성은 sink 책임)
//
// 이벤트 단위 실패(직렬화, sink write, panic)는 metrics 에 세고 debug 로그만 남긴다.
type Dispatcher struct {
	props config.Properties
	sink  sink.Sink
	m     *metrics.Metrics
	log   zerolog.Logger
}

var _ EventListener = (*Dispatcher)(nil)

// NewDispatcher 는 의존성이 모두 있는지만 확인한다.
// 설정 검증(필수 키, 정규식)은 config.ParseProperties 에서 이미 끝난 상태여야 한다.
func NewDispatcher(props config.Properties, s sink.Sink, m *metrics.Metrics, log zerolog.Logger) (*Dispatcher, error) {
	if s == nil {
		return nil, fmt.Errorf("listener: sink is nil")
	}
	if m == nil {
		return nil, fmt.Errorf("listener: metrics is nil")
	}
	if props.QueryCreatedQueryTypePattern == nil ||
		props.QueryCompletedQueryTypePattern == nil ||
		props.QueryCompletedCatalogPattern == nil {
		return nil, fmt.Errorf("listener: properties not parsed (nil pattern)")
	}
	return &Dispatcher{
		props: props,
		sink:  s,
		m:     m,
		log:   log.With().Str("component", "listener").Logger(),
	}, nil
}

// Properties 는 이 Dispatcher 가 사용하는 설정.
func (d *Dispatcher) Properties() config.Properties {
	return d.props
}

// ------------------------------------------------------------
// queryCreated
// ------------------------------------------------------------

func (d *Dispatcher) QueryCreated(event *model.QueryCreatedEvent) {
	const kind = model.KindQueryCreated
	defer d.recoverEvent(kind)
	d.m.EventsReceived.WithLabelValues(string(kind)).Inc()

	if !d.props.QueryCreated {
		d.filtered(kind, metrics.ReasonDisabled)
		return
	}
	if !matchQueryType(d.props.QueryCreatedQueryTypePattern, event.Context.QueryType) {
		d.filtered(kind, metrics.ReasonQueryType)
		return
	}

	ev := *event
	ev.Metadata = truncateMetadata(event.Metadata, d.props.QueryCreatedQueryMaxLength)
	d.emit(kind, &ev)
}

// ------------------------------------------------------------
// queryCompleted
// ------------------------------------------------------------

func (d *Dispatcher) QueryCompleted(event *model.QueryCompletedEvent) {
	const kind = model.KindQueryCompleted
	defer d.recoverEvent(kind)
	d.m.EventsReceived.WithLabelValues(string(kind)).Inc()

	if !d.props.QueryCompleted {
		d.filtered(kind, metrics.ReasonDisabled)
		return
	}
	if !matchQueryType(d.props.QueryCompletedQueryTypePattern, event.Context.QueryType) {
		d.filtered(kind, metrics.ReasonQueryType)
		return
	}

	// 첫 번째로 catalog 가 일치하는 input 에서 한 번만 기록하고 끝낸다.
	for _, input := range event.IOMetadata.Inputs {
		if !d.props.QueryCompletedCatalogPattern.MatchString(input.CatalogName) {
			continue
		}
		ev := *event
		ev.Metadata = truncateMetadata(event.Metadata, d.props.QueryCompletedQueryMaxLength)
		d.emit(kind, projection.Project(&ev))
		return
	}
	d.filtered(kind, metrics.ReasonCatalog)
}

// ------------------------------------------------------------
// splitCompleted
// ------------------------------------------------------------

func (d *Dispatcher) SplitCompleted(event *model.SplitCompletedEvent) {
	const kind = model.KindSplitCompleted
	defer d.recoverEvent(kind)
	d.m.EventsReceived.WithLabelValues(string(kind)).Inc()

	if !d.props.SplitCompleted {
		d.filtered(kind, metrics.ReasonDisabled)
		return
	}
	d.emit(kind, event)
}

// ------------------------------------------------------------
// 내부 helper
// ------------------------------------------------------------

// emit 은 v 를 직렬화해서 sink 에 정확히 한 번 넘긴다.
// 직렬화 실패 시 sink 를 호출하지 않는다.
func (d *Dispatcher) emit(kind model.Kind, v any) {
	line, err := serializer.Serialize(v)
	if err != nil {
		d.m.SerializeErrors.WithLabelValues(string(kind)).Inc()
		d.log.Debug().Err(err).Str("kind", string(kind)).Msg("serialize failed, event dropped")
		return
	}
	if err := d.sink.Emit(line); err != nil {
		d.m.SinkErrors.WithLabelValues(string(kind)).Inc()
		d.log.Debug().Err(err).Str("kind", string(kind)).Msg("sink emit failed")
		return
	}
	d.m.EventsLogged.WithLabelValues(string(kind)).Inc()
}

func (d *Dispatcher) filtered(kind model.Kind, reason string) {
	d.m.EventsFiltered.WithLabelValues(string(kind), reason).Inc()
}

// recoverEvent 는 이벤트 하나의 처리 중 발생한 panic 을 삼킨다.
// 엔진 스레드로 panic 이 전파되면 안 된다.
func (d *Dispatcher) recoverEvent(kind model.Kind) {
	if r := recover(); r != nil {
		d.m.SerializeErrors.WithLabelValues(string(kind)).Inc()
		d.log.Debug().Interface("panic", r).Str("kind", string(kind)).Msg("event handling panicked, event dropped")
	}
}

// matchQueryType: query type 이 없으면 불일치.
func matchQueryType(re *regexp.Regexp, queryType *string) bool {
	if queryType == nil {
		return false
	}
	return re.MatchString(*queryType)
}

// truncateMetadata 는 query / preparedQuery 를 자른 복사본을 돌려준다.
// 원본 메타데이터(포인터 필드 포함)는 건드리지 않는다.
func truncateMetadata(md model.QueryMetadata, maxLength int) model.QueryMetadata {
	if maxLength == truncate.Unlimited {
		return md
	}
	md.Query = truncate.Truncate(md.Query, maxLength)
	if md.PreparedQuery != nil {
		pq := truncate.Truncate(*md.PreparedQuery, maxLength)
		md.PreparedQuery = &pq
	}
	return md
}
