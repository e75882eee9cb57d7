package listener

import (
	"errors"
	"math"
	"sync"
	"testing"

	"trino-query-log/internal/config"
	"trino-query-log/internal/metrics"
	"trino-query-log/internal/model"
	"trino-query-log/internal/model/testutil"
	"trino-query-log/internal/serializer"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink 는 Emit 된 라인을 모아두는 테스트용 sink.
type recordSink struct {
	mu    sync.Mutex
	lines []string
	err   error
	panic bool
}

func (s *recordSink) Emit(line string) error {
	if s.panic {
		panic("boom")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *recordSink) Close() error { return nil }

func (s *recordSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func newDispatcher(t *testing.T, overrides map[string]string) (*Dispatcher, *recordSink, *metrics.Metrics) {
	t.Helper()

	raw := config.DefaultMap()
	for k, v := range overrides {
		raw[k] = v
	}
	props, err := config.ParseProperties(raw)
	require.NoError(t, err)

	s := &recordSink{}
	m := metrics.New()
	d, err := NewDispatcher(props, s, m, zerolog.Nop())
	require.NoError(t, err)
	return d, s, m
}

func count(m *metrics.Metrics, vec string, labels ...string) float64 {
	switch vec {
	case "received":
		return promtest.ToFloat64(m.EventsReceived.WithLabelValues(labels...))
	case "logged":
		return promtest.ToFloat64(m.EventsLogged.WithLabelValues(labels...))
	case "filtered":
		return promtest.ToFloat64(m.EventsFiltered.WithLabelValues(labels...))
	case "serialize":
		return promtest.ToFloat64(m.SerializeErrors.WithLabelValues(labels...))
	case "sink":
		return promtest.ToFloat64(m.SinkErrors.WithLabelValues(labels...))
	}
	panic("unknown vec " + vec)
}

// ------------------------------------------------------------
// construction
// ------------------------------------------------------------

func TestNewDispatcherRejectsMissingDependencies(t *testing.T) {
	t.Parallel()

	props := config.DefaultProperties()

	_, err := NewDispatcher(props, nil, metrics.New(), zerolog.Nop())
	assert.Error(t, err)

	_, err = NewDispatcher(props, &recordSink{}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewDispatcher(config.Properties{}, &recordSink{}, metrics.New(), zerolog.Nop())
	assert.Error(t, err)
}

// ------------------------------------------------------------
// queryCreated
// ------------------------------------------------------------

func TestQueryCreatedQueryTypeFilter(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, map[string]string{
		config.KeyQueryCreatedQueryTypePattern: "SELECT",
	})

	d.QueryCreated(testutil.QueryCreated())
	require.Len(t, s.Lines(), 1)

	insert := testutil.QueryCreated()
	insert.Context = testutil.Context("INSERT")
	d.QueryCreated(insert)
	assert.Len(t, s.Lines(), 1)

	assert.Equal(t, 2.0, count(m, "received", "queryCreated"))
	assert.Equal(t, 1.0, count(m, "logged", "queryCreated"))
	assert.Equal(t, 1.0, count(m, "filtered", "queryCreated", metrics.ReasonQueryType))
}

func TestQueryCreatedPatternIsFullMatch(t *testing.T) {
	t.Parallel()

	d, s, _ := newDispatcher(t, map[string]string{
		config.KeyQueryCreatedQueryTypePattern: "SEL",
	})

	d.QueryCreated(testutil.QueryCreated())
	assert.Empty(t, s.Lines())
}

func TestQueryCreatedMissingQueryTypeIsSkipped(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, nil)

	ev := testutil.QueryCreated()
	ev.Context = testutil.Context("")
	d.QueryCreated(ev)

	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "filtered", "queryCreated", metrics.ReasonQueryType))
}

func TestQueryCreatedDisabled(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, map[string]string{config.KeyQueryCreated: "false"})

	d.QueryCreated(testutil.QueryCreated())
	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "filtered", "queryCreated", metrics.ReasonDisabled))
}

func TestQueryCreatedLineRoundTrips(t *testing.T) {
	t.Parallel()

	d, s, _ := newDispatcher(t, nil)
	d.QueryCreated(testutil.QueryCreated())

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"createTime":"2024-01-15 10:30:00"`)

	var got model.QueryCreatedEvent
	require.NoError(t, serializer.Deserialize([]byte(lines[0]), &got))
	assert.Equal(t, *testutil.QueryCreated(), got)
}

// ------------------------------------------------------------
// truncation
// ------------------------------------------------------------

const longQuery = "select * from dim_date limit 100000" // 35자

func TestQueryCreatedTruncatesCopy(t *testing.T) {
	t.Parallel()

	d, s, _ := newDispatcher(t, map[string]string{
		config.KeyQueryCreatedQueryMaxLength: "20",
	})

	ev := testutil.QueryCreated()
	ev.Metadata.Query = longQuery
	prepared := ev.Metadata.PreparedQuery
	d.QueryCreated(ev)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"query":"select * <truncated> t 100000"`)
	assert.Contains(t, lines[0], `"preparedQuery":"prepare  <truncated> it 10000"`)

	// 원본 이벤트는 그대로
	assert.Equal(t, longQuery, ev.Metadata.Query)
	assert.Same(t, prepared, ev.Metadata.PreparedQuery)
	assert.Equal(t, testutil.PreparedQuery, *ev.Metadata.PreparedQuery)
}

// -1 이 아닌 음수 길이는 Marker 만 남긴다. 이벤트는 버려지지 않는다.
func TestNegativeMaxLengthKeepsMarkerOnly(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, map[string]string{
		config.KeyQueryCreatedQueryMaxLength:   "-100",
		config.KeyQueryCompletedQueryMaxLength: "-100",
	})

	d.QueryCreated(testutil.QueryCreated())
	d.QueryCompleted(testutil.QueryCompleted())

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"query":" <truncated> "`)
	assert.Contains(t, lines[0], `"preparedQuery":" <truncated> "`)
	assert.Contains(t, lines[1], `"query":" <truncated> "`)

	assert.Equal(t, 1.0, count(m, "logged", "queryCreated"))
	assert.Equal(t, 1.0, count(m, "logged", "queryCompleted"))
	assert.Equal(t, 0.0, count(m, "serialize", "queryCreated"))
	assert.Equal(t, 0.0, count(m, "serialize", "queryCompleted"))
}

func TestQueryCompletedTruncation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		maxLength string
		want      string
	}{
		{name: "limited", maxLength: "20", want: `"query":"select * <truncated> t 100000"`},
		{name: "unlimited", maxLength: "-1", want: `"query":"` + longQuery + `"`},
		{name: "short enough", maxLength: "35", want: `"query":"` + longQuery + `"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, s, _ := newDispatcher(t, map[string]string{
				config.KeyQueryCompletedQueryMaxLength: tt.maxLength,
			})

			ev := testutil.QueryCompleted()
			ev.Metadata.Query = longQuery
			d.QueryCompleted(ev)

			lines := s.Lines()
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], tt.want)
			assert.Equal(t, longQuery, ev.Metadata.Query)
		})
	}
}

func TestTruncateMetadataWithoutPreparedQuery(t *testing.T) {
	t.Parallel()

	md := testutil.Metadata()
	md.Query = longQuery
	md.PreparedQuery = nil

	got := truncateMetadata(md, 20)
	assert.Equal(t, "select * <truncated> t 100000", got.Query)
	assert.Nil(t, got.PreparedQuery)
}

// ------------------------------------------------------------
// queryCompleted
// ------------------------------------------------------------

func TestQueryCompletedCatalogFirstMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		lines   int
		reason  string
	}{
		{name: "first input matches", pattern: "hive", lines: 1},
		{name: "second input matches", pattern: "mysql", lines: 1},
		{name: "both match, emitted once", pattern: "hive|mysql", lines: 1},
		{name: "partial name does not match", pattern: "hiv", lines: 0, reason: metrics.ReasonCatalog},
		{name: "no match", pattern: "postgresql", lines: 0, reason: metrics.ReasonCatalog},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, s, m := newDispatcher(t, map[string]string{
				config.KeyQueryCompletedCatalogPattern: tt.pattern,
			})

			d.QueryCompleted(testutil.QueryCompleted("hive", "mysql"))

			assert.Len(t, s.Lines(), tt.lines)
			assert.Equal(t, float64(tt.lines), count(m, "logged", "queryCompleted"))
			if tt.reason != "" {
				assert.Equal(t, 1.0, count(m, "filtered", "queryCompleted", tt.reason))
			}
		})
	}
}

func TestQueryCompletedWithoutInputsIsSkipped(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, nil)

	ev := testutil.QueryCompleted()
	ev.IOMetadata.Inputs = nil
	d.QueryCompleted(ev)

	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "filtered", "queryCompleted", metrics.ReasonCatalog))
}

func TestQueryCompletedEmitsReducedEvent(t *testing.T) {
	t.Parallel()

	d, s, _ := newDispatcher(t, nil)
	d.QueryCompleted(testutil.QueryCompleted("hive", "mysql"))

	lines := s.Lines()
	require.Len(t, lines, 1)

	var got model.ReducedQueryCompletedEvent
	require.NoError(t, serializer.Deserialize([]byte(lines[0]), &got))

	assert.Equal(t, testutil.Query, got.Metadata.Query)
	assert.Equal(t, int64(1), got.Statistics.CPUSecond)
	assert.Equal(t, "2024-01-15 10:30:01", got.StartTime.String())
	require.Len(t, got.InputMetaDataList, 2)
	assert.Equal(t, "hive", got.InputMetaDataList[0].CatalogName)
	assert.Equal(t, "mysql", got.InputMetaDataList[1].CatalogName)
	assert.NotContains(t, lines[0], `"ioMetadata"`)
}

func TestQueryCompletedQueryTypeAndDisabled(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, map[string]string{
		config.KeyQueryCompletedQueryTypePattern: "INSERT|DELETE",
	})
	d.QueryCompleted(testutil.QueryCompleted())
	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "filtered", "queryCompleted", metrics.ReasonQueryType))

	d, s, m = newDispatcher(t, map[string]string{config.KeyQueryCompleted: "false"})
	d.QueryCompleted(testutil.QueryCompleted())
	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "filtered", "queryCompleted", metrics.ReasonDisabled))
}

func TestQueryCompletedSerializeFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, nil)

	ev := testutil.QueryCompleted()
	ev.Statistics.CumulativeMemory = math.NaN()

	assert.NotPanics(t, func() { d.QueryCompleted(ev) })
	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "serialize", "queryCompleted"))

	// 다음 이벤트는 정상 처리
	d.QueryCompleted(testutil.QueryCompleted())
	assert.Len(t, s.Lines(), 1)
}

// ------------------------------------------------------------
// splitCompleted
// ------------------------------------------------------------

func TestSplitCompleted(t *testing.T) {
	t.Parallel()

	d, s, _ := newDispatcher(t, nil)
	d.SplitCompleted(testutil.SplitCompleted())

	lines := s.Lines()
	require.Len(t, lines, 1)

	var got model.SplitCompletedEvent
	require.NoError(t, serializer.Deserialize([]byte(lines[0]), &got))
	assert.Equal(t, *testutil.SplitCompleted(), got)
}

func TestSplitCompletedDisabled(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, map[string]string{config.KeySplitCompleted: "false"})
	d.SplitCompleted(testutil.SplitCompleted())

	assert.Empty(t, s.Lines())
	assert.Equal(t, 1.0, count(m, "filtered", "splitCompleted", metrics.ReasonDisabled))
}

// ------------------------------------------------------------
// sink failures
// ------------------------------------------------------------

func TestSinkErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, nil)
	s.err = errors.New("disk full")

	assert.NotPanics(t, func() { d.SplitCompleted(testutil.SplitCompleted()) })
	assert.Equal(t, 1.0, count(m, "sink", "splitCompleted"))
	assert.Equal(t, 0.0, count(m, "logged", "splitCompleted"))
}

func TestSinkPanicIsRecovered(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, nil)
	s.panic = true

	assert.NotPanics(t, func() { d.QueryCreated(testutil.QueryCreated()) })
	assert.Equal(t, 1.0, count(m, "serialize", "queryCreated"))
}

func TestConcurrentEvents(t *testing.T) {
	t.Parallel()

	d, s, m := newDispatcher(t, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); d.QueryCreated(testutil.QueryCreated()) }()
		go func() { defer wg.Done(); d.QueryCompleted(testutil.QueryCompleted()) }()
		go func() { defer wg.Done(); d.SplitCompleted(testutil.SplitCompleted()) }()
	}
	wg.Wait()

	assert.Len(t, s.Lines(), 3*n)
	for _, k := range model.Kinds {
		assert.Equal(t, float64(n), count(m, "logged", string(k)))
	}
}
