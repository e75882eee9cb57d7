package serializer

import (
	"math"
	"strings"
	"testing"
	"time"

	"trino-query-log/internal/model"
	"trino-query-log/internal/model/testutil"
	"trino-query-log/internal/projection"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeInstantFormat(t *testing.T) {
	t.Parallel()

	v := struct {
		At model.Instant `json:"at"`
	}{At: model.NewInstant(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))}

	line, err := Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2024-01-15 10:30:00"}`, line)
}

func TestSerializeInstantNormalizesToUTC(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*60*60)
	v := struct {
		At model.Instant `json:"at"`
	}{At: model.Instant{Time: time.Date(2024, 1, 15, 19, 30, 0, 0, seoul)}}

	line, err := Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2024-01-15 10:30:00"}`, line)
}

func TestInstantRoundTrip(t *testing.T) {
	t.Parallel()

	type rec struct {
		At  model.Instant  `json:"at"`
		Opt *model.Instant `json:"opt"`
	}
	in := rec{At: model.NewInstant(testutil.BaseTime)}

	line, err := Serialize(in)
	require.NoError(t, err)
	assert.Contains(t, line, `"opt":null`)

	var out rec
	require.NoError(t, Deserialize([]byte(line), &out))
	assert.True(t, in.At.Equal(out.At.Time))
	assert.Nil(t, out.Opt)
}

func TestSerializeNoHTMLEscape(t *testing.T) {
	t.Parallel()

	line, err := Serialize(map[string]string{"query": "a <truncated> b & c"})
	require.NoError(t, err)
	assert.Contains(t, line, "a <truncated> b & c")
}

func TestSerializeSingleLine(t *testing.T) {
	t.Parallel()

	ev := testutil.QueryCreated()
	ev.Metadata.Query = "select 1\nfrom t"

	line, err := Serialize(ev)
	require.NoError(t, err)
	assert.NotContains(t, line, "\n")
	assert.True(t, strings.HasPrefix(line, "{"))
}

func TestSerializeReducedEventShape(t *testing.T) {
	t.Parallel()

	line, err := Serialize(projection.Project(testutil.QueryCompleted()))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &m))

	for _, k := range []string{"metadata", "statistics", "context", "inputMetaDataList", "createTime", "startTime", "endTime"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, "2024-01-15 10:30:00", m["createTime"])
	assert.Equal(t, "2024-01-15 10:30:01", m["startTime"])
	assert.Equal(t, "2024-01-15 10:31:00", m["endTime"])

	meta := m["metadata"].(map[string]any)
	assert.Nil(t, meta["transactionId"])
	assert.Contains(t, meta, "transactionId")
}

func TestSerializeReducedRoundTrip(t *testing.T) {
	t.Parallel()

	in := projection.Project(testutil.QueryCompleted())
	line, err := Serialize(in)
	require.NoError(t, err)

	var out model.ReducedQueryCompletedEvent
	require.NoError(t, Deserialize([]byte(line), &out))

	again, err := Serialize(&out)
	require.NoError(t, err)
	assert.Equal(t, line, again)
}

func TestSerializeRejectsNaN(t *testing.T) {
	t.Parallel()

	_, err := Serialize(map[string]float64{"v": math.NaN()})
	assert.Error(t, err)
}
