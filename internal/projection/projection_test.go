package projection

import (
	"testing"
	"time"

	"trino-query-log/internal/model/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectMetadata(t *testing.T) {
	t.Parallel()

	ev := testutil.QueryCompleted()
	ev.Metadata.TransactionID = testutil.Str("tx-1")

	got := Project(ev)

	assert.Equal(t, ev.Metadata.QueryID, got.Metadata.QueryID)
	assert.Equal(t, "tx-1", *got.Metadata.TransactionID)
	assert.Equal(t, testutil.Query, got.Metadata.Query)
	assert.Equal(t, testutil.PreparedQuery, *got.Metadata.PreparedQuery)
	assert.Equal(t, "FINISHED", got.Metadata.QueryState)
	assert.Equal(t, "http://localhost:18010/", got.Metadata.URI)
}

func TestProjectMetadataOptionalsStayNil(t *testing.T) {
	t.Parallel()

	ev := testutil.QueryCompleted()
	ev.Metadata.PreparedQuery = nil

	got := Project(ev)

	assert.Nil(t, got.Metadata.TransactionID)
	assert.Nil(t, got.Metadata.PreparedQuery)
}

func TestProjectStatistics(t *testing.T) {
	t.Parallel()

	s := Project(testutil.QueryCompleted()).Statistics

	// duration → 정수 초 (버림)
	assert.Equal(t, int64(1), s.CPUSecond)
	assert.Equal(t, int64(2), s.FailedCPUSecond)
	assert.Equal(t, int64(3), s.WallSecond)
	assert.Equal(t, int64(4), s.QueuedSecond)
	assert.Equal(t, int64(5), s.ScheduledSecond)
	assert.Equal(t, int64(0), s.FailedScheduledSecond)
	assert.Equal(t, int64(7), s.ResourceWaitingSecond)
	assert.Equal(t, int64(61), s.ExecutionSecond)
	assert.Equal(t, int64(0), s.AnalysisSecond)

	// bytes → MB (정수 나눗셈)
	assert.Equal(t, int64(0), s.PeakUserMemoryMB)
	assert.Equal(t, int64(2), s.PeakTaskUserMemoryMB)
	assert.Equal(t, int64(3), s.PeakTaskTotalMemoryMB)
	assert.Equal(t, int64(4), s.PhysicalInputMB)
	assert.Equal(t, int64(6), s.ProcessedInputMB)
	assert.Equal(t, int64(8), s.InternalNetworkMB)
	assert.Equal(t, int64(10), s.TotalMB)
	assert.Equal(t, int64(12), s.OutputMB)
	assert.Equal(t, int64(14), s.WrittenMB)

	// rows 는 그대로
	assert.Equal(t, int64(5), s.PhysicalInputRows)
	assert.Equal(t, int64(7), s.ProcessedInputRows)
	assert.Equal(t, int64(9), s.InternalNetworkRows)
	assert.Equal(t, int64(11), s.TotalRows)
	assert.Equal(t, int64(13), s.OutputRows)
	assert.Equal(t, int64(15), s.WrittenRows)

	// cumulative memory 는 float 유지
	assert.InDelta(t, 1.5, s.CumulativeMemoryMB, 1e-12)
	assert.InDelta(t, 0.25, s.FailedCumulativeMemoryMB, 1e-12)

	assert.Equal(t, int64(11), s.CompletedSplits)
	assert.True(t, s.Complete)
}

func TestProjectAbsentAndZeroDurationsMatch(t *testing.T) {
	t.Parallel()

	absent := testutil.QueryCompleted()
	absent.Statistics.ScheduledTime = nil
	absent.Statistics.AnalysisTime = nil
	absent.Statistics.ResourceWaitingTime = nil

	zero := testutil.QueryCompleted()
	zero.Statistics.ScheduledTime = testutil.Dur(0)
	zero.Statistics.AnalysisTime = testutil.Dur(0)
	zero.Statistics.ResourceWaitingTime = testutil.Dur(999 * time.Millisecond)

	a := Project(absent).Statistics
	z := Project(zero).Statistics

	assert.Equal(t, int64(0), a.ScheduledSecond)
	assert.Equal(t, a.ScheduledSecond, z.ScheduledSecond)
	assert.Equal(t, a.AnalysisSecond, z.AnalysisSecond)
	assert.Equal(t, a.ResourceWaitingSecond, z.ResourceWaitingSecond)
}

func TestProjectInputs(t *testing.T) {
	t.Parallel()

	ev := testutil.QueryCompleted("hive", "mysql", "iceberg")
	ev.IOMetadata.Inputs[1].PhysicalInputBytes = nil
	ev.IOMetadata.Inputs[1].PhysicalInputRows = nil
	ev.IOMetadata.Inputs[2].ConnectorInfo = map[string]any{"partitions": 3}

	got := Project(ev).InputMetaDataList

	require.Len(t, got, 3)
	assert.Equal(t, "hive", got[0].CatalogName)
	assert.Equal(t, "mysql", got[1].CatalogName)
	assert.Equal(t, "iceberg", got[2].CatalogName)

	assert.Equal(t, int64(3), got[0].PhysicalInputMB)
	assert.Equal(t, int64(2), got[0].PhysicalInputRows)
	assert.Equal(t, int64(0), got[1].PhysicalInputMB)
	assert.Equal(t, int64(0), got[1].PhysicalInputRows)

	assert.Nil(t, got[0].ConnectorInfo)
	assert.Equal(t, map[string]any{"partitions": 3}, got[2].ConnectorInfo)
	assert.Equal(t, "ads", got[2].Schema)
	assert.Equal(t, "dim_date", got[2].Table)
}

func TestProjectNoInputs(t *testing.T) {
	t.Parallel()

	ev := testutil.QueryCompleted()
	ev.IOMetadata.Inputs = nil

	got := Project(ev)
	assert.NotNil(t, got.InputMetaDataList)
	assert.Empty(t, got.InputMetaDataList)
}

func TestProjectTimesAndContext(t *testing.T) {
	t.Parallel()

	ev := testutil.QueryCompleted()
	got := Project(ev)

	assert.Equal(t, ev.CreateTime, got.CreateTime)
	assert.Equal(t, ev.ExecutionStartTime, got.StartTime)
	assert.Equal(t, ev.EndTime, got.EndTime)
	assert.Equal(t, ev.Context, got.Context)
}

func TestProjectDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Project(testutil.QueryCompleted()), Project(testutil.QueryCompleted()))
}

func TestSecondsTruncates(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1), seconds(1999*time.Millisecond))
	assert.Equal(t, int64(0), seconds(999*time.Millisecond))
	assert.Equal(t, int64(0), optionalSeconds(nil))
	assert.Equal(t, int64(0), megabytes(BytesPerMB-1))
	assert.Equal(t, int64(1), megabytes(BytesPerMB))
}
