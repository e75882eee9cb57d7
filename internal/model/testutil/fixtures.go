// Package testutil 은 테스트에서 공통으로 쓰는 이벤트 fixture 를 만든다.
package testutil

import (
	"time"

	"trino-query-log/internal/model"
)

// Query 는 fixture 이벤트의 기본 SQL (34자).
const Query = "select * from dim_date limit 10000"

// PreparedQuery 는 fixture 이벤트의 기본 prepared SQL.
const PreparedQuery = "prepare s1 from select * from dim_date limit 10000"

// BaseTime 은 fixture 시각 (2024-01-15 10:30:00 UTC).
var BaseTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func Str(s string) *string { return &s }

func Int64(v int64) *int64 { return &v }

func Dur(d time.Duration) *time.Duration { return &d }

// Metadata 는 기본 QueryMetadata.
func Metadata() model.QueryMetadata {
	return model.QueryMetadata{
		QueryID:       "20240115_103000_00001_abcde",
		Query:         Query,
		UpdateType:    Str("updateType"),
		PreparedQuery: Str(PreparedQuery),
		QueryState:    "FINISHED",
		Tables:        []model.TableInfo{},
		Routines:      []model.RoutineInfo{},
		URI:           "http://localhost:18010/",
	}
}

// Context 는 queryType 이 주어진 QueryContext. queryType 이 "" 이면 nil.
func Context(queryType string) model.QueryContext {
	ctx := model.QueryContext{
		User:              "user",
		Principal:         Str("principal"),
		Groups:            []string{},
		ClientTags:        []string{},
		Catalog:           Str("hive"),
		SessionProperties: map[string]string{},
		ServerAddress:     "serverAddress",
		ServerVersion:     "serverVersion",
		Environment:       "environment",
		RetryPolicy:       "NONE",
	}
	if queryType != "" {
		ctx.QueryType = Str(queryType)
	}
	return ctx
}

// QueryCreated 는 SELECT 타입의 QueryCreatedEvent.
func QueryCreated() *model.QueryCreatedEvent {
	return &model.QueryCreatedEvent{
		CreateTime: model.NewInstant(BaseTime),
		Context:    Context("SELECT"),
		Metadata:   Metadata(),
	}
}

// Input 은 catalog 가 주어진 QueryInputMetadata.
func Input(catalog string) model.QueryInputMetadata {
	return model.QueryInputMetadata{
		CatalogName:        catalog,
		Schema:             "ads",
		Table:              "dim_date",
		Columns:            []string{},
		PhysicalInputBytes: Int64(3 * 1_048_576),
		PhysicalInputRows:  Int64(2),
	}
}

// Statistics 는 모든 optional duration 이 채워진 QueryStatistics.
func Statistics() model.QueryStatistics {
	return model.QueryStatistics{
		CPUTime:                 1000 * time.Millisecond,
		FailedCPUTime:           2000 * time.Millisecond,
		WallTime:                3000 * time.Millisecond,
		QueuedTime:              4000 * time.Millisecond,
		ScheduledTime:           Dur(5500 * time.Millisecond),
		FailedScheduledTime:     Dur(100 * time.Millisecond),
		ResourceWaitingTime:     Dur(7 * time.Second),
		AnalysisTime:            Dur(100 * time.Millisecond),
		PlanningTime:            Dur(100 * time.Millisecond),
		ExecutionTime:           Dur(61 * time.Second),
		InputBlockedTime:        Dur(100 * time.Millisecond),
		FailedInputBlockedTime:  Dur(100 * time.Millisecond),
		OutputBlockedTime:       Dur(100 * time.Millisecond),
		FailedOutputBlockedTime: Dur(100 * time.Millisecond),
		PeakUserMemoryBytes:     1,
		PeakTaskUserMemory:      2 * 1_048_576,
		PeakTaskTotalMemory:     3*1_048_576 + 1,
		PhysicalInputBytes:      4 * 1_048_576,
		PhysicalInputRows:       5,
		ProcessedInputBytes:     6 * 1_048_576,
		ProcessedInputRows:      7,
		InternalNetworkBytes:    8 * 1_048_576,
		InternalNetworkRows:     9,
		TotalBytes:              10 * 1_048_576,
		TotalRows:               11,
		OutputBytes:             12 * 1_048_576,
		OutputRows:              13,
		WrittenBytes:            14 * 1_048_576,
		WrittenRows:             15,
		CumulativeMemory:        1.5 * 1_048_576,
		FailedCumulativeMemory:  0.25 * 1_048_576,
		StageGCStatistics:       []model.StageGCStatistics{},
		CompletedSplits:         11,
		Complete:                true,
		OperatorSummaries:       []string{},
		PlanNodeStatsAndCosts:   Str("plan"),
	}
}

// QueryCompleted 는 hive 입력 하나를 가진 SELECT 타입 QueryCompletedEvent.
func QueryCompleted(catalogs ...string) *model.QueryCompletedEvent {
	if len(catalogs) == 0 {
		catalogs = []string{"hive"}
	}
	inputs := make([]model.QueryInputMetadata, 0, len(catalogs))
	for _, c := range catalogs {
		inputs = append(inputs, Input(c))
	}
	return &model.QueryCompletedEvent{
		Metadata:           Metadata(),
		Statistics:         Statistics(),
		Context:            Context("SELECT"),
		IOMetadata:         model.QueryIOMetadata{Inputs: inputs},
		Warnings:           []model.Warning{},
		CreateTime:         model.NewInstant(BaseTime),
		ExecutionStartTime: model.NewInstant(BaseTime.Add(time.Second)),
		EndTime:            model.NewInstant(BaseTime.Add(time.Minute)),
	}
}

// SplitCompleted 는 기본 SplitCompletedEvent.
func SplitCompleted() *model.SplitCompletedEvent {
	return &model.SplitCompletedEvent{
		QueryID:    "queryId",
		StageID:    "stageId",
		TaskID:     "taskId",
		CreateTime: model.NewInstant(BaseTime),
		StartTime:  model.InstantPtr(BaseTime),
		EndTime:    model.InstantPtr(BaseTime.Add(time.Second)),
		Statistics: model.SplitStatistics{
			CPUTime:                time.Second,
			WallTime:               2 * time.Second,
			QueuedTime:             3 * time.Second,
			CompletedReadTime:      4 * time.Second,
			CompletedPositions:     1,
			CompletedDataSizeBytes: 2,
			TimeToFirstByte:        Dur(100 * time.Millisecond),
			TimeToLastByte:         Dur(200 * time.Millisecond),
		},
		Payload: "payload",
	}
}
