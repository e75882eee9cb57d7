// Package projection 은 QueryCompletedEvent 를 로그용 축소 스키마로 변환한다.
package projection

import (
	"time"

	"trino-query-log/internal/model"
)

// BytesPerMB 는 byte → MB 변환 단위 (1 MiB).
const BytesPerMB = 1_048_576

// Project
// ------------------------------------------------------------
// 엔진의 QueryCompletedEvent 를 ReducedQueryCompletedEvent 로 변환한다.
// 입력은 엔진이 보장하는 well-formed 값이므로 실패 경로가 없다.
//
// 변환 규칙:
//   - duration: 정수 초로 버림 (반올림 없음), optional 이 비어있으면 0
//   - bytes: BytesPerMB 로 정수 나눗셈
//   - cumulative memory: float 그대로 BytesPerMB 로 나눔
//   - inputs: 같은 순서로 1:1 변환
//   - context: 그대로 전달
//
// 같은 입력에 대해 항상 같은 결과를 돌려준다.
func Project(ev *model.QueryCompletedEvent) *model.ReducedQueryCompletedEvent {
	return &model.ReducedQueryCompletedEvent{
		Metadata:          projectMetadata(ev.Metadata),
		Statistics:        projectStatistics(ev.Statistics),
		Context:           ev.Context,
		InputMetaDataList: projectInputs(ev.IOMetadata.Inputs),
		CreateTime:        ev.CreateTime,
		StartTime:         ev.ExecutionStartTime,
		EndTime:           ev.EndTime,
	}
}

func projectMetadata(m model.QueryMetadata) model.ReducedMetadata {
	return model.ReducedMetadata{
		QueryID:       m.QueryID,
		TransactionID: m.TransactionID,
		Query:         m.Query,
		PreparedQuery: m.PreparedQuery,
		QueryState:    m.QueryState,
		URI:           m.URI,
	}
}

func projectStatistics(s model.QueryStatistics) model.ReducedStatistics {
	return model.ReducedStatistics{
		CPUSecond:                 seconds(s.CPUTime),
		FailedCPUSecond:           seconds(s.FailedCPUTime),
		WallSecond:                seconds(s.WallTime),
		QueuedSecond:              seconds(s.QueuedTime),
		ScheduledSecond:           optionalSeconds(s.ScheduledTime),
		FailedScheduledSecond:     optionalSeconds(s.FailedScheduledTime),
		AnalysisSecond:            optionalSeconds(s.AnalysisTime),
		PlanningSecond:            optionalSeconds(s.PlanningTime),
		ExecutionSecond:           optionalSeconds(s.ExecutionTime),
		InputBlockedSecond:        optionalSeconds(s.InputBlockedTime),
		FailedInputBlockedSecond:  optionalSeconds(s.FailedInputBlockedTime),
		OutputBlockedSecond:       optionalSeconds(s.OutputBlockedTime),
		FailedOutputBlockedSecond: optionalSeconds(s.FailedOutputBlockedTime),
		PeakUserMemoryMB:          megabytes(s.PeakUserMemoryBytes),
		PeakTaskUserMemoryMB:      megabytes(s.PeakTaskUserMemory),
		PeakTaskTotalMemoryMB:     megabytes(s.PeakTaskTotalMemory),
		PhysicalInputMB:           megabytes(s.PhysicalInputBytes),
		PhysicalInputRows:         s.PhysicalInputRows,
		ProcessedInputMB:          megabytes(s.ProcessedInputBytes),
		ProcessedInputRows:        s.ProcessedInputRows,
		InternalNetworkMB:         megabytes(s.InternalNetworkBytes),
		InternalNetworkRows:       s.InternalNetworkRows,
		TotalMB:                   megabytes(s.TotalBytes),
		TotalRows:                 s.TotalRows,
		OutputMB:                  megabytes(s.OutputBytes),
		OutputRows:                s.OutputRows,
		WrittenMB:                 megabytes(s.WrittenBytes),
		WrittenRows:               s.WrittenRows,
		CumulativeMemoryMB:        s.CumulativeMemory / BytesPerMB,
		FailedCumulativeMemoryMB:  s.FailedCumulativeMemory / BytesPerMB,
		CompletedSplits:           s.CompletedSplits,
		Complete:                  s.Complete,
		ResourceWaitingSecond:     optionalSeconds(s.ResourceWaitingTime),
	}
}

func projectInputs(inputs []model.QueryInputMetadata) []model.ReducedInput {
	out := make([]model.ReducedInput, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, model.ReducedInput{
			CatalogName:       in.CatalogName,
			Schema:            in.Schema,
			Table:             in.Table,
			ConnectorInfo:     in.ConnectorInfo,
			PhysicalInputMB:   megabytes(optionalInt(in.PhysicalInputBytes)),
			PhysicalInputRows: optionalInt(in.PhysicalInputRows),
		})
	}
	return out
}

// seconds 는 duration 을 정수 초로 버림 변환한다.
func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

func optionalSeconds(d *time.Duration) int64 {
	if d == nil {
		return 0
	}
	return seconds(*d)
}

func megabytes(b int64) int64 {
	return b / BytesPerMB
}

func optionalInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
