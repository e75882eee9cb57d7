// internal/model/reduced.go
package model

// ReducedQueryCompletedEvent
// ------------------------------------------------------------
// QueryCompletedEvent 를 로그용으로 축소한 출력 스키마.
// 외부 소비자(로그 테이블)가 이 JSON 필드명에 의존하므로
// 필드명/단위를 바꾸면 안 된다.
//
//   - duration → 정수 초 (버림)
//   - bytes    → MB (1,048,576 로 나눈 몫)
//   - optional → 0 또는 null 로 풀어서 기록
type ReducedQueryCompletedEvent struct {
	Metadata          ReducedMetadata   `json:"metadata"`
	Statistics        ReducedStatistics `json:"statistics"`
	Context           QueryContext      `json:"context"`
	InputMetaDataList []ReducedInput    `json:"inputMetaDataList"`
	CreateTime        Instant           `json:"createTime"`
	StartTime         Instant           `json:"startTime"`
	EndTime           Instant           `json:"endTime"`
}

type ReducedMetadata struct {
	QueryID       string  `json:"queryId"`
	TransactionID *string `json:"transactionId"`
	Query         string  `json:"query"`
	PreparedQuery *string `json:"preparedQuery"`
	QueryState    string  `json:"queryState"`
	URI           string  `json:"uri"`
}

type ReducedStatistics struct {
	CPUSecond                 int64   `json:"cpuSecond"`
	FailedCPUSecond           int64   `json:"failedCpuSecond"`
	WallSecond                int64   `json:"wallSecond"`
	QueuedSecond              int64   `json:"queuedSecond"`
	ScheduledSecond           int64   `json:"scheduledSecond"`
	FailedScheduledSecond     int64   `json:"failedScheduledSecond"`
	AnalysisSecond            int64   `json:"analysisSecond"`
	PlanningSecond            int64   `json:"planningSecond"`
	ExecutionSecond           int64   `json:"executionSecond"`
	InputBlockedSecond        int64   `json:"inputBlockedSecond"`
	FailedInputBlockedSecond  int64   `json:"failedInputBlockedSecond"`
	OutputBlockedSecond       int64   `json:"outputBlockedSecond"`
	FailedOutputBlockedSecond int64   `json:"failedOutputBlockedSecond"`
	PeakUserMemoryMB          int64   `json:"peakUserMemoryMB"`
	PeakTaskUserMemoryMB      int64   `json:"peakTaskUserMemoryMB"`
	PeakTaskTotalMemoryMB     int64   `json:"peakTaskTotalMemoryMB"`
	PhysicalInputMB           int64   `json:"physicalInputMB"`
	PhysicalInputRows         int64   `json:"physicalInputRows"`
	ProcessedInputMB          int64   `json:"processedInputMB"`
	ProcessedInputRows        int64   `json:"processedInputRows"`
	InternalNetworkMB         int64   `json:"internalNetworkMB"`
	InternalNetworkRows       int64   `json:"internalNetworkRows"`
	TotalMB                   int64   `json:"totalMB"`
	TotalRows                 int64   `json:"totalRows"`
	OutputMB                  int64   `json:"outputMB"`
	OutputRows                int64   `json:"outputRows"`
	WrittenMB                 int64   `json:"writtenMB"`
	WrittenRows               int64   `json:"writtenRows"`
	CumulativeMemoryMB        float64 `json:"cumulativeMemoryMB"`
	FailedCumulativeMemoryMB  float64 `json:"failedCumulativeMemoryMB"`
	CompletedSplits           int64   `json:"completedSplits"`
	Complete                  bool    `json:"complete"`
	ResourceWaitingSecond     int64   `json:"resourceWaitingSecond"`
}

type ReducedInput struct {
	CatalogName       string `json:"catalogName"`
	Schema            string `json:"schema"`
	Table             string `json:"table"`
	ConnectorInfo     any    `json:"connectorInfo"`
	PhysicalInputMB   int64  `json:"physicalInputMB"`
	PhysicalInputRows int64  `json:"physicalInputRows"`
}
