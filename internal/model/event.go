// internal/model/event.go
package model

import "time"

// ------------------------------------------------------------
// 엔진(Trino coordinator)이 넘겨주는 원본 이벤트 구조체들.
//
// optional 값은 모두 포인터로 표현하며 JSON 에서는 null 로 인코딩된다.
// Duration 은 time.Duration (JSON: nanoseconds 정수) 을 그대로 사용하고,
// 시각은 Instant ("yyyy-MM-dd HH:mm:ss" UTC) 로 고정 포맷을 쓴다.
//
// 이벤트 객체는 엔진이 만들어서 listener 에 한 번 넘기고 버리는 transient 값이다.
// listener 는 절대로 원본을 수정하지 않는다 (truncate 는 복사본에 적용).
// ------------------------------------------------------------

// QueryCreatedEvent 쿼리 생성 시점 이벤트.
type QueryCreatedEvent struct {
	CreateTime Instant       `json:"createTime"`
	Context    QueryContext  `json:"context"`
	Metadata   QueryMetadata `json:"metadata"`
}

// QueryCompletedEvent 쿼리 종료(성공/실패) 이벤트.
type QueryCompletedEvent struct {
	Metadata           QueryMetadata     `json:"metadata"`
	Statistics         QueryStatistics   `json:"statistics"`
	Context            QueryContext      `json:"context"`
	IOMetadata         QueryIOMetadata   `json:"ioMetadata"`
	FailureInfo        *QueryFailureInfo `json:"failureInfo"`
	Warnings           []Warning         `json:"warnings"`
	CreateTime         Instant           `json:"createTime"`
	ExecutionStartTime Instant           `json:"executionStartTime"`
	EndTime            Instant           `json:"endTime"`
}

// SplitCompletedEvent split(작업 단위) 종료 이벤트.
type SplitCompletedEvent struct {
	QueryID     string            `json:"queryId"`
	StageID     string            `json:"stageId"`
	TaskID      string            `json:"taskId"`
	CatalogName *string           `json:"catalogName"`
	CreateTime  Instant           `json:"createTime"`
	StartTime   *Instant          `json:"startTime"`
	EndTime     *Instant          `json:"endTime"`
	Statistics  SplitStatistics   `json:"statistics"`
	FailureInfo *SplitFailureInfo `json:"failureInfo"`
	Payload     string            `json:"payload"`
}

type QueryMetadata struct {
	QueryID       string        `json:"queryId"`
	TransactionID *string       `json:"transactionId"`
	Query         string        `json:"query"`
	UpdateType    *string       `json:"updateType"`
	PreparedQuery *string       `json:"preparedQuery"`
	QueryState    string        `json:"queryState"`
	Tables        []TableInfo   `json:"tables"`
	Routines      []RoutineInfo `json:"routines"`
	URI           string        `json:"uri"`
	Plan          *string       `json:"plan"`
	Payload       *string       `json:"payload"`
}

type TableInfo struct {
	Catalog            string       `json:"catalog"`
	Schema             string       `json:"schema"`
	Table              string       `json:"table"`
	Authorization      string       `json:"authorization"`
	Filters            []string     `json:"filters"`
	Columns            []ColumnInfo `json:"columns"`
	DirectlyReferenced bool         `json:"directlyReferenced"`
}

type ColumnInfo struct {
	Column string   `json:"column"`
	Masks  []string `json:"masks"`
}

type RoutineInfo struct {
	Routine       string `json:"routine"`
	Authorization string `json:"authorization"`
}

// QueryStatistics
// ------------------------------------------------------------
// 엔진이 집계한 쿼리 실행 통계.
// *time.Duration 필드는 엔진 버전에 따라 비어 있을 수 있다.
// CumulativeMemory 계열은 byte-seconds 누적값이라 float64 이다.
type QueryStatistics struct {
	CPUTime                 time.Duration  `json:"cpuTime"`
	FailedCPUTime           time.Duration  `json:"failedCpuTime"`
	WallTime                time.Duration  `json:"wallTime"`
	QueuedTime              time.Duration  `json:"queuedTime"`
	ScheduledTime           *time.Duration `json:"scheduledTime"`
	FailedScheduledTime     *time.Duration `json:"failedScheduledTime"`
	ResourceWaitingTime     *time.Duration `json:"resourceWaitingTime"`
	AnalysisTime            *time.Duration `json:"analysisTime"`
	PlanningTime            *time.Duration `json:"planningTime"`
	ExecutionTime           *time.Duration `json:"executionTime"`
	InputBlockedTime        *time.Duration `json:"inputBlockedTime"`
	FailedInputBlockedTime  *time.Duration `json:"failedInputBlockedTime"`
	OutputBlockedTime       *time.Duration `json:"outputBlockedTime"`
	FailedOutputBlockedTime *time.Duration `json:"failedOutputBlockedTime"`

	PeakUserMemoryBytes  int64 `json:"peakUserMemoryBytes"`
	PeakTaskUserMemory   int64 `json:"peakTaskUserMemory"`
	PeakTaskTotalMemory  int64 `json:"peakTaskTotalMemory"`
	PhysicalInputBytes   int64 `json:"physicalInputBytes"`
	PhysicalInputRows    int64 `json:"physicalInputRows"`
	ProcessedInputBytes  int64 `json:"processedInputBytes"`
	ProcessedInputRows   int64 `json:"processedInputRows"`
	InternalNetworkBytes int64 `json:"internalNetworkBytes"`
	InternalNetworkRows  int64 `json:"internalNetworkRows"`
	TotalBytes           int64 `json:"totalBytes"`
	TotalRows            int64 `json:"totalRows"`
	OutputBytes          int64 `json:"outputBytes"`
	OutputRows           int64 `json:"outputRows"`
	WrittenBytes         int64 `json:"writtenBytes"`
	WrittenRows          int64 `json:"writtenRows"`

	CumulativeMemory       float64 `json:"cumulativeMemory"`
	FailedCumulativeMemory float64 `json:"failedCumulativeMemory"`

	StageGCStatistics     []StageGCStatistics `json:"stageGcStatistics"`
	CompletedSplits       int64               `json:"completedSplits"`
	Complete              bool                `json:"complete"`
	OperatorSummaries     []string            `json:"operatorSummaries"`
	PlanNodeStatsAndCosts *string             `json:"planNodeStatsAndCosts"`
}

type StageGCStatistics struct {
	StageID          int `json:"stageId"`
	Tasks            int `json:"tasks"`
	FullGcTasks      int `json:"fullGcTasks"`
	MinFullGcSec     int `json:"minFullGcSec"`
	MaxFullGcSec     int `json:"maxFullGcSec"`
	TotalFullGcSec   int `json:"totalFullGcSec"`
	AverageFullGcSec int `json:"averageFullGcSec"`
}

// QueryContext 세션/런타임 컨텍스트. projection 시 가공 없이 그대로 전달된다.
type QueryContext struct {
	User                string            `json:"user"`
	Principal           *string           `json:"principal"`
	Groups              []string          `json:"groups"`
	TraceToken          *string           `json:"traceToken"`
	RemoteClientAddress *string           `json:"remoteClientAddress"`
	UserAgent           *string           `json:"userAgent"`
	ClientInfo          *string           `json:"clientInfo"`
	ClientTags          []string          `json:"clientTags"`
	ClientCapabilities  []string          `json:"clientCapabilities"`
	Source              *string           `json:"source"`
	Catalog             *string           `json:"catalog"`
	Schema              *string           `json:"schema"`
	ResourceGroupID     []string          `json:"resourceGroupId"`
	SessionProperties   map[string]string `json:"sessionProperties"`
	ResourceEstimates   ResourceEstimates `json:"resourceEstimates"`
	ServerAddress       string            `json:"serverAddress"`
	ServerVersion       string            `json:"serverVersion"`
	Environment         string            `json:"environment"`
	QueryType           *string           `json:"queryType"`
	RetryPolicy         string            `json:"retryPolicy"`
}

type ResourceEstimates struct {
	ExecutionTime   *time.Duration `json:"executionTime"`
	CPUTime         *time.Duration `json:"cpuTime"`
	PeakMemoryBytes *int64         `json:"peakMemoryBytes"`
}

type QueryIOMetadata struct {
	Inputs []QueryInputMetadata `json:"inputs"`
	Output *QueryOutputMetadata `json:"output"`
}

// QueryInputMetadata 쿼리가 읽은 테이블 하나에 대한 정보.
// ConnectorInfo 는 커넥터별 임의 구조라 any 로 받는다.
type QueryInputMetadata struct {
	CatalogName        string   `json:"catalogName"`
	Schema             string   `json:"schema"`
	Table              string   `json:"table"`
	Columns            []string `json:"columns"`
	ConnectorInfo      any      `json:"connectorInfo"`
	PhysicalInputBytes *int64   `json:"physicalInputBytes"`
	PhysicalInputRows  *int64   `json:"physicalInputRows"`
}

type QueryOutputMetadata struct {
	CatalogName             string  `json:"catalogName"`
	Schema                  string  `json:"schema"`
	Table                   string  `json:"table"`
	ConnectorOutputMetadata *string `json:"connectorOutputMetadata"`
	JSONLengthLimitExceeded *bool   `json:"jsonLengthLimitExceeded"`
}

type QueryFailureInfo struct {
	ErrorCode      ErrorCode `json:"errorCode"`
	FailureType    *string   `json:"failureType"`
	FailureMessage *string   `json:"failureMessage"`
	FailureTask    *string   `json:"failureTask"`
	FailureHost    *string   `json:"failureHost"`
	FailuresJSON   string    `json:"failuresJson"`
}

type ErrorCode struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Warning struct {
	WarningCode WarningCode `json:"warningCode"`
	Message     string      `json:"message"`
}

type WarningCode struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type SplitStatistics struct {
	CPUTime                time.Duration  `json:"cpuTime"`
	WallTime               time.Duration  `json:"wallTime"`
	QueuedTime             time.Duration  `json:"queuedTime"`
	CompletedReadTime      time.Duration  `json:"completedReadTime"`
	CompletedPositions     int64          `json:"completedPositions"`
	CompletedDataSizeBytes int64          `json:"completedDataSizeBytes"`
	TimeToFirstByte        *time.Duration `json:"timeToFirstByte"`
	TimeToLastByte         *time.Duration `json:"timeToLastByte"`
}

type SplitFailureInfo struct {
	FailureType    string `json:"failureType"`
	FailureMessage string `json:"failureMessage"`
}
