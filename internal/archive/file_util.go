// internal/archive/file_util.go
package archive

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// ------------------------------------------------------------
// 파일명 규칙:
//
//	<unix>_<instance>_<counter>.jsonl.gz
//
// 예:
//
//	1705314600_coordinator-1_000042.jsonl.gz
//
// 문자열 정렬이 곧 시간 정렬이므로 DLQ 는 가장 오래된 파일부터 처리한다.
// ------------------------------------------------------------

const (
	dataSuffix = ".jsonl.gz"
	metaSuffix = ".meta.json"
)

var globalCounter uint64

// NextCounter 는 1,000,000 에서 0 으로 돌아가는 순번.
// 같은 초, 같은 instance 안에서만 유일하면 된다.
func NextCounter() uint64 {
	return atomic.AddUint64(&globalCounter, 1) % 1_000_000
}

// NewFilename 은 현재 시각 기준 새 파일명.
func NewFilename(instanceID string) string {
	return fmt.Sprintf("%d_%s_%06d%s", Unix(), instanceID, NextCounter(), dataSuffix)
}

// BuildS3Key
//
//	<prefix>/dt=<YYYY-MM-DD>/hr=<HH>/<filename>
//
// Athena / Glue 파티션 구조.
// 파티션은 파일명의 생성 시각(UTC) 기준이다. DLQ 에서 늦게 재업로드돼도
// 배치가 만들어진 시간대의 파티션에 들어간다.
// 파일명에서 시각을 읽을 수 없으면 현재 시각을 쓴다.
func BuildS3Key(prefix, filename string) string {
	dt, hr := DT(), HR()
	if sec, ok := extractUnixFromFilename(filename); ok {
		t := time.Unix(sec, 0).UTC()
		dt, hr = t.Format("2006-01-02"), t.Format("15")
	}
	return fmt.Sprintf("%s/dt=%s/hr=%s/%s", prefix, dt, hr, filename)
}

// extractUnixFromFilename 은 파일명 prefix 의 Unix seconds 를 읽는다.
func extractUnixFromFilename(name string) (int64, bool) {
	idx := strings.IndexByte(name, '_')
	if idx <= 0 {
		return 0, false
	}
	sec, err := strconv.ParseInt(name[:idx], 10, 64)
	if err != nil || sec <= 0 {
		return 0, false
	}
	return sec, true
}
