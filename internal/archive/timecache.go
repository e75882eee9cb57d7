// internal/archive/timecache.go
package archive

import (
	"sync/atomic"
	"time"
)

// ------------------------------------------------------------
// 현재 epoch seconds 와 S3 파티션(dt/hr)을 1초 단위로 캐싱한다.
// 파일명 prefix 와 DLQ TTL 판단에 초 단위 정밀도면 충분하다.
//
// 파티션은 UTC 기준. 로그 라인의 시각 필드(createTime 등)가 UTC 이므로
// 파티션도 같은 기준을 쓴다.
// ------------------------------------------------------------

var (
	unixSec atomic.Int64
	dtVal   atomic.Value // "YYYY-MM-DD"
	hrVal   atomic.Value // "HH"
)

func init() {
	update(time.Now())

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for now := range ticker.C {
			update(now)
		}
	}()
}

func update(now time.Time) {
	now = now.UTC()
	unixSec.Store(now.Unix())
	dtVal.Store(now.Format("2006-01-02"))
	hrVal.Store(now.Format("15"))
}

// Unix 는 캐싱된 epoch seconds.
func Unix() int64 {
	return unixSec.Load()
}

// DT 는 "YYYY-MM-DD" (UTC).
func DT() string {
	return dtVal.Load().(string)
}

// HR 은 "HH" (UTC).
func HR() string {
	return hrVal.Load().(string)
}
