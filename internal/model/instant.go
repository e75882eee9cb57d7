// internal/model/instant.go
package model

import (
	"strconv"
	"time"
)

// InstantLayout
// ------------------------------------------------------------
// 로그 라인에 기록되는 모든 시각의 고정 포맷.
// ISO-8601 대신 "yyyy-MM-dd HH:mm:ss" (UTC) 를 사용한다.
// 다운스트림(Hive/Athena 테이블)이 이 문자열을 그대로 파싱하므로 변경 금지.
const InstantLayout = "2006-01-02 15:04:05"

// Instant 는 time.Time 을 감싸서 JSON 인코딩/디코딩 포맷을 고정한 타입이다.
// 인코딩과 디코딩이 같은 패턴을 사용하므로 초 단위까지 round-trip 된다.
type Instant struct {
	time.Time
}

// NewInstant 는 t 를 UTC 로 정규화해 Instant 로 만든다.
func NewInstant(t time.Time) Instant {
	return Instant{Time: t.UTC()}
}

// InstantPtr 는 optional 필드에 넣기 위한 helper.
func InstantPtr(t time.Time) *Instant {
	i := NewInstant(t)
	return &i
}

func (i Instant) String() string {
	return i.Time.UTC().Format(InstantLayout)
}

func (i Instant) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(InstantLayout)+2)
	return strconv.AppendQuote(b, i.String()), nil
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	t, err := time.ParseInLocation(InstantLayout, s, time.UTC)
	if err != nil {
		return err
	}
	i.Time = t
	return nil
}
