package listener

import (
	"fmt"

	"trino-query-log/internal/model"

	json "github.com/goccy/go-json"
)

// Deliver
// ------------------------------------------------------------
// kind 에 맞는 이벤트 타입으로 payload(JSON) 를 디코딩해서 l 의 콜백을 호출한다.
// HTTP 수신과 replay 가 공통으로 사용한다.
//
// 디코딩 실패는 전송 계층 오류이므로 error 로 돌려준다.
// (콜백 호출 이후의 실패는 listener 내부에서 처리된다)
func Deliver(l EventListener, kind model.Kind, payload []byte) error {
	switch kind {
	case model.KindQueryCreated:
		var ev model.QueryCreatedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		l.QueryCreated(&ev)
	case model.KindQueryCompleted:
		var ev model.QueryCompletedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		l.QueryCompleted(&ev)
	case model.KindSplitCompleted:
		var ev model.SplitCompletedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode %s: %w", kind, err)
		}
		l.SplitCompleted(&ev)
	default:
		return fmt.Errorf("unknown event kind %q", kind)
	}
	return nil
}
