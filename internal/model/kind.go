// internal/model/kind.go
package model

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Kind 은 이벤트 종류. metrics label, replay envelope, HTTP 경로에서 공통으로 쓴다.
type Kind string

const (
	KindQueryCreated   Kind = "queryCreated"
	KindQueryCompleted Kind = "queryCompleted"
	KindSplitCompleted Kind = "splitCompleted"
)

// Kinds 는 모든 이벤트 종류 (metrics 초기화 순서 고정용).
var Kinds = []Kind{KindQueryCreated, KindQueryCompleted, KindSplitCompleted}

// ParseKind 는 문자열을 Kind 로 변환한다. 모르는 값이면 error.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Envelope
// ------------------------------------------------------------
// replay 파일(NDJSON)의 한 줄.
// 예: {"kind":"queryCreated","event":{...}}
//
// Event 는 kind 를 알아야 디코딩할 수 있으므로 raw 로 보관한다.
type Envelope struct {
	Kind  Kind            `json:"kind"`
	Event json.RawMessage `json:"event"`
}
