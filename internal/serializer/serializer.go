// Package serializer 는 이벤트를 한 줄짜리 JSON 문자열로 변환한다.
package serializer

import (
	"bytes"

	"trino-query-log/internal/pool"

	json "github.com/goccy/go-json"
)

// Serialize
// ------------------------------------------------------------
// v 를 JSON 한 줄로 인코딩한다. (끝에 개행 없음)
//
//   - goccy/go-json 사용 (hot path)
//   - HTML escape 비활성화: "<truncated>" 가 < 로 바뀌지 않도록
//   - 시각 필드는 model.Instant 의 고정 포맷으로 인코딩된다
//   - optional(포인터) 필드는 null
//
// 인코딩 실패(NaN, 지원하지 않는 타입 등)는 error 로 반환하고,
// 호출자(listener)가 해당 이벤트만 버린다.
func Serialize(v any) (string, error) {
	buf := pool.LinePool.Get().(*bytes.Buffer)
	buf.Reset()
	defer pool.PutLine(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}

	// Encoder 는 항상 '\n' 을 붙이므로 제거
	return string(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// Deserialize 는 Serialize 결과를 다시 v 로 디코딩한다.
// replay / HTTP 수신 경로와 테스트에서 사용한다.
func Deserialize(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
