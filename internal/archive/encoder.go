// internal/archive/encoder.go
package archive

import (
	"bytes"

	"trino-query-log/internal/pool"

	"github.com/klauspost/compress/gzip"
)

// Encoder 는 로그 라인 배치를 JSONL → gzip 으로 묶는다.
// 라인은 이미 listener 가 직렬화한 JSON 이므로 다시 인코딩하지 않는다.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeBatchJSONLGZ 는 lines 를 "line\n" 으로 이어 붙여 gzip 압축한다.
//
// 반환값은 호출자 소유의 새 slice.
// (pool 버퍼를 그대로 넘기면 재사용 시 데이터가 오염된다)
func (e *Encoder) EncodeBatchJSONLGZ(lines []string) ([]byte, error) {
	buf := pool.BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer pool.PutBuffer(buf)

	gz := pool.GzipPool.Get().(*gzip.Writer)
	gz.Reset(buf)
	defer pool.GzipPool.Put(gz)

	for _, line := range lines {
		if _, err := gz.Write([]byte(line)); err != nil {
			_ = gz.Close()
			return nil, err
		}
		if _, err := gz.Write([]byte{'\n'}); err != nil {
			_ = gz.Close()
			return nil, err
		}
	}

	// Close 시 gzip footer 까지 기록된다
	if err := gz.Close(); err != nil {
		return nil, err
	}

	raw := buf.Bytes()
	data := make([]byte, len(raw))
	copy(data, raw)
	return data, nil
}

// EncodeBatchJSONL 은 압축 없이 JSONL 로만 이어 붙인다.
// gzip 인코딩이 실패한 배치를 DLQ prefix 에 그대로 올릴 때 사용한다.
func (e *Encoder) EncodeBatchJSONL(lines []string) []byte {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
