// Package pool 은 hot path 에서 반복 할당되는 버퍼를 sync.Pool 로 재사용한다.
//
//   - listener: 이벤트마다 JSON 한 줄 인코딩 (LinePool)
//   - server: 요청마다 body 읽기 (BodyPool)
//   - archive: 배치마다 gzip 결과 버퍼와 gzip.Writer (BufferPool, GzipPool)
//
// 한 번 크게 자란 버퍼가 풀에 계속 남지 않도록 Put* 에서 용량 상한을 둔다.
package pool

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// 풀에 되돌려 놓을 수 있는 최대 용량
const (
	MaxLineCap   = 256 << 10 // LinePool
	MaxBufferCap = 1 << 20   // BufferPool
)

var (
	// LinePool 초기 8KB. 축소된 QueryCompleted 한 줄은 대부분 이 안에 들어간다.
	LinePool = sync.Pool{
		New: func() any { return bytes.NewBuffer(make([]byte, 0, 8<<10)) },
	}

	// BodyPool 초기 16KB. 상한은 호출자가 MaxBodySize 기준으로 정한다.
	BodyPool = sync.Pool{
		New: func() any { return bytes.NewBuffer(make([]byte, 0, 16<<10)) },
	}

	// BufferPool 초기 256KB. gzip 압축 결과를 담는다.
	BufferPool = sync.Pool{
		New: func() any { return bytes.NewBuffer(make([]byte, 0, 256<<10)) },
	}

	// GzipPool 은 BestSpeed writer. 사용 전 Reset(dst) 필요.
	GzipPool = sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
			return w
		},
	}
)

// PutLine 은 MaxLineCap 이하일 때만 LinePool 에 돌려놓는다.
func PutLine(buf *bytes.Buffer) {
	put(&LinePool, buf, MaxLineCap)
}

// PutBody 는 maxCap(보통 MaxBodySize*2) 이하일 때만 BodyPool 에 돌려놓는다.
func PutBody(buf *bytes.Buffer, maxCap int64) {
	put(&BodyPool, buf, maxCap)
}

// PutBuffer 는 MaxBufferCap 이하일 때만 BufferPool 에 돌려놓는다.
func PutBuffer(buf *bytes.Buffer) {
	put(&BufferPool, buf, MaxBufferCap)
}

func put(p *sync.Pool, buf *bytes.Buffer, maxCap int64) {
	if int64(buf.Cap()) > maxCap {
		return
	}
	buf.Reset()
	p.Put(buf)
}
