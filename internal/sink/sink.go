// Package sink 는 완성된 JSON 로그 라인을 받아 저장하는 backend 들을 제공한다.
//
// listener 는 이벤트 1건당 Emit 을 정확히 한 번 호출하며,
// 라인 원자성/순서 보장은 각 sink 의 책임이다.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink 는 로그 라인 하나를 받아 저장한다.
// Close 는 소유자(cli)가 종료 시 명시적으로 호출한다.
type Sink interface {
	Emit(line string) error
	Close() error
}

// Writer
// ------------------------------------------------------------
// io.Writer 에 "line\n" 을 한 번의 Write 로 쓴다.
// 여러 goroutine 이 동시에 Emit 해도 라인이 섞이지 않도록 mutex 로 직렬화한다.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	buf    []byte
}

// NewWriter 는 w 에 쓰는 sink. Close 는 w 를 닫지 않는다.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// OpenFile 은 path 에 append 모드로 쓰는 sink. Close 시 파일을 닫는다.
func OpenFile(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sink file %s: %w", path, err)
	}
	return &Writer{w: f, closer: f}, nil
}

func (s *Writer) Emit(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 내부 버퍼 재사용 (lock 안에서만 접근)
	s.buf = append(s.buf[:0], line...)
	s.buf = append(s.buf, '\n')
	_, err := s.w.Write(s.buf)
	return err
}

func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// tee 는 모든 sink 에 같은 라인을 넘긴다.
type tee []Sink

// Tee 는 sinks 전체에 Emit 하는 sink. 하나가 실패해도 나머지는 계속 쓴다.
func Tee(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return tee(sinks)
}

func (t tee) Emit(line string) error {
	var errs []error
	for _, s := range t {
		if err := s.Emit(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
