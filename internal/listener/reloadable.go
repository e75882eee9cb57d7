package listener

import (
	"sync/atomic"

	"trino-query-log/internal/model"
)

// Reloadable
// ------------------------------------------------------------
// 현재 EventListener 를 atomic 포인터로 들고 있다가 그대로 위임한다.
// 설정 파일이 바뀌면 새 Dispatcher 를 만들어 Swap 한다.
// 호출 중인 이벤트는 이전 Dispatcher 로 끝까지 처리된다.
type Reloadable struct {
	cur atomic.Pointer[listenerBox]
}

// atomic.Pointer 는 interface 를 직접 담을 수 없어서 감싼다.
type listenerBox struct {
	l EventListener
}

var _ EventListener = (*Reloadable)(nil)

func NewReloadable(l EventListener) *Reloadable {
	r := &Reloadable{}
	r.cur.Store(&listenerBox{l: l})
	return r
}

// Swap 은 새 listener 로 교체하고 이전 listener 를 돌려준다.
func (r *Reloadable) Swap(l EventListener) EventListener {
	return r.cur.Swap(&listenerBox{l: l}).l
}

// Current 는 현재 listener.
func (r *Reloadable) Current() EventListener {
	return r.cur.Load().l
}

func (r *Reloadable) QueryCreated(event *model.QueryCreatedEvent) {
	r.Current().QueryCreated(event)
}

func (r *Reloadable) QueryCompleted(event *model.QueryCompletedEvent) {
	r.Current().QueryCompleted(event)
}

func (r *Reloadable) SplitCompleted(event *model.SplitCompletedEvent) {
	r.Current().SplitCompleted(event)
}
