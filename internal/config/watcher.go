// internal/config/watcher.go
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher 는 listener 설정 파일을 감시하다가 바뀌면 다시 읽는다.
// 새로 읽은 설정이 잘못되었으면 기존 설정을 유지한다.
type Watcher struct {
	path     string
	mu       sync.RWMutex
	current  Properties
	onChange []func(Properties)
	onError  func(error)
}

// NewWatcher 는 최초 로드를 수행한다. 최초 로드 실패는 error.
func NewWatcher(path string) (*Watcher, error) {
	p, err := LoadPropertiesFile(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{path: filepath.Clean(path), current: p}, nil
}

// Properties 는 현재(최신) 설정.
func (w *Watcher) Properties() Properties {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange 는 설정이 다시 로드될 때 호출될 callback 을 등록한다.
func (w *Watcher) OnChange(fn func(Properties)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// OnError 는 reload 실패 시 호출될 callback 을 등록한다 (로그용).
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Watch 는 파일 변경 시 hot-reload 하는 goroutine 을 띄운다.
// 반환된 stop 으로 정리한다.
//
// 파일이 아니라 상위 디렉터리를 감시한다.
// rename 으로 파일을 교체해도 (에디터 저장, ConfigMap 갱신) watch 가 유지된다.
func (w *Watcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if w.relevant(ev) {
					_, _ = w.Reload()
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.reportError(err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// configMapDataDir 는 ConfigMap 볼륨이 원자적으로 교체하는 symlink 이름.
const configMapDataDir = "..data"

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == w.path {
		return true
	}
	return filepath.Base(name) == configMapDataDir && filepath.Dir(name) == filepath.Dir(w.path)
}

// Reload 는 파일을 즉시 다시 읽는다.
// 실패하면 기존 설정을 유지하고 error 를 돌려준다.
func (w *Watcher) Reload() (Properties, error) {
	p, err := LoadPropertiesFile(w.path)
	if err != nil {
		w.reportError(err)
		return Properties{}, err
	}
	w.mu.Lock()
	w.current = p
	callbacks := make([]func(Properties), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(p)
	}
	return p, nil
}

func (w *Watcher) reportError(err error) {
	w.mu.RLock()
	fn := w.onError
	w.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
