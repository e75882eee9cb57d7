package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProps(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestWatcherReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "event-listener.yaml")
	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)
	assert.True(t, w.Properties().QueryCreated)

	var got []Properties
	w.OnChange(func(p Properties) { got = append(got, p) })

	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\ntrino.query.log.log.queryCreatedEvent: false\n")
	p, err := w.Reload()
	require.NoError(t, err)

	assert.False(t, p.QueryCreated)
	assert.False(t, w.Properties().QueryCreated)
	require.Len(t, got, 1)
	assert.False(t, got[0].QueryCreated)
}

func TestWatcherReloadKeepsOldOnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "event-listener.yaml")
	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\ntrino.query.log.log.queryCompletedEvent.queryMaxLength: 50\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)

	var reported error
	w.OnError(func(err error) { reported = err })
	called := false
	w.OnChange(func(Properties) { called = true })

	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\ntrino.query.log.log.queryCompletedEvent.catalogPattern: \"(\"\n")
	_, err = w.Reload()
	require.Error(t, err)

	assert.Equal(t, err, reported)
	assert.False(t, called)
	assert.Equal(t, 50, w.Properties().QueryCompletedQueryMaxLength)
}

func TestNewWatcherInitialLoadFails(t *testing.T) {
	t.Parallel()

	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcherWatchStop(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "event-listener.yaml")
	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)

	stop, err := w.Watch()
	require.NoError(t, err)
	stop()
	stop()
}

func TestWatcherSurvivesRenameReplace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "event-listener.yaml")
	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)

	var maxLength atomic.Int64
	w.OnChange(func(p Properties) { maxLength.Store(int64(p.QueryCreatedQueryMaxLength)) })

	stop, err := w.Watch()
	require.NoError(t, err)
	t.Cleanup(stop)

	replace := func(n string) {
		tmp := filepath.Join(dir, "event-listener.yaml.tmp")
		writeProps(t, tmp, "trino.query.log.config.fileLocation: a.yaml\ntrino.query.log.log.queryCreatedEvent.queryMaxLength: "+n+"\n")
		require.NoError(t, os.Rename(tmp, path))
	}

	// 교체 후에도 watch 가 살아있어야 두 번째 교체가 반영된다.
	replace("10")
	assert.Eventually(t, func() bool { return maxLength.Load() == 10 }, 5*time.Second, 10*time.Millisecond)
	replace("20")
	assert.Eventually(t, func() bool { return maxLength.Load() == 20 }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcherRelevant(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "event-listener.yaml")
	writeProps(t, path, "trino.query.log.config.fileLocation: a.yaml\n")

	w, err := NewWatcher(path)
	require.NoError(t, err)

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{name: "write", ev: fsnotify.Event{Name: path, Op: fsnotify.Write}, want: true},
		{name: "create", ev: fsnotify.Event{Name: path, Op: fsnotify.Create}, want: true},
		{name: "remove", ev: fsnotify.Event{Name: path, Op: fsnotify.Remove}, want: false},
		{name: "chmod", ev: fsnotify.Event{Name: path, Op: fsnotify.Chmod}, want: false},
		{name: "sibling", ev: fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}, want: false},
		{name: "configmap swap", ev: fsnotify.Event{Name: filepath.Join(dir, "..data"), Op: fsnotify.Create}, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
}
