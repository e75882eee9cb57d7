package listener

import (
	"testing"

	"trino-query-log/internal/config"
	"trino-query-log/internal/model/testutil"

	"github.com/stretchr/testify/assert"
)

func TestReloadableSwap(t *testing.T) {
	t.Parallel()

	all, allSink, _ := newDispatcher(t, nil)
	none, noneSink, _ := newDispatcher(t, map[string]string{config.KeySplitCompleted: "false"})

	r := NewReloadable(all)
	r.SplitCompleted(testutil.SplitCompleted())

	prev := r.Swap(none)
	assert.Same(t, all, prev)
	assert.Same(t, none, r.Current())

	r.SplitCompleted(testutil.SplitCompleted())
	r.QueryCreated(testutil.QueryCreated())
	r.QueryCompleted(testutil.QueryCompleted())

	assert.Len(t, allSink.Lines(), 1)
	assert.Len(t, noneSink.Lines(), 2)
}
