package truncate

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		maxLength int
	}{
		{"unlimited", strings.Repeat("x", 1000), Unlimited},
		{"shorter", "select 1", 20},
		{"exact", "12345678901234567890", 20},
		{"empty", "", 0},
		{"multibyte fits", "선택 조회 쿼리", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.text, Truncate(tt.text, tt.maxLength))
		})
	}
}

func TestTruncateHeadMarkerTail(t *testing.T) {
	t.Parallel()

	text := "select * from dim_date limit 10000" + "X" // 35 chars
	require.Len(t, text, 35)

	got := Truncate(text, 20)

	// (20-4)/2 = 8
	assert.Equal(t, "select *"+Marker+"t 10000X", got)
	assert.True(t, strings.HasPrefix(got, text[:8]))
	assert.True(t, strings.HasSuffix(got, text[len(text)-8:]))
	assert.Equal(t, 1, strings.Count(got, Marker))
	// 기존 포맷 그대로: 8 + 13 + 8
	assert.Len(t, got, 29)
}

func TestTruncateSmallBudgets(t *testing.T) {
	t.Parallel()

	for _, max := range []int{0, 1, 2, 3, 4, 5, -2, -14, -100, math.MinInt} {
		got := Truncate("abcdefghij", max)
		assert.Equal(t, Marker, got, "maxLength=%d", max)
	}

	// (6-4)/2 = 1
	assert.Equal(t, "a"+Marker+"j", Truncate("abcdefghij", 6))
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("가", 10) + strings.Repeat("나", 10)
	got := Truncate(text, 12)

	assert.Equal(t, "가가가가"+Marker+"나나나나", got)
}

func TestTruncateProperties(t *testing.T) {
	t.Parallel()

	text := "abcdefghijklmnopqrstuvwxyz0123456789"
	for max := 4; max < len(text); max++ {
		got := Truncate(text, max)
		keep := (max - 4) / 2

		assert.Equal(t, 1, strings.Count(got, Marker))
		assert.Equal(t, text[:keep], got[:keep])
		assert.Equal(t, text[len(text)-keep:], got[len(got)-keep:])
	}
}
