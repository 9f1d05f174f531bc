package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		page, size  int
		offset, lim int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 10, 20, 10},
		{"page below one", 0, 5, 0, 5},
		{"default size", 2, 0, DefaultPageSize, DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.lim, limit)
		})
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("abc", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestParseUint(t *testing.T) {
	t.Parallel()

	v, err := ParseUint("")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseUint("42")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, uint(42), *v)

	_, err = ParseUint("0")
	require.Error(t, err)
	_, err = ParseUint("-1")
	require.Error(t, err)
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	v, err := ParseBool("true")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, *v)

	_, err = ParseBool("maybe")
	require.Error(t, err)
}

func TestParseTimeBound(t *testing.T) {
	t.Parallel()

	start, err := ParseTimeBound("2025-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *start)

	end, err := ParseTimeBound("2025-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 23, 59, 59, 999999999, time.UTC), *end)

	exact, err := ParseTimeBound("2025-03-01T10:00:00+09:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC), *exact)

	_, err = ParseTimeBound("yesterday", false)
	require.Error(t, err)
}
