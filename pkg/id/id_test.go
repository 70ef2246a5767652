package id

import (
	"sort"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestAtRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s, err := At(ts)
	require.NoError(t, err)
	assert.Len(t, s, 26)

	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))
}

func TestAtOrdersByTime(t *testing.T) {
	t.Parallel()

	early, err := At(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	late, err := At(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Less(t, early, late)
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}

func TestAt_OutOfRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   time.Time
	}{
		{"before epoch", time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"far past", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"after max", time.Date(10900, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var s string
			var err error
			assert.NotPanics(t, func() { s, err = At(tt.at) })
			assert.ErrorIs(t, err, ulid.ErrBigTime)
			assert.Empty(t, s)
		})
	}
}

func TestAt_Epoch(t *testing.T) {
	t.Parallel()

	s, err := At(time.Unix(0, 0))
	require.NoError(t, err)
	got, err := Time(s)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.UnixMilli())
}
