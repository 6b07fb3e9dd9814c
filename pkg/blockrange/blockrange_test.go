package blockrange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		from   uint64
		to     uint64
		window uint64
		want   []Range
	}{
		{
			name: "three windows", from: 0, to: 250000, window: 100000,
			want: []Range{{0, 100000}, {100001, 200000}, {200001, 250000}},
		},
		{
			name: "single block", from: 42, to: 42, window: 100000,
			want: []Range{{42, 42}},
		},
		{
			name: "exactly one window", from: 10, to: 110, window: 100,
			want: []Range{{10, 110}},
		},
		{
			name: "one past a window", from: 10, to: 111, window: 100,
			want: []Range{{10, 110}, {111, 111}},
		},
		{
			name: "window of one", from: 5, to: 8, window: 1,
			want: []Range{{5, 6}, {7, 7}, {8, 8}},
		},
		{
			name: "later windows hold the cap", from: 1, to: 10, window: 3,
			want: []Range{{1, 4}, {5, 7}, {8, 10}},
		},
		{
			name: "top of uint64", from: ^uint64(0) - 3, to: ^uint64(0), window: 2,
			want: []Range{{^uint64(0) - 3, ^uint64(0) - 1}, {^uint64(0), ^uint64(0)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Split(tt.from, tt.to, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_LaterWindowsNeverExceedCap(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct{ from, to, window uint64 }{
		{0, 250000, 100000}, {1, 10, 3}, {7, 1000, 13}, {0, 99, 1},
	} {
		got, err := Split(tc.from, tc.to, tc.window)
		require.NoError(t, err)
		require.Equal(t, tc.from, got[0].From)
		require.Equal(t, tc.to, got[len(got)-1].To)
		for i, r := range got {
			if i > 0 {
				assert.Equal(t, got[i-1].To+1, r.From, "windows must be contiguous")
				assert.LessOrEqual(t, r.To-r.From+1, tc.window, "window %s too wide", r)
				if r.To != tc.to {
					assert.Equal(t, tc.from+uint64(i+1)*tc.window, r.To, "window %s not anchored to from", r)
				}
			}
		}
	}
}

func TestSplit_Invalid(t *testing.T) {
	t.Parallel()
	_, err := Split(10, 9, 100)
	require.ErrorIs(t, err, ErrInvalidRange)
	_, err = Split(0, 9, 0)
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestFetch_SequentialInOrder(t *testing.T) {
	t.Parallel()
	var calls []Range
	got, err := Fetch(t.Context(), 0, 250000, 100000, func(_ context.Context, r Range) ([]uint64, error) {
		calls = append(calls, r)
		return []uint64{r.From, r.To}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Range{{0, 100000}, {100001, 200000}, {200001, 250000}}, calls)
	assert.Equal(t, []uint64{0, 100000, 100001, 200000, 200001, 250000}, got)
}

func TestFetch_StopsOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("query returned more than 10000 results")
	calls := 0
	_, err := Fetch(t.Context(), 0, 300, 100, func(_ context.Context, r Range) ([]int, error) {
		calls++
		if r.From > 0 {
			return nil, boom
		}
		return []int{1}, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "[101,200]")
}

func TestFetch_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Fetch(ctx, 0, 10, 5, func(context.Context, Range) ([]int, error) {
		t.Fatal("fn must not be called")
		return nil, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
