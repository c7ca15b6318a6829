package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachVisitsEveryIndex(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		results := make([]int, 25)
		err := ForEach(context.Background(), len(results), workers, func(_ context.Context, i int) error {
			results[i] = i * i
			return nil
		})
		require.NoError(t, err)
		for i, r := range results {
			assert.Equal(t, i*i, r, "workers=%d", workers)
		}
	}
}

func TestForEachStopsOnError(t *testing.T) {
	boom := errors.New("fold 2 failed")
	var calls atomic.Int32

	err := ForEach(context.Background(), 100, 1, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Less(t, int(calls.Load()), 100)
}

func TestForEachHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForEach(ctx, 10, 2, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, ForEach(ctx, 0, 2, nil))
}

func TestParallelizeCoversRange(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000} {
		var sum atomic.Int64
		ParallelizeWithThreshold(items, 10, func(start, end int) {
			for i := start; i < end; i++ {
				sum.Add(int64(i))
			}
		})
		assert.Equal(t, int64(items*(items-1)/2), sum.Load(), "items=%d", items)
	}
}
