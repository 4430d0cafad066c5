package session

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noRand(int) int { panic("unexpected shuffle") }

func TestNextIndex_SequentialRunsToEnd(t *testing.T) {
	const n = 5
	cursor := 0
	for want := 1; want < n; want++ {
		next, err := NextIndex(cursor, n, Sequential, NaturalEnd, noRand)
		require.NoError(t, err)
		assert.Equal(t, want, next)
		cursor = next
	}

	_, err := NextIndex(cursor, n, Sequential, NaturalEnd, noRand)
	assert.ErrorIs(t, err, ErrEndOfQueue)
}

func TestNextIndex_LoopAllCycles(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for start := 0; start < n; start++ {
			cursor := start
			for i := 0; i < n; i++ {
				next, err := NextIndex(cursor, n, LoopAll, NaturalEnd, noRand)
				require.NoError(t, err)
				cursor = next
				if i < n-1 {
					assert.NotEqual(t, start, cursor, "cycle shorter than %d", n)
				}
			}
			assert.Equal(t, start, cursor)
		}
	}
}

func TestNextIndex_LoopOneStays(t *testing.T) {
	cursor := 2
	for i := 0; i < 10; i++ {
		next, err := NextIndex(cursor, 4, LoopOne, NaturalEnd, noRand)
		require.NoError(t, err)
		assert.Equal(t, 2, next)
		cursor = next
	}
}

func TestNextIndex_ShuffleBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for n := 1; n <= 1000; n++ {
		next, err := NextIndex(0, n, Shuffle, NaturalEnd, rng.IntN)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next, 0)
		assert.Less(t, next, n)
	}
}

func TestNextIndex_ManualBounds(t *testing.T) {
	tests := []struct {
		name    string
		cursor  int
		length  int
		trigger Trigger
		want    int
		wantErr error
	}{
		{"prev at start", 0, 3, ManualPrev, 0, ErrNoPrevious},
		{"next at end", 2, 3, ManualNext, 2, ErrNoNext},
		{"prev in middle", 1, 3, ManualPrev, 0, nil},
		{"next in middle", 1, 3, ManualNext, 2, nil},
		{"next on single track", 0, 1, ManualNext, 0, ErrNoNext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range Modes {
				got, err := NextIndex(tt.cursor, tt.length, mode, tt.trigger, noRand)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NoError(t, err)
				}
				assert.Equal(t, tt.want, got, "mode %s", mode)
			}
		})
	}
}

func TestNextIndex_EmptyQueueEnds(t *testing.T) {
	for _, mode := range Modes {
		_, err := NextIndex(NoCursor, 0, mode, NaturalEnd, noRand)
		assert.ErrorIs(t, err, ErrEndOfQueue, "mode %s", mode)
	}
}

func TestMode_NextWraps(t *testing.T) {
	m := Sequential
	seen := []Mode{m}
	for i := 0; i < 4; i++ {
		m = m.Next()
		seen = append(seen, m)
	}
	assert.Equal(t, []Mode{Sequential, LoopAll, Shuffle, LoopOne, Sequential}, seen)
}
