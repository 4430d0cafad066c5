package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()

	s, created, err := r.GetOrCreate("g1", func() (*Session, error) {
		return New("g1", "text", "voice"), nil
	})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := r.GetOrCreate("g1", func() (*Session, error) {
		t.Fatal("onCreate must not run for an existing session")
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)
}

func TestRegistry_FailedCreateRegistersNothing(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("join failed")

	_, created, err := r.GetOrCreate("g1", func() (*Session, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, created)

	_, ok := r.Get("g1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentCreateRunsOnce(t *testing.T) {
	r := NewRegistry()
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]*Session, 8)
	createdCount := atomic.Int32{}
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, created, err := r.GetOrCreate("g1", func() (*Session, error) {
				calls.Add(1)
				<-release
				return New("g1", "text", "voice"), nil
			})
			assert.NoError(t, err)
			if created {
				createdCount.Add(1)
			}
			results[i] = s
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), createdCount.Load())
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestRegistry_RemoveOnlyCurrent(t *testing.T) {
	r := NewRegistry()
	old := New("g1", "text", "voice")
	r.Set(old)
	fresh := New("g1", "text", "voice")
	r.Set(fresh)

	assert.False(t, r.Remove(old))
	got, ok := r.Get("g1")
	require.True(t, ok)
	assert.Same(t, fresh, got)

	assert.True(t, r.Remove(fresh))
	_, ok = r.Get("g1")
	assert.False(t, ok)
}

func TestRegistry_Sessions(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Sessions())

	a, b := New("g1", "t", "v"), New("g2", "t", "v")
	r.Set(a)
	r.Set(b)
	assert.ElementsMatch(t, []*Session{a, b}, r.Sessions())

	assert.True(t, r.Remove(a))
	assert.Equal(t, []*Session{b}, r.Sessions())
}
