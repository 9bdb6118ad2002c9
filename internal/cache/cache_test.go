package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory[string](time.Minute)
	defer m.Close()

	m.Set("a", "value-a", 0)
	got, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", got)
}

func TestMemory_MissingKey(t *testing.T) {
	m := NewMemory[string](time.Minute)
	defer m.Close()

	_, err := m.Get("nope")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestMemory_ExpiredEntry(t *testing.T) {
	m := NewMemory[int](time.Minute)
	defer m.Close()

	m.Set("short", 42, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, err := m.Get("short")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.Equal(t, 0, m.Len(), "lazy expiry on Get removes the entry")
}

func TestMemory_ExplicitTTLOverridesDefault(t *testing.T) {
	m := NewMemory[int](10 * time.Millisecond)
	defer m.Close()

	m.Set("long", 1, time.Minute)
	time.Sleep(30 * time.Millisecond)

	got, err := m.Get("long")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory[string](time.Minute)
	defer m.Close()

	m.Set("a", "x", 0)
	m.Delete("a")
	_, err := m.Get("a")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.Equal(t, 0, m.Len())
}

func TestMemory_OverwriteRefreshesValue(t *testing.T) {
	m := NewMemory[string](time.Minute)
	defer m.Close()

	m.Set("k", "old", 0)
	m.Set("k", "new", 0)

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory[int](time.Minute)
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			m.Set(key, n, 0)
			m.Get(key)
			m.Len()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, m.Len())
}

func TestMemory_CloseIsIdempotent(t *testing.T) {
	m := NewMemory[string](time.Minute)
	m.Close()
	m.Close()
}
