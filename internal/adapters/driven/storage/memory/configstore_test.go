package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	err := store.Set("notion.token", "secret_abc123")
	require.NoError(t, err)

	val, ok := store.Get("notion.token")
	assert.True(t, ok)
	assert.Equal(t, "secret_abc123", val)
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	err := store.Set("ai.llm_model", "gpt-4o-mini")
	require.NoError(t, err)

	err = store.Set("ai.llm_model", "gpt-4o")
	require.NoError(t, err)

	val, ok := store.Get("ai.llm_model")
	assert.True(t, ok)
	assert.Equal(t, "gpt-4o", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("github.token")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("ai.llm_provider", "anthropic")
	_ = store.Set("agent.top_k", 8)

	assert.Equal(t, "anthropic", store.GetString("ai.llm_provider"))
	assert.Equal(t, "", store.GetString("missing"))
	// Wrong type reads as the zero value.
	assert.Equal(t, "", store.GetString("agent.top_k"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("agent.chunk_size", 2000)
	_ = store.Set("agent.top_k", int64(8))
	_ = store.Set("agent.chunk_overlap", float64(200))
	_ = store.Set("notion.token", "secret")

	assert.Equal(t, 2000, store.GetInt("agent.chunk_size"))
	// TOML decodes integers as int64, JSON as float64.
	assert.Equal(t, 8, store.GetInt("agent.top_k"))
	assert.Equal(t, 200, store.GetInt("agent.chunk_overlap"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0, store.GetInt("notion.token"))
}

func TestConfigStore_GetInt_ExplicitZero(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("agent.chunk_overlap", 0)

	val, ok := store.Get("agent.chunk_overlap")
	assert.True(t, ok)
	assert.Equal(t, 0, val)
	assert.Equal(t, 0, store.GetInt("agent.chunk_overlap"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("ratelimit.github.rate", 2.5)
	_ = store.Set("ratelimit.notion.rate", 4)
	_ = store.Set("ai.llm_provider", "openai")

	assert.Equal(t, 2.5, store.GetFloat("ratelimit.github.rate"))
	assert.Equal(t, 4.0, store.GetFloat("ratelimit.notion.rate"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
	assert.Equal(t, 0.0, store.GetFloat("ai.llm_provider"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("verbose", true)
	_ = store.Set("notion.token", "secret")

	assert.True(t, store.GetBool("verbose"))
	assert.False(t, store.GetBool("missing"))
	assert.False(t, store.GetBool("notion.token"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("pipeline.processors", []string{"chunker"})
	_ = store.Set("agent.top_k", 8)

	assert.Equal(t, []string{"chunker"}, store.GetStringSlice("pipeline.processors"))
	assert.Nil(t, store.GetStringSlice("missing"))
	assert.Nil(t, store.GetStringSlice("agent.top_k"))
}

func TestConfigStore_Save_NoOp(t *testing.T) {
	store := NewConfigStore()

	// Save should not error for memory store
	err := store.Save()
	assert.NoError(t, err)

	// Data should still be accessible
	_ = store.Set("github.token", "ghp_abc")
	err = store.Save()
	assert.NoError(t, err)

	assert.Equal(t, "ghp_abc", store.GetString("github.token"))
}

func TestConfigStore_Load_NoOp(t *testing.T) {
	store := NewConfigStore()

	// Load should not error for memory store
	err := store.Load()
	assert.NoError(t, err)

	// Should start with empty state
	val, ok := store.Get("notion.token")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Path(t *testing.T) {
	store := NewConfigStore()

	path := store.Path()
	assert.Equal(t, ":memory:", path)
}

func TestConfigStore_Concurrency_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	numGoroutines := 50

	// Concurrent sets
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			key := "ratelimit.source-" + string(rune('A'+id)) + ".rate"
			_ = store.Set(key, float64(id))
		}(i)
	}
	wg.Wait()

	// Concurrent gets
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			key := "ratelimit.source-" + string(rune('A'+id)) + ".rate"
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()

	// Verify all were set
	for i := 0; i < numGoroutines; i++ {
		key := "ratelimit.source-" + string(rune('A'+i)) + ".rate"
		val, ok := store.Get(key)
		assert.True(t, ok)
		assert.NotNil(t, val)
	}
}

func TestConfigStore_Concurrency_ReadWriteMix(t *testing.T) {
	store := NewConfigStore()

	// Pre-populate
	for i := 0; i < 10; i++ {
		_ = store.Set("agent.key-"+string(rune('0'+i)), i)
	}

	var wg sync.WaitGroup
	numReaders := 50
	numWriters := 25

	// Concurrent readers
	wg.Add(numReaders)
	for i := 0; i < numReaders; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = store.Get("agent.key-" + string(rune('0'+j)))
			}
		}()
	}

	// Concurrent writers
	wg.Add(numWriters)
	for i := 0; i < numWriters; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = store.Set("agent.key-"+string(rune('0'+j)), id*10+j)
			}
		}(i)
	}

	wg.Wait()

	// Should not panic or deadlock
	for i := 0; i < 10; i++ {
		val, ok := store.Get("agent.key-" + string(rune('0'+i)))
		assert.True(t, ok)
		assert.NotNil(t, val)
	}
}

func TestConfigStore_MultipleInstances(t *testing.T) {
	store1 := NewConfigStore()
	store2 := NewConfigStore()

	_ = store1.Set("notion.token", "secret_one")
	_ = store2.Set("github.token", "ghp_two")

	// Each store should be independent
	val1, ok1 := store1.Get("notion.token")
	assert.True(t, ok1)
	assert.Equal(t, "secret_one", val1)

	_, ok2 := store1.Get("github.token")
	assert.False(t, ok2)

	val3, ok3 := store2.Get("github.token")
	assert.True(t, ok3)
	assert.Equal(t, "ghp_two", val3)

	_, ok4 := store2.Get("notion.token")
	assert.False(t, ok4)
}
