package todoserver

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todosmoke/internal/todo"
)

func TestMemStore_Lifecycle(t *testing.T) {
	store := NewMemStore()

	a, err := store.Create("a", false)
	require.NoError(t, err)
	b, err := store.Create("b", true)
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	require.NoError(t, store.SetCompleted(a.ID, true))

	completed, err := store.List(true)
	require.NoError(t, err)
	assert.Equal(t, []todo.Item{{ID: 1, Description: "a", Completed: true}, {ID: 2, Description: "b", Completed: true}}, completed)

	incomplete, err := store.List(false)
	require.NoError(t, err)
	assert.Empty(t, incomplete)

	require.NoError(t, store.Delete(a.ID))
	err = store.Delete(a.ID)
	assert.Equal(t, ErrNotFound{ID: 1}, err)

	// Ids are not reused after a delete.
	c, err := store.Create("c", false)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)
}

func TestMemStore_SetCompletedUnknown(t *testing.T) {
	store := NewMemStore()
	err := store.SetCompleted(5, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5")
}

func TestMemStore_ConcurrentCreate(t *testing.T) {
	store := NewMemStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Create("x", false)
		}()
	}
	wg.Wait()

	items, err := store.List(false)
	require.NoError(t, err)
	require.Len(t, items, 50)
	for i, item := range items {
		assert.Equal(t, i+1, item.ID)
	}
}
