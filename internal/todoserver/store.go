package todoserver

import (
	"fmt"
	"sort"
	"sync"

	"todosmoke/internal/todo"
)

// ErrNotFound is returned for operations on an unknown item id.
type ErrNotFound struct {
	ID int
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("todo item %d does not exist", e.ID)
}

// Store holds todo items for the reference service.
type Store interface {
	Create(description string, completed bool) (todo.Item, error)
	SetCompleted(id int, completed bool) error
	List(completed bool) ([]todo.Item, error)
	Delete(id int) error
}

// MemStore is an in-memory Store. Ids start at 1 and are never reused.
type MemStore struct {
	mu     sync.Mutex
	nextID int
	items  map[int]todo.Item
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		items:  make(map[int]todo.Item),
	}
}

func (m *MemStore) Create(description string, completed bool) (todo.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := todo.Item{ID: m.nextID, Description: description, Completed: completed}
	m.items[item.ID] = item
	m.nextID++
	return item, nil
}

func (m *MemStore) SetCompleted(id int, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return ErrNotFound{ID: id}
	}
	item.Completed = completed
	m.items[id] = item
	return nil
}

// List returns the items with the given completion state ordered by id.
func (m *MemStore) List(completed bool) ([]todo.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]todo.Item, 0, len(m.items))
	for _, item := range m.items {
		if item.Completed == completed {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) Delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound{ID: id}
	}
	delete(m.items, id)
	return nil
}
