package occupancy

import (
	"context"
	"sync"
)

// MemoryCounter держит счётчики в памяти процесса. Используется в тестах
// и как запасной вариант при недоступном Redis.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

func (m *MemoryCounter) CheckIn(_ context.Context, storeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[storeID]++
	return m.counts[storeID], nil
}

func (m *MemoryCounter) CheckOut(_ context.Context, storeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts[storeID] > 0 {
		m.counts[storeID]--
	}
	return m.counts[storeID], nil
}

func (m *MemoryCounter) Current(_ context.Context, storeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[storeID], nil
}
