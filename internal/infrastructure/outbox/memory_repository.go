package outbox

import (
	"context"
	"sync"
)

// MemoryRepository backs the outbox for the memory and jsonfile stores.
// Events are kept in insertion order and dropped once published.
type MemoryRepository struct {
	mu     sync.Mutex
	events []OutboxEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, evt OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt)
	return nil
}

func (r *MemoryRepository) FindUnpublished(_ context.Context, limit int) ([]OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.events)
	if n > limit {
		n = limit
	}

	events := make([]OutboxEvent, n)
	copy(events, r.events[:n])
	return events, nil
}

func (r *MemoryRepository) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, evt := range r.events {
		if evt.ID == id {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}
