package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

type memoryEntry struct {
	order Order
	seq   uint64
}

type memoryRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]memoryEntry
	nextSeq uint64
}

// NewMemoryRepository returns a process-local Repository. Nothing survives a restart.
func NewMemoryRepository() Repository {
	return &memoryRepository{orders: make(map[uuid.UUID]memoryEntry)}
}

func (r *memoryRepository) Create(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.numberTaken(order.OrderNumber, uuid.Nil) {
		return ErrOrderNumberExists
	}

	if order.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		order.ID = id
	}
	if order.CreatedDate.IsZero() {
		order.CreatedDate = time.Now().UTC()
	}

	r.nextSeq++
	r.orders[order.ID] = memoryEntry{order: order.clone(), seq: r.nextSeq}
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	order := entry.order.clone()
	return &order, nil
}

func (r *memoryRepository) List(_ context.Context, filter ListFilter) ([]Order, error) {
	r.mu.RLock()
	entries := make([]memoryEntry, 0, len(r.orders))
	for _, entry := range r.orders {
		if filter.Matches(entry.order) {
			entries = append(entries, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.order.CreatedDate.Equal(b.order.CreatedDate) {
			return a.order.CreatedDate.After(b.order.CreatedDate)
		}
		return a.seq > b.seq
	})

	orders := make([]Order, 0, len(entries))
	for _, entry := range entries {
		orders = append(orders, entry.order.clone())
	}
	return orders, nil
}

func (r *memoryRepository) Update(_ context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	if r.numberTaken(order.OrderNumber, order.ID) {
		return ErrOrderNumberExists
	}

	updated := order.clone()
	updated.CreatedDate = entry.order.CreatedDate
	order.CreatedDate = entry.order.CreatedDate
	r.orders[order.ID] = memoryEntry{order: updated, seq: entry.seq}
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// numberTaken must be called with r.mu held.
func (r *memoryRepository) numberTaken(number string, except uuid.UUID) bool {
	if number == "" {
		return false
	}
	for id, entry := range r.orders {
		if id != except && entry.order.OrderNumber == number {
			return true
		}
	}
	return false
}
