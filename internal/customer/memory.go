package customer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

type memoryEntry struct {
	customer Customer
	seq      uint64
}

type memoryRepository struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]memoryEntry
	nextSeq   uint64
}

// NewMemoryRepository returns a process-local Repository. Nothing survives a restart.
func NewMemoryRepository() Repository {
	return &memoryRepository{customers: make(map[uuid.UUID]memoryEntry)}
}

func (r *memoryRepository) Create(_ context.Context, customer *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if customer.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate customer ID: %w", err)
		}
		customer.ID = id
	}
	if customer.CreatedDate.IsZero() {
		customer.CreatedDate = time.Now().UTC()
	}

	r.nextSeq++
	r.customers[customer.ID] = memoryEntry{customer: *customer, seq: r.nextSeq}
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	customer := entry.customer
	return &customer, nil
}

func (r *memoryRepository) List(_ context.Context, filter ListFilter) ([]Customer, error) {
	r.mu.RLock()
	entries := make([]memoryEntry, 0, len(r.customers))
	for _, entry := range r.customers {
		if filter.Matches(entry.customer) {
			entries = append(entries, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.customer.CreatedDate.Equal(b.customer.CreatedDate) {
			return a.customer.CreatedDate.After(b.customer.CreatedDate)
		}
		return a.seq > b.seq
	})

	customers := make([]Customer, 0, len(entries))
	for _, entry := range entries {
		customers = append(customers, entry.customer)
	}
	return customers, nil
}

func (r *memoryRepository) Update(_ context.Context, customer *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.customers[customer.ID]
	if !ok {
		return ErrNotFound
	}

	customer.CreatedDate = entry.customer.CreatedDate
	r.customers[customer.ID] = memoryEntry{customer: *customer, seq: entry.seq}
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[id]; !ok {
		return ErrNotFound
	}
	delete(r.customers, id)
	return nil
}
