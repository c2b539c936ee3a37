package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/common"
)

// MemoryRegistry is an in-process Registry guarded by a mutex. It backs
// tests and hosts that track sessions without external storage.
type MemoryRegistry struct {
	mu        sync.Mutex
	activated bool
	bySlot    map[string]*Record
}

func NewMemoryRegistry(activated bool) *MemoryRegistry {
	return &MemoryRegistry{
		activated: activated,
		bySlot:    make(map[string]*Record),
	}
}

func (m *MemoryRegistry) Activated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activated
}

func (m *MemoryRegistry) Find(ctx context.Context, slot string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.bySlot[slot]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryRegistry) Create(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySlot[rec.Slot]; exists {
		return common.ErrSlotOccupied
	}
	rec.ID = uuid.NewString()
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	cp := *rec
	m.bySlot[rec.Slot] = &cp
	return nil
}

func (m *MemoryRegistry) Update(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.bySlot[rec.Slot]
	if !ok || stored.ID != rec.ID {
		return common.ErrNotFound
	}
	rec.UpdatedAt = time.Now()
	cp := *rec
	m.bySlot[rec.Slot] = &cp
	return nil
}

// Drop removes the session in the given slot, if any. Used by hosts to
// express an explicit local logout.
func (m *MemoryRegistry) Drop(slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bySlot, slot)
}
