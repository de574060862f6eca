package db

import (
	"context"
	"sync"

	"github.com/centromex/foodwaste/internal/models"
)

// Memory keeps all tables in process memory. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	snap *models.Snapshot
}

// NewMemory creates a store seeded with a copy of snap (which may be nil).
func NewMemory(snap *models.Snapshot) *Memory {
	return &Memory{snap: snap.Clone()}
}

func (m *Memory) Load(ctx context.Context) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone(), nil
}

func (m *Memory) LoadListings(ctx context.Context) ([]models.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Listing(nil), m.snap.Listings...), nil
}

func (m *Memory) SaveListings(ctx context.Context, listings []models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Listings = append([]models.Listing(nil), listings...)
	return nil
}

func (m *Memory) ReplaceAll(ctx context.Context, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
