package itinerary

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps trips and plans in process memory. It backs the
// offline CLI and service tests.
type MemoryRepository struct {
	mu          sync.RWMutex
	trips       map[uuid.UUID]types.TripConfig
	suggestions map[uuid.UUID][]types.Suggestion
	plans       map[uuid.UUID]types.Plan
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		trips:       make(map[uuid.UUID]types.TripConfig),
		suggestions: make(map[uuid.UUID][]types.Suggestion),
		plans:       make(map[uuid.UUID]types.Plan),
	}
}

// PutTrip registers a trip snapshot, replacing any previous one.
func (m *MemoryRepository) PutTrip(trip types.TripConfig, suggestions []types.Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	m.suggestions[trip.ID] = slices.Clone(suggestions)
}

func (m *MemoryRepository) GetTripConfig(_ context.Context, tripID uuid.UUID) (types.TripConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[tripID]
	if !ok {
		return types.TripConfig{}, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}
	return trip, nil
}

func (m *MemoryRepository) GetSuggestions(_ context.Context, tripID uuid.UUID) ([]types.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.suggestions[tripID]), nil
}

func (m *MemoryRepository) GetPlan(_ context.Context, tripID uuid.UUID) (types.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plan, ok := m.plans[tripID]
	if !ok {
		return types.Plan{}, fmt.Errorf("plan for trip %s: %w", tripID, types.ErrNotFound)
	}
	return plan, nil
}

func (m *MemoryRepository) SavePlan(_ context.Context, plan types.Plan, expectedVersion int64) (types.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plans[plan.TripID].Version != expectedVersion {
		return types.Plan{}, fmt.Errorf("trip %s expected version %d: %w", plan.TripID, expectedVersion, types.ErrConcurrentModification)
	}
	now := time.Now().UTC()
	if plan.GeneratedAt.IsZero() {
		plan.GeneratedAt = now
	}
	plan.Version = expectedVersion + 1
	plan.UpdatedAt = now
	m.plans[plan.TripID] = plan
	return plan, nil
}
