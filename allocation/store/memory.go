// Package store provides Repository implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/staffing-engine/allocation"
)

// =============================================================================
// MEMORY REPOSITORY - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	rows map[allocation.AllocationID]allocation.Allocation

	// now is injectable for tests asserting ModifiedAt stamping.
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		rows: make(map[allocation.AllocationID]allocation.Allocation),
		now:  time.Now,
	}
}

func (m *Memory) Get(_ context.Context, id allocation.AllocationID) (allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok {
		return allocation.Allocation{}, allocation.ErrAllocationNotFound
	}
	return row, nil
}

func (m *Memory) FindByEmployee(_ context.Context, employeeID allocation.EmployeeID) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.Allocation
	for _, row := range m.rows {
		if row.EmployeeID == employeeID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *Memory) FindByEmployeeAndProject(_ context.Context, employeeID allocation.EmployeeID, projectID allocation.ProjectID) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.Allocation
	for _, row := range m.rows {
		if row.EmployeeID == employeeID && row.ProjectID == projectID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *Memory) FindByProject(_ context.Context, projectID allocation.ProjectID) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.Allocation
	for _, row := range m.rows {
		if row.ProjectID == projectID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *Memory) FindByClient(_ context.Context, clientID allocation.ClientID) ([]allocation.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []allocation.Allocation
	for _, row := range m.rows {
		if row.ClientID == clientID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (m *Memory) Insert(_ context.Context, a allocation.Allocation) (allocation.AllocationID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = allocation.AllocationID(uuid.NewString())
	a.ModifiedAt = m.now()
	m.rows[a.ID] = a
	return a.ID, nil
}

func (m *Memory) Update(_ context.Context, a allocation.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[a.ID]; !ok {
		return allocation.ErrAllocationNotFound
	}
	a.ModifiedAt = m.now()
	m.rows[a.ID] = a
	return nil
}

func (m *Memory) Delete(_ context.Context, id allocation.AllocationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return allocation.ErrAllocationNotFound
	}
	delete(m.rows, id)
	return nil
}
