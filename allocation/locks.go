package allocation

import "sync"

// =============================================================================
// EMPLOYEE LOCKS - Per-employee admission serialization
// =============================================================================

// employeeLocks hands out one mutex per employee id. Admission holds the
// employee's mutex across validate+commit so two concurrent admissions for
// the same employee cannot both pass the capacity check and then both
// write. Admissions for different employees proceed in parallel.
//
// Entries are retained for the life of the process; the map is bounded by
// the number of distinct employees seen.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[EmployeeID]*sync.Mutex)}
}

func (el *employeeLocks) forEmployee(id EmployeeID) *sync.Mutex {
	el.mu.Lock()
	defer el.mu.Unlock()

	m, ok := el.locks[id]
	if !ok {
		m = &sync.Mutex{}
		el.locks[id] = m
	}
	return m
}
