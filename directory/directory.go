/*
Package directory holds the reference data allocations point at: employees,
clients, and client projects.

PURPOSE:
  The admission engine treats these entities as external; an allocation
  carries non-owning references by id. The directory is read-mostly data
  loaded from an upstream HR/CRM feed and served for lookups alongside the
  allocation API.

SEE ALSO:
  - store/sqlite: the persistent implementation
  - api: the read-only passthrough endpoints
*/
package directory

import (
	"context"
	"errors"
	"sync"

	"github.com/warp/staffing-engine/allocation"
)

// ErrNotFound is returned for lookups against a missing entity.
var ErrNotFound = errors.New("directory entry not found")

// =============================================================================
// ENTITIES
// =============================================================================

type Employee struct {
	ID       allocation.EmployeeID
	Name     string
	Role     string
	Email    string
	Studio   string
	Location string
	Status   string // e.g. "Active", "Inactive"
}

type Client struct {
	ID      allocation.ClientID
	Name    string
	Country string
	Partner string
}

type Project struct {
	ID       allocation.ProjectID
	ClientID allocation.ClientID
	Name     string
	Status   string
	Category string
	Manager  string
}

// =============================================================================
// DIRECTORY - Read interface
// =============================================================================

// Directory serves employee/client/project lookups.
type Directory interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id allocation.EmployeeID) (Employee, error)

	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id allocation.ClientID) (Client, error)

	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id allocation.ProjectID) (Project, error)
	ProjectsByClient(ctx context.Context, clientID allocation.ClientID) ([]Project, error)
}

// =============================================================================
// MEMORY DIRECTORY - For tests and development seeding
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[allocation.EmployeeID]Employee
	clients   map[allocation.ClientID]Client
	projects  map[allocation.ProjectID]Project
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[allocation.EmployeeID]Employee),
		clients:   make(map[allocation.ClientID]Client),
		projects:  make(map[allocation.ProjectID]Project),
	}
}

func (m *Memory) AddEmployee(e Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
}

func (m *Memory) AddClient(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
}

func (m *Memory) AddProject(p Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
}

func (m *Memory) ListEmployees(_ context.Context) ([]Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	return result, nil
}

func (m *Memory) GetEmployee(_ context.Context, id allocation.EmployeeID) (Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) ListClients(_ context.Context) ([]Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		result = append(result, c)
	}
	return result, nil
}

func (m *Memory) GetClient(_ context.Context, id allocation.ClientID) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Project, 0, len(m.projects))
	for _, p := range m.projects {
		result = append(result, p)
	}
	return result, nil
}

func (m *Memory) GetProject(_ context.Context, id allocation.ProjectID) (Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ProjectsByClient(_ context.Context, clientID allocation.ClientID) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Project
	for _, p := range m.projects {
		if p.ClientID == clientID {
			result = append(result, p)
		}
	}
	return result, nil
}
