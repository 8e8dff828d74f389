/*
repository.go - Persistence interface for allocation rows

PURPOSE:
  Defines the boundary between the admission engine and the database. The
  engine never phrases SQL; it sees only these operations. Implementations
  may be relational, document, or in-memory.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (raw SQL, WAL)
  - allocation/store: in-memory, for tests and development

CONTRACT:
  - Insert mints the surrogate id and stamps ModifiedAt.
  - Update replaces mutable fields for an existing id and stamps ModifiedAt;
    returns ErrAllocationNotFound for a missing row.
  - Get/Delete return ErrAllocationNotFound for a missing row.
  - Find* return matching rows in unspecified order; never nil-for-error.
  - All operations honor ctx cancellation and deadlines.

SEE ALSO:
  - engine.go: the only writer; every mutation flows through Admit/Delete
*/
package allocation

import "context"

// Repository persists allocation rows keyed by surrogate id.
type Repository interface {
	// Get returns the row, or ErrAllocationNotFound.
	Get(ctx context.Context, id AllocationID) (Allocation, error)

	// FindByEmployee returns every allocation for the employee, any status.
	FindByEmployee(ctx context.Context, employeeID EmployeeID) ([]Allocation, error)

	// FindByEmployeeAndProject narrows to one employee+project pair.
	FindByEmployeeAndProject(ctx context.Context, employeeID EmployeeID, projectID ProjectID) ([]Allocation, error)

	// FindByProject returns every allocation on the project.
	FindByProject(ctx context.Context, projectID ProjectID) ([]Allocation, error)

	// FindByClient returns every allocation under the client.
	FindByClient(ctx context.Context, clientID ClientID) ([]Allocation, error)

	// Insert persists a new row, minting its id. Returns the id.
	Insert(ctx context.Context, a Allocation) (AllocationID, error)

	// Update persists field changes to an existing row, preserving id.
	Update(ctx context.Context, a Allocation) error

	// Delete removes the row permanently.
	Delete(ctx context.Context, id AllocationID) error
}
