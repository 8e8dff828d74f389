/*
engine.go - The admission pipeline

PURPOSE:
  Engine.Admit is the single gate through which every allocation create or
  update passes. It runs a fail-fast validation pipeline and performs
  exactly one write on success, zero on rejection:

    1. Required fields      -> MissingFieldError
    2. Enumerations         -> InvalidEnumError
    3. Ranges               -> PercentRangeError / StartDateError / DateOrderError
    4. Capacity ceiling     -> CapacityExceededError
    5. Project overlap      -> OverlapError
    6. Commit               -> insert or update through the Repository

CONCURRENCY:
  Validation (read) and commit (write) are two steps, so two concurrent
  admissions for the same employee could both pass step 4 and then both
  write, over-allocating under load. The engine serializes on a
  per-employee mutex held across validate+commit; admissions for
  different employees run fully in parallel.

CANCELLATION:
  Store calls inherit the caller's context. A caller that abandons a
  request before commit is guaranteed no partial write: commit is the
  single write, and the context is re-checked immediately before it.

SEE ALSO:
  - capacity.go, overlap.go: steps 4 and 5
  - lifecycle.go: the Closed guard on update
*/
package allocation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Engine validates and commits allocation admissions.
type Engine struct {
	repo     Repository
	rules    Rules
	capacity *CapacityAccumulator
	overlap  *OverlapChecker
	locks    *employeeLocks
	log      zerolog.Logger

	// today is injectable for tests.
	today func() Date
}

// NewEngine wires an Engine over a repository.
func NewEngine(repo Repository, rules Rules, log zerolog.Logger) *Engine {
	return &Engine{
		repo:     repo,
		rules:    rules,
		capacity: &CapacityAccumulator{Repo: repo},
		overlap:  &OverlapChecker{Repo: repo},
		locks:    newEmployeeLocks(),
		log:      log,
		today:    Today,
	}
}

// =============================================================================
// ADMIT - Create or update an allocation
// =============================================================================

// Admit validates the candidate and, if admissible, commits it: a new row
// for ModeCreate, field changes to the existing row for ModeUpdate. The
// committed row's id is returned. On rejection the typed reason is
// returned and nothing is written.
func (e *Engine) Admit(ctx context.Context, candidate Allocation, mode AdmitMode) (AllocationID, error) {
	// Serialize per employee across validate+commit.
	mu := e.locks.forEmployee(candidate.EmployeeID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.validateFields(candidate, mode); err != nil {
		e.log.Debug().Err(err).Str("employee", string(candidate.EmployeeID)).Str("mode", string(mode)).
			Msg("admission rejected on field validation")
		return "", err
	}

	// ModeUpdate edits an existing row: it must exist and must not be
	// terminally closed. The row's prior value is excluded from the
	// capacity and overlap checks below.
	var excludeID AllocationID
	if mode == ModeUpdate {
		existing, err := e.repo.Get(ctx, candidate.ID)
		if err != nil {
			if IsNotFound(err) {
				return "", &NotFoundError{ID: candidate.ID}
			}
			return "", fmt.Errorf("%w: loading allocation %s: %v", ErrStoreUnavailable, candidate.ID, err)
		}
		if !CanTransition(existing.Status, candidate.Status) {
			return "", &ClosedError{ID: candidate.ID}
		}
		excludeID = candidate.ID
	}

	window := candidate.Range()

	// Capacity ceiling. The candidate itself counts when it holds
	// capacity (committed or staged); closing a row holds nothing.
	if candidate.Status.Committed() || candidate.Status == StatusStaged {
		totals, err := e.capacity.Totals(ctx, candidate.EmployeeID, window, excludeID)
		if err != nil {
			return "", err
		}
		attempted := totals.Total().Add(candidate.Percent)
		if attempted.GreaterThan(MaxPercent) {
			e.log.Debug().Str("employee", string(candidate.EmployeeID)).
				Str("attempted_total", attempted.String()).
				Msg("admission rejected on capacity")
			return "", &CapacityExceededError{EmployeeID: candidate.EmployeeID, AttemptedTotal: attempted}
		}
	}

	// Project overlap. Only blocking candidates can collide: a staged
	// hold never blocks, and a closing update collides with nothing.
	if candidate.Status.Blocking() {
		conflicts, err := e.overlap.Conflicts(ctx, candidate.EmployeeID, candidate.ProjectID, window, excludeID)
		if err != nil {
			return "", err
		}
		if len(conflicts) > 0 {
			return "", &OverlapError{
				EmployeeID: candidate.EmployeeID,
				ProjectID:  candidate.ProjectID,
				Conflicts:  conflicts,
			}
		}
	}

	// Rate is only stored for billed allocations.
	if candidate.Billed == BilledNo {
		candidate.BillingRate = nil
	}

	// Commit is the single write. A cancelled caller gets no partial state.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := candidate.ID
	if mode == ModeCreate {
		newID, err := e.repo.Insert(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: inserting allocation: %v", ErrStoreUnavailable, err)
		}
		id = newID
	} else {
		if err := e.repo.Update(ctx, candidate); err != nil {
			if IsNotFound(err) {
				return "", &NotFoundError{ID: candidate.ID}
			}
			return "", fmt.Errorf("%w: updating allocation %s: %v", ErrStoreUnavailable, candidate.ID, err)
		}
	}

	e.log.Info().Str("allocation", string(id)).Str("employee", string(candidate.EmployeeID)).
		Str("project", string(candidate.ProjectID)).Str("status", string(candidate.Status)).
		Str("mode", string(mode)).Msg("allocation admitted")
	return id, nil
}

// =============================================================================
// FIELD VALIDATION - Steps 1-3 of the pipeline
// =============================================================================

func (e *Engine) validateFields(c Allocation, mode AdmitMode) error {
	// Step 1: required fields.
	if mode == ModeUpdate && c.ID == "" {
		return &MissingFieldError{Field: "id"}
	}
	if c.EmployeeID == "" {
		return &MissingFieldError{Field: "employeeId"}
	}
	if c.ClientID == "" {
		return &MissingFieldError{Field: "clientId"}
	}
	if c.ProjectID == "" {
		return &MissingFieldError{Field: "projectId"}
	}
	if c.Status == "" {
		return &MissingFieldError{Field: "status"}
	}
	if c.StartDate.IsZero() {
		return &MissingFieldError{Field: "startDate"}
	}
	if c.BillingType == "" {
		return &MissingFieldError{Field: "billingType"}
	}
	if c.Billed == "" {
		return &MissingFieldError{Field: "billed"}
	}
	if c.Billed == BilledYes && c.BillingRate == nil {
		return &MissingFieldError{Field: "billingRate"}
	}
	if len(e.rules.Approvers) > 0 && c.TimesheetApprover == "" {
		return &MissingFieldError{Field: "timeSheetApprover"}
	}

	// Step 2: enumerations.
	if !c.Status.Valid() {
		return &InvalidEnumError{Field: "status", Value: string(c.Status)}
	}
	if mode == ModeCreate && c.Status == StatusClosed {
		// Rows are born open; Closed is only reachable through update.
		return &InvalidEnumError{Field: "status", Value: string(c.Status)}
	}
	if !c.BillingType.Valid() {
		return &InvalidEnumError{Field: "billingType", Value: string(c.BillingType)}
	}
	if !c.Billed.Valid() {
		return &InvalidEnumError{Field: "billed", Value: string(c.Billed)}
	}
	if len(e.rules.Approvers) > 0 && !e.rules.approverKnown(c.TimesheetApprover) {
		return &InvalidEnumError{Field: "timeSheetApprover", Value: c.TimesheetApprover}
	}

	// Step 3: ranges.
	if c.Percent.IsNegative() || c.Percent.GreaterThan(MaxPercent) {
		return &PercentRangeError{Value: c.Percent}
	}
	if c.StartDate.Before(e.rules.MinStartDate) {
		return &StartDateError{Start: c.StartDate, Min: e.rules.MinStartDate}
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return &DateOrderError{Start: c.StartDate, End: *c.EndDate}
	}

	return nil
}

// =============================================================================
// READ PASSTHROUGHS AND DELETE
// =============================================================================

// Get returns the allocation, or a NotFoundError.
func (e *Engine) Get(ctx context.Context, id AllocationID) (Allocation, error) {
	a, err := e.repo.Get(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return Allocation{}, &NotFoundError{ID: id}
		}
		return Allocation{}, fmt.Errorf("%w: loading allocation %s: %v", ErrStoreUnavailable, id, err)
	}
	return a, nil
}

// Delete removes an allocation permanently. Unlike update, delete is
// permitted from any status, including Closed.
func (e *Engine) Delete(ctx context.Context, id AllocationID) error {
	if err := e.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return &NotFoundError{ID: id}
		}
		return fmt.Errorf("%w: deleting allocation %s: %v", ErrStoreUnavailable, id, err)
	}
	e.log.Info().Str("allocation", string(id)).Msg("allocation deleted")
	return nil
}

// RemainingCapacity reports the employee's unallocated percent over the
// window. A zero-valued window means "as of today".
func (e *Engine) RemainingCapacity(ctx context.Context, employeeID EmployeeID, window DateRange) (CapacityTotals, error) {
	if window.Start.IsZero() {
		window = On(e.today())
	}
	return e.capacity.Totals(ctx, employeeID, window, "")
}

// ActiveConflicts reports the blocking allocations for the employee on the
// project over the window, for diagnostic inspection. A zero-valued window
// means "from today, open-ended".
func (e *Engine) ActiveConflicts(ctx context.Context, employeeID EmployeeID, projectID ProjectID, window DateRange) ([]Allocation, error) {
	if window.Start.IsZero() {
		window = OpenRange(e.today())
	}
	return e.overlap.Conflicts(ctx, employeeID, projectID, window, "")
}
