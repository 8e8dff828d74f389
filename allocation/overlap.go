/*
overlap.go - Same-project collision detection

PURPOSE:
  An employee cannot hold two blocking allocations on the same project with
  overlapping date ranges. This file finds the rows that would collide with
  a candidate, for both admission (step 5) and diagnostic inspection.

BLOCKING SET:
  Client Unallocated, Project Unallocated, Allocated. Staged rows hold
  capacity but do not block; Closed rows block nothing.

SEE ALSO:
  - capacity.go: the companion capacity check
  - engine.go: ActiveConflicts passthrough
*/
package allocation

import (
	"context"
	"fmt"
)

// OverlapChecker finds blocking same-project allocations that collide with
// a candidate date range.
type OverlapChecker struct {
	Repo Repository
}

// Conflicts returns every blocking-status allocation for the employee on
// the project whose date range overlaps the window. excludeID (when
// non-empty) skips the row being edited. An empty result means the
// candidate is admissible at this step.
func (oc *OverlapChecker) Conflicts(
	ctx context.Context,
	employeeID EmployeeID,
	projectID ProjectID,
	window DateRange,
	excludeID AllocationID,
) ([]Allocation, error) {
	rows, err := oc.Repo.FindByEmployeeAndProject(ctx, employeeID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading allocations for %s on %s: %v",
			ErrStoreUnavailable, employeeID, projectID, err)
	}

	var conflicts []Allocation
	for _, row := range rows {
		if excludeID != "" && row.ID == excludeID {
			continue
		}
		if !row.Status.Blocking() {
			continue
		}
		if row.Range().Overlaps(window) {
			conflicts = append(conflicts, row)
		}
	}
	return conflicts, nil
}
