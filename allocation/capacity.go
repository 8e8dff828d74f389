/*
capacity.go - Per-employee capacity accumulation

PURPOSE:
  Computes how much of an employee's capacity is already spoken for:
  committed percent (Client Unallocated / Project Unallocated / Allocated)
  and staged percent (provisional holds), restricted to rows whose date
  range overlaps a query window.

EXCLUSION:
  When validating an edit, the row being edited must not count against
  itself: pass its id as excludeID and it is skipped.

GUARANTEES:
  - Totals are never negative (percent is validated into [0,100] upstream,
    sums only add).
  - The excluded id is never counted.
  - No rows matching = zero totals, not an error.

SEE ALSO:
  - engine.go: step 4 of the admission pipeline
  - overlap.go: the companion project-level check
*/
package allocation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CAPACITY TOTALS
// =============================================================================

// CapacityTotals is an employee's allocated percentage over a window,
// split by commitment level.
type CapacityTotals struct {
	// Committed is the sum over committed-status rows.
	Committed decimal.Decimal

	// Staged is the sum over staged rows. Staged holds count toward the
	// 100% ceiling but never toward project overlap.
	Staged decimal.Decimal
}

// Total is the full claim against the employee's capacity.
func (ct CapacityTotals) Total() decimal.Decimal {
	return ct.Committed.Add(ct.Staged)
}

// Remaining is the unallocated percent: 100 minus the total claim,
// floored at zero.
func (ct CapacityTotals) Remaining() decimal.Decimal {
	remaining := MaxPercent.Sub(ct.Total())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// =============================================================================
// CAPACITY ACCUMULATOR
// =============================================================================

// CapacityAccumulator sums an employee's allocation percentages from the
// repository.
type CapacityAccumulator struct {
	Repo Repository
}

// Totals computes committed and staged percent for the employee over the
// window. A row participates when its status matches and its date range
// overlaps the window. excludeID (when non-empty) skips the row being
// edited. For an "as of now" reading, pass On(Today()).
func (ca *CapacityAccumulator) Totals(
	ctx context.Context,
	employeeID EmployeeID,
	window DateRange,
	excludeID AllocationID,
) (CapacityTotals, error) {
	rows, err := ca.Repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return CapacityTotals{}, fmt.Errorf("%w: loading allocations for %s: %v", ErrStoreUnavailable, employeeID, err)
	}

	totals := CapacityTotals{Committed: decimal.Zero, Staged: decimal.Zero}
	for _, row := range rows {
		if excludeID != "" && row.ID == excludeID {
			continue
		}
		if !row.Range().Overlaps(window) {
			continue
		}
		switch {
		case row.Status.Committed():
			totals.Committed = totals.Committed.Add(row.Percent)
		case row.Status == StatusStaged:
			totals.Staged = totals.Staged.Add(row.Percent)
		}
	}
	return totals, nil
}
