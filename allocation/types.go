/*
Package allocation implements the staffing allocation admission engine.

PURPOSE:
  An Allocation assigns an employee to a client project for a percentage of
  capacity over a date range. This package owns the rules that decide
  whether a proposed or edited allocation may be committed:

  - an employee's committed + staged percent never exceeds 100 over any
    overlapping window
  - no two blocking allocations for the same employee+project overlap
  - field-level rules: enumerated statuses, percent bounds, billing
    coherence, minimum start date

KEY CONCEPTS IN THIS FILE (types.go):
  - Allocation: the central record
  - Status: lifecycle states and the committed/blocking sets
  - BillingType / BilledFlag: billing metadata enums
  - Rules: configurable validation inputs (minimum start date, approvers)

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for percent and rate, exact at the 100 boundary
  2. Type safety: distinct ID types for employee/client/project/allocation
  3. Typed rejections: every refusal is a structured error (see errors.go)

SEE ALSO:
  - engine.go: the admission pipeline
  - lifecycle.go: status transition rules
  - repository.go: persistence interface
*/
package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AllocationID string
type EmployeeID string
type ClientID string
type ProjectID string

// =============================================================================
// STATUS - Lifecycle states
// =============================================================================

type Status string

const (
	StatusClientUnallocated  Status = "Client Unallocated"
	StatusProjectUnallocated Status = "Project Unallocated"
	StatusAllocated          Status = "Allocated"
	StatusStaged             Status = "Staged"
	StatusClosed             Status = "Closed"
)

// Statuses lists every recognized status.
var Statuses = []Status{
	StatusClientUnallocated,
	StatusProjectUnallocated,
	StatusAllocated,
	StatusStaged,
	StatusClosed,
}

func (s Status) Valid() bool {
	switch s {
	case StatusClientUnallocated, StatusProjectUnallocated, StatusAllocated, StatusStaged, StatusClosed:
		return true
	}
	return false
}

// Committed reports whether the status counts toward the 100% capacity
// ceiling AND blocks same-project overlap. Staged holds capacity but does
// not block; Closed counts toward nothing.
func (s Status) Committed() bool {
	switch s {
	case StatusClientUnallocated, StatusProjectUnallocated, StatusAllocated:
		return true
	}
	return false
}

// Blocking reports whether the status participates in same-project overlap
// checks. Identical to the committed set: Staged is a provisional hold and
// never blocks another project assignment.
func (s Status) Blocking() bool { return s.Committed() }

// =============================================================================
// BILLING ENUMS
// =============================================================================

type BillingType string

const (
	BillingTimeAndMaterials BillingType = "Time & Materials"
	BillingFixedPrice       BillingType = "Fixed Price"
)

func (b BillingType) Valid() bool {
	return b == BillingTimeAndMaterials || b == BillingFixedPrice
}

// BilledFlag is the "Yes"/"No" billed check.
type BilledFlag string

const (
	BilledYes BilledFlag = "Yes"
	BilledNo  BilledFlag = "No"
)

func (b BilledFlag) Valid() bool { return b == BilledYes || b == BilledNo }

// =============================================================================
// ALLOCATION - The central record
// =============================================================================

// Allocation assigns an employee to a client project for a percentage of
// capacity over a date range. ID and ModifiedAt are owned by the store:
// ID is minted on insert and ModifiedAt is stamped on every write.
type Allocation struct {
	ID         AllocationID
	EmployeeID EmployeeID
	ClientID   ClientID
	ProjectID  ProjectID

	Status  Status
	Percent decimal.Decimal

	BillingType BillingType
	Billed      BilledFlag
	BillingRate *decimal.Decimal // required when Billed == "Yes", nil otherwise

	TimesheetApprover string

	StartDate Date
	EndDate   *Date // nil = open-ended

	// Audit
	ModifiedBy string
	ModifiedAt time.Time
}

// Range returns the allocation's date interval.
func (a Allocation) Range() DateRange {
	return DateRange{Start: a.StartDate, End: a.EndDate}
}

// ClosedAt reports whether the allocation is out of active consideration at
// the given day: explicitly Closed, or its end date has passed. Closure by
// end date is derived at query time; rows are never compacted.
func (a Allocation) ClosedAt(day Date) bool {
	if a.Status == StatusClosed {
		return true
	}
	return a.EndDate != nil && a.EndDate.Before(day)
}

// =============================================================================
// ADMISSION MODE
// =============================================================================

type AdmitMode string

const (
	ModeCreate AdmitMode = "create"
	ModeUpdate AdmitMode = "update"
)

// =============================================================================
// RULES - Configurable validation inputs
// =============================================================================

// MaxPercent is the per-employee capacity ceiling. Exactly 100 is admitted.
var MaxPercent = decimal.NewFromInt(100)

// Rules carries the deployment-configurable parts of validation.
type Rules struct {
	// MinStartDate is the earliest admissible allocation start.
	MinStartDate Date

	// Approvers is the set of recognized timesheet approvers. When empty,
	// the approver field is neither required nor checked.
	Approvers []string
}

// DefaultRules returns the stock configuration: allocations start no
// earlier than 2020-01-01, any approver accepted.
func DefaultRules() Rules {
	return Rules{MinStartDate: NewDate(2020, time.January, 1)}
}

func (r Rules) approverKnown(name string) bool {
	for _, a := range r.Approvers {
		if a == name {
			return true
		}
	}
	return false
}
