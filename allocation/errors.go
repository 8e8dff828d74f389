/*
errors.go - Centralized rejection and failure types

PURPOSE:
  Every way the engine can refuse an allocation, in one place. Rejections
  are ordinary return values carrying enough structure (field name,
  attempted value, conflicting ids) for a caller to render a precise
  message without re-querying.

ERROR CATEGORIES:
  1. Admission rejections - business rule violations, terminal for the request
  2. Not-found            - update/delete against a missing row
  3. Infrastructure       - store timeouts/outages, retryable by the caller

USAGE:
  Match with errors.Is against the sentinels, or errors.As against the
  structured types for detail:

    var capErr *CapacityExceededError
    if errors.As(err, &capErr) {
        fmt.Println(capErr.AttemptedTotal)
    }

SEE ALSO:
  - engine.go: produces these from the admission pipeline
  - api: maps them onto HTTP statuses
*/
package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingRequiredField is returned when a mandatory field is absent.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidEnumValue is returned when a field is outside its enumerated set.
	ErrInvalidEnumValue = errors.New("invalid enum value")

	// ErrOutOfRangePercent is returned when percent is outside [0, 100].
	ErrOutOfRangePercent = errors.New("percent out of range")

	// ErrInvalidDateOrder is returned when end date precedes start date.
	ErrInvalidDateOrder = errors.New("end date before start date")

	// ErrStartDateTooEarly is returned when the start precedes the configured minimum.
	ErrStartDateTooEarly = errors.New("start date before system minimum")

	// ErrCapacityExceeded is returned when admitting would push the employee past 100%.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrOverlappingAllocation is returned when a blocking same-project allocation
	// overlaps the candidate's date range.
	ErrOverlappingAllocation = errors.New("overlapping allocation")

	// ErrAllocationNotFound is returned for update/delete/get against a missing row.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrAllocationClosed is returned when updating an explicitly closed row.
	// Closed is terminal; the only permitted operation is delete.
	ErrAllocationClosed = errors.New("allocation is closed")

	// ErrStoreUnavailable wraps transient store failures (timeout, connection
	// loss). Retryable by the caller with backoff; the engine never retries.
	ErrStoreUnavailable = errors.New("allocation store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry rejection detail
// =============================================================================

// MissingFieldError names the absent field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingRequiredField }

// InvalidEnumError names the field and the rejected value.
type InvalidEnumError struct {
	Field string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q", e.Value, e.Field)
}

func (e *InvalidEnumError) Unwrap() error { return ErrInvalidEnumValue }

// PercentRangeError carries the rejected percent.
type PercentRangeError struct {
	Value decimal.Decimal
}

func (e *PercentRangeError) Error() string {
	return fmt.Sprintf("percent %s outside [0, 100]", e.Value)
}

func (e *PercentRangeError) Unwrap() error { return ErrOutOfRangePercent }

// DateOrderError carries the inverted pair.
type DateOrderError struct {
	Start Date
	End   Date
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("end date %s precedes start date %s", e.End, e.Start)
}

func (e *DateOrderError) Unwrap() error { return ErrInvalidDateOrder }

// StartDateError carries the attempted start and the configured floor.
type StartDateError struct {
	Start Date
	Min   Date
}

func (e *StartDateError) Error() string {
	return fmt.Sprintf("start date %s precedes system minimum %s", e.Start, e.Min)
}

func (e *StartDateError) Unwrap() error { return ErrStartDateTooEarly }

// CapacityExceededError reports the total that admission would have produced.
type CapacityExceededError struct {
	EmployeeID     EmployeeID
	AttemptedTotal decimal.Decimal
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("employee %s would reach %s%% allocation", e.EmployeeID, e.AttemptedTotal)
}

func (e *CapacityExceededError) Unwrap() error { return ErrCapacityExceeded }

// OverlapError reports the blocking rows that collide with the candidate.
type OverlapError struct {
	EmployeeID EmployeeID
	ProjectID  ProjectID
	Conflicts  []Allocation
}

func (e *OverlapError) Error() string {
	ids := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		ids[i] = string(c.ID)
	}
	return fmt.Sprintf("allocation overlaps existing allocation(s) %v on project %s",
		ids, e.ProjectID)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingAllocation }

// NotFoundError carries the missing id.
type NotFoundError struct {
	ID AllocationID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("allocation %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrAllocationNotFound }

// ClosedError carries the id of the terminal row.
type ClosedError struct {
	ID AllocationID
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("allocation %s is closed and cannot be modified", e.ID)
}

func (e *ClosedError) Unwrap() error { return ErrAllocationClosed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRejection reports whether the error is a business-rule refusal, as
// opposed to an infrastructure failure. Rejections are deterministic:
// resubmitting the same candidate yields the same rejection.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrInvalidEnumValue) ||
		errors.Is(err, ErrOutOfRangePercent) ||
		errors.Is(err, ErrInvalidDateOrder) ||
		errors.Is(err, ErrStartDateTooEarly) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrOverlappingAllocation) ||
		errors.Is(err, ErrAllocationClosed)
}

// IsRetryable reports whether the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsNotFound reports whether the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAllocationNotFound)
}
