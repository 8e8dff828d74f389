package allocation_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/staffing-engine/allocation"
)

func TestErrorClassification(t *testing.T) {
	rejections := []error{
		&allocation.MissingFieldError{Field: "status"},
		&allocation.InvalidEnumError{Field: "status", Value: "Paused"},
		&allocation.PercentRangeError{Value: pct(101)},
		&allocation.DateOrderError{Start: date(2024, 6, 1), End: date(2024, 1, 1)},
		&allocation.StartDateError{Start: date(2019, 1, 1), Min: date(2020, 1, 1)},
		&allocation.CapacityExceededError{EmployeeID: "e", AttemptedTotal: pct(110)},
		&allocation.OverlapError{EmployeeID: "e", ProjectID: "p"},
		&allocation.ClosedError{ID: "a"},
	}

	for _, err := range rejections {
		assert.True(t, allocation.IsRejection(err), "%T should be a rejection", err)
		assert.False(t, allocation.IsRetryable(err), "%T should not be retryable", err)
	}

	storeErr := fmt.Errorf("%w: connection reset", allocation.ErrStoreUnavailable)
	assert.True(t, allocation.IsRetryable(storeErr))
	assert.False(t, allocation.IsRejection(storeErr))

	notFound := &allocation.NotFoundError{ID: "missing"}
	assert.True(t, allocation.IsNotFound(notFound))
	assert.False(t, allocation.IsRejection(notFound))
}

func TestStructuredErrorsUnwrapToSentinels(t *testing.T) {
	// Wrapped structured errors still match their sentinel through any
	// number of fmt.Errorf layers.
	inner := &allocation.CapacityExceededError{EmployeeID: "e", AttemptedTotal: pct(130)}
	wrapped := fmt.Errorf("admitting: %w", inner)

	assert.True(t, errors.Is(wrapped, allocation.ErrCapacityExceeded))

	var capErr *allocation.CapacityExceededError
	assert.True(t, errors.As(wrapped, &capErr))
	assert.True(t, capErr.AttemptedTotal.Equal(pct(130)))
}

func TestErrorMessagesCarryDetail(t *testing.T) {
	assert.Contains(t, (&allocation.MissingFieldError{Field: "billingRate"}).Error(), "billingRate")
	assert.Contains(t, (&allocation.InvalidEnumError{Field: "billed", Value: "Maybe"}).Error(), "Maybe")
	assert.Contains(t, (&allocation.CapacityExceededError{EmployeeID: "emp-9", AttemptedTotal: pct(140)}).Error(), "140")
	assert.Contains(t, (&allocation.NotFoundError{ID: "alloc-7"}).Error(), "alloc-7")

	overlap := &allocation.OverlapError{
		EmployeeID: "emp-1",
		ProjectID:  "proj-x",
		Conflicts:  []allocation.Allocation{{ID: "alloc-3"}},
	}
	assert.Contains(t, overlap.Error(), "alloc-3")
	assert.Contains(t, overlap.Error(), "proj-x")
}
