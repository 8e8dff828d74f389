package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/staffing-engine/allocation"
)

func TestCanTransition(t *testing.T) {
	open := []allocation.Status{
		allocation.StatusClientUnallocated,
		allocation.StatusProjectUnallocated,
		allocation.StatusAllocated,
		allocation.StatusStaged,
	}

	// Any open status may move to any valid status, including Closed.
	for _, from := range open {
		for _, to := range allocation.Statuses {
			assert.True(t, allocation.CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	// Closed is terminal.
	for _, to := range allocation.Statuses {
		assert.False(t, allocation.CanTransition(allocation.StatusClosed, to), "Closed -> %s", to)
	}

	// Unknown statuses transition nowhere.
	assert.False(t, allocation.CanTransition("Paused", allocation.StatusAllocated))
	assert.False(t, allocation.CanTransition(allocation.StatusAllocated, "Paused"))
}

func TestStatusSets(t *testing.T) {
	assert.True(t, allocation.StatusClientUnallocated.Committed())
	assert.True(t, allocation.StatusProjectUnallocated.Committed())
	assert.True(t, allocation.StatusAllocated.Committed())
	assert.False(t, allocation.StatusStaged.Committed())
	assert.False(t, allocation.StatusClosed.Committed())

	// The blocking set tracks the committed set.
	for _, s := range allocation.Statuses {
		assert.Equal(t, s.Committed(), s.Blocking(), "status %s", s)
	}
}

func TestAllocation_ClosedAt(t *testing.T) {
	day := date(2024, 6, 15)

	explicit := candidate()
	explicit.Status = allocation.StatusClosed
	assert.True(t, explicit.ClosedAt(day))

	ended := candidate()
	ended.EndDate = datePtr(2024, 6, 14)
	assert.True(t, ended.ClosedAt(day))

	endingToday := candidate()
	endingToday.EndDate = datePtr(2024, 6, 15)
	assert.False(t, endingToday.ClosedAt(day), "active through its end date")

	openEnded := candidate()
	openEnded.EndDate = nil
	assert.False(t, openEnded.ClosedAt(day))
}
