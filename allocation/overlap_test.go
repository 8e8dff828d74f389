package allocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-engine/allocation"
	"github.com/warp/staffing-engine/allocation/store"
)

func TestOverlapChecker_FindsBlockingConflicts(t *testing.T) {
	repo := store.NewMemory()

	existing := candidate()
	existing.StartDate = date(2024, time.January, 1)
	existing.EndDate = datePtr(2024, time.June, 30)
	existingID := insertRow(t, repo, existing)

	checker := &allocation.OverlapChecker{Repo: repo}

	// An overlapping window on the same project conflicts.
	window := allocation.NewRange(date(2024, time.May, 1), date(2024, time.August, 1))
	conflicts, err := checker.Conflicts(context.Background(), "emp-1", "p1", window, "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, existingID, conflicts[0].ID)

	// A disjoint window does not.
	later := allocation.NewRange(date(2024, time.July, 1), date(2024, time.August, 1))
	conflicts, err = checker.Conflicts(context.Background(), "emp-1", "p1", later, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// A different project does not.
	conflicts, err = checker.Conflicts(context.Background(), "emp-1", "p2", window, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// A different employee does not.
	conflicts, err = checker.Conflicts(context.Background(), "emp-2", "p1", window, "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestOverlapChecker_NonBlockingStatusesAreInvisible(t *testing.T) {
	repo := store.NewMemory()

	staged := candidate()
	staged.Status = allocation.StatusStaged
	insertRow(t, repo, staged)

	closed := candidate()
	closed.Status = allocation.StatusClosed
	insertRow(t, repo, closed)

	checker := &allocation.OverlapChecker{Repo: repo}
	conflicts, err := checker.Conflicts(context.Background(), "emp-1", "p1", candidate().Range(), "")
	require.NoError(t, err)
	assert.Empty(t, conflicts, "staged and closed rows never block")
}

func TestOverlapChecker_ExcludesEditedRow(t *testing.T) {
	repo := store.NewMemory()
	id := insertRow(t, repo, candidate())

	checker := &allocation.OverlapChecker{Repo: repo}
	window := candidate().Range()

	conflicts, err := checker.Conflicts(context.Background(), "emp-1", "p1", window, id)
	require.NoError(t, err)
	assert.Empty(t, conflicts, "a row must not conflict with itself during edit")
}

func TestOverlapChecker_OpenEndedRowConflictsForever(t *testing.T) {
	repo := store.NewMemory()

	open := candidate()
	open.StartDate = date(2024, time.January, 1)
	open.EndDate = nil
	insertRow(t, repo, open)

	checker := &allocation.OverlapChecker{Repo: repo}
	farFuture := allocation.NewRange(date(2035, time.January, 1), date(2035, time.December, 31))

	conflicts, err := checker.Conflicts(context.Background(), "emp-1", "p1", farFuture, "")
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
}

func TestOverlapChecker_ReportsAllConflicts(t *testing.T) {
	// Multiple historical stints on the project all surface when a wide
	// window collides with each of them.
	repo := store.NewMemory()

	for month := time.January; month <= time.March; month++ {
		row := candidate()
		row.StartDate = allocation.NewDate(2024, month, 1)
		row.EndDate = datePtr(2024, month, 20)
		insertRow(t, repo, row)
	}

	checker := &allocation.OverlapChecker{Repo: repo}
	window := allocation.NewRange(date(2024, time.January, 1), date(2024, time.December, 31))

	conflicts, err := checker.Conflicts(context.Background(), "emp-1", "p1", window, "")
	require.NoError(t, err)
	assert.Len(t, conflicts, 3)
}
