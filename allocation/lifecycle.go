/*
lifecycle.go - Status transition rules

PURPOSE:
  Allocations move freely between the four non-terminal statuses; every
  such move is re-validated in full by the admission pipeline. Closed is
  terminal: reached by an explicit status change (or derived when the end
  date passes), and once explicitly Closed a row admits no further update.
  Delete remains permitted from any status. There is no resurrection.

SEE ALSO:
  - engine.go: applies these rules on Update
*/
package allocation

// CanTransition reports whether an update may move a row from one status
// to another. Any pair of non-closed statuses is interchangeable, and any
// open row may be closed. From Closed nothing is reachable.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return from != StatusClosed
}
