package models

// AvailabilityEntry is one unclaimed outcome in the pool. The bundle is an
// ordered list of asset references delivered together; an entry is removed
// exactly once, at the moment it is selected to fulfill a request.
type AvailabilityEntry struct {
	EntryID int64
	PackID  int64
	Bundle  []string
}
