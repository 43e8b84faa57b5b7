package models

// StagedEntry is one slot in the staged creation pool. Each requester may
// hold at most one entry at a time. Category is derived from the inbound
// item's template at staging time and never changes.
type StagedEntry struct {
	ItemID    string
	Requester string
	Category  string
	Approved  bool
}
