package models

// AllocationStatus is the durable lifecycle state of an allocation request.
type AllocationStatus string

const (
	// AllocationPending means the randomness request is in flight (or lost).
	AllocationPending AllocationStatus = "pending"
	// AllocationResolved means a bundle has been assigned but not claimed.
	AllocationResolved AllocationStatus = "resolved"
)

// AllocationRequest tracks one in-flight unboxing. It is keyed by the
// identifier of the inbound item that triggered it, which doubles as the
// correlation id for the oracle callback. A resolved-but-unclaimed request
// is a durable state the system can stay in indefinitely.
type AllocationRequest struct {
	ItemID    string
	PackID    int64
	Requester string
	Status    AllocationStatus
	Bundle    []string
}
