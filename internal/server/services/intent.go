package services

import (
	"strings"

	"github.com/dmolchanov/packvault/internal/common"
)

// Intent is the declared purpose of an inbound item transfer, taken from the
// transfer memo. The memo is a closed enum; anything else is rejected so a
// typo never silently strands custody of an item.
type Intent int

const (
	// IntentUnbox requests allocation of a sealed pack's contents.
	IntentUnbox Intent = iota
	// IntentStageAvatar places an avatar item into the swap staging area.
	IntentStageAvatar
	// IntentPassthrough accepts custody with no state change.
	IntentPassthrough
)

const (
	memoUnbox       = "unbox"
	memoStageAvatar = "unbox avatar"
	memoTransfer    = "transfer"
)

// ParseIntent maps a transfer memo to its intent. Returns
// common.ErrMalformedInput for any memo outside the known set.
func ParseIntent(memo string) (Intent, error) {
	switch strings.TrimSpace(memo) {
	case memoUnbox:
		return IntentUnbox, nil
	case memoStageAvatar:
		return IntentStageAvatar, nil
	case memoTransfer:
		return IntentPassthrough, nil
	}
	return 0, common.ErrMalformedInput
}
