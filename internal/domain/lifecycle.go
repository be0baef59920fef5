package domain

import "fmt"

var nextStatus = map[string]string{
	StatusDraft:   StatusPending,
	StatusPending: StatusApproved,
}

func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved:
		return true
	}
	return false
}

// CheckTransition validates a status/visibility change. Status only moves
// forward one step at a time (or stays put) and only approved products can be
// shown in the shop.
func CheckTransition(from, to string, showInShop bool) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	if from != to && nextStatus[from] != to {
		return fmt.Errorf("%w: cannot move product from %s to %s", ErrConflict, from, to)
	}
	if showInShop && to != StatusApproved {
		return fmt.Errorf("%w: only approved products can be shown in the shop", ErrConflict)
	}
	return nil
}
