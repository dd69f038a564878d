package marketplace

import "errors"

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrIntentNotFound   = errors.New("purchase intent not found")
	ErrDuplicateListing = errors.New("contract already has a non-cancelled listing")
	// ErrListingNotActive also covers listings reserved by an in-flight intent.
	ErrListingNotActive  = errors.New("listing is not open for purchase")
	ErrNotSeller         = errors.New("requester is not the listing seller")
	ErrListingNotOpen    = errors.New("listing cannot be cancelled in its current state")
	ErrInvalidTransition = errors.New("intent is not in the expected state")
)
