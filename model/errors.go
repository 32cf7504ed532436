package model

import "errors"

// Error kinds shared by the registry, catalog and market layers. Every
// failure is detected before any state is touched; callers match with
// errors.Is and retry with corrected input.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInactive          = errors.New("event is not active")
	ErrAlreadyInactive   = errors.New("event is already inactive")
	ErrNotForSale        = errors.New("ticket is not for sale")
	ErrWrongPayment      = errors.New("attached value does not match the required amount")
	ErrResaleCapExceeded = errors.New("resale price exceeds the event cap")
	ErrSelfGift          = errors.New("cannot gift a ticket to its current owner")
)
