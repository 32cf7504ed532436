// Package registry is the ownership ledger for tickets. It knows
// nothing about events or money: it mints tickets, tracks the single
// current owner of each one, and guards every mutation behind the
// owner check. The marketplace layer serializes calls, so the registry
// itself holds no lock.
package registry

import (
	"fmt"

	"ticketmister-backend/model"
)

// Registry owns Ticket.Owner, Ticket.IsOnSale and Ticket.ResalePrice
// exclusively. Ids are assigned monotonically starting at 1 and a
// minted ticket is never destroyed.
type Registry struct {
	tickets map[int64]*model.Ticket
	nextID  int64
}

func New() *Registry {
	return &Registry{
		tickets: make(map[int64]*model.Ticket),
		nextID:  1,
	}
}

// Mint creates count tickets for a category, held by holder and listed
// for first sale at originalPrice.
func (r *Registry) Mint(categoryID, eventID int64, originalPrice, count uint64, holder string) ([]int64, error) {
	if count == 0 {
		return nil, fmt.Errorf("mint: count must be greater than 0: %w", model.ErrInvalidArgument)
	}
	if originalPrice == 0 {
		return nil, fmt.Errorf("mint: price must be greater than 0: %w", model.ErrInvalidArgument)
	}

	ids := make([]int64, 0, count)
	for i := uint64(0); i < count; i++ {
		id := r.nextID
		r.nextID++
		r.tickets[id] = &model.Ticket{
			TicketID:      id,
			CategoryID:    categoryID,
			EventID:       eventID,
			Owner:         holder,
			OriginalPrice: originalPrice,
			IsOnSale:      true,
			ResalePrice:   originalPrice,
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Transfer reassigns ownership unconditionally. Policy (payment, caps,
// gift rules) is the caller's job; the registry only keeps the
// single-owner invariant.
func (r *Registry) Transfer(ticketID int64, newOwner string) error {
	t, ok := r.tickets[ticketID]
	if !ok {
		return fmt.Errorf("transfer: ticket %d: %w", ticketID, model.ErrNotFound)
	}
	t.Owner = newOwner
	return nil
}

// SetSaleState flips a ticket's listing. Only the current owner may
// call it; listing requires a positive price.
func (r *Registry) SetSaleState(ticketID int64, caller string, onSale bool, resalePrice uint64) error {
	t, ok := r.tickets[ticketID]
	if !ok {
		return fmt.Errorf("setSaleState: ticket %d: %w", ticketID, model.ErrNotFound)
	}
	if t.Owner != caller {
		return fmt.Errorf("setSaleState: caller %s does not own ticket %d: %w", caller, ticketID, model.ErrUnauthorized)
	}
	if onSale && resalePrice == 0 {
		return fmt.Errorf("setSaleState: listing price must be greater than 0: %w", model.ErrInvalidArgument)
	}

	t.IsOnSale = onSale
	if onSale {
		t.ResalePrice = resalePrice
	} else {
		t.ResalePrice = 0
	}
	return nil
}

func (r *Registry) Owner(ticketID int64) (string, error) {
	t, ok := r.tickets[ticketID]
	if !ok {
		return "", fmt.Errorf("owner: ticket %d: %w", ticketID, model.ErrNotFound)
	}
	return t.Owner, nil
}

// Info returns a copy so callers cannot reach into registry-owned
// state.
func (r *Registry) Info(ticketID int64) (*model.Ticket, error) {
	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("info: ticket %d: %w", ticketID, model.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}
