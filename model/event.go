package model

import (
	"time"
)

// Event is an organiser-owned record. Only the organiser may mutate it,
// and cancellation (IsActive=false) is irreversible.
type Event struct {
	EventID             int64      `json:"event_id,omitempty"`
	Organiser           string     `json:"organiser,omitempty"`
	Name                string     `json:"name,omitempty"`
	Description         string     `json:"description,omitempty"`
	Location            string     `json:"location,omitempty"`
	Date                *time.Time `json:"date,omitempty"`
	MaxResalePercentage uint64     `json:"max_resale_percentage"`
	IsActive            bool       `json:"is_active"`
}

// TicketCategory is a priced batch of tickets belonging to one event.
// Immutable after creation except through the tickets it spawned.
type TicketCategory struct {
	CategoryID      int64   `json:"category_id,omitempty"`
	EventID         int64   `json:"event_id,omitempty"`
	Name            string  `json:"name,omitempty"`
	Description     string  `json:"description,omitempty"`
	OriginalPrice   uint64  `json:"original_price,omitempty"`
	NumberOfTickets uint64  `json:"number_of_tickets,omitempty"`
	TicketIDs       []int64 `json:"ticket_ids,omitempty"`
}
