package model

// Ticket is a uniquely owned asset. Ids are assigned monotonically at
// mint time and a ticket is never destroyed; ResalePrice is meaningful
// only while IsOnSale is set.
type Ticket struct {
	TicketID      int64  `json:"ticket_id,omitempty"`
	CategoryID    int64  `json:"category_id,omitempty"`
	EventID       int64  `json:"event_id,omitempty"`
	Owner         string `json:"owner,omitempty"`
	OriginalPrice uint64 `json:"original_price,omitempty"`
	IsOnSale      bool   `json:"is_on_sale"`
	ResalePrice   uint64 `json:"resale_price"`
}
