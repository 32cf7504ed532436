package response

import (
	"encoding/json"
	"net/http"

	"ticketmister-backend/model"
)

type SuccessResponse struct {
	Data       *Data `json:"data"`
	StatusCode int   `json:"-"`
}

type Data struct {
	Event     *model.Event           `json:"event,omitempty"`
	Events    []int64                `json:"events,omitempty"`
	Category  *model.TicketCategory  `json:"category,omitempty"`
	Ticket    *model.Ticket          `json:"ticket,omitempty"`
	TicketIDs []int64                `json:"ticket_ids,omitempty"`
	Price     *uint64                `json:"price,omitempty"`
	Reward    *uint64                `json:"reward,omitempty"`
	User      *model.MarketplaceUser `json:"user,omitempty"`
	Auth      *model.Auth            `json:"auth,omitempty"`
}

func (r SuccessResponse) Send(w http.ResponseWriter) {
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}
