package model

import "time"

type EventRequest struct {
	Data struct {
		Auth  *Auth  `json:"auth,omitempty"`
		Event *Event `json:"event,omitempty"`
	} `json:"data"`
}

type EventUpdateRequest struct {
	Data struct {
		Auth       *Auth      `json:"auth,omitempty"`
		Value      string     `json:"value,omitempty"`
		Date       *time.Time `json:"date,omitempty"`
		Percentage uint64     `json:"percentage,omitempty"`
	} `json:"data"`
}

type EventCancelRequest struct {
	Data struct {
		Auth        *Auth  `json:"auth,omitempty"`
		RefundFunds uint64 `json:"refund_funds,omitempty"`
	} `json:"data"`
}

type CategoryRequest struct {
	Data struct {
		Auth     *Auth           `json:"auth,omitempty"`
		Category *TicketCategory `json:"category,omitempty"`
	} `json:"data"`
}

type TicketBuyRequest struct {
	Data struct {
		Auth    *Auth  `json:"auth,omitempty"`
		Payment uint64 `json:"payment,omitempty"`
	} `json:"data"`
}

type TicketResaleRequest struct {
	Data struct {
		Auth  *Auth  `json:"auth,omitempty"`
		Price uint64 `json:"price,omitempty"`
	} `json:"data"`
}

type TicketGiftRequest struct {
	Data struct {
		Auth      *Auth  `json:"auth,omitempty"`
		Recipient string `json:"recipient,omitempty"`
	} `json:"data"`
}

type UserConnectRequest struct {
	Data struct {
		Auth *Auth            `json:"auth,omitempty"`
		User *MarketplaceUser `json:"user,omitempty"`
	} `json:"data"`
}
