package model

// Auth carries the caller's credentials on every mutating request. The
// token resolves to the opaque identity the core operates on.
type Auth struct {
	TokenID string `json:"token_id,omitempty"`
	OTP     string `json:"otp,omitempty"`
	Status  string `json:"status,omitempty"`
}

// MarketplaceUser is an onboarded caller. Identity resolution lives
// outside the core; the engine only ever sees the opaque account id.
type MarketplaceUser struct {
	UserID      int64  `json:"user_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Account     string `json:"account,omitempty"`
	IsValid     bool   `json:"is_valid,omitempty"`
}
