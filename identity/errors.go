package identity

import "errors"

var (
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("otp mismatch")
)
