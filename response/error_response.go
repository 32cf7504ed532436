package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ticketmister-backend/logger"
	"ticketmister-backend/model"
)

type ErrorResponse struct {
	StatusCode  int
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

func (r ErrorResponse) Error() string {
	return fmt.Sprintf("StatusCode: %d, Success: %t, Message: %s, Status: %s, Description: %s", r.StatusCode, r.Success, r.Message, r.Status, r.Description)
}

func (r ErrorResponse) Send(ctx context.Context, w http.ResponseWriter) {
	logger.Errorf(ctx, r.Error())
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}

// FromError maps a failure from the core to its HTTP shape. Unknown
// errors fall through to SomethingWrong so no internal detail leaks.
func FromError(err error) ErrorResponse {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		return InvalidData(err.Error())
	case errors.Is(err, model.ErrUnauthorized):
		return Unauthorized()
	case errors.Is(err, model.ErrNotFound):
		return ResourceNotFound(err.Error(), "The requested resource was not found!")
	case errors.Is(err, model.ErrInactive):
		return EventInactive()
	case errors.Is(err, model.ErrAlreadyInactive):
		return EventAlreadyInactive()
	case errors.Is(err, model.ErrNotForSale):
		return NotForSale()
	case errors.Is(err, model.ErrWrongPayment):
		return WrongPayment()
	case errors.Is(err, model.ErrResaleCapExceeded):
		return ResaleCapExceeded()
	case errors.Is(err, model.ErrSelfGift):
		return SelfGift()
	default:
		return SomethingWrong()
	}
}

func BadRequest(message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadRequest,
		Success:     false,
		Message:     message,
		Status:      "BAD REQUEST",
		Description: description,
	}
}

func ResourceNotFound(message, description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusNotFound,
		Success:     false,
		Message:     message,
		Status:      "NOT_FOUND",
		Description: description,
	}
}

func Unauthorized() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusForbidden,
		Success:    false,
		Message:    "Caller is not allowed to perform this action",
		Status:     "UNAUTHORISED",
	}
}

func NoValidToken() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		Success:    false,
		Message:    "No valid Auth Token",
		Status:     "NO_VALID_TOKEN",
	}
}

func SomethingWrong() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Success:    false,
		Message:    "Sorry, Something went wrong",
		Status:     "SOMETHING_WRONG",
	}
}

func InvalidData(description string) ErrorResponse {
	return ErrorResponse{
		StatusCode:  http.StatusBadRequest,
		Success:     false,
		Message:     "Invalid data passed",
		Status:      "INVALID_DATA",
		Description: description,
	}
}

func EventInactive() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "This event is no longer active",
		Status:     "EVENT_INACTIVE",
	}
}

func EventAlreadyInactive() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "This event has already been cancelled",
		Status:     "EVENT_ALREADY_INACTIVE",
	}
}

func NotForSale() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "This ticket is not listed for sale",
		Status:     "NOT_FOR_SALE",
	}
}

func WrongPayment() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "You must pay the exact amount that this is listed for",
		Status:     "WRONG_PAYMENT",
	}
}

func ResaleCapExceeded() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "Resale price exceeds the maximum allowed for this event",
		Status:     "RESALE_CAP_EXCEEDED",
	}
}

func SelfGift() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusConflict,
		Success:    false,
		Message:    "You cannot gift a ticket to yourself",
		Status:     "SELF_GIFT",
	}
}

func OTPExpired() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusGone,
		Success:    false,
		Message:    "OTP Expired, Please try again",
		Status:     "OTP_EXPIRED",
	}
}

func OTPMismatch() ErrorResponse {
	return ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Success:    false,
		Message:    "Wrong OTP entered",
		Status:     "OTP_MISMATCH",
	}
}
