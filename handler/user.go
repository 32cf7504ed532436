package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ticketmister-backend/identity"
	"ticketmister-backend/logger"
	"ticketmister-backend/model"
	"ticketmister-backend/response"
)

// ConnectUser starts OTP onboarding for a phone number.
func ConnectUser(service *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.UserConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "connectUser: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		auth, err := service.Connect(ctx, req.Data.User)
		if err != nil {
			logger.Errorf(ctx, "connectUser: unable to connect user: %+v", err)
			response.FromError(err).Send(ctx, w)
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{User: req.Data.User, Auth: auth},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}

// VerifyUser consumes the OTP and provisions the caller's settlement
// account.
func VerifyUser(service *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req model.UserConnectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Errorf(ctx, "verifyUser: error unmarshalling request body: %+v", err)
			response.BadRequest("invalid request body", "").Send(ctx, w)
			return
		}

		uid, ok := caller(w, r, req.Data.Auth)
		if !ok {
			return
		}

		otp := ""
		if req.Data.Auth != nil {
			otp = req.Data.Auth.OTP
		}
		user, err := service.Verify(ctx, uid, req.Data.User, otp)
		if err != nil {
			logger.Errorf(ctx, "verifyUser: unable to verify user: %+v", err)
			switch {
			case errors.Is(err, identity.ErrOTPExpired):
				response.OTPExpired().Send(ctx, w)
			case errors.Is(err, identity.ErrOTPMismatch):
				response.OTPMismatch().Send(ctx, w)
			default:
				response.FromError(err).Send(ctx, w)
			}
			return
		}

		response.SuccessResponse{
			Data:       &response.Data{User: user, Auth: &model.Auth{Status: identity.StatusVerified}},
			StatusCode: http.StatusOK,
		}.Send(w)
	}
}
