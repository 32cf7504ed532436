package handler

import (
	"net/http"
	"time"

	"github.com/spf13/viper"

	"ticketmister-backend/config"
	"ticketmister-backend/firebase"
	"ticketmister-backend/model"
	"ticketmister-backend/response"
)

// caller resolves the opaque identity behind a request's auth token.
// Writes the failure response itself when the token does not verify.
func caller(w http.ResponseWriter, r *http.Request, auth *model.Auth) (string, bool) {
	if auth == nil || auth.TokenID == "" {
		response.NoValidToken().Send(r.Context(), w)
		return "", false
	}

	uid, ok := firebase.VerifyJWTIDToken(
		auth.TokenID,
		viper.GetString(config.FirebaseProjectID),
		time.Duration(viper.GetInt(config.JWTOfflineInterval))*time.Second,
	)
	if !ok {
		response.NoValidToken().Send(r.Context(), w)
		return "", false
	}
	return uid, true
}
