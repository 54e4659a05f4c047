/*
Package handler provides HTTP handler functions for account registration, login and
city preference updates.
*/
package handler

import (
	"net/http"

	"aqimonitor/internal/app/account"
	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/req"
	"aqimonitor/internal/pkg/resp"
)

// HandleRegister creates an account. It does not log the new user in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input account.RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Accounts.Register(r.Context(), input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondCreated(w, r, map[string]string{
			"message": "User registered successfully",
		})
	}
}

// HandleLogin verifies credentials and returns an access token plus the identity it carries.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input account.LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result, customErr := deps.Accounts.Login(r.Context(), input)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, result)
	}
}

// HandleUpdateCity changes the city preference of the token's account.
// It must run behind jwt.RequireIdentity.
func HandleUpdateCity(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input account.CityInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		identity := jwt.IdentityFromContext(r.Context())

		city, customErr := deps.Accounts.UpdateCity(r.Context(), identity, input)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"message": "City updated successfully",
			"city":    city,
		})
	}
}
