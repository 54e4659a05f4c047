package handler

import (
	"net/http"

	"aqimonitor/internal/pkg/resp"
)

// HandleLatestReading returns the newest sensor reading, or {} when there is none.
func HandleLatestReading(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := deps.Readings.Latest(r.Context())
		if view == nil {
			resp.RespondSuccess(w, r, struct{}{})
			return
		}
		resp.RespondSuccess(w, r, view)
	}
}

// HandleDashboardData returns the most recent readings for the dashboard chart.
func HandleDashboardData(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Readings.Dashboard(r.Context()))
	}
}

// HandleSecureData is a token check endpoint for the frontend.
func HandleSecureData() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"msg": "Hello admin, this is protected data",
		})
	}
}
