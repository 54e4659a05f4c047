package handler

import (
	"net/http"

	"aqimonitor/internal/app/weather"
	"aqimonitor/internal/pkg/resp"
)

// HandleWeather proxies ?city= or ?lat=&lon= to the weather upstream.
func HandleWeather(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		report, customErr := deps.Weather.Current(r.Context(), weather.Query{
			City: query.Get("city"),
			Lat:  query.Get("lat"),
			Lon:  query.Get("lon"),
		})
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, report)
	}
}
