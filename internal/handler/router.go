/*
Package handler provides the HTTP handlers and routing setup for the air-quality server.

This file defines the main Router, applying logging, metrics, CORS and panic recovery
to every request, rate limiting to the credential endpoints and bearer-token checks
to the protected ones.
*/
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"aqimonitor/internal/app/storage"
	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/metrics"
	"aqimonitor/internal/pkg/resp"
)

const (
	// AuthRate and AuthBurst bound /register and /login per client IP.
	AuthRate  = 0.5
	AuthBurst = 10

	healthPingTimeout = 2 * time.Second
)

// Router builds the chi routing table for the application.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", handleHealth(deps))
	r.Get("/api-status", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		if deps.AuthLimiter != nil {
			public.Use(deps.AuthLimiter.Middleware)
		}
		public.Post("/register", HandleRegister(deps))
		public.Post("/login", HandleLogin(deps))
	})

	r.Get("/readings", HandleLatestReading(deps))
	r.Get("/weather", HandleWeather(deps))
	r.Get("/get-profile-photo/{username}", HandleGetProfilePhoto(deps))
	r.Get("/ws/readings", HandleReadingsFeed(wsUpgrader, deps))

	r.Group(func(protected chi.Router) {
		protected.Use(jwt.RequireIdentity(deps.Issuer))

		protected.Post("/update-city", HandleUpdateCity(deps))
		protected.Post("/upload-photo", HandleUploadPhoto(deps))
		protected.Post("/remove-photo", HandleRemovePhoto(deps))
		protected.Get("/dashboard-data", HandleDashboardData(deps))
		protected.Get("/secure-data", HandleSecureData())
	})

	if deps.Config.StorageDriver == storage.DriverLocal {
		mountUploads(r, deps.Config.UploadURLPrefix, deps.Config.UploadDir)
	}

	return r
}

// mountUploads serves locally stored photos under prefix.
func mountUploads(r chi.Router, prefix, dir string) {
	prefix = strings.TrimSuffix(prefix, "/")
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))

	r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		// Directory listings are not exposed.
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func handleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		databaseUp := false
		if deps.Database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
			defer cancel()

			if err := deps.Database.Ping(ctx); err != nil {
				logx.Warn("Health check: database ping failed", "error", err)
			} else {
				databaseUp = true
			}
		}

		resp.RespondSuccess(w, r, map[string]bool{
			"ok":       true,
			"database": databaseUp,
		})
	}
}
