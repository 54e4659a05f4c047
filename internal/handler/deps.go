package handler

import (
	"context"

	"aqimonitor/internal/app/account"
	"aqimonitor/internal/app/profile"
	"aqimonitor/internal/app/readings"
	"aqimonitor/internal/app/weather"
	"aqimonitor/internal/configs"
	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/limiter"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AppDeps carries the process-scoped services the handlers are built from.
type AppDeps struct {
	Config   *configs.AppConfig
	Issuer   *jwt.Issuer
	Accounts *account.Service
	Profiles *profile.Service
	Readings *readings.Service
	Hub      *readings.Hub
	Weather  *weather.Client

	// AuthLimiter guards /register and /login. Nil disables limiting.
	AuthLimiter *limiter.IPRateLimiter

	// Database is nil when the server started without a store connection.
	Database Pinger
}
