/*
Package main is the entry point for the air-quality monitoring server.

It loads configuration, initializes the global logger, connects to PostgreSQL
(continuing in degraded mode when the database is unreachable), wires the account,
profile, readings and weather services into the HTTP router, starts the live readings
hub and shuts everything down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"aqimonitor/internal/app/account"
	"aqimonitor/internal/app/db"
	"aqimonitor/internal/app/profile"
	"aqimonitor/internal/app/readings"
	"aqimonitor/internal/app/storage"
	"aqimonitor/internal/app/user"
	"aqimonitor/internal/app/weather"
	"aqimonitor/internal/configs"
	"aqimonitor/internal/handler"
	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/limiter"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/portx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("storage_driver", cfg.StorageDriver).
		Bool("degraded_login", cfg.DegradedLoginEnabled).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store: a failed connection leaves the server up with unavailable stores.
	var (
		users       user.Repository = user.UnavailableRepository{}
		readingRows readings.Store  = readings.UnavailableStore{}
		pool        *pgxpool.Pool
	)
	pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseConnectTimeout)
	if err != nil {
		logx.Error(err, "Database unavailable, continuing in degraded mode")
	} else {
		defer pool.Close()
		users = db.NewUserStore(pool)
		readingRows = db.NewReadingStore(pool)
		logx.Info("Database connected and migrations applied")
	}

	photos, err := storage.New(ctx, storage.Config{
		Driver:            cfg.StorageDriver,
		LocalDir:          cfg.UploadDir,
		URLPrefix:         cfg.UploadURLPrefix,
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3PublicBaseURL:   cfg.S3PublicBaseURL,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize photo storage", "driver", cfg.StorageDriver)
	}

	if cfg.WeatherAPIKey == "" {
		logx.Warn("WEATHER_API_KEY is not set; /weather will report an invalid API key")
	}

	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	var accountOpts []account.Option
	if cfg.DegradedLoginEnabled {
		logx.Warn("Degraded login is enabled; the configured account can log in while the database is down",
			"username", cfg.DegradedLoginUsername)
		accountOpts = append(accountOpts, account.WithDegradedLogin(cfg.DegradedLoginUsername, cfg.DegradedLoginPassword))
	}

	readingsService := readings.NewService(readingRows)
	hub := readings.NewHub(readingsService, cfg.ReadingsBroadcastInterval)
	go hub.Run(ctx)

	deps := &handler.AppDeps{
		Config:   cfg,
		Issuer:   issuer,
		Accounts: account.NewService(users, issuer, accountOpts...),
		Profiles: profile.NewService(users, photos),
		Readings: readingsService,
		Hub:      hub,
		Weather: weather.NewClient(weather.Config{
			BaseURL: cfg.WeatherBaseURL,
			APIKey:  cfg.WeatherAPIKey,
			Timeout: cfg.WeatherTimeout,
		}),
		AuthLimiter: limiter.NewIPRateLimiter(ctx, rate.Limit(handler.AuthRate), handler.AuthBurst),
	}
	if pool != nil {
		deps.Database = pool
	}

	selector := portx.Selector{Configured: cfg.Port, File: cfg.PortFile}
	port, err := selector.Choose()
	if err != nil {
		logx.Fatal(err, "Failed to select a listening port")
	}
	if err := selector.Save(port); err != nil {
		logx.Warn("Failed to persist selected port", "port", port, "error", err)
	}

	serverAddr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler.Router(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Air quality server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		logx.Warn("Readings hub did not stop in time")
	}

	logx.Info("Server gracefully stopped.")
}
