// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"superteam_academy/internal/config"
	"superteam_academy/internal/handlers"
	"superteam_academy/internal/ledger"
	"superteam_academy/internal/middleware"
	"superteam_academy/internal/repository"
	"superteam_academy/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	log.Println("Log Config Loaded...")

	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// Database
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// Certificate issuer key. Missing key material is fatal; only dev
	// environments fall back to an ephemeral key so they come up without
	// Solana configuration.
	issuerKey, ephemeral, err := ledger.LoadIssuerKey(config.Cfg.Solana.IssuerSecretKey, strings.ToLower(appEnv) == "dev")
	if err != nil {
		slog.Error("Error loading certificate issuer key", slog.Any("error", err))
		os.Exit(1)
	}
	if ephemeral {
		slog.Warn("No certificate issuer key configured, using an ephemeral key for this process")
	}
	ledgerClient := ledger.NewRPCClient(config.Cfg.Solana.RPCEndpoint)

	// Dependency Injection
	courseRepo := repository.NewGormCourseRepository()
	enrollmentRepo := repository.NewGormEnrollmentRepository()
	progressRepo := repository.NewGormProgressRepository()
	achievementRepo := repository.NewGormAchievementRepository()
	certificateRepo := repository.NewGormCertificateRepository()
	profileRepo := repository.NewGormProfileRepository()

	mailer := service.NewMailer(&config.Cfg)

	gamificationService := service.NewGamificationService(db, progressRepo, achievementRepo, profileRepo, courseRepo, certificateRepo)
	enrollmentService := service.NewEnrollmentService(db, courseRepo, enrollmentRepo)
	completionService := service.NewCompletionService(db, courseRepo, enrollmentRepo, certificateRepo, gamificationService)
	certificateService := service.NewCertificateService(db, courseRepo, enrollmentRepo, certificateRepo, profileRepo, ledgerClient, mailer, issuerKey, config.Cfg.Solana.Network)
	profileService := service.NewProfileService(db, profileRepo)

	completionHandler := handlers.NewCompletionHandler(completionService, logger)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, logger)
	certificateHandler := handlers.NewCertificateHandler(certificateService, logger)
	progressHandler := handlers.NewProgressHandler(gamificationService, logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Get("/stats", progressHandler.Stats)
		r.Get("/leaderboard", progressHandler.Leaderboard)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			if config.Cfg.Auth.Enabled {
				slog.Info("Applying production authentication middleware")
				r.Use(middleware.JWTAuthMiddleware(&config.Cfg))
			} else {
				slog.Warn("Auth disabled, applying development authentication middleware")
				r.Use(middleware.DevUserContextMiddleware)
			}

			r.Post("/courses/{course_ref}/enroll", enrollmentHandler.Enroll)
			r.Get("/enrollments", enrollmentHandler.ListEnrollments)
			r.Post("/lessons/{lesson_ref}/complete", completionHandler.CompleteLesson)

			r.Route("/progress", func(r chi.Router) {
				r.Get("/", progressHandler.GetProgress)
				r.Post("/check-in", progressHandler.CheckIn)
			})
			r.Get("/achievements", progressHandler.ListAchievements)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Put("/wallet", profileHandler.LinkWallet)
			})

			r.Route("/certificates", func(r chi.Router) {
				r.Get("/", certificateHandler.List)
				r.Post("/prepare", certificateHandler.Prepare)
				r.Post("/confirm", certificateHandler.Confirm)
				r.Post("/issue", certificateHandler.Issue)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sqlDB, err := db.DB()
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not get DB object", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		err = sqlDB.PingContext(r.Context())
		if err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
