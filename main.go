package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uniBlocAPI/handlers"
	"uniBlocAPI/internal/notification"
	"uniBlocAPI/middleware"
	"uniBlocAPI/realtime"
	"uniBlocAPI/services"
)

var (
	dbPool             *pgxpool.Pool
	profileService     *services.ProfileService
	competitionService *services.CompetitionService
	boulderService     *services.BoulderService
	attemptService     *services.AttemptService
	leaderboardService *services.LeaderboardService
	validationService  *services.ValidationService
	dispatcher         *services.NotificationDispatcher
	hub                *realtime.Hub
	fcmService         *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	hub = realtime.NewHub()

	profileService = services.NewProfileService(dbPool)
	dispatcher = services.NewNotificationDispatcher(dbPool, profileService)
	competitionService = services.NewCompetitionService(dbPool, profileService)
	boulderService = services.NewBoulderService(dbPool, profileService)
	attemptService = services.NewAttemptService(dbPool)
	leaderboardService = services.NewLeaderboardService(dbPool, profileService)
	validationService = services.NewValidationService(dbPool, attemptService, dispatcher, hub)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		dispatcher.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()
	defer dispatcher.Stop()

	profileHandler := handlers.NewProfileHandler(profileService, dispatcher)
	competitionHandler := handlers.NewCompetitionHandler(competitionService, profileService)
	boulderHandler := handlers.NewBoulderHandler(boulderService, profileService)
	attemptHandler := handlers.NewAttemptHandler(attemptService, profileService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, profileService)
	validationHandler := handlers.NewValidationHandler(validationService, competitionService, profileService)
	webhookHandler := handlers.NewWebhookHandler(profileService)
	wsHandler := handlers.NewWSHandler(hub, profileService)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	go middleware.CleanupVisitors()

	standardRouter.Use(middleware.RateLimitMiddleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "uniBloc-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	// Public: competitions and their boulders are browsable without auth.
	api.HandleFunc("/competitions", competitionHandler.GetCompetitions).Methods("GET")
	api.HandleFunc("/competitions/current", competitionHandler.GetCurrentCompetition).Methods("GET")
	api.HandleFunc("/competitions/{id}", competitionHandler.GetCompetition).Methods("GET")
	api.HandleFunc("/competitions/{id}/boulders", boulderHandler.GetBoulders).Methods("GET")
	api.HandleFunc("/boulders/{id}", boulderHandler.GetBoulder).Methods("GET")

	// Leaderboard is public when the competition allows it; the handler
	// needs optional identity to let admins through on hidden boards.
	api.Handle("/competitions/{id}/leaderboard",
		middleware.OptionalAuthMiddleware(http.HandlerFunc(leaderboardHandler.GetLeaderboard))).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/profile", profileHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/profile", profileHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/profile/results", leaderboardHandler.GetMyResults).Methods("GET")
	protected.HandleFunc("/profile/role", profileHandler.SetRole).Methods("PUT")

	protected.HandleFunc("/competitions/{id}/attempts", attemptHandler.GetMyAttempts).Methods("GET")
	protected.HandleFunc("/attempts", attemptHandler.SetAttempt).Methods("PUT")
	protected.HandleFunc("/boulders/{id}/validated", attemptHandler.IsValidated).Methods("GET")

	protected.HandleFunc("/validations", validationHandler.RequestValidation).Methods("POST")
	protected.HandleFunc("/validations/regenerate", validationHandler.RegenerateToken).Methods("POST")
	protected.HandleFunc("/validations/pending", validationHandler.GetPendingRequests).Methods("GET")
	protected.HandleFunc("/validations/resolve", validationHandler.ResolveValidation).Methods("POST")
	protected.HandleFunc("/validations/ws/{competitionID}", wsHandler.Subscribe)

	protected.HandleFunc("/notifications", profileHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", profileHandler.MarkNotificationRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", profileHandler.RegisterDevice).Methods("POST")

	// Admin routes share the auth middleware; role checks happen in the
	// services so a stale admin flag is caught per request.
	protected.HandleFunc("/admin/boulders", boulderHandler.CreateBoulder).Methods("POST")
	protected.HandleFunc("/admin/boulders/{id}", boulderHandler.UpdateBoulder).Methods("PUT")
	protected.HandleFunc("/admin/boulders/{id}", boulderHandler.DeleteBoulder).Methods("DELETE")

	protected.HandleFunc("/admin/competitions", competitionHandler.CreateCompetition).Methods("POST")
	protected.HandleFunc("/admin/competitions/{id}", competitionHandler.UpdateCompetition).Methods("PUT")
	protected.HandleFunc("/admin/competitions/{id}", competitionHandler.DeleteCompetition).Methods("DELETE")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
