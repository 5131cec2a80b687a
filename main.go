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

	"dateQuestAPI/handlers"
	"dateQuestAPI/internal/notification"
	"dateQuestAPI/internal/store"
	"dateQuestAPI/middleware"
	"dateQuestAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	questStore          *store.PostgresStore
	generationService   *services.GenerationService
	safetyService       *services.VisionSafetyService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
	questService        *services.QuestService
	progressService     *services.ProgressService
	insightWorker       *services.InsightWorker
	approvalService     *services.ApprovalService
	revealService       *services.RevealService
	matchService        *services.MatchService
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

	questStore = store.NewPostgresStore(dbPool)
	generationService = services.NewGenerationService()
	notificationService = services.NewNotificationService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	safetyService, err = services.NewVisionSafetyService(ctx)
	if err != nil {
		// Image screening degrades to pass-through when Vision is unavailable.
		log.Printf("Warning: Could not initialize Vision safety screening: %v", err)
	}

	questService = services.NewQuestService(questStore, generationService, notificationService)
	if safetyService != nil {
		progressService = services.NewProgressService(questStore, questService, safetyService, notificationService)
	} else {
		progressService = services.NewProgressService(questStore, questService, nil, notificationService)
	}
	insightWorker = services.NewInsightWorker(questStore, generationService)
	approvalService = services.NewApprovalService(questStore, questService, insightWorker)
	revealService = services.NewRevealService(questStore, questService, notificationService)
	matchService = services.NewMatchService(dbPool, notificationService)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	insightWorker.Start(2)
	defer insightWorker.Stop()

	questHandler := handlers.NewQuestHandler(questService, progressService, revealService)
	progressHandler := handlers.NewProgressHandler(questService, progressService, approvalService)
	matchHandler := handlers.NewMatchHandler(matchService, questService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, questService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
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
		w.Write([]byte(`{"status": "healthy", "service": "dateQuest-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Internal endpoint for the matching pipeline, secret-gated.
	api.HandleFunc("/matches", matchHandler.CreateMatch).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/matches", matchHandler.ListMatches).Methods("GET")
	protected.HandleFunc("/matches/{matchID}/quest", questHandler.CreateQuestFromMatch).Methods("POST")

	protected.HandleFunc("/quests/current", questHandler.GetCurrentQuest).Methods("GET")
	protected.HandleFunc("/quests/{questID}/accept", questHandler.AcceptQuest).Methods("POST")
	protected.HandleFunc("/quests/{questID}/cancel", questHandler.CancelQuest).Methods("POST")
	protected.HandleFunc("/quests/{questID}/reveal", questHandler.RevealFinalDate).Methods("POST")

	protected.HandleFunc("/challenges/{challengeID}/submit", progressHandler.SubmitChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/approve", progressHandler.ApproveSubmission).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/reject", progressHandler.RejectSubmission).Methods("POST")
	protected.HandleFunc("/challenges/{challengeID}/record", progressHandler.GetRecord).Methods("GET")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret", "X-Matcher-Secret"}),
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
