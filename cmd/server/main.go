package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulsecoach/endurance-app/internal/advisor"
	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/api"
	"pulsecoach/endurance-app/internal/config"
	"pulsecoach/endurance-app/internal/llm"
	"pulsecoach/endurance-app/internal/repository/mongo"
	"pulsecoach/endurance-app/internal/service"
)

// @title Endurance App Readiness API
// @version 1.0
// @description Daily readiness check-ins, plan adaptation and proposals for endurance athletes.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Endurance App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer logger.Sync()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts"))
		mongo.EnsureCheckInIndexes(ctx, appDB.Collection("checkins"))
		mongo.EnsureProposalIndexes(ctx, appDB.Collection("proposals"))
		mongo.EnsureAuditIndexes(ctx, appDB.Collection("audit_log"))
		log.Println("Index creation process completed.")
	}()

	// --- Analytics Sink ---
	var sink analytics.EventSink = analytics.NoopSink{}
	if cfg.S3.Enabled {
		log.Println("Initializing S3 analytics sink...")
		s3Sink, err := analytics.NewS3EventSink(cfg.S3)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize S3 analytics sink: %v", err)
		}
		sink = s3Sink
	}

	// --- External Recommendation Service ---
	// Optional: when unconfigured the rule-based evaluator decides alone.
	var engineAdvisor *advisor.Advisor
	if cfg.AI.Configured() {
		log.Println("Initializing external recommendation client...")
		llmClient, err := llm.NewClient(&llm.Config{
			Endpoint:    cfg.AI.Endpoint,
			Model:       cfg.AI.Model,
			APIKey:      cfg.AI.APIKey,
			Temperature: cfg.AI.Temperature,
		}, logger)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize LLM client: %v", err)
		}
		engineAdvisor = advisor.New(llmClient, logger)
	} else {
		log.Println("No external recommendation service configured; using rule-based decisions only.")
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	checkInRepo := mongo.NewMongoCheckInRepository(appDB)
	proposalRepo := mongo.NewMongoProposalRepository(appDB)
	auditRepo := mongo.NewMongoAuditRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(userRepo)
	insightService := service.NewInsightService(checkInRepo, auditRepo, sink, logger)
	adaptationService := service.NewAdaptationService(checkInRepo, workoutRepo, userRepo, proposalRepo, auditRepo, insightService, sink, logger)
	checkInService := service.NewCheckInService(checkInRepo, workoutRepo, userRepo, auditRepo, engineAdvisor, adaptationService, sink, logger)
	proposalService := service.NewProposalService(proposalRepo, workoutRepo, checkInRepo, auditRepo, sink, logger)
	workoutService := service.NewWorkoutService(workoutRepo, checkInRepo, logger)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret,
		authService, profileService, checkInService, adaptationService,
		proposalService, insightService, workoutService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // recommendation calls ride on request contexts
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
