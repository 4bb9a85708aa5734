package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/flowsync/server/internal/config"
	"github.com/flowsync/server/internal/handlers"
	custommw "github.com/flowsync/server/internal/middleware"
	"github.com/flowsync/server/internal/observability"
	"github.com/flowsync/server/internal/repository"
	"github.com/flowsync/server/internal/services"
)

const serviceName = "flowsync-server"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Structured logger at the configured level
	observability.InitDefaultLogger(serviceName, observability.ParseLevel(cfg.Observability.LogLevel))

	// Initialize telemetry
	ctx := context.Background()
	telemetry, err := observability.Initialize(ctx, observability.NewConfig(serviceName, handlers.Version, cfg.Observability.OTLPEndpoint))
	if err != nil {
		log.Printf("Warning: telemetry initialization failed: %v", err)
	}
	if telemetry != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				log.Printf("Telemetry shutdown error: %v", err)
			}
		}()
	}

	// Initialize database
	var db *sql.DB
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		log.Println("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	diagramRepo := repository.NewDiagramRepository(db)
	collectionRepo := repository.NewTemplateCollectionRepository(db)
	templateRepo := repository.NewCustomTemplateRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	messageRepo := repository.NewChatMessageRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	aiConfigRepo := repository.NewAIConfigRepository(db)

	// Services
	codec := services.NewContentCodec()
	authService := services.NewAuthService(userRepo)
	diagramService := services.NewDiagramService(diagramRepo, codec)
	templateService := services.NewTemplateService(collectionRepo, templateRepo, codec)
	favoriteService := services.NewFavoriteService(favoriteRepo)
	settingsService := services.NewSettingsService(settingsRepo)
	aiService := services.NewAIService(messageRepo, snapshotRepo, aiConfigRepo, codec)
	syncService := services.NewSyncService(diagramService, templateService, favoriteService, settingsService, aiService)

	// Business metrics
	if metrics, err := observability.NewBusinessMetrics(); err != nil {
		log.Printf("Warning: business metrics unavailable: %v", err)
	} else {
		authService.SetMetrics(metrics)
		syncService.SetMetrics(metrics)
	}

	// WebSocket hub for cross-device notifications
	hub := services.NewWebSocketHub()
	go hub.Run()
	syncService.SetWebSocketHub(hub)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	syncHandler := handlers.NewSyncHandler(syncService)
	diagramHandler := handlers.NewDiagramHandler(diagramService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	aiHandler := handlers.NewAIHandler(aiService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(observability.TracingMiddleware(serviceName))
	if httpMetrics, err := observability.NewHTTPMetrics(); err == nil {
		r.Use(observability.MetricsMiddleware(httpMetrics))
	}
	r.Use(custommw.UserAPIKeyAuth(userRepo, cfg.Security.APIKeyHeader, []string{
		"/api/auth/register",
		"/api/auth/login",
		"/api/version",
		"/api/health",
	}))

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)
	r.Get("/api/version", handlers.VersionHandler)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/me", authHandler.Me)
	})

	r.Post("/api/sync", syncHandler.FullSync)

	r.Route("/api/diagrams", func(r chi.Router) {
		r.Get("/", diagramHandler.ListDiagrams)
		r.Post("/", diagramHandler.CreateDiagram)
		r.Get("/{id}", diagramHandler.GetDiagram)
		r.Put("/{id}", diagramHandler.UpdateDiagram)
		r.Delete("/{id}", diagramHandler.DeleteDiagram)
	})

	r.Route("/api/templates", func(r chi.Router) {
		r.Get("/", templateHandler.ListCollections)
		r.Post("/", templateHandler.CreateCollection)
		r.Get("/{id}", templateHandler.GetCollection)
		r.Put("/{id}", templateHandler.UpdateCollection)
		r.Delete("/{id}", templateHandler.DeleteCollection)
		r.Post("/{id}/custom", templateHandler.AddCustomTemplate)
		r.Put("/custom/{templateId}", templateHandler.UpdateCustomTemplate)
		r.Delete("/custom/{templateId}", templateHandler.DeleteCustomTemplate)
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Get("/", favoriteHandler.ListFavorites)
		r.Post("/{templateId}", favoriteHandler.AddFavorite)
		r.Delete("/{templateId}", favoriteHandler.RemoveFavorite)
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", settingsHandler.GetSettings)
		r.Put("/", settingsHandler.UpdateSettings)
	})

	r.Route("/api/ai", func(r chi.Router) {
		r.Get("/messages", aiHandler.GetHistory)
		r.Post("/messages", aiHandler.AddMessage)
		r.Delete("/messages", aiHandler.ClearHistory)
		r.Get("/config", aiHandler.GetConfig)
		r.Put("/config", aiHandler.UpdateConfig)
	})

	r.Get("/api/ws", wsHandler.HandleConnection)

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("FlowSync Server starting on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
