package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/assetwise/assetwise/internal/api"
	"github.com/assetwise/assetwise/internal/auth"
	"github.com/assetwise/assetwise/internal/config"
	"github.com/assetwise/assetwise/internal/db"
	"github.com/assetwise/assetwise/internal/export"
	"github.com/assetwise/assetwise/internal/importer"
	"github.com/assetwise/assetwise/internal/middleware"
	"github.com/assetwise/assetwise/internal/repository"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, cfg.Server.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	tenantRepo := repository.NewTenantRepository(conn.Pool)
	userRepo := repository.NewUserRepository(conn.Pool)
	categoryRepo := repository.NewCategoryRepository(conn.Pool)
	assetRepo := repository.NewAssetRepository(conn.Pool)
	activityRepo := repository.NewActivityLogRepository(conn.Pool)
	importLogRepo := repository.NewImportLogRepository(conn.Pool)

	// Create services
	importService := importer.NewService(categoryRepo, assetRepo, activityRepo, importLogRepo)
	exportService := export.NewService(assetRepo, categoryRepo)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialise token manager: %v", err)
	}
	authenticated := auth.Middleware(tokens)

	// Create HTTP handlers
	tenantHandler := api.NewTenantHandler(tenantRepo, userRepo, tokens)
	userHandler := api.NewUserHandler(userRepo)
	categoryHandler := api.NewCategoryHandler(categoryRepo)
	assetHandler := api.NewAssetHandler(assetRepo, categoryRepo, userRepo, activityRepo)
	activityHandler := api.NewActivityHandler(activityRepo)
	dashboardHandler := api.NewDashboardHandler(assetRepo, categoryRepo, activityRepo)
	importHandler := importer.NewHTTPHandler(importService, importLogRepo)
	exportHandler := export.NewHTTPHandler(exportService)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	protect := func(h http.Handler) http.Handler {
		return middleware.LoggingMiddleware(corsHandler.Handler(authenticated(h)))
	}

	// Tenant bootstrap is the only unauthenticated write; the rest of the
	// tenant routes still need a token.
	tenantRoutes := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tenants"), "/")
		if r.Method == http.MethodPost && rest == "" {
			tenantHandler.ServeHTTP(w, r)
			return
		}
		authenticated(tenantHandler).ServeHTTP(w, r)
	})

	mux := http.NewServeMux()
	mux.Handle("/api/tenants", middleware.LoggingMiddleware(corsHandler.Handler(tenantRoutes)))
	mux.Handle("/api/tenants/", middleware.LoggingMiddleware(corsHandler.Handler(tenantRoutes)))
	mux.Handle("/api/users", protect(userHandler))
	mux.Handle("/api/users/", protect(userHandler))
	mux.Handle("/api/categories", protect(categoryHandler))
	mux.Handle("/api/categories/", protect(categoryHandler))
	mux.Handle("/api/assets", protect(assetHandler))
	mux.Handle("/api/assets/", protect(assetHandler))
	mux.Handle("/api/activity", protect(activityHandler))
	mux.Handle("/api/dashboard", protect(dashboardHandler))
	mux.Handle("/api/import/", protect(importHandler))
	mux.Handle("/api/export/assets", protect(exportHandler))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting API server on %s", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
