package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"village-chat/internal/bus"
	"village-chat/internal/config"
	"village-chat/internal/handler"
	"village-chat/internal/middleware"
	"village-chat/internal/observability"
	"village-chat/internal/repository/postgres"
	"village-chat/internal/service"
)

// deliveryBackend is what main needs from a bus driver: the delivery
// operations plus a readiness probe.
type deliveryBackend interface {
	bus.Bus
	handler.Pinger
}

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting village chat server")

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(connCtx); err != nil {
		slog.Error("database ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to postgresql")

	deliveryBus, err := newDeliveryBus(cfg)
	if err != nil {
		slog.Error("failed to start delivery bus", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deliveryBus.Close()
	slog.Info("delivery bus started", slog.String("driver", cfg.BusDriver))

	participantRepo := postgres.NewParticipantRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	villageRepo := postgres.NewVillageRepository(db)

	authService := service.NewAuthService(participantRepo, cfg.JWTSecret)
	messageService := service.NewMessageService(messageRepo, participantRepo, deliveryBus)
	villageService := service.NewVillageService(villageRepo)

	ensureAdmin(authService)

	authHandler := handler.NewAuthHandler(authService)
	participantHandler := handler.NewParticipantHandler(authService)
	messageHandler := handler.NewMessageHandler(messageService)
	villageHandler := handler.NewVillageHandler(villageService)

	allowedOrigins := middleware.ParseOrigins(cfg.AllowedOrigins)
	wsHandler := handler.NewWebSocketHandler(messageService, allowedOrigins)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.Metrics())
	r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, deliveryBus))
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.NewRateLimiter(5, 10)
	defer authLimiter.Stop()
	apiLimiter := middleware.NewRateLimiter(20, 50)
	defer apiLimiter.Stop()

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService.VerifyToken))
			r.Use(apiLimiter.Middleware())

			r.Get("/auth/me", authHandler.Me)

			r.Get("/participants/admins", participantHandler.ListAdmins)
			r.Get("/participants/users", participantHandler.ListUsers)
			r.Get("/participants/{id}", participantHandler.Get)

			r.Post("/messages", messageHandler.Send)
			r.Get("/messages", messageHandler.History)

			r.Get("/villages", villageHandler.List)
			r.Post("/villages", villageHandler.Create)
			r.Get("/villages/{id}", villageHandler.Get)
			r.Put("/villages/{id}", villageHandler.Update)
			r.Delete("/villages/{id}", villageHandler.Delete)
			r.Patch("/villages/{id}/demographics", villageHandler.UpdateDemographic)
		})
	})

	// Browsers cannot set headers on WebSocket upgrades, so auth falls
	// back to the token query parameter inside the middleware.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authService.VerifyToken))
		r.Get("/ws/messages", wsHandler.HandleConnection)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("village chat server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	slog.Info("server stopped gracefully")
}

// newDeliveryBus selects a bus driver from configuration. The in-memory
// driver serves single-instance deployments; amqp fans out across
// instances through RabbitMQ.
func newDeliveryBus(cfg *config.Config) (deliveryBackend, error) {
	if cfg.BusDriver == "amqp" {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return bus.NewAMQPBusWithRetry(ctx, cfg.RabbitMQURL)
	}
	return bus.NewMemoryBus(), nil
}

// ensureAdmin seeds an admin participant when credentials are supplied
// through the environment. Without one, users have nobody to message.
func ensureAdmin(authService *service.AuthService) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		slog.Info("no admin credentials configured, skipping admin bootstrap")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := authService.EnsureAdmin(ctx, "Administrator", username, password)
	if err != nil {
		slog.Error("failed to ensure admin participant", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("admin participant ready",
		slog.String("username", admin.Username),
		slog.String("id", admin.ID))
}
