package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	alertshandler "github.com/healthstock/healthstock-backend/internal/alerts/handler"
	alertsrepo "github.com/healthstock/healthstock-backend/internal/alerts/repository"
	"github.com/healthstock/healthstock-backend/internal/auth"
	"github.com/healthstock/healthstock-backend/internal/auth/jwt"
	inventoryevents "github.com/healthstock/healthstock-backend/internal/inventory/events"
	inventoryhandler "github.com/healthstock/healthstock-backend/internal/inventory/handler"
	inventoryrepo "github.com/healthstock/healthstock-backend/internal/inventory/repository"
	inventoryservice "github.com/healthstock/healthstock-backend/internal/inventory/service"
	"github.com/healthstock/healthstock-backend/internal/live"
	ordersevents "github.com/healthstock/healthstock-backend/internal/orders/events"
	ordershandler "github.com/healthstock/healthstock-backend/internal/orders/handler"
	ordersrepo "github.com/healthstock/healthstock-backend/internal/orders/repository"
	ordersservice "github.com/healthstock/healthstock-backend/internal/orders/service"
	userhandler "github.com/healthstock/healthstock-backend/internal/user/handler"
	userrepo "github.com/healthstock/healthstock-backend/internal/user/repository"
	userservice "github.com/healthstock/healthstock-backend/internal/user/service"
	"github.com/healthstock/healthstock-backend/pkg/config"
	"github.com/healthstock/healthstock-backend/pkg/database"
	"github.com/healthstock/healthstock-backend/pkg/httputil"
	"github.com/healthstock/healthstock-backend/pkg/logger"
	"github.com/healthstock/healthstock-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("server", cfg.Server.Environment)
	log.Info().Msg("starting healthstock backend")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// The broker is optional: without it the service runs with event
	// publishing disabled (nil publishers are no-ops).
	var rmq *messaging.RabbitMQ
	var inventoryPublisher *inventoryevents.InventoryEventPublisher
	var orderPublisher *ordersevents.OrderEventPublisher

	rmq, err = messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, event publishing disabled")
		rmq = nil
	} else {
		defer rmq.Close()

		inventoryPublisher, err = inventoryevents.NewInventoryEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create inventory event publisher")
		}
		orderPublisher, err = ordersevents.NewOrderEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create order event publisher")
		}
	}

	jwtManager := jwt.NewManager(&cfg.JWT)

	itemRepo := inventoryrepo.NewItemRepository(db)
	supplierRepo := inventoryrepo.NewSupplierRepository(db)
	txnRepo := inventoryrepo.NewTransactionRepository(db)
	alertRepo := alertsrepo.NewAlertRepository(db)
	orderRepo := ordersrepo.NewOrderRepository(db)
	usersRepo := userrepo.NewUserRepository(db)

	inventorySvc := inventoryservice.NewInventoryService(db, itemRepo, txnRepo, alertRepo, inventoryPublisher, log)
	orderSvc := ordersservice.NewOrderService(db, orderRepo, orderPublisher, log)
	userSvc := userservice.NewUserService(usersRepo, jwtManager, log)

	itemHandler := inventoryhandler.NewItemHandler(inventorySvc, log)
	supplierHandler := inventoryhandler.NewSupplierHandler(supplierRepo, log)
	txnHandler := inventoryhandler.NewTransactionHandler(inventorySvc, log)
	orderHandler := ordershandler.NewOrderHandler(orderSvc, log)
	alertHandler := alertshandler.NewAlertHandler(alertRepo, log)
	usersHandler := userhandler.NewUserHandler(userSvc, log)
	liveHandler := live.NewHandler(log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "healthstock-backend",
			"database": db.Health(req.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", usersHandler.Register)
		r.Post("/token", usersHandler.Token)
		r.Post("/token/refresh", usersHandler.Refresh)

		// Live demo feeds, consumed by the dashboard without auth
		r.Get("/alerts/stream", liveHandler.AlertStream)
		r.Get("/warehouses/live", liveHandler.Warehouses)
		r.Post("/ai/query", liveHandler.AIQuery)
		r.Get("/predictions/stock-forecast", liveHandler.StockForecast)
		r.Get("/metrics/live", liveHandler.Metrics)

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtManager))

			r.Get("/profile", usersHandler.Profile)
			r.Put("/profile", usersHandler.UpdateProfile)
			r.Get("/staff-list", usersHandler.Staff)

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", itemHandler.List)
				r.Post("/", itemHandler.Create)
				r.Get("/low_stock", itemHandler.LowStock)
				r.Get("/{id}", itemHandler.Get)
				r.Put("/{id}", itemHandler.Update)
				r.Delete("/{id}", itemHandler.Delete)
				r.Post("/{id}/adjust_stock", itemHandler.AdjustStock)
			})

			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", supplierHandler.List)
				r.Post("/", supplierHandler.Create)
				r.Get("/{id}", supplierHandler.Get)
				r.Put("/{id}", supplierHandler.Update)
				r.Delete("/{id}", supplierHandler.Delete)
			})

			r.Get("/transactions", txnHandler.List)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				r.Post("/", orderHandler.Create)
				r.Get("/{id}", orderHandler.Get)
				r.Put("/{id}/status", orderHandler.UpdateStatus)
				r.Delete("/{id}", orderHandler.Delete)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", alertHandler.List)
				r.Post("/", alertHandler.Create)
				r.Get("/{id}", alertHandler.Get)
				r.Post("/{id}/read", alertHandler.MarkRead)
				r.Post("/{id}/resolve", alertHandler.Resolve)
				r.Delete("/{id}", alertHandler.Delete)
			})
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
