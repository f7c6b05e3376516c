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
	"github.com/zlagoda/zlagoda-backend/internal/inventory/cache"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/events"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/handler"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/repository"
	"github.com/zlagoda/zlagoda-backend/internal/inventory/service"
	"github.com/zlagoda/zlagoda-backend/pkg/config"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Events are best effort; the service runs without a broker.
	var publisher *events.InventoryEventPublisher
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
	} else {
		defer rmq.Close()
		rmq.Watch(context.Background())
		p, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, "inventory-service", log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create event publisher, events disabled")
		} else {
			publisher = events.NewInventoryEventPublisher(p, log)
		}
	}

	var productCache service.ProductCache = cache.NoopProductCache{}
	var redisCache *cache.RedisProductCache
	if cfg.Redis.Addr != "" {
		redisCache = cache.NewRedisProductCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, product cache disabled")
			redisCache.Close()
			redisCache = nil
		} else {
			defer redisCache.Close()
			productCache = redisCache
		}
		pingCancel()
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	storeProductRepo := repository.NewStoreProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)

	// Initialize services
	productService := service.NewProductService(productRepo, productCache, log)
	storeProductService := service.NewStoreProductService(storeProductRepo, publisher, log)
	batchService := service.NewBatchService(db, storeProductRepo, batchRepo, publisher, log)

	limits := pagination.Limits{Default: cfg.Inventory.DefaultPageSize, Max: cfg.Inventory.MaxPageSize}

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, limits, log)
	storeProductHandler := handler.NewStoreProductHandler(storeProductService, batchService, limits, log)
	batchHandler := handler.NewBatchHandler(batchService, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := service.NewExpiryScheduler(batchService, cfg.Inventory.ExpiryInterval, log)
	scheduler.Start(ctx)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.CORS(cfg.Server.CORSOrigins))
	r.Use(httputil.Actor)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.NotFound(httputil.NotFound)
	r.MethodNotAllowed(httputil.MethodNotAllowed)

	checks := map[string]httputil.HealthCheck{
		"database": db.Health,
		"rabbitmq": func(context.Context) map[string]string {
			if rmq == nil {
				return map[string]string{"status": "disabled"}
			}
			return rmq.Health()
		},
	}
	if redisCache != nil {
		checks["redis"] = redisCache.Health
	}
	r.Get("/health", httputil.Health("inventory-service", checks))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})

		r.Route("/store-products", func(r chi.Router) {
			r.Get("/", storeProductHandler.List)
			r.Post("/", storeProductHandler.Create)
			r.Get("/{upc}", storeProductHandler.Get)
			r.Put("/{upc}", storeProductHandler.Update)
			r.Delete("/{upc}", storeProductHandler.Delete)
			r.Get("/{upc}/characteristics", storeProductHandler.GetCharacteristics)
			r.Get("/{upc}/price", storeProductHandler.GetPrice)
			r.Get("/{upc}/stock", storeProductHandler.GetStock)
			r.Get("/{upc}/batches", storeProductHandler.ListBatches)
		})

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", batchHandler.Receive)
			r.Post("/expire", batchHandler.Expire)
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

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the expiry loop before the database closes
	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
