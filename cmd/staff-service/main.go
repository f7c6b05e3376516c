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
	"github.com/zlagoda/zlagoda-backend/internal/staff/events"
	"github.com/zlagoda/zlagoda-backend/internal/staff/handler"
	"github.com/zlagoda/zlagoda-backend/internal/staff/repository"
	"github.com/zlagoda/zlagoda-backend/internal/staff/service"
	"github.com/zlagoda/zlagoda-backend/internal/staff/validation"
	"github.com/zlagoda/zlagoda-backend/pkg/config"
	"github.com/zlagoda/zlagoda-backend/pkg/database"
	"github.com/zlagoda/zlagoda-backend/pkg/httputil"
	"github.com/zlagoda/zlagoda-backend/pkg/logger"
	"github.com/zlagoda/zlagoda-backend/pkg/messaging"
	"github.com/zlagoda/zlagoda-backend/pkg/pagination"
)

func main() {
	cfg, err := config.LoadWithValidation("staff-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("staff-service", cfg.Server.Environment)
	log.Info().Msg("starting Staff Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var publisher *events.StaffEventPublisher
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
	} else {
		defer rmq.Close()
		rmq.Watch(context.Background())
		p, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, "staff-service", log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create event publisher, events disabled")
		} else {
			publisher = events.NewStaffEventPublisher(p, log)
		}
	}

	employeeRepo := repository.NewEmployeeRepository(db)
	employeeValidator := validation.NewEmployeeValidator()
	staffService := service.NewStaffService(employeeRepo, publisher, employeeValidator, log)

	limits := pagination.Limits{Default: cfg.Inventory.DefaultPageSize, Max: cfg.Inventory.MaxPageSize}
	employeeHandler := handler.NewEmployeeHandler(staffService, limits, log)
	validationHandler := handler.NewValidationHandler(employeeValidator, log)

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

	r.Get("/health", httputil.Health("staff-service", map[string]httputil.HealthCheck{
		"database": db.Health,
		"rabbitmq": func(context.Context) map[string]string {
			if rmq == nil {
				return map[string]string{"status": "disabled"}
			}
			return rmq.Health()
		},
	}))

	r.Route("/api/v1/employees", func(r chi.Router) {
		r.Get("/", employeeHandler.List)
		r.Post("/", employeeHandler.Create)
		r.Get("/contacts", employeeHandler.Contacts)
		r.Post("/validate/phone", validationHandler.ValidatePhone)
		r.Get("/{id}", employeeHandler.Get)
		r.Put("/{id}", employeeHandler.Update)
		r.Delete("/{id}", employeeHandler.Delete)
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
