package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/meetsync/internal/application"
	"github.com/example/meetsync/internal/cache"
	"github.com/example/meetsync/internal/config"
	httptransport "github.com/example/meetsync/internal/http"
	"github.com/example/meetsync/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := sqlite.NewUserRepository(storage)
	scheduleRepo := sqlite.NewScheduleRepository(storage)
	eventTypeRepo := sqlite.NewEventTypeRepository(storage)
	bookingRepo := sqlite.NewBookingRepository(storage)

	var bookingCache cache.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if cerr := client.Close(); cerr != nil {
				logger.Error("failed to close redis client", "error", cerr)
			}
		}()
		bookingCache = cache.NewRedisCache(client, logger)
		logger.Info("using redis booking cache", "addr", cfg.RedisAddr)
	} else {
		bookingCache = cache.NewMemoryCache(nil)
	}

	slotStep := time.Duration(cfg.SlotStepMinutes) * time.Minute

	userService := application.NewUserService(userRepo, idGenerator, now)
	scheduleService := application.NewScheduleService(scheduleRepo, idGenerator, now)
	eventTypeService := application.NewEventTypeService(eventTypeRepo, scheduleRepo, bookingRepo, idGenerator, now)
	availabilityService := application.NewAvailabilityService(eventTypeRepo, scheduleRepo, bookingRepo, slotStep, now)
	bookingService := application.NewBookingService(bookingRepo, eventTypeRepo, scheduleRepo, userRepo, bookingCache, cfg.CacheTTL, logger, idGenerator, now)

	host, err := userService.DefaultUser(ctx)
	if err != nil {
		logger.Error("failed to bootstrap default account", "error", err)
		os.Exit(1)
	}
	if _, err := scheduleService.EnsureDefaultSchedule(ctx, host.ID); err != nil {
		logger.Error("failed to seed default schedule", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Users:      httptransport.NewUserHandler(userService, logger),
		Schedules:  httptransport.NewScheduleHandler(scheduleService, logger),
		EventTypes: httptransport.NewEventTypeHandler(eventTypeService, logger),
		Bookings:   httptransport.NewBookingHandler(bookingService, logger),
		Public:     httptransport.NewPublicHandler(userService, eventTypeService, availabilityService, bookingService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
		HostMiddleware: []func(http.Handler) http.Handler{
			httptransport.ResolveUser(userService, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("meetsync API listening", "addr", server.Addr, "slot_step", slotStep.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
