package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"eventservices/config"
	_ "eventservices/docs"
	"eventservices/internal/adapters/auth"
	"eventservices/internal/adapters/email"
	"eventservices/internal/adapters/lock"
	httpdelivery "eventservices/internal/delivery/http"
	"eventservices/internal/delivery/http/controllers"
	"eventservices/internal/delivery/http/middleware"
	"eventservices/internal/domain"
	"eventservices/internal/repository/memory"
	"eventservices/internal/repository/postgres"
	"eventservices/internal/scheduler"
	"eventservices/internal/services"
)

// @title Event Services API
// @version 1.0
// @description Marketplace for booking vendors, guest speakers and transportation providers for events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		stop()
		os.Exit(1)
	}
}

type repositories struct {
	users     domain.UserRepository
	providers domain.ProviderRepository
	bookings  domain.BookingRepository
}

// run wires the application and serves until ctx is done. Deferred cleanup
// always runs since only main calls os.Exit.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var repos repositories
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DBUrl)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
		repos = repositories{
			users:     postgres.NewUserRepository(db),
			providers: postgres.NewProviderRepository(db),
			bookings:  postgres.NewBookingRepository(db),
		}
	default:
		logger.Warn("using in-memory storage, data is lost on restart")
		repos = repositories{
			users:     memory.NewUserRepository(),
			providers: memory.NewProviderRepository(),
			bookings:  memory.NewBookingRepository(),
		}
	}

	var locker domain.ProviderLocker = lock.NewMemoryLocker()
	if cfg.LockDriver == config.DriverRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		locker = lock.NewRedisLocker(client, "", 0, logger)
		logger.Info("using redis provider locks", "addr", cfg.RedisAddr)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipTLS,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	providerService := services.NewProviderService(repos.providers)
	userService := services.NewUserService(repos.users, auth.NewBcryptHasher(0), auth.NewJWTIssuer(cfg.JWTSecret), cfg.JWTExpiry)
	bookingService := services.NewBookingService(
		repos.bookings,
		services.NewIdentityStore(repos.users),
		providerService,
		locker,
		services.NewBookingNotifier(repos.users, providerService, emailService, logger),
		logger,
	)

	mux := httpdelivery.NewRouter(
		controllers.NewUserController(logger, userService),
		controllers.NewProviderController(logger, providerService),
		controllers.NewBookingController(logger, bookingService, providerService),
		middleware.RequireAuth(auth.NewJWTVerifier(cfg.JWTSecret), logger),
	)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSOrigins, mux))

	expiry, err := scheduler.New(bookingService, cfg.ExpireSchedule, logger)
	if err != nil {
		return err
	}
	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Go(func() { expiry.Start(ctx) })

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "environment", cfg.Environment, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
