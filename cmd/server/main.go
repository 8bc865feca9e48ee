package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"wordslayer/internal/config"
	"wordslayer/internal/database"
	"wordslayer/internal/handlers"
	"wordslayer/internal/logger"
	"wordslayer/internal/notify"
	"wordslayer/internal/scheduler"
	"wordslayer/internal/security"
	"wordslayer/internal/service"
	"wordslayer/internal/validation"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations()
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("Migrations completed", "applied", len(applied))

	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Initialize services
	calendar := service.NewCalendar(cfg.Location)
	incentive := service.NewIncentiveService(db, calendar, log,
		service.DefaultResolvers(cfg.GrandAwardName, cfg.DailyCorrectMinimum)...)
	study := service.NewStudyService(db, incentive, calendar, nil, log)
	batches := service.NewBatchService(db, calendar, cfg.HardWordFaultCount, log)
	proverbs := service.NewProverbService(db, calendar, log)

	// Initialize handlers
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	limiter := security.NewRateLimiter(ctx, cfg.AnswerRateLimit, cfg.AnswerRateWindow)
	middleware := handlers.NewMiddleware(tokens, limiter, log)
	handler := handlers.Routes(middleware,
		handlers.NewStudyHandler(study, incentive, log),
		handlers.NewBatchHandler(batches, log),
		handlers.NewProverbHandler(proverbs, log),
		log,
	)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.SchedulerEnabled {
		sched := scheduler.New(cfg.Location, scheduler.Jobs{
			HardWords:       service.NewHardWordBatcher(db, calendar, notifier, cfg.HardWordBatchSize, cfg.HardWordFaultCount, log),
			WeeklyIncorrect: service.NewWeeklyIncorrectBatcher(db, calendar, log),
			Morale:          service.NewMoraleService(db, calendar, log),
		}, log)
		if err := sched.Start(); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	g.Go(func() error {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildNotifier combines every configured batch notifier
func buildNotifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (notify.Notifier, error) {
	var notifiers notify.Multi

	telegram, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log)
	if err != nil {
		return nil, err
	}
	if telegram != nil {
		notifiers = append(notifiers, telegram)
	}

	recipients, err := validation.ParseEmailList(cfg.NotifyEmailTo)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_EMAIL_TO: %w", err)
	}
	email, err := notify.NewEmailNotifier(ctx, cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, recipients, log)
	if err != nil {
		return nil, err
	}
	if email != nil {
		notifiers = append(notifiers, email)
	}

	if len(notifiers) == 0 {
		log.Info("Batch notifications disabled")
		return notify.Nop{}, nil
	}
	log.Info("Batch notifications enabled", "channels", len(notifiers))
	return notifiers, nil
}
