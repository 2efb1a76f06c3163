package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/push"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	logRepo := repository.NewTicketActionLogRepository(pool)
	approverRepo := repository.NewApproverRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	directory := repository.NewEmployeeDirectory(pool)
	txManager := repository.NewTxManager(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger, cfg.Notification.Async)

	machine := service.NewTicketStatusService()
	policy := service.NewAccessPolicy(machine)
	roleService := service.NewUserRoleService(directory)

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Technicians: roleService,
		Inbox:       notificationRepo,
		Publisher:   push.NewRedisPublisher(redis.Client),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
		Config:      cfg.Notification,
	})
	notificationWorker := worker.StartNotificationWorker(notificationService, dispatcher, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		LogRepo:    logRepo,
		TxManager:  txManager,
		Policy:     policy,
		Machine:    machine,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Config:     cfg.Ticket,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:   ticketRepo,
		LogRepo:      logRepo,
		ApproverRepo: approverRepo,
		TxManager:    txManager,
		Policy:       policy,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})
	queryService := service.NewTicketQueryService(ticketRepo, policy, cfg.Ticket, nil)
	approverService := service.NewApproverService(approverRepo, directory, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, roleService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, queryService, assignmentService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Approvers:      handlers.NewApproversHandler(approverService, roleService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	notificationWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
