package config

import (
	"context"
	"fmt"

	commonsConfig "encore/commons/config"
	"encore/commons/routes"
	"encore/commons/server"
	cache "encore/internal/cache/iface"
	"encore/internal/handler"
	"encore/internal/jobs"
	"encore/internal/logger"
	queue "encore/internal/queue/iface"
	sqsQueue "encore/internal/queue/sqs"
	"encore/internal/registry"
	"encore/internal/repository/dynamodb"
	repository "encore/internal/repository/iface"
	memRepo "encore/internal/repository/memory"
	historyRepo "encore/internal/repository/redis"
	"encore/internal/repository/sqlite"
	internalRoutes "encore/internal/routes"
	"encore/internal/service"
	"encore/internal/slack"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// ProvideJobDefinitionRepository opens the store selected by store.driver
func ProvideJobDefinitionRepository(lc fx.Lifecycle, cfg *commonsConfig.AppConfig, log logger.Logger) (repository.JobDefinitionRepository, error) {
	switch cfg.Store.Driver {
	case commonsConfig.StoreDriverDynamoDB:
		client, err := commonsConfig.ProvideDynamoDBClient(cfg)
		if err != nil {
			return nil, err
		}
		return dynamodb.NewJobDefinitionRepository(client, cfg.Store.Table, log), nil

	case commonsConfig.StoreDriverSQLite:
		store, err := sqlite.Open(context.Background(), cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return store.Close()
			},
		})
		return store, nil

	case commonsConfig.StoreDriverMemory:
		log.Warn("using in-memory job definition store, admin edits are lost on restart")
		return memRepo.NewJobDefinitionRepository(log), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// ProvideRunHistoryRepository keeps run history in the cache
func ProvideRunHistoryRepository(c cache.Cache, cfg *commonsConfig.AppConfig, log logger.Logger) repository.RunHistoryRepository {
	return historyRepo.NewRunHistoryRepository(c, cfg.Scheduler.HistorySize, log)
}

// ProvideAlertNotifier builds the rate limited Slack alert dispatcher
func ProvideAlertNotifier(client slack.Client, cfg *commonsConfig.AppConfig, log logger.Logger) (service.AlertNotifier, error) {
	alertRoutes := make([]service.AlertRoute, 0, len(cfg.Alerts.Routes))
	for _, r := range cfg.Alerts.Routes {
		alertRoutes = append(alertRoutes, service.AlertRoute{Rule: r.Rule, Channel: r.Channel})
	}

	return service.NewAlertDispatcher(client, service.AlertConfig{
		MaxPerHour:     cfg.Alerts.MaxPerHour,
		DefaultChannel: cfg.Alerts.DefaultChannel,
		Routes:         alertRoutes,
		SendTimeout:    cfg.Alerts.SendTimeoutDuration(),
	}, log)
}

// ProvideExecutionTracker provides the per-fire execution tracker
func ProvideExecutionTracker(
	repo repository.JobDefinitionRepository,
	history repository.RunHistoryRepository,
	notifier service.AlertNotifier,
	cfg *commonsConfig.AppConfig,
	log logger.Logger,
) *service.ExecutionTracker {
	return service.NewExecutionTracker(repo, history, notifier, service.TrackerConfig{
		SoftTimeout:  cfg.Scheduler.SoftTimeoutDuration(),
		StoreTimeout: cfg.Scheduler.StoreTimeoutDuration(),
	}, log)
}

// ProvideCRMPublisher provides the SQS publisher the crm-sync job writes to
func ProvideCRMPublisher(client *sqs.Client, cfg *commonsConfig.AppConfig, log logger.Logger) queue.Publisher {
	if cfg.CRM.QueueURL == "" {
		log.Warn("crm.queue_url is not set, crm-sync runs will fail")
	}
	return sqsQueue.NewSQSPublisher(client, cfg.CRM.QueueURL, log)
}

// ProvideRegistry registers every job this service can run
func ProvideRegistry(
	publisher queue.Publisher,
	history repository.RunHistoryRepository,
	c cache.Cache,
	cfg *commonsConfig.AppConfig,
	log logger.Logger,
) (*registry.Registry, error) {
	var reg *registry.Registry
	allJobs := func() []string { return reg.IDs() }

	reg, err := registry.New(
		jobs.NewCRMSync(publisher, log),
		jobs.NewNightlyCleanup(history, allJobs, cfg.Scheduler.HistoryRetentionDuration(), log),
		jobs.NewChatAvailability(c, cfg.Scheduler.Location(), log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build job registry: %w", err)
	}

	log.Info("job registry built", logger.Any("jobs", reg.IDs()))
	return reg, nil
}

// ProvideScheduler provides scheduler service
func ProvideScheduler(
	reg *registry.Registry,
	repo repository.JobDefinitionRepository,
	tracker *service.ExecutionTracker,
	cfg *commonsConfig.AppConfig,
	log logger.Logger,
) *service.Scheduler {
	return service.NewScheduler(reg, repo, tracker, cfg.Scheduler.Location(), log)
}

// ProvideIScheduler exposes the scheduler to handlers through its interface
func ProvideIScheduler(s *service.Scheduler) service.IScheduler {
	return s
}

// ProvideSeeder provides the deploy-time job seeder
func ProvideSeeder(repo repository.JobDefinitionRepository, log logger.Logger) *service.Seeder {
	return service.NewSeeder(repo, log)
}

// ProvideJobHandler provides the administrative job handler
func ProvideJobHandler(
	scheduler service.IScheduler,
	repo repository.JobDefinitionRepository,
	history repository.RunHistoryRepository,
	tracker *service.ExecutionTracker,
	log logger.Logger,
) *handler.JobHandler {
	return handler.NewJobHandler(scheduler, repo, history, tracker, log)
}

// ProvideHealthHandler creates the health handler for scheduler service
func ProvideHealthHandler(scheduler service.IScheduler, cfg *commonsConfig.AppConfig, log logger.Logger) *handler.HealthHandler {
	return handler.NewHealthHandler(scheduler, log, cfg.Service.Name)
}

// ProvideRouteInitializer creates route initializer for scheduler service
func ProvideRouteInitializer(
	healthHandler *handler.HealthHandler,
	jobHandler *handler.JobHandler,
) func(*gin.Engine, routes.RouteDependencies) {
	return func(router *gin.Engine, deps routes.RouteDependencies) {
		internalRoutes.InitHealthRoutes(router, deps, healthHandler)
		internalRoutes.InitJobRoutes(router, deps, jobHandler)
	}
}

// Lifecycle Management
func ManageSchedulerLifecycle(
	lc fx.Lifecycle,
	scheduler *service.Scheduler,
	seeder *service.Seeder,
	cfg *commonsConfig.AppConfig,
	srv *server.HTTPServer,
	log logger.Logger,
) {
	// referencing the server keeps its lifecycle hooks in the graph
	_ = srv

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := seeder.Seed(ctx, cfg.Jobs); err != nil {
				return err
			}
			if err := scheduler.StartAll(ctx); err != nil {
				return err
			}
			log.Info("starting job scheduler")
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping job scheduler")
			return scheduler.Stop(ctx)
		},
	})
}

// ManageReloadWatcherLifecycle reloads the scheduler on ZooKeeper node changes when enabled
func ManageReloadWatcherLifecycle(
	lc fx.Lifecycle,
	scheduler *service.Scheduler,
	cfg *commonsConfig.AppConfig,
	log logger.Logger,
) {
	if !cfg.ZooKeeper.Enabled {
		log.Info("zookeeper reload trigger disabled")
		return
	}

	var watcher *service.ReloadWatcher

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			coord, err := commonsConfig.ProvideZooKeeperCoordinator(cfg, log)
			if err != nil {
				return err
			}
			watcher = service.NewReloadWatcher(coord, scheduler, cfg.ZooKeeper.ReloadPath, log)
			return watcher.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			if watcher == nil {
				return nil
			}
			return watcher.Stop(ctx)
		},
	})
}
