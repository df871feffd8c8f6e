package main

import (
	"encore/commons/config"
	"encore/commons/server"
	internalConfig "encore/internal/config"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.WithLogger(config.ProvideFxLogger),
		fx.Provide(
			config.ProvideAppConfig,
			config.ProvideLogger,
			config.ProvideRouteDependencies,
			config.ProvideRouterConfig,
			config.ProvideServerConfig,
			config.ProvideSQSClient,
			config.ProvideSlackClient,
			config.ProvideCache,
			internalConfig.ProvideJobDefinitionRepository,
			internalConfig.ProvideRunHistoryRepository,
			internalConfig.ProvideAlertNotifier,
			internalConfig.ProvideExecutionTracker,
			internalConfig.ProvideCRMPublisher,
			internalConfig.ProvideRegistry,
			internalConfig.ProvideScheduler,
			internalConfig.ProvideIScheduler,
			internalConfig.ProvideSeeder,
			internalConfig.ProvideJobHandler,
			internalConfig.ProvideHealthHandler,
			internalConfig.ProvideRouteInitializer,
			config.ProvideRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(
			internalConfig.ManageSchedulerLifecycle,
			internalConfig.ManageReloadWatcherLifecycle,
		),
	).Run()
}
