package config

import (
	"context"
	"fmt"

	"encore/commons/routes"
	"encore/commons/server"
	cache "encore/internal/cache/iface"
	memoryCache "encore/internal/cache/memory"
	redisCache "encore/internal/cache/redis"
	coordinator "encore/internal/coordinator/iface"
	zkCoordinator "encore/internal/coordinator/zk"
	"encore/internal/logger"
	"encore/internal/slack"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx/fxevent"
)

// ProvideAppConfig loads the service configuration from ENCORE_CONFIG or the default path
func ProvideAppConfig() (*AppConfig, error) {
	return LoadAppConfig(ConfigPath())
}

// ProvideLogger creates and configures the logger for the application
func ProvideLogger(cfg *AppConfig) (logger.Logger, error) {
	if cfg.Log.Development {
		return logger.NewZapLoggerForDev()
	}
	return logger.NewZapLogger(cfg.Log.Level)
}

// ProvideFxLogger creates the FX event logger using the application logger
func ProvideFxLogger(log logger.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{
		Logger: log.(*logger.ZapLogger).Logger(),
	}
}

// ProvideRouterConfig exposes the service identity to the router
func ProvideRouterConfig(cfg *AppConfig) routes.RouterConfig {
	return routes.RouterConfig{
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
		Debug:       cfg.Log.Development,
	}
}

// ProvideServerConfig exposes the listen port to the HTTP server
func ProvideServerConfig(cfg *AppConfig) server.ServerConfig {
	return server.ServerConfig{
		Port: cfg.Service.Port,
	}
}

// ProvideRouteDependencies creates route dependencies
func ProvideRouteDependencies(log logger.Logger) routes.RouteDependencies {
	return routes.RouteDependencies{
		Logger: log,
	}
}

// ProvideRouter creates and configures the Gin router with all routes
func ProvideRouter(
	config routes.RouterConfig,
	deps routes.RouteDependencies,
	routeInitializer func(*gin.Engine, routes.RouteDependencies),
) *gin.Engine {
	router := routes.NewRouter(config, deps)
	routeInitializer(router, deps)
	return router
}

// loadAWSConfig builds an AWS config, pointing service at endpoint when one is set (LocalStack, DynamoDB Local)
func loadAWSConfig(region, endpoint string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:           endpoint,
					SigningRegion: region,
				}, nil
			})))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}

// ProvideSQSClient provides an SQS client (for LocalStack or AWS)
func ProvideSQSClient(cfg *AppConfig) (*sqs.Client, error) {
	awsCfg, err := loadAWSConfig(cfg.CRM.Region, cfg.CRM.SQSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config for sqs: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

// ProvideDynamoDBClient provides DynamoDB client
func ProvideDynamoDBClient(cfg *AppConfig) (*awsdynamodb.Client, error) {
	awsCfg, err := loadAWSConfig(cfg.Store.Region, cfg.Store.DynamoDBEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config for dynamodb: %w", err)
	}
	return awsdynamodb.NewFromConfig(awsCfg), nil
}

// ProvideSlackClient posts to the configured webhook, or logs messages when none is set
func ProvideSlackClient(cfg *AppConfig, log logger.Logger) slack.Client {
	if cfg.Alerts.WebhookURL == "" {
		log.Warn("no slack webhook configured, alerts will only be logged")
		return slack.NewMockClient(log)
	}
	return slack.NewWebhookClient(cfg.Alerts.WebhookURL, cfg.Alerts.SendTimeoutDuration(), log)
}

// ProvideZooKeeperCoordinator connects to ZooKeeper for reload notifications
func ProvideZooKeeperCoordinator(cfg *AppConfig, log logger.Logger) (coordinator.Coordinator, error) {
	return zkCoordinator.NewZKCoordinator(cfg.ZooKeeper.Servers, cfg.ZooKeeper.SessionTimeoutDuration(), log)
}

// ProvideCache provides a Redis cache, or an in-process one when no address is configured
func ProvideCache(cfg *AppConfig, log logger.Logger) (cache.Cache, error) {
	if cfg.Redis.Addr == "" {
		log.Warn("no redis address configured, using in-memory cache")
		return memoryCache.NewMemoryCache(), nil
	}

	c, err := redisCache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		return nil, err
	}
	return c, nil
}
