package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	cache "encore/internal/cache/iface"
	redisCache "encore/internal/cache/redis"
	"encore/internal/domain"
	"encore/internal/jobs"
	"encore/internal/logger"
	sqsQueue "encore/internal/queue/sqs"
	"encore/internal/registry"
	dynamodbRepo "encore/internal/repository/dynamodb"
	repository "encore/internal/repository/iface"
	historyRepo "encore/internal/repository/redis"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTableName    = "job_definitions_it"
	testQueueName    = "crm-sync-it"
	sqsEndpoint      = "http://localhost:4566" // LocalStack for SQS
	dynamoDBEndpoint = "http://localhost:9000" // DynamoDB Local (separate container)
	redisAddr        = "localhost:6379"
	testRegion       = "us-east-1"
)

type integrationTestSetup struct {
	scheduler *Scheduler
	cache     cache.Cache
	jobRepo   repository.JobDefinitionRepository
	history   repository.RunHistoryRepository
	sqsClient *sqs.Client
	dynamoDB  *dynamodb.Client
	queueURL  string
	notifier  *mockNotifier
	ctx       context.Context
	cancel    context.CancelFunc
}

// setupIntegrationTest wires the scheduler to DynamoDB Local, Redis and LocalStack SQS
func setupIntegrationTest(t *testing.T) *integrationTestSetup {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	log, err := logger.NewZapLoggerForDev()
	require.NoError(t, err, "failed to create logger")

	c, err := redisCache.NewRedisCache(redisAddr, "", 0, log)
	require.NoError(t, err, "failed to connect to Redis")

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(testRegion),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				switch service {
				case "DynamoDB":
					return aws.Endpoint{URL: dynamoDBEndpoint, SigningRegion: testRegion}, nil
				case "SQS":
					return aws.Endpoint{URL: sqsEndpoint, SigningRegion: testRegion}, nil
				default:
					return aws.Endpoint{}, &aws.EndpointNotFoundError{}
				}
			})),
	)
	require.NoError(t, err, "failed to load AWS config")

	dynamoClient := dynamodb.NewFromConfig(cfg)
	sqsClient := sqs.NewFromConfig(cfg)

	createTestTable(t, ctx, dynamoClient)
	queueURL := createTestQueue(t, ctx, sqsClient)

	jobRepo := dynamodbRepo.NewJobDefinitionRepository(dynamoClient, testTableName, log)
	history := historyRepo.NewRunHistoryRepository(c, 20, log)
	notifier := &mockNotifier{}

	reg, err := registry.New(
		jobs.NewCRMSync(sqsQueue.NewSQSPublisher(sqsClient, queueURL, log), log),
		registry.NewTaskFunc("always-fails", func(ctx context.Context) error {
			return errors.New("disk full")
		}),
	)
	require.NoError(t, err)

	tracker := NewExecutionTracker(jobRepo, history, notifier, TrackerConfig{}, log)
	scheduler := NewScheduler(reg, jobRepo, tracker, time.UTC, log)

	return &integrationTestSetup{
		scheduler: scheduler,
		cache:     c,
		jobRepo:   jobRepo,
		history:   history,
		sqsClient: sqsClient,
		dynamoDB:  dynamoClient,
		queueURL:  queueURL,
		notifier:  notifier,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func createTestTable(t *testing.T, ctx context.Context, client *dynamodb.Client) {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(testTableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		require.NoError(t, err, "failed to create test table")
	}
}

func createTestQueue(t *testing.T, ctx context.Context, client *sqs.Client) string {
	out, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(testQueueName),
	})
	require.NoError(t, err, "failed to create test queue")
	return aws.ToString(out.QueueUrl)
}

// cleanup removes everything the test wrote
func (s *integrationTestSetup) cleanup(t *testing.T) {
	ctx := context.Background()
	s.cancel()

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = s.scheduler.Stop(stopCtx)

	for _, id := range []string{jobs.CRMSyncID, "always-fails"} {
		s.dynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(testTableName),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: id},
			},
		})
		s.cache.Delete(ctx, fmt.Sprintf("runs:%s", id))
	}

	s.sqsClient.PurgeQueue(ctx, &sqs.PurgeQueueInput{
		QueueUrl: aws.String(s.queueURL),
	})

	s.cache.Close()
}

func (s *integrationTestSetup) seed(t *testing.T, defs ...*domain.JobDefinition) {
	_, err := NewSeeder(s.jobRepo, logger.NewNopLogger()).Seed(s.ctx, defs)
	require.NoError(t, err)
}

// TestSchedulerCronProcessing lets the real cron runner fire a job and checks every side effect
func TestSchedulerCronProcessing(t *testing.T) {
	setup := setupIntegrationTest(t)
	defer setup.cleanup(t)

	setup.seed(t,
		domain.NewJobDefinition(jobs.CRMSyncID, "CRM sync", "@every 2s", "", true),
	)

	require.NoError(t, setup.scheduler.StartAll(setup.ctx))
	require.NoError(t, setup.scheduler.Start(setup.ctx))

	assert.Eventually(t, func() bool {
		def, err := setup.jobRepo.GetByID(context.Background(), jobs.CRMSyncID)
		return err == nil && def.LastStatus == domain.JobStatusSuccess
	}, 15*time.Second, 250*time.Millisecond)

	def, err := setup.jobRepo.GetByID(context.Background(), jobs.CRMSyncID)
	require.NoError(t, err)
	require.NotNil(t, def.LastRunAt)
	assert.Nil(t, def.LastError)

	messages, err := setup.sqsClient.ReceiveMessage(context.Background(), &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(setup.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, messages.Messages, "expected at least one sync request in queue")

	var req jobs.CRMSyncRequest
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(messages.Messages[0].Body)), &req))
	assert.NotEmpty(t, req.RunID)

	runs, err := setup.history.Recent(context.Background(), jobs.CRMSyncID, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
}

// TestSchedulerFailurePersisted checks that a failing job is stored as error in DynamoDB and alerted once per fire
func TestSchedulerFailurePersisted(t *testing.T) {
	setup := setupIntegrationTest(t)
	defer setup.cleanup(t)

	setup.seed(t,
		domain.NewJobDefinition("always-fails", "always-fails", "0 2 * * *", "", true),
	)

	require.NoError(t, setup.scheduler.Trigger(setup.ctx, "always-fails"))

	assert.Eventually(t, func() bool {
		def, err := setup.jobRepo.GetByID(context.Background(), "always-fails")
		return err == nil && def.LastStatus == domain.JobStatusError
	}, 10*time.Second, 100*time.Millisecond)

	def, err := setup.jobRepo.GetByID(context.Background(), "always-fails")
	require.NoError(t, err)
	require.NotNil(t, def.LastError)
	assert.Equal(t, "disk full", *def.LastError)

	assert.Eventually(t, func() bool {
		return len(setup.notifier.Reports()) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

// TestSchedulerReloadFromDynamoDB disables a job in the table and reloads
func TestSchedulerReloadFromDynamoDB(t *testing.T) {
	setup := setupIntegrationTest(t)
	defer setup.cleanup(t)

	setup.seed(t,
		domain.NewJobDefinition(jobs.CRMSyncID, "CRM sync", "*/15 * * * *", "", true),
	)

	require.NoError(t, setup.scheduler.StartAll(setup.ctx))
	require.Contains(t, setup.scheduler.ListActive(), jobs.CRMSyncID)

	require.NoError(t, setup.jobRepo.SetActive(setup.ctx, jobs.CRMSyncID, false))
	require.NoError(t, setup.scheduler.Reload(setup.ctx))

	assert.NotContains(t, setup.scheduler.ListActive(), jobs.CRMSyncID)
}
