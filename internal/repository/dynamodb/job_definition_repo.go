package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"encore/internal/domain"
	"encore/internal/logger"
	"encore/internal/repository"
	repositoryIface "encore/internal/repository/iface"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultTableName is the table job definitions live in unless configured otherwise
const DefaultTableName = "job_definitions"

type jobDefinitionRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    logger.Logger
}

// NewJobDefinitionRepository creates a new DynamoDB job definition repository
func NewJobDefinitionRepository(client *dynamodb.Client, tableName string, log logger.Logger) repositoryIface.JobDefinitionRepository {
	if tableName == "" {
		tableName = DefaultTableName
	}
	return &jobDefinitionRepository{
		client:    client,
		tableName: tableName,
		logger:    log.With(logger.String("component", "job_definition_repository")),
	}
}

// List scans the whole table. The table holds one row per job, so a scan stays small.
func (r *jobDefinitionRepository) List(ctx context.Context) ([]*domain.JobDefinition, error) {
	r.logger.Debug("listing job definitions")

	defs := make([]*domain.JobDefinition, 0)
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			r.logger.Error("failed to scan job definitions", logger.Error(err))
			return nil, fmt.Errorf("failed to list job definitions: %w", err)
		}

		for _, item := range page.Items {
			var def domain.JobDefinition
			if err := attributevalue.UnmarshalMap(item, &def); err != nil {
				r.logger.Warn("failed to unmarshal job definition", logger.Error(err))
				continue
			}
			defs = append(defs, &def)
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	r.logger.Debug("job definitions retrieved", logger.Int("count", len(defs)))

	return defs, nil
}

func (r *jobDefinitionRepository) GetByID(ctx context.Context, id string) (*domain.JobDefinition, error) {
	r.logger.Debug("getting job definition by ID", logger.String("job_id", id))

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		r.logger.Error("failed to get job definition", logger.Error(err))
		return nil, fmt.Errorf("failed to get job definition: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	var def domain.JobDefinition
	if err := attributevalue.UnmarshalMap(result.Item, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job definition: %w", err)
	}

	return &def, nil
}

func (r *jobDefinitionRepository) CreateIfAbsent(ctx context.Context, def *domain.JobDefinition) (bool, error) {
	stored := def.Clone()
	if stored.LastStatus == "" {
		stored.LastStatus = domain.JobStatusNever
	}

	item, err := attributevalue.MarshalMap(stored)
	if err != nil {
		return false, fmt.Errorf("failed to marshal job definition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		r.logger.Error("failed to create job definition",
			logger.String("job_id", def.ID),
			logger.Error(err))
		return false, fmt.Errorf("failed to create job definition: %w", err)
	}

	r.logger.Info("job definition created", logger.String("job_id", def.ID))

	return true, nil
}

func (r *jobDefinitionRepository) MarkRunning(ctx context.Context, id string, at time.Time) error {
	runAt, err := attributevalue.Marshal(at)
	if err != nil {
		return fmt.Errorf("failed to marshal run time: %w", err)
	}

	return r.update(ctx, id, "SET #last_run_at = :at, #last_status = :status", map[string]types.AttributeValue{
		":at":     runAt,
		":status": &types.AttributeValueMemberS{Value: string(domain.JobStatusRunning)},
	})
}

func (r *jobDefinitionRepository) MarkSucceeded(ctx context.Context, id string) error {
	return r.update(ctx, id, "SET #last_status = :status REMOVE #last_error", map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(domain.JobStatusSuccess)},
	})
}

func (r *jobDefinitionRepository) MarkFailed(ctx context.Context, id string, message string) error {
	return r.update(ctx, id, "SET #last_status = :status, #last_error = :error", map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: string(domain.JobStatusError)},
		":error":  &types.AttributeValueMemberS{Value: message},
	})
}

func (r *jobDefinitionRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, "SET #is_active = :active", map[string]types.AttributeValue{
		":active": &types.AttributeValueMemberBOOL{Value: active},
	})
}

func (r *jobDefinitionRepository) SetSchedule(ctx context.Context, id string, schedule string) error {
	return r.update(ctx, id, "SET #schedule = :schedule", map[string]types.AttributeValue{
		":schedule": &types.AttributeValueMemberS{Value: schedule},
	})
}

func (r *jobDefinitionRepository) update(ctx context.Context, id, expression string, values map[string]types.AttributeValue) error {
	r.logger.Debug("updating job definition",
		logger.String("job_id", id),
		logger.String("expression", expression))

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(id),
		UpdateExpression:          aws.String(expression),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  attributeNames(expression),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		r.logger.Error("failed to update job definition",
			logger.String("job_id", id),
			logger.Error(err))
		return mapUpdateError(id, err)
	}

	return nil
}

// attributeNames maps every #placeholder used in expression (plus #id) to its attribute name
func attributeNames(expression string) map[string]string {
	names := map[string]string{"#id": "id"}
	for _, attr := range []string{"last_run_at", "last_status", "last_error", "is_active", "schedule"} {
		if strings.Contains(expression, "#"+attr) {
			names["#"+attr] = attr
		}
	}
	return names
}

func (r *jobDefinitionRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
