package dynamodb

import (
	"errors"
	"fmt"

	"encore/internal/repository"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// isConditionFailed reports whether err is DynamoDB rejecting a condition expression
func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// mapUpdateError turns a failed attribute_exists(id) condition into repository.ErrNotFound
func mapUpdateError(id string, err error) error {
	if isConditionFailed(err) {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}
	return fmt.Errorf("failed to update job definition %s: %w", id, err)
}
