package store

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// isConditionFailed reports whether err is a failed condition expression.
func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// mapConditionError replaces a conditional check failure with target and
// passes any other error through.
func mapConditionError(err, target error) error {
	if err == nil {
		return nil
	}
	if isConditionFailed(err) {
		return target
	}
	return err
}
