// Package awsclass classifies errors returned by AWS SDK v2 clients, with
// specific handling for DynamoDB and S3.
package awsclass

import (
	"errors"

	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"andy.dev/again"
)

// codes maps API error codes to kinds.
var codes = map[string]again.Kind{
	"ProvisionedThroughputExceededException": again.KindOverloaded,
	"ThrottlingException":                    again.KindOverloaded,
	"Throttling":                             again.KindOverloaded,
	"RequestLimitExceeded":                   again.KindOverloaded,
	"TooManyRequestsException":               again.KindOverloaded,
	"SlowDown":                               again.KindOverloaded,
	"ConditionalCheckFailedException":        again.KindConflict,
	"TransactionConflictException":           again.KindConflict,
	"TransactionInProgressException":         again.KindConflict,
	"PreconditionFailed":                     again.KindConflict,
	"ResourceNotFoundException":              again.KindNotFound,
	"NoSuchKey":                              again.KindNotFound,
	"NoSuchBucket":                           again.KindNotFound,
	"InternalServerError":                    again.KindUnavailable,
	"InternalError":                          again.KindUnavailable,
	"ServiceUnavailable":                     again.KindUnavailable,
	"ValidationException":                    again.KindInvalidArgument,
	"SerializationException":                 again.KindInvalidArgument,
	"InvalidArgument":                        again.KindInvalidArgument,
}

// Classify classifies AWS SDK errors. Typed DynamoDB and S3 errors are matched
// first, then any [smithy.APIError] by code and finally by fault: server
// faults without a known code are treated as unavailable.
func Classify(err error) (again.Kind, bool) {
	if err == nil {
		return again.KindGeneric, false
	}

	var (
		throughput  *dynamotypes.ProvisionedThroughputExceededException
		conditional *dynamotypes.ConditionalCheckFailedException
		notFound    *dynamotypes.ResourceNotFoundException
		noSuchKey   *s3types.NoSuchKey
	)
	switch {
	case errors.As(err, &throughput):
		return again.KindOverloaded, true
	case errors.As(err, &conditional):
		return again.KindConflict, true
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		return again.KindNotFound, true
	}

	var canceled *smithy.CanceledError
	if errors.As(err, &canceled) {
		return again.KindCancelled, true
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return again.KindGeneric, false
	}
	if k, ok := codes[apiErr.ErrorCode()]; ok {
		return k, true
	}
	if apiErr.ErrorFault() == smithy.FaultServer {
		return again.KindUnavailable, true
	}
	return again.KindGeneric, true
}
