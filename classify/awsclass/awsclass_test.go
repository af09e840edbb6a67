package awsclass

import (
	"context"
	"errors"
	"fmt"
	"testing"

	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"andy.dev/again"
)

func msg(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind again.Kind
		ok   bool
	}{
		{"throughput", &dynamotypes.ProvisionedThroughputExceededException{Message: msg("slow down")}, again.KindOverloaded, true},
		{"conditional", fmt.Errorf("put: %w", &dynamotypes.ConditionalCheckFailedException{}), again.KindConflict, true},
		{"table missing", &dynamotypes.ResourceNotFoundException{}, again.KindNotFound, true},
		{"s3 key missing", &s3types.NoSuchKey{}, again.KindNotFound, true},
		{"txn conflict", &dynamotypes.TransactionConflictException{}, again.KindConflict, true},
		{"s3 slow down", &smithy.GenericAPIError{Code: "SlowDown"}, again.KindOverloaded, true},
		{"throttling", &smithy.GenericAPIError{Code: "ThrottlingException"}, again.KindOverloaded, true},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient}, again.KindInvalidArgument, true},
		{"unknown server fault", &smithy.GenericAPIError{Code: "Weird", Fault: smithy.FaultServer}, again.KindUnavailable, true},
		{"unknown client fault", &smithy.GenericAPIError{Code: "Weird", Fault: smithy.FaultClient}, again.KindGeneric, true},
		{"canceled", &smithy.CanceledError{Err: context.Canceled}, again.KindCancelled, true},
		{"plain", errors.New("boom"), again.KindGeneric, false},
		{"nil", nil, again.KindGeneric, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Classify(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
