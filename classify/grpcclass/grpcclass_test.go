package grpcclass

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"andy.dev/again"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind again.Kind
		ok   bool
	}{
		{status.Error(codes.ResourceExhausted, "quota"), again.KindOverloaded, true},
		{status.Error(codes.Unavailable, "transient failure"), again.KindUnavailable, true},
		{status.Error(codes.Aborted, "txn aborted"), again.KindConflict, true},
		{status.Error(codes.NotFound, "no doc"), again.KindNotFound, true},
		{status.Error(codes.InvalidArgument, "bad path"), again.KindInvalidArgument, true},
		{status.Error(codes.Canceled, "cancelled"), again.KindCancelled, true},
		{status.Error(codes.Internal, "bug"), again.KindGeneric, true},
		{status.Error(codes.Unknown, "?"), again.KindGeneric, false},
		{fmt.Errorf("get: %w", status.Error(codes.Unavailable, "down")), again.KindUnavailable, true},
		{errors.New("not grpc"), again.KindGeneric, false},
		{nil, again.KindGeneric, false},
	}
	for _, tt := range tests {
		kind, ok := Classify(tt.err)
		assert.Equal(t, tt.kind, kind, "%v", tt.err)
		assert.Equal(t, tt.ok, ok, "%v", tt.err)
	}
}

func TestRetryDelay(t *testing.T) {
	st, err := status.New(codes.ResourceExhausted, "slow down").WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(1500 * time.Millisecond),
	})
	require.NoError(t, err)

	d, ok := RetryDelay(fmt.Errorf("call: %w", st.Err()))
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, ok = RetryDelay(status.Error(codes.ResourceExhausted, "no details"))
	assert.False(t, ok)
	_, ok = RetryDelay(errors.New("plain"))
	assert.False(t, ok)
	_, ok = RetryDelay(nil)
	assert.False(t, ok)
}
