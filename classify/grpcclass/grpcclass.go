// Package grpcclass classifies gRPC status errors.
package grpcclass

import (
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"andy.dev/again"
)

// Code maps a gRPC status code to a kind. OK and Unknown are not classified.
func Code(c codes.Code) (again.Kind, bool) {
	switch c {
	case codes.ResourceExhausted:
		return again.KindOverloaded, true
	case codes.Unavailable:
		return again.KindUnavailable, true
	case codes.Aborted, codes.AlreadyExists, codes.FailedPrecondition:
		return again.KindConflict, true
	case codes.NotFound:
		return again.KindNotFound, true
	case codes.InvalidArgument, codes.OutOfRange, codes.Unimplemented:
		return again.KindInvalidArgument, true
	case codes.Canceled, codes.DeadlineExceeded:
		return again.KindCancelled, true
	case codes.Internal, codes.DataLoss, codes.PermissionDenied, codes.Unauthenticated:
		return again.KindGeneric, true
	}
	return again.KindGeneric, false
}

// Classify classifies errors produced by a gRPC client, including wrapped
// ones.
func Classify(err error) (again.Kind, bool) {
	if err == nil {
		return again.KindGeneric, false
	}
	s, ok := status.FromError(err)
	if !ok {
		return again.KindGeneric, false
	}
	return Code(s.Code())
}

// RetryDelay returns the delay a server asked for in the RetryInfo detail of
// a status error, if any. It is a helper for callers: the delay between
// attempts is always chosen by the policy's backoff function.
func RetryDelay(err error) (time.Duration, bool) {
	s, ok := status.FromError(err)
	if !ok || err == nil {
		return 0, false
	}
	for _, d := range s.Details() {
		if info, ok := d.(*errdetails.RetryInfo); ok && info.GetRetryDelay() != nil {
			return info.GetRetryDelay().AsDuration(), true
		}
	}
	return 0, false
}
