// Package raftclass classifies errors returned by a dragonboat NodeHost, as
// used by raft-backed key-value stores.
package raftclass

import (
	"errors"

	"github.com/lni/dragonboat/v4"

	"andy.dev/again"
)

var table = []struct {
	err  error
	kind again.Kind
}{
	{dragonboat.ErrSystemBusy, again.KindOverloaded},
	{dragonboat.ErrShardNotReady, again.KindUnavailable},
	{dragonboat.ErrShardNotInitialized, again.KindUnavailable},
	{dragonboat.ErrShardClosed, again.KindUnavailable},
	{dragonboat.ErrAborted, again.KindUnavailable},
	{dragonboat.ErrTimeout, again.KindCancelled},
	{dragonboat.ErrCanceled, again.KindCancelled},
	{dragonboat.ErrRejected, again.KindConflict},
	{dragonboat.ErrShardNotFound, again.KindNotFound},
	{dragonboat.ErrPayloadTooBig, again.KindInvalidArgument},
	{dragonboat.ErrInvalidDeadline, again.KindInvalidArgument},
	{dragonboat.ErrTimeoutTooSmall, again.KindInvalidArgument},
	{dragonboat.ErrInvalidSession, again.KindInvalidArgument},
	{dragonboat.ErrClosed, again.KindGeneric},
}

// Classify classifies dragonboat request errors. A busy system is overloaded,
// a shard that is not ready or lost its request to a leader change is
// unavailable, and request timeouts count as in-flight cancellations.
func Classify(err error) (again.Kind, bool) {
	if err == nil {
		return again.KindGeneric, false
	}
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e.kind, true
		}
	}
	return again.KindGeneric, false
}
