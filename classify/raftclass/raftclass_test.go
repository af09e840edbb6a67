package raftclass

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lni/dragonboat/v4"
	"github.com/stretchr/testify/assert"

	"andy.dev/again"
	"andy.dev/again/backoff"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind again.Kind
		ok   bool
	}{
		{dragonboat.ErrSystemBusy, again.KindOverloaded, true},
		{fmt.Errorf("SyncPropose: %w", dragonboat.ErrSystemBusy), again.KindOverloaded, true},
		{dragonboat.ErrShardNotReady, again.KindUnavailable, true},
		{dragonboat.ErrAborted, again.KindUnavailable, true},
		{dragonboat.ErrTimeout, again.KindCancelled, true},
		{dragonboat.ErrRejected, again.KindConflict, true},
		{dragonboat.ErrShardNotFound, again.KindNotFound, true},
		{dragonboat.ErrPayloadTooBig, again.KindInvalidArgument, true},
		{dragonboat.ErrClosed, again.KindGeneric, true},
		{errors.New("disk on fire"), again.KindGeneric, false},
		{nil, again.KindGeneric, false},
	}
	for _, tt := range tests {
		kind, ok := Classify(tt.err)
		assert.Equal(t, tt.kind, kind, "%v", tt.err)
		assert.Equal(t, tt.ok, ok, "%v", tt.err)
	}
}

func TestBusyShardIsRetried(t *testing.T) {
	chain := again.MustChain(again.Policy{
		Kinds:       []again.Kind{again.KindOverloaded},
		MaxAttempts: 5,
		Delay:       backoff.Immediate(),
	})
	tries := 0
	err := again.Do(context.Background(), func(context.Context) error {
		tries++
		if tries < 3 {
			return dragonboat.ErrSystemBusy
		}
		return nil
	}, chain, again.Classify(Classify))
	assert.NoError(t, err)
	assert.Equal(t, 3, tries)
}
