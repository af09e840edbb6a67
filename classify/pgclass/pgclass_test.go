package pgclass

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"andy.dev/again"
)

func TestSQLState(t *testing.T) {
	tests := []struct {
		code string
		kind again.Kind
		ok   bool
	}{
		{"40001", again.KindConflict, true},
		{"40P01", again.KindConflict, true},
		{"23505", again.KindConflict, true},
		{"23503", again.KindInvalidArgument, true},
		{"57014", again.KindCancelled, true},
		{"57P01", again.KindUnavailable, true},
		{"08006", again.KindUnavailable, true},
		{"53300", again.KindOverloaded, true},
		{"53200", again.KindOverloaded, true},
		{"22P02", again.KindInvalidArgument, true},
		{"42601", again.KindInvalidArgument, true},
		{"XX000", again.KindGeneric, false},
	}
	for _, tt := range tests {
		kind, ok := SQLState(tt.code)
		assert.Equal(t, tt.kind, kind, tt.code)
		assert.Equal(t, tt.ok, ok, tt.code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind again.Kind
		ok   bool
	}{
		{"pgx no rows", fmt.Errorf("get user: %w", pgx.ErrNoRows), again.KindNotFound, true},
		{"sql no rows", sql.ErrNoRows, again.KindNotFound, true},
		{"pgx serialization", &pgconn.PgError{Code: "40001", Message: "could not serialize access"}, again.KindConflict, true},
		{"pq too many connections", &pq.Error{Code: "53300"}, again.KindOverloaded, true},
		{"wrapped pq", fmt.Errorf("exec: %w", &pq.Error{Code: "57P01"}), again.KindUnavailable, true},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), again.KindCancelled, true},
		{"tx closed", pgx.ErrTxClosed, again.KindInvalidArgument, true},
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
