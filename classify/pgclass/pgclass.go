// Package pgclass classifies PostgreSQL errors from pgx and lib/pq by their
// SQLSTATE code.
package pgclass

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"andy.dev/again"
)

// SQLState maps a five character SQLSTATE code to a kind.
func SQLState(code string) (again.Kind, bool) {
	switch code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"23505", // unique_violation
		"55P03": // lock_not_available
		return again.KindConflict, true
	case "57014": // query_canceled
		return again.KindCancelled, true
	case "57P01", "57P02", "57P03": // admin_shutdown, crash_shutdown, cannot_connect_now
		return again.KindUnavailable, true
	case "53300": // too_many_connections
		return again.KindOverloaded, true
	}
	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return again.KindUnavailable, true
	case strings.HasPrefix(code, "53"): // insufficient resources
		return again.KindOverloaded, true
	case strings.HasPrefix(code, "22"), // data exception
		strings.HasPrefix(code, "42"): // syntax error or access rule violation
		return again.KindInvalidArgument, true
	case strings.HasPrefix(code, "23"): // other integrity constraint violations
		return again.KindInvalidArgument, true
	}
	return again.KindGeneric, false
}

// Classify classifies errors returned by pgx, lib/pq and database/sql.
func Classify(err error) (again.Kind, bool) {
	if err == nil {
		return again.KindGeneric, false
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return again.KindNotFound, true
	}
	if errors.Is(err, pgx.ErrTxClosed) || errors.Is(err, sql.ErrTxDone) {
		return again.KindInvalidArgument, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return SQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return SQLState(string(pqErr.Code))
	}
	if pgconn.Timeout(err) {
		return again.KindCancelled, true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return again.KindUnavailable, true
	}
	return again.KindGeneric, false
}
