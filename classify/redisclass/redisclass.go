// Package redisclass classifies errors returned by go-redis.
package redisclass

import (
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"andy.dev/again"
)

// prefixes maps the leading word of a Redis server error to a kind.
var prefixes = map[string]again.Kind{
	"LOADING":     again.KindUnavailable,
	"BUSY":        again.KindUnavailable,
	"TRYAGAIN":    again.KindUnavailable,
	"CLUSTERDOWN": again.KindUnavailable,
	"MASTERDOWN":  again.KindUnavailable,
	"READONLY":    again.KindUnavailable,
	"MOVED":       again.KindUnavailable,
	"ASK":         again.KindUnavailable,
	"OOM":         again.KindOverloaded,
	"WRONGTYPE":   again.KindInvalidArgument,
	"NOSCRIPT":    again.KindInvalidArgument,
	"ERR":         again.KindInvalidArgument,
	"EXECABORT":   again.KindConflict,
}

// Classify classifies go-redis client and server errors.
func Classify(err error) (again.Kind, bool) {
	switch {
	case err == nil:
		return again.KindGeneric, false
	case errors.Is(err, redis.Nil):
		return again.KindNotFound, true
	case errors.Is(err, redis.TxFailedErr):
		// a WATCHed key changed before EXEC
		return again.KindConflict, true
	case errors.Is(err, redis.ErrClosed):
		return again.KindInvalidArgument, true
	}
	var rerr redis.Error
	if errors.As(err, &rerr) {
		word, _, _ := strings.Cut(rerr.Error(), " ")
		if k, ok := prefixes[word]; ok {
			return k, true
		}
		return again.KindGeneric, true
	}
	return again.KindGeneric, false
}
