package again

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why an operation failed. It is the key a [Chain] uses to
// select a [Policy].
//
// The set of kinds is closed: switch statements over Kind can be checked for
// exhaustiveness by linters.
type Kind uint8

const (
	// KindGeneric is any failure that carries no better classification.
	KindGeneric Kind = iota
	// KindCancelled is an attempt that was cancelled while in flight, or a
	// retry loop cancelled by the caller.
	KindCancelled
	// KindOverloaded means the server is shedding load (throttling, rate
	// limits, too many connections).
	KindOverloaded
	// KindUnavailable means the server or a node is temporarily unreachable.
	KindUnavailable
	// KindConflict is a CAS mismatch, a lost transaction race or a duplicate.
	KindConflict
	// KindNotFound means the target document or row does not exist.
	KindNotFound
	// KindInvalidArgument means the request itself is malformed.
	KindInvalidArgument
	// KindRetriesExhausted is returned by the orchestrator once a policy has
	// used up its attempts.
	KindRetriesExhausted
	// KindTimedOut is returned by the orchestrator when the overall [Timeout]
	// expires.
	KindTimedOut

	numKinds
)

var kindNames = [numKinds]string{
	KindGeneric:          "generic",
	KindCancelled:        "cancelled",
	KindOverloaded:       "overloaded",
	KindUnavailable:      "unavailable",
	KindConflict:         "conflict",
	KindNotFound:         "not_found",
	KindInvalidArgument:  "invalid_argument",
	KindRetriesExhausted: "retries_exhausted",
	KindTimedOut:         "timed_out",
}

// transience is looked up by kind, never derived from an error's type.
var transience = [numKinds]bool{
	KindCancelled:   true,
	KindOverloaded:  true,
	KindUnavailable: true,
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// Transient reports whether retrying a failure of this kind can plausibly
// succeed.
func (k Kind) Transient() bool {
	if !k.Valid() {
		return false
	}
	return transience[k]
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("again: invalid kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting the names
// produced by [Kind.String].
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name. Matching is case-insensitive and accepts
// dashes or spaces in place of underscores.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for k, name := range kindNames {
		if name == norm {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("again: unknown failure kind %q", s)
}

// Failure is an error tagged with a [Kind]. Operations return it (or any error
// implementing FailureKind) so a [Chain] can match on the kind.
type Failure struct {
	Kind Kind
	Err  error
}

// Fail tags err with kind. A nil err is replaced by a generic message so that
// the returned value is always a usable error.
func Fail(kind Kind, err error) *Failure {
	if err == nil {
		err = errors.New(kind.String())
	}
	return &Failure{Kind: kind, Err: err}
}

// Failf is [Fail] with a formatted message.
func Failf(kind Kind, format string, a ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, a...)}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap allows a *Failure to work with [errors.Is] and [errors.As].
func (f *Failure) Unwrap() error {
	return f.Err
}

// FailureKind returns the failure's kind.
func (f *Failure) FailureKind() Kind {
	return f.Kind
}

// kinded is implemented by any error that classifies itself.
type kinded interface {
	error
	FailureKind() Kind
}

// KindOf returns the kind of err and whether err carried one explicitly,
// either through FailureKind or as a context cancellation. Untagged errors
// report KindGeneric and false.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return KindGeneric, false
	}
	var ke kinded
	if errors.As(err, &ke) {
		return ke.FailureKind(), true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled, true
	}
	return KindGeneric, false
}
