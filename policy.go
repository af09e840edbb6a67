package again

import (
	"fmt"
	"time"

	"andy.dev/again/backoff"
)

const (
	DefaultBaseDelay = 100 * time.Millisecond
	DefaultMaxDelay  = 20 * time.Second
)

// DefaultDelay is used by any [Policy] that leaves Delay unset.
var DefaultDelay = backoff.Exponential(DefaultBaseDelay, DefaultMaxDelay)

// Policy is a bounded retry rule for a set of failure kinds. Policies are
// plain values: configure them once, hand them to [NewChain], and reuse the
// resulting [Chain] for any number of executions.
type Policy struct {
	// Name identifies the policy in errors, logs and metrics.
	// Default: the claimed kinds joined with "+".
	Name string
	// Kinds are the failure kinds this policy handles. Must not be empty.
	Kinds []Kind
	// MaxAttempts is the number of invocations that may fail with one of Kinds
	// before the execution gives up. Must be at least 1; a value of 1 claims
	// the kinds without ever retrying them.
	MaxAttempts int
	// Delay maps the policy's attempt counter to the wait before the next try.
	// Default: DefaultDelay
	Delay backoff.Func
}

// compiled is the validated, private form of a Policy held by a Chain.
type compiled struct {
	name        string
	kinds       kindSet
	maxAttempts int
	delay       backoff.Func
}

func compile(p Policy) (compiled, error) {
	if p.MaxAttempts < 1 {
		return compiled{}, fmt.Errorf("%w: %q: MaxAttempts must be at least 1, got %d", ErrInvalidPolicy, p.Name, p.MaxAttempts)
	}
	if len(p.Kinds) == 0 {
		return compiled{}, fmt.Errorf("%w: %q: no kinds claimed", ErrInvalidPolicy, p.Name)
	}
	var ks kindSet
	for _, k := range p.Kinds {
		if !k.Valid() {
			return compiled{}, fmt.Errorf("%w: %q: %v", ErrInvalidPolicy, p.Name, k)
		}
		if k == KindRetriesExhausted || k == KindTimedOut {
			return compiled{}, fmt.Errorf("%w: %q: %s is terminal and cannot be retried", ErrInvalidPolicy, p.Name, k)
		}
		ks = ks.with(k)
	}
	c := compiled{
		name:        p.Name,
		kinds:       ks,
		maxAttempts: p.MaxAttempts,
		delay:       p.Delay,
	}
	if c.name == "" {
		c.name = ks.String()
	}
	if c.delay == nil {
		c.delay = DefaultDelay
	}
	return c, nil
}

func (c compiled) policy() Policy {
	return Policy{
		Name:        c.name,
		Kinds:       c.kinds.kinds(),
		MaxAttempts: c.maxAttempts,
		Delay:       c.delay,
	}
}

// next returns the delay before retry number attempt, clamped to be
// non-negative regardless of what a custom Delay returns.
func (c compiled) next(attempt int) time.Duration {
	return max(c.delay(attempt), 0)
}
