package again

import (
	"fmt"
	"strconv"
	"strings"
)

// kindSet is a bitmask over the closed set of kinds.
type kindSet uint16

func (s kindSet) with(k Kind) kindSet {
	return s | 1<<k
}

func (s kindSet) has(k Kind) bool {
	return k.Valid() && s&(1<<k) != 0
}

func (s kindSet) kinds() []Kind {
	var out []Kind
	for k := Kind(0); k < numKinds; k++ {
		if s.has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s kindSet) String() string {
	names := make([]string, 0, numKinds)
	for _, k := range s.kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, "+")
}

// Chain is an ordered, immutable composition of policies. A failure is handled
// by the policy claiming its kind; a kind claimed by no policy is returned to
// the caller on its first occurrence.
//
// A Chain is safe for concurrent use by any number of executions. The zero
// value and a nil *Chain both claim nothing.
type Chain struct {
	policies []compiled
}

// NewChain validates policies and returns a chain that evaluates them in
// order. Every policy needs at least one kind and a MaxAttempts of at least 1,
// and no kind may be claimed by more than one policy. The policies are copied,
// so later changes to the arguments do not affect the chain.
func NewChain(policies ...Policy) (*Chain, error) {
	c := &Chain{policies: make([]compiled, 0, len(policies))}
	var claimed kindSet
	owner := map[Kind]string{}
	for i, p := range policies {
		cp, err := compile(p)
		if err != nil {
			return nil, fmt.Errorf("policy %d: %w", i, err)
		}
		for _, k := range cp.kinds.kinds() {
			if claimed.has(k) {
				return nil, fmt.Errorf("%w: %s is claimed by both %q and %q", ErrOverlappingKinds, k, owner[k], cp.name)
			}
			claimed = claimed.with(k)
			owner[k] = cp.name
		}
		c.policies = append(c.policies, cp)
	}
	return c, nil
}

// MustChain is like [NewChain] but panics if the policies are invalid. It is
// meant for package-level chains built from literals.
func MustChain(policies ...Policy) *Chain {
	c, err := NewChain(policies...)
	if err != nil {
		panic(err)
	}
	return c
}

// match returns the index and policy claiming kind, or -1.
func (c *Chain) match(kind Kind) (int, compiled) {
	if c == nil {
		return -1, compiled{}
	}
	for i, p := range c.policies {
		if p.kinds.has(kind) {
			return i, p
		}
	}
	return -1, compiled{}
}

// Len returns the number of policies in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.policies)
}

// Claims reports whether any policy handles kind, and if so which one.
func (c *Chain) Claims(kind Kind) (Policy, bool) {
	i, p := c.match(kind)
	if i < 0 {
		return Policy{}, false
	}
	return p.policy(), true
}

// Policies returns a copy of the chain's policies with defaults applied.
func (c *Chain) Policies() []Policy {
	if c == nil {
		return nil
	}
	out := make([]Policy, len(c.policies))
	for i, p := range c.policies {
		out[i] = p.policy()
	}
	return out
}

// NonTransient returns the claimed kinds for which [Kind.Transient] is false.
// The chain retries them anyway; this is a hook for configuration linting.
func (c *Chain) NonTransient() []Kind {
	var out []Kind
	if c == nil {
		return out
	}
	for _, p := range c.policies {
		for _, k := range p.kinds.kinds() {
			if !k.Transient() {
				out = append(out, k)
			}
		}
	}
	return out
}

// String implements fmt.Stringer.
func (c *Chain) String() string {
	if c.Len() == 0 {
		return "chain[]"
	}
	var sb strings.Builder
	sb.WriteString("chain[")
	for i, p := range c.policies {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.name)
		sb.WriteString("{")
		sb.WriteString(p.kinds.String())
		sb.WriteString(" x")
		sb.WriteString(strconv.Itoa(p.maxAttempts))
		sb.WriteString("}")
	}
	sb.WriteString("]")
	return sb.String()
}
