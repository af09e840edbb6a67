// Package config loads retry chains from YAML files:
//
//	timeout: 5s
//	policies:
//	  - name: overload
//	    kinds: [overloaded, unavailable]
//	    max_attempts: 5
//	    backoff:
//	      type: exponential
//	      base: 50ms
//	      cap: 2s
//	  - name: cas
//	    kinds: [conflict]
//	    max_attempts: 3
//	    backoff:
//	      type: jittered
//	      low: 5ms
//	      high: 25ms
//
// Environment variables in the file are expanded before parsing.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"andy.dev/again"
	"andy.dev/again/backoff"
)

// DefaultMaxAttempts is used for policies that do not set max_attempts.
const DefaultMaxAttempts = 3

// Backoff types.
const (
	TypeImmediate   = "immediate"
	TypeFixed       = "fixed"
	TypeLinear      = "linear"
	TypeExponential = "exponential"
	TypeJittered    = "jittered"
	TypeSoft        = "soft"
)

// ErrUnknownBackoff is returned for an unrecognised backoff type.
var ErrUnknownBackoff = errors.New("unknown backoff type")

// File is the root of a chain definition.
type File struct {
	// Timeout bounds each execution. Zero disables it.
	Timeout  time.Duration `yaml:"timeout"`
	Policies []PolicySpec  `yaml:"policies"`
}

// PolicySpec defines one again.Policy.
type PolicySpec struct {
	Name        string       `yaml:"name"`
	Kinds       []again.Kind `yaml:"kinds"`
	MaxAttempts int          `yaml:"max_attempts"`
	Backoff     BackoffSpec  `yaml:"backoff"`
}

// BackoffSpec selects and parameterises a backoff function. Which fields are
// used depends on Type:
//
//	immediate:   none
//	fixed:       delay
//	linear:      delay, cap
//	exponential: base, cap
//	jittered:    low, high
//	soft:        base (initial median), cap
type BackoffSpec struct {
	Type  string        `yaml:"type"`
	Delay time.Duration `yaml:"delay"`
	Base  time.Duration `yaml:"base"`
	Cap   time.Duration `yaml:"cap"`
	Low   time.Duration `yaml:"low"`
	High  time.Duration `yaml:"high"`
}

// Func builds the backoff function described by b.
func (b BackoffSpec) Func() (backoff.Func, error) {
	for name, d := range map[string]time.Duration{
		"delay": b.Delay, "base": b.Base, "cap": b.Cap, "low": b.Low, "high": b.High,
	} {
		if d < 0 {
			return nil, fmt.Errorf("backoff %s must not be negative, got %v", name, d)
		}
	}
	switch strings.ToLower(b.Type) {
	case TypeImmediate:
		return backoff.Immediate(), nil
	case TypeFixed:
		return backoff.Fixed(b.Delay), nil
	case TypeLinear:
		f := backoff.Linear(b.Delay)
		if b.Cap > 0 {
			f = f.Capped(b.Cap)
		}
		return f, nil
	case TypeExponential:
		return backoff.Exponential(b.Base, b.Cap), nil
	case TypeJittered:
		if b.High < b.Low {
			return nil, fmt.Errorf("jittered backoff high (%v) is less than low (%v)", b.High, b.Low)
		}
		return backoff.Jittered(b.Low, b.High), nil
	case TypeSoft:
		return backoff.SoftExponential(b.Base, b.Cap), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackoff, b.Type)
	}
}

// String describes b in one line, as printed by the CLI.
func (b BackoffSpec) String() string {
	switch strings.ToLower(b.Type) {
	case TypeFixed:
		return fmt.Sprintf("fixed %v", b.Delay)
	case TypeLinear:
		if b.Cap > 0 {
			return fmt.Sprintf("linear %v cap %v", b.Delay, b.Cap)
		}
		return fmt.Sprintf("linear %v", b.Delay)
	case TypeExponential:
		return fmt.Sprintf("exponential %v cap %v", b.Base, b.Cap)
	case TypeJittered:
		return fmt.Sprintf("jittered %v-%v", b.Low, b.High)
	case TypeSoft:
		return fmt.Sprintf("soft median %v cap %v", b.Base, b.Cap)
	default:
		return b.Type
	}
}

// Policy builds the again.Policy described by p.
func (p PolicySpec) Policy() (again.Policy, error) {
	delay, err := p.Backoff.Func()
	if err != nil {
		return again.Policy{}, err
	}
	return again.Policy{
		Name:        p.Name,
		Kinds:       p.Kinds,
		MaxAttempts: p.MaxAttempts,
		Delay:       delay,
	}, nil
}

// Chain builds the chain described by f.
func (f *File) Chain() (*again.Chain, error) {
	policies := make([]again.Policy, 0, len(f.Policies))
	for i, spec := range f.Policies {
		p, err := spec.Policy()
		if err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, spec.Name, err)
		}
		policies = append(policies, p)
	}
	return again.NewChain(policies...)
}

// Options returns the execution options configured in f.
func (f *File) Options() []again.Option {
	if f.Timeout <= 0 {
		return nil
	}
	return []again.Option{again.Timeout(f.Timeout)}
}

func (f *File) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Execution")
	if f.Timeout > 0 {
		addField("Timeout", f.Timeout.String())
	} else {
		addField("Timeout", "none")
	}
	addField("Policies", strconv.Itoa(len(f.Policies)))

	for i, p := range f.Policies {
		addSection(fmt.Sprintf("Policy %d: %s", i, p.Name))
		kinds := make([]string, len(p.Kinds))
		for j, k := range p.Kinds {
			kinds[j] = k.String()
		}
		addField("Kinds", strings.Join(kinds, ", "))
		addField("Max Attempts", strconv.Itoa(p.MaxAttempts))
		addField("Backoff", p.Backoff.String())
	}

	return sb.String()
}
