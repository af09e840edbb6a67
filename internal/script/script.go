// Package script parses failure scripts for the simulate command. A script
// is a comma separated list of steps, each run by one attempt:
//
//	overloaded*2,cancelled,ok
//
// A step is a failure kind name, optionally repeated with *count, "ok" for
// success, or "hang" for an attempt that blocks until its context is done.
// The last step repeats once the script runs out.
package script

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"andy.dev/again"
)

// ErrEmpty is returned for a script without steps.
var ErrEmpty = errors.New("script: no steps")

// MaxSteps bounds the length of a script once repeats are expanded.
const MaxSteps = 10_000

const (
	stepOK   = "ok"
	stepHang = "hang"
)

// Step is a single scripted attempt.
type Step struct {
	OK   bool
	Hang bool
	Kind again.Kind
}

func (s Step) String() string {
	switch {
	case s.OK:
		return stepOK
	case s.Hang:
		return stepHang
	default:
		return s.Kind.String()
	}
}

// Script is a parsed, immutable sequence of steps.
type Script []Step

// Parse parses a script.
func Parse(src string) (Script, error) {
	var out Script
	for i, field := range strings.Split(src, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		name, count := field, 1
		if n, c, ok := strings.Cut(field, "*"); ok {
			var err error
			count, err = strconv.Atoi(strings.TrimSpace(c))
			if err != nil || count < 1 {
				return nil, fmt.Errorf("script: step %d (%s): invalid count %q", i, field, c)
			}
			name = strings.TrimSpace(n)
		}
		var step Step
		switch strings.ToLower(name) {
		case stepOK:
			step.OK = true
		case stepHang:
			step.Hang = true
		default:
			k, err := again.ParseKind(name)
			if err != nil {
				return nil, fmt.Errorf("script: step %d: %w", i, err)
			}
			step.Kind = k
		}
		if count > MaxSteps-len(out) {
			return nil, fmt.Errorf("script: step %d (%s): more than %d steps", i, field, MaxSteps)
		}
		for range count {
			out = append(out, step)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func (s Script) String() string {
	parts := make([]string, 0, len(s))
	for i := 0; i < len(s); {
		j := i + 1
		for j < len(s) && s[j] == s[i] {
			j++
		}
		if n := j - i; n > 1 {
			parts = append(parts, fmt.Sprintf("%s*%d", s[i], n))
		} else {
			parts = append(parts, s[i].String())
		}
		i = j
	}
	return strings.Join(parts, ",")
}

// Operation returns a fresh operation playing s from the start. On success it
// returns the number of the attempt that succeeded. Operations must not be
// shared between executions.
func (s Script) Operation() again.Operation[int] {
	pos := 0
	return again.OperationFunc[int](func(ctx context.Context) (int, error) {
		step := s[min(pos, len(s)-1)]
		pos++
		switch {
		case step.OK:
			return pos, nil
		case step.Hang:
			<-ctx.Done()
			return 0, ctx.Err()
		default:
			return 0, again.Failf(step.Kind, "scripted failure at step %d", pos)
		}
	})
}
