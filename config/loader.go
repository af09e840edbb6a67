package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"andy.dev/again"
)

// Load reads a chain definition from a YAML file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a chain definition, expanding environment variables first
// and applying defaults after. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	var f File
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range f.Policies {
		p := &f.Policies[i]
		if p.MaxAttempts == 0 {
			p.MaxAttempts = DefaultMaxAttempts
		}
		if p.Backoff.Type == "" {
			p.Backoff.Type = TypeExponential
			if p.Backoff.Base == 0 {
				p.Backoff.Base = again.DefaultBaseDelay
			}
			if p.Backoff.Cap == 0 {
				p.Backoff.Cap = again.DefaultMaxDelay
			}
		}
	}

	return &f, nil
}
