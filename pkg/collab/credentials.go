// Package collab holds the external collaborators some skills are handed:
// a credential resolver for push tokens, a git client and a markdown
// fetcher. They are thin I/O wrappers behind small interfaces so skills can
// be exercised against fakes.
package collab

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoCredentials is returned when no push token can be resolved.
var ErrNoCredentials = errors.New("no push token configured")

// CredentialResolver provides the token used to push to a remote.
type CredentialResolver interface {
	Token(ctx context.Context) (string, error)
}

// EnvCredentials resolves a token from the first non-empty environment
// variable in Vars.
type EnvCredentials struct {
	Vars   []string
	lookup func(string) (string, bool)
}

// NewEnvCredentials creates a resolver consulting vars in order.
func NewEnvCredentials(vars ...string) *EnvCredentials {
	return &EnvCredentials{
		Vars:   vars,
		lookup: os.LookupEnv,
	}
}

// Token returns the first configured token.
func (c *EnvCredentials) Token(_ context.Context) (string, error) {
	lookup := c.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, name := range c.Vars {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", errors.Wrapf(ErrNoCredentials, "checked %s", strings.Join(c.Vars, ", "))
}

// StaticCredentials always returns the same token.
type StaticCredentials string

// Token returns the static token, or ErrNoCredentials when empty.
func (s StaticCredentials) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredentials
	}
	return string(s), nil
}
