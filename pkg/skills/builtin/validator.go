package builtin

import (
	"context"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// DefaultBlockedPatterns match files that must never be committed.
var DefaultBlockedPatterns = []string{
	".env",
	"*.env",
	".env.*",
	"*.pem",
	"*.key",
	"id_rsa*",
	"**/secrets/**",
	"credentials.json",
}

// ValidatorInput is the input of mock_validator.
type ValidatorInput struct {
	Files           []string `mapstructure:"files" json:"files" jsonschema:"required,description=Paths to validate"`
	BlockedPatterns []string `mapstructure:"blocked_patterns" json:"blocked_patterns,omitempty" jsonschema:"description=Glob patterns of files to reject (defaults to secrets and env files)"`
}

// ValidatorOutput is the output of mock_validator.
type ValidatorOutput struct {
	ValidatedFiles   []string `mapstructure:"validated_files"`
	BlockedFiles     []string `mapstructure:"blocked_files"`
	ValidationPassed bool     `mapstructure:"validation_passed"`
}

// Validate splits files into validated and blocked sets. A file is blocked
// when its slash path or its base name matches any blocked pattern.
// Rejecting every input is a business outcome, not an error.
func Validate(_ context.Context, in ValidatorInput) (ValidatorOutput, error) {
	patterns := in.BlockedPatterns
	if len(patterns) == 0 {
		patterns = DefaultBlockedPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return ValidatorOutput{}, errors.Errorf("invalid blocked pattern %q", p)
		}
	}

	out := ValidatorOutput{
		ValidatedFiles: []string{},
		BlockedFiles:   []string{},
	}
	for _, f := range in.Files {
		if isBlocked(f, patterns) {
			out.BlockedFiles = append(out.BlockedFiles, f)
		} else {
			out.ValidatedFiles = append(out.ValidatedFiles, f)
		}
	}
	out.ValidationPassed = len(in.Files) > 0 && len(out.BlockedFiles) == 0

	return out, nil
}

func isBlocked(file string, patterns []string) bool {
	slashed := filepath.ToSlash(file)
	base := path.Base(slashed)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, slashed); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}
