// Validates files against blocked patterns before they are committed.
package main

import (
	"path"
	"strings"
)

const Version = "1.0.0"

var blocked = []string{".env", "*.env", ".env.*", "*.pem", "*.key", "id_rsa*", "credentials.json"}

// Execute splits input files into validated and blocked sets.
func Execute(input map[string]any) (map[string]any, error) {
	validated := []string{}
	rejected := []string{}

	files, _ := input["files"].([]any)
	for _, f := range files {
		name, ok := f.(string)
		if !ok {
			continue
		}
		if isBlocked(name) {
			rejected = append(rejected, name)
		} else {
			validated = append(validated, name)
		}
	}

	return map[string]any{
		"validated_files":   validated,
		"blocked_files":     rejected,
		"validation_passed": len(files) > 0 && len(rejected) == 0,
	}, nil
}

func isBlocked(file string) bool {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	for _, p := range blocked {
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}
