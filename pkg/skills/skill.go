// Package skills discovers skill source artifacts in a directory and binds
// them to callable skills. Each artifact is a Go source file; its readiness
// is decided by static inspection of its Execute entry point, and ready
// units are bound either to a compiled catalog entry of the same name or,
// when no entry exists, to the interpreted source itself.
package skills

import (
	"fmt"
	"time"

	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
)

// UnknownVersion is recorded when an artifact declares no version.
const UnknownVersion = "unknown"

// NoInterface is recorded when an artifact has no conforming entry point.
const NoInterface = "none"

// Unit represents a discovered skill with its metadata
type Unit struct {
	Name        string                // Base name of the source file
	Version     string                // Declared Version, or "unknown"
	Description string                // First line of the package doc comment
	Interface   string                // Human-readable entry point signature
	Status      skilltypes.UnitStatus // ready or discovered
	File        string                // Full path to the source artifact
	Fingerprint string                // Short content hash
	ScannedAt   time.Time             // When the artifact was inspected

	// Package is the Go package clause of the artifact.
	Package string
	// TakesContext is set when Execute accepts a leading context.Context.
	TakesContext bool
	// ReturnsError is set when Execute returns (map, error).
	ReturnsError bool

	// Skill is the bound callable. It is nil for discovered units.
	Skill skilltypes.Skill
}

// Ready reports whether the unit can be invoked.
func (u *Unit) Ready() bool {
	return u != nil && u.Status == skilltypes.StatusReady && u.Skill != nil
}

// DiscoveryError reports a skills directory that is missing or unreadable.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("skills directory not found: %s: %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// LoadError reports a source artifact that could not be turned into a unit.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load skill %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
