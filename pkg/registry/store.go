// Package registry maintains the persisted catalog of skill metadata: a
// YAML document rebuilt from the skills directory and verified against it.
package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jingkaihe/skillctl/pkg/skills"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"gopkg.in/yaml.v3"
)

// Version is written to every document's metadata.
const Version = "1.0"

// ErrRegistryNotFound is returned when the store file does not exist.
var ErrRegistryNotFound = errors.New("registry not found")

// Entry is the persisted metadata of one skill.
type Entry struct {
	Version     string                `yaml:"version" json:"version"`
	Description string                `yaml:"description" json:"description"`
	Interface   string                `yaml:"interface" json:"interface"`
	Status      skilltypes.UnitStatus `yaml:"status" json:"status"`
	File        string                `yaml:"file" json:"file"`
	Fingerprint string                `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	LastScanned time.Time             `yaml:"last_scanned" json:"last_scanned"`
}

// Metadata summarises a document.
type Metadata struct {
	TotalSkills      int       `yaml:"total_skills" json:"total_skills"`
	ReadySkills      int       `yaml:"ready_skills" json:"ready_skills"`
	DiscoveredSkills int       `yaml:"discovered_skills" json:"discovered_skills"`
	LastScanned      time.Time `yaml:"last_scanned" json:"last_scanned"`
	RegistryVersion  string    `yaml:"registry_version" json:"registry_version"`
}

// Document is the whole registry as stored on disk.
type Document struct {
	Skills   map[string]Entry `yaml:"skills" json:"skills"`
	Metadata Metadata         `yaml:"metadata" json:"metadata"`
}

// NewDocument builds a document from scanned units.
func NewDocument(units []*skills.Unit, scannedAt time.Time) *Document {
	doc := &Document{
		Skills: make(map[string]Entry, len(units)),
		Metadata: Metadata{
			LastScanned:     scannedAt.UTC(),
			RegistryVersion: Version,
		},
	}

	for _, u := range units {
		doc.Skills[u.Name] = Entry{
			Version:     u.Version,
			Description: u.Description,
			Interface:   u.Interface,
			Status:      u.Status,
			File:        u.File,
			Fingerprint: u.Fingerprint,
			LastScanned: u.ScannedAt.UTC(),
		}
		if u.Status == skilltypes.StatusReady {
			doc.Metadata.ReadySkills++
		} else {
			doc.Metadata.DiscoveredSkills++
		}
	}
	doc.Metadata.TotalSkills = len(doc.Skills)

	return doc
}

// Names returns the registered skill names, sorted.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Skills))
	for name := range d.Skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseError reports a store file that exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse registry %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Store reads and writes the registry document at a single path.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// owns reports whether path is the store file or one of its companions.
func (s *Store) owns(path string) bool {
	clean := filepath.Clean(path)
	target := filepath.Clean(s.path)
	if clean == target || clean == filepath.Clean(s.lockPath()) {
		return true
	}
	ok, _ := filepath.Match(filepath.Join(filepath.Dir(target), tempPattern(target)), clean)
	return ok
}

func tempPattern(path string) string {
	return "." + filepath.Base(path) + ".tmp-*"
}

// Write replaces the whole store with doc. The new content is written to
// a temporary file in the same directory, synced and renamed over the
// target, so readers see either the old or the new document. Concurrent
// writers are serialised through a lock file.
func (s *Store) Write(doc *Document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create registry directory")
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal registry")
	}

	unlock, err := lockedfile.MutexAt(s.lockPath()).Lock()
	if err != nil {
		return errors.Wrap(err, "failed to lock registry")
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, tempPattern(s.path))
	if err != nil {
		return errors.Wrap(err, "failed to create temporary registry file")
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write registry")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync registry")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close registry")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrap(err, "failed to set registry permissions")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "failed to replace registry")
	}
	committed = true

	return nil
}

// Read loads the document. A missing file yields ErrRegistryNotFound and
// undecodable content a *ParseError.
func (s *Store) Read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRegistryNotFound, s.path)
		}
		return nil, errors.Wrap(err, "failed to read registry")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: s.path, Err: errors.New("empty document")}
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	if doc.Skills == nil {
		doc.Skills = map[string]Entry{}
	}
	return &doc, nil
}
