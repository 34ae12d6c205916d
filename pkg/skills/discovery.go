package skills

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillctl/pkg/logger"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
)

// DefaultDir is the skills directory used when none is configured.
const DefaultDir = "./skills"

// Discovery handles skill discovery from a configured directory
type Discovery struct {
	dir       string
	catalog   *skilltypes.Catalog
	interpret bool
	allowed   []glob.Glob
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithDir sets the skills directory
func WithDir(dir string) Option {
	return func(d *Discovery) error {
		if dir == "" {
			return errors.New("skills directory cannot be empty")
		}
		d.dir = dir
		return nil
	}
}

// WithCatalog sets the table of compiled skills ready units are bound to
func WithCatalog(catalog *skilltypes.Catalog) Option {
	return func(d *Discovery) error {
		d.catalog = catalog
		return nil
	}
}

// WithInterpreter enables or disables interpreting sources that have no
// catalog entry
func WithInterpreter(enabled bool) Option {
	return func(d *Discovery) error {
		d.interpret = enabled
		return nil
	}
}

// WithAllowed restricts loaded skills to names matching any of the glob
// patterns. An empty list allows everything.
func WithAllowed(patterns ...string) Option {
	return func(d *Discovery) error {
		d.allowed = d.allowed[:0]
		for _, pattern := range patterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				return errors.Wrapf(err, "invalid skill pattern %q", pattern)
			}
			d.allowed = append(d.allowed, g)
		}
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{
		dir:       DefaultDir,
		interpret: true,
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Dir returns the directory being scanned.
func (d *Discovery) Dir() string {
	return d.dir
}

// Report aggregates the non-fatal problems found during a scan.
type Report struct {
	Dir      string
	Warnings []error
	Errors   *multierror.Error
}

// Err returns the aggregated load errors, or nil.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	return r.Errors.ErrorOrNil()
}

// HasProblems reports whether the scan was degraded in any way.
func (r *Report) HasProblems() bool {
	return r != nil && (len(r.Warnings) > 0 || r.Err() != nil)
}

func (r *Report) addLoadError(file string, err error) {
	r.Errors = multierror.Append(r.Errors, &LoadError{File: file, Err: err})
}

// Artifacts lists candidate skill source files in the directory, sorted.
func (d *Discovery) Artifacts() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, &DiscoveryError{Dir: d.dir, Err: err}
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsSkillArtifact(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(d.dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ListSkillNames returns the names of all candidate artifacts on disk
func (d *Discovery) ListSkillNames() ([]string, error) {
	files, err := d.Artifacts()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, SkillName(f))
	}
	return names, nil
}

// Scan statically inspects every artifact without binding it. Artifacts
// that fail to parse are still returned as discovered units so that the
// inventory stays complete, and are reported as load errors.
func (d *Discovery) Scan(ctx context.Context) ([]*Unit, *Report) {
	report := &Report{Dir: d.dir}

	files, err := d.Artifacts()
	if err != nil {
		logger.G(ctx).WithError(err).Warn("skill discovery degraded")
		report.Warnings = append(report.Warnings, err)
		return nil, report
	}

	units := make([]*Unit, 0, len(files))
	for _, file := range files {
		unit, err := Inspect(file)
		if err != nil {
			report.addLoadError(file, err)
			logger.G(ctx).WithError(err).WithField("file", file).Warn("failed to inspect skill")
			if unit == nil {
				continue
			}
		}
		units = append(units, unit)
	}

	return units, report
}

// DiscoverSkills finds and binds all available skills. Units that cannot
// be parsed or bound are skipped and reported; discovered units are kept
// but carry no callable.
func (d *Discovery) DiscoverSkills(ctx context.Context) (map[string]*Unit, *Report) {
	report := &Report{Dir: d.dir}
	skills := make(map[string]*Unit)

	files, err := d.Artifacts()
	if err != nil {
		logger.G(ctx).WithError(err).Warn("skill discovery degraded")
		report.Warnings = append(report.Warnings, err)
		return skills, report
	}

	for _, file := range files {
		name := SkillName(file)
		if !d.isAllowed(name) {
			logger.G(ctx).WithField("name", name).Debug("skipping skill, not in allowlist")
			continue
		}

		unit, err := Inspect(file)
		if err != nil {
			report.addLoadError(file, err)
			logger.G(ctx).WithError(err).WithField("file", file).Warn("failed to load skill")
			continue
		}

		if unit.Status == skilltypes.StatusReady {
			skill, err := d.bind(unit)
			if err != nil {
				report.addLoadError(file, err)
				logger.G(ctx).WithError(err).WithField("file", file).Warn("failed to bind skill")
				continue
			}
			unit.Skill = skill
		}

		skills[unit.Name] = unit
		logger.G(ctx).WithField("name", unit.Name).WithField("status", unit.Status).Debug("loaded skill")
	}

	logger.G(ctx).WithField("count", len(skills)).Debug("discovered skills")
	return skills, report
}

func (d *Discovery) bind(unit *Unit) (skilltypes.Skill, error) {
	if skill, ok := d.catalog.Lookup(unit.Name); ok {
		return skill, nil
	}
	if !d.interpret {
		return nil, errors.Errorf("no compiled skill named '%s' and interpretation is disabled", unit.Name)
	}
	return interpretUnit(unit)
}

func (d *Discovery) isAllowed(name string) bool {
	if len(d.allowed) == 0 {
		return true
	}
	for _, g := range d.allowed {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// GetSkill returns a specific skill by name
func (d *Discovery) GetSkill(ctx context.Context, name string) (*Unit, error) {
	skills, _ := d.DiscoverSkills(ctx)

	skill, exists := skills[name]
	if !exists {
		return nil, errors.Errorf("skill '%s' not found", name)
	}

	return skill, nil
}
