package skills

import (
	"context"

	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/logger"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
)

// NewDiscoveryFromConfig builds a Discovery from the skills section of cfg.
func NewDiscoveryFromConfig(cfg config.Config, catalog *skilltypes.Catalog) (*Discovery, error) {
	return NewDiscovery(
		WithDir(cfg.SkillsDir),
		WithCatalog(catalog),
		WithInterpreter(cfg.Skills.Interpret),
		WithAllowed(cfg.Skills.Allowed...),
	)
}

// Initialize discovers and binds skills based on configuration.
// Discovery problems never fail initialisation; they are logged and
// returned in the report so the caller decides how to proceed.
func Initialize(ctx context.Context, cfg config.Config, catalog *skilltypes.Catalog) (map[string]*Unit, *Report, error) {
	discovery, err := NewDiscoveryFromConfig(cfg, catalog)
	if err != nil {
		return nil, nil, err
	}

	allSkills, report := discovery.DiscoverSkills(ctx)
	if err := report.Err(); err != nil {
		logger.G(ctx).WithError(err).Debug("some skills failed to load")
	}

	return allSkills, report, nil
}
