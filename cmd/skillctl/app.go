package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/presenter"
	"github.com/jingkaihe/skillctl/pkg/registry"
	"github.com/jingkaihe/skillctl/pkg/skills"
	"github.com/jingkaihe/skillctl/pkg/skills/builtin"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
)

// newCatalog returns the compiled skills wired to production collaborators.
func newCatalog(cfg config.Config) (*skilltypes.Catalog, error) {
	deps, err := builtin.DepsFromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "invalid fetch configuration")
	}
	return builtin.NewCatalog(deps), nil
}

// loadSkills discovers and binds skills, reporting any degradation.
func loadSkills(ctx context.Context, cfg config.Config) (map[string]*skills.Unit, error) {
	catalog, err := newCatalog(cfg)
	if err != nil {
		return nil, err
	}
	units, report, err := skills.Initialize(ctx, cfg, catalog)
	if err != nil {
		return nil, err
	}
	reportDiscovery(ctx, report)
	return units, nil
}

func newDiscovery(cfg config.Config) (*skills.Discovery, error) {
	catalog, err := newCatalog(cfg)
	if err != nil {
		return nil, err
	}
	return skills.NewDiscoveryFromConfig(cfg, catalog)
}

func newStore(cfg config.Config) *registry.Store {
	return registry.NewStore(cfg.RegistryPath)
}

// reportDiscovery surfaces warnings and load errors. In JSON mode they go
// to the log so that stdout stays machine readable.
func reportDiscovery(ctx context.Context, report *skills.Report) {
	if !report.HasProblems() {
		return
	}

	var messages []string
	for _, w := range report.Warnings {
		messages = append(messages, w.Error())
	}
	if merr, ok := report.Err().(*multierror.Error); ok {
		for _, e := range merr.Errors {
			messages = append(messages, e.Error())
		}
	}

	for _, msg := range messages {
		if jsonOutput() {
			logger.G(ctx).Warn(msg)
			continue
		}
		presenter.Warning(msg)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n-3])
}
