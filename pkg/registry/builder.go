package registry

import (
	"context"
	"time"

	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/skills"
)

// Builder rebuilds the store from the current contents of a skills
// directory. A build always replaces the whole document.
type Builder struct {
	discovery *skills.Discovery
	store     *Store
	now       func() time.Time
}

// NewBuilder creates a builder scanning with discovery and writing to store.
func NewBuilder(discovery *skills.Discovery, store *Store) *Builder {
	return &Builder{
		discovery: discovery,
		store:     store,
		now:       time.Now,
	}
}

// Build scans the directory and writes a fresh document. Artifacts that
// fail to parse are still registered as discovered and reported. When the
// directory itself cannot be read, nothing is written and the
// DiscoveryError is returned so an existing store is never wiped.
func (b *Builder) Build(ctx context.Context) (*Document, *skills.Report, error) {
	units, report := b.discovery.Scan(ctx)
	if len(report.Warnings) > 0 {
		return nil, report, report.Warnings[0]
	}

	doc := NewDocument(units, b.now())
	if err := b.store.Write(doc); err != nil {
		return nil, report, err
	}

	logger.G(ctx).
		WithField("path", b.store.Path()).
		WithField("total", doc.Metadata.TotalSkills).
		WithField("ready", doc.Metadata.ReadySkills).
		WithField("discovered", doc.Metadata.DiscoveredSkills).
		Info("registry rebuilt")

	return doc, report, nil
}
