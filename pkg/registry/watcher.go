package registry

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/skills"
	"github.com/pkg/errors"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Watcher rebuilds the store whenever a skill artifact in the directory
// changes.
type Watcher struct {
	builder  *Builder
	dir      string
	debounce time.Duration

	// OnRebuild, when set, is called after every rebuild attempt.
	OnRebuild func(doc *Document, err error)
}

// NewWatcher creates a watcher for the builder's directory.
func NewWatcher(builder *Builder, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		builder:  builder,
		dir:      builder.discovery.Dir(),
		debounce: debounce,
	}
}

// relevant reports whether an event should trigger a rebuild.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.builder.store.owns(event.Name) {
		return false
	}
	return skills.IsSkillArtifact(filepath.Base(event.Name))
}

// Run builds once, then watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.dir)
	}

	w.rebuild(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.G(ctx).WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("skill change detected")
			timer.Reset(w.debounce)
		case <-timer.C:
			w.rebuild(ctx)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("error watching skills directory")
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	doc, _, err := w.builder.Build(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("registry rebuild failed")
	}
	if w.OnRebuild != nil {
		w.OnRebuild(doc, err)
	}
}
