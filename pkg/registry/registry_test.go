package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jingkaihe/skillctl/pkg/skills"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	readySource      = "// Does a thing.\npackage main\n\nconst Version = \"0.1.0\"\n\nfunc Execute(input map[string]any) (map[string]any, error) { return input, nil }\n"
	discoveredSource = "package main\n\nfunc Run() {}\n"
)

type fixture struct {
	dir   string
	store *Store
	disc  *skills.Discovery
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "skills")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	disc, err := skills.NewDiscovery(skills.WithDir(dir))
	require.NoError(t, err)

	return &fixture{
		dir:   dir,
		store: NewStore(filepath.Join(root, ".skillctl", "registry.yaml")),
		disc:  disc,
	}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0o644))
}

func TestBuildThenVerifyHasNoDrift(t *testing.T) {
	f := newFixture(t)
	f.write(t, "mock_validator.go", readySource)
	f.write(t, "mock_committer.go", readySource)
	f.write(t, "legacy.go", discoveredSource)
	f.write(t, "shared_models.go", readySource)
	f.write(t, "registry_builder.go", readySource)

	ctx := context.Background()
	doc, report, err := NewBuilder(f.disc, f.store).Build(ctx)
	require.NoError(t, err)
	assert.False(t, report.HasProblems())

	assert.Equal(t, []string{"legacy", "mock_committer", "mock_validator"}, doc.Names())
	assert.Equal(t, 3, doc.Metadata.TotalSkills)
	assert.Equal(t, 2, doc.Metadata.ReadySkills)
	assert.Equal(t, 1, doc.Metadata.DiscoveredSkills)
	assert.Equal(t, Version, doc.Metadata.RegistryVersion)

	entry := doc.Skills["mock_validator"]
	assert.Equal(t, "0.1.0", entry.Version)
	assert.Equal(t, "Does a thing.", entry.Description)
	assert.Equal(t, skilltypes.StatusReady, entry.Status)

	stored, err := f.store.Read()
	require.NoError(t, err)
	assert.Equal(t, doc.Names(), stored.Names())
	assert.Equal(t, doc.Metadata.TotalSkills, stored.Metadata.TotalSkills)
	assert.Equal(t, entry.Interface, stored.Skills["mock_validator"].Interface)

	drift, err := NewVerifier(f.disc, f.store).Verify(ctx)
	require.NoError(t, err)
	assert.True(t, drift.InSync())
	assert.NoError(t, drift.Err())
	assert.Equal(t, 3, drift.Actual)
	assert.Equal(t, 3, drift.Registered)
}

func TestBuildIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	f.write(t, "b.go", discoveredSource)

	builder := NewBuilder(f.disc, f.store)
	first, _, err := builder.Build(context.Background())
	require.NoError(t, err)
	second, _, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	for name, e := range first.Skills {
		assert.Equal(t, e.Status, second.Skills[name].Status)
		assert.Equal(t, e.Fingerprint, second.Skills[name].Fingerprint)
	}
}

func TestBuildReplacesWholeDocument(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	f.write(t, "b.go", readySource)

	builder := NewBuilder(f.disc, f.store)
	_, _, err := builder.Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.dir, "b.go")))
	doc, _, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, doc.Names())

	stored, err := f.store.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.Names())
}

func TestBuildLeavesNoTemporaryFiles(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)

	for i := 0; i < 3; i++ {
		_, _, err := NewBuilder(f.disc, f.store).Build(context.Background())
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Dir(f.store.Path()))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"registry.yaml", "registry.yaml.lock"}, names)
}

func TestBuildRegistersUnparseableArtifacts(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	f.write(t, "broken.go", "package main\nfunc (\n")

	doc, report, err := NewBuilder(f.disc, f.store).Build(context.Background())
	require.NoError(t, err)
	require.Error(t, report.Err())
	assert.Equal(t, skilltypes.StatusDiscovered, doc.Skills["broken"].Status)

	drift, err := NewVerifier(f.disc, f.store).Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, drift.InSync())
}

func TestBuildMissingDirectoryKeepsStore(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	_, _, err := NewBuilder(f.disc, f.store).Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(f.dir))
	_, _, err = NewBuilder(f.disc, f.store).Build(context.Background())
	require.Error(t, err)
	var discErr *skills.DiscoveryError
	assert.True(t, errors.As(err, &discErr))

	stored, err := f.store.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.Names())
}

func TestVerifyReportsDrift(t *testing.T) {
	f := newFixture(t)
	f.write(t, "mock_validator.go", readySource)
	f.write(t, "mock_committer.go", readySource)
	_, _, err := NewBuilder(f.disc, f.store).Build(context.Background())
	require.NoError(t, err)

	doc, err := f.store.Read()
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		edited := *doc
		edited.Skills = map[string]Entry{"mock_validator": doc.Skills["mock_validator"]}
		require.NoError(t, f.store.Write(&edited))

		drift, err := NewVerifier(f.disc, f.store).Verify(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"mock_committer"}, drift.Missing)
		assert.Empty(t, drift.Extra)

		var driftErr *DriftError
		require.True(t, errors.As(drift.Err(), &driftErr))
		assert.Equal(t, []string{"mock_committer"}, driftErr.Missing)
		assert.Contains(t, driftErr.Error(), "missing from registry: mock_committer")
	})

	t.Run("extra", func(t *testing.T) {
		edited := *doc
		edited.Skills = map[string]Entry{
			"mock_validator": doc.Skills["mock_validator"],
			"mock_committer": doc.Skills["mock_committer"],
			"ghost":          {Status: skilltypes.StatusReady},
		}
		require.NoError(t, f.store.Write(&edited))

		drift, err := NewVerifier(f.disc, f.store).Verify(context.Background())
		require.NoError(t, err)
		assert.Empty(t, drift.Missing)
		assert.Equal(t, []string{"ghost"}, drift.Extra)
		assert.Contains(t, drift.Err().Error(), "not on disk: ghost")
	})
}

func TestVerifyDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	_, _, err := NewBuilder(f.disc, f.store).Build(context.Background())
	require.NoError(t, err)

	before, err := os.ReadFile(f.store.Path())
	require.NoError(t, err)
	f.write(t, "b.go", readySource)

	_, err = NewVerifier(f.disc, f.store).Verify(context.Background())
	require.NoError(t, err)

	after, err := os.ReadFile(f.store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestVerifyMissingRegistry(t *testing.T) {
	f := newFixture(t)
	_, err := NewVerifier(f.disc, f.store).Verify(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegistryNotFound))
}

func TestVerifyUnparseableRegistry(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.store.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("skills: [unterminated"), 0o644))

	v := NewVerifier(f.disc, f.store, WithReadRetry(2, time.Millisecond))
	_, err := v.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drift unknown")
}

func TestVerifyRetriesUntilStoreIsReadable(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.store.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.store.Path(), []byte(""), 0o644))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _, _ = NewBuilder(f.disc, f.store).Build(context.Background())
	}()

	v := NewVerifier(f.disc, f.store, WithReadRetry(50, 10*time.Millisecond))
	drift, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, drift.InSync())
}

func TestVerifyMissingDirectory(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", readySource)
	_, _, err := NewBuilder(f.disc, f.store).Build(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(f.dir))

	drift, err := NewVerifier(f.disc, f.store).Verify(context.Background())
	require.NoError(t, err)
	assert.Len(t, drift.Warnings, 1)
	assert.Equal(t, []string{"a"}, drift.Extra)
}

func TestStoreOwns(t *testing.T) {
	s := NewStore("/tmp/x/registry.yaml")
	assert.True(t, s.owns("/tmp/x/registry.yaml"))
	assert.True(t, s.owns("/tmp/x/registry.yaml.lock"))
	assert.True(t, s.owns("/tmp/x/.registry.yaml.tmp-1234"))
	assert.False(t, s.owns("/tmp/x/skill.go"))
}
