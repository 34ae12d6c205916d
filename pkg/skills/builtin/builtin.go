// Package builtin provides the compiled skills shipped with skillctl and
// the catalog that binds them to their on-disk source artifacts by name.
package builtin

import (
	"net/http"
	"time"

	"github.com/jingkaihe/skillctl/pkg/collab"
	"github.com/jingkaihe/skillctl/pkg/config"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
)

// Skill names.
const (
	MockValidator = "mock_validator"
	MockCommitter = "mock_committer"
	GitPush       = "git_push"
	FetchMarkdown = "fetch_markdown"
)

const fetchRetryDelay = 200 * time.Millisecond

// Deps are the collaborators handed to built-in skills.
type Deps struct {
	Git     collab.GitClient
	Creds   collab.CredentialResolver
	Fetcher collab.Fetcher
}

// DepsFromConfig returns the production collaborators tuned by cfg.
func DepsFromConfig(cfg config.Config) (Deps, error) {
	domains, err := collab.NewDomainFilter(cfg.Fetch.AllowedDomains)
	if err != nil {
		return Deps{}, err
	}
	return Deps{
		Git:   collab.NewExecGit(),
		Creds: collab.NewEnvCredentials(cfg.Credentials.TokenEnv...),
		Fetcher: collab.NewHTTPFetcher(
			collab.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
			collab.WithRetry(cfg.Fetch.RetryAttempts, fetchRetryDelay),
			collab.WithDomainFilter(domains),
		),
	}, nil
}

// NewCatalog returns a catalog holding every built-in skill.
func NewCatalog(deps Deps) *skilltypes.Catalog {
	c := skilltypes.NewCatalog()

	c.MustRegister(MockValidator, skilltypes.NewTyped(
		"Validates files against blocked patterns", Validate))
	c.MustRegister(MockCommitter, skilltypes.NewTyped(
		"Records a commit of validated files", Commit))

	pusher := &GitPusher{Git: deps.Git, Creds: deps.Creds}
	c.MustRegister(GitPush, skilltypes.NewTyped(
		"Stages, commits and pushes files to a remote", pusher.Push))

	fetcher := &MarkdownFetcher{Fetcher: deps.Fetcher}
	c.MustRegister(FetchMarkdown, skilltypes.NewTyped(
		"Fetches a URL as markdown with its frontmatter", fetcher.Fetch))

	return c
}
