package builtin

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skillctl/pkg/collab"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/pkg/errors"
)

// GitPushInput is the input of git_push.
type GitPushInput struct {
	RepoDir        string   `mapstructure:"repo_dir" json:"repo_dir,omitempty" jsonschema:"description=Working tree to commit in (defaults to the current directory)"`
	Files          []string `mapstructure:"files" json:"files,omitempty" jsonschema:"description=Files to stage"`
	ValidatedFiles []string `mapstructure:"validated_files" json:"validated_files,omitempty" jsonschema:"description=Files approved by a validator step, used when files is empty"`
	Message        string   `mapstructure:"message" json:"message,omitempty" jsonschema:"description=Commit message (derived from the file list when empty)"`
	Remote         string   `mapstructure:"remote" json:"remote,omitempty" jsonschema:"description=Remote to push to,default=origin"`
	Branch         string   `mapstructure:"branch" json:"branch,omitempty" jsonschema:"description=Remote branch to push to"`
}

// GitPushOutput is the output of git_push.
type GitPushOutput struct {
	Pushed        bool     `mapstructure:"pushed"`
	CommitSHA     string   `mapstructure:"commit_sha"`
	CommitMessage string   `mapstructure:"commit_message"`
	Remote        string   `mapstructure:"remote"`
	Branch        string   `mapstructure:"branch"`
	Files         []string `mapstructure:"files"`
}

// GitPusher stages, commits and pushes files through its collaborators.
type GitPusher struct {
	Git   collab.GitClient
	Creds collab.CredentialResolver
}

// Push runs the stage/commit/push sequence.
func (p *GitPusher) Push(ctx context.Context, in GitPushInput) (GitPushOutput, error) {
	files := in.Files
	if len(files) == 0 {
		files = in.ValidatedFiles
	}
	if len(files) == 0 {
		return GitPushOutput{}, errors.New("no files to push")
	}

	dir := in.RepoDir
	if dir == "" {
		dir = "."
	}
	remote := in.Remote
	if remote == "" {
		remote = "origin"
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		message = CommitMessageFor(files)
	}

	token, err := p.Creds.Token(ctx)
	if err != nil {
		return GitPushOutput{}, errors.Wrap(err, "failed to resolve push credentials")
	}

	if err := p.Git.Add(ctx, dir, files...); err != nil {
		return GitPushOutput{}, err
	}
	sha, err := p.Git.Commit(ctx, dir, message)
	if err != nil {
		return GitPushOutput{}, err
	}
	if err := p.Git.Push(ctx, dir, remote, in.Branch, token); err != nil {
		return GitPushOutput{}, err
	}

	logger.G(ctx).WithField("remote", remote).WithField("commit", sha).Info("pushed commit")

	return GitPushOutput{
		Pushed:        true,
		CommitSHA:     sha,
		CommitMessage: message,
		Remote:        remote,
		Branch:        in.Branch,
		Files:         files,
	}, nil
}

// CommitMessageFor derives a commit message from the changed files.
func CommitMessageFor(files []string) string {
	switch len(files) {
	case 0:
		return "Update files"
	case 1:
		return "Update " + filepath.ToSlash(files[0])
	}

	if dir := commonTopDir(files); dir != "" {
		return fmt.Sprintf("Update %d files in %s", len(files), dir)
	}
	if len(files) <= 3 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = path.Base(filepath.ToSlash(f))
		}
		return "Update " + strings.Join(names, ", ")
	}
	return fmt.Sprintf("Update %d files", len(files))
}

func commonTopDir(files []string) string {
	top := ""
	for i, f := range files {
		parts := strings.SplitN(filepath.ToSlash(f), "/", 2)
		if len(parts) < 2 {
			return ""
		}
		if i == 0 {
			top = parts[0]
		} else if parts[0] != top {
			return ""
		}
	}
	return top
}
