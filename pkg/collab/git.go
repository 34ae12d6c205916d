package collab

import (
	"bytes"
	"context"
	"encoding/base64"
	"os/exec"
	"strings"

	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/osutil"
	"github.com/pkg/errors"
)

// GitClient stages, commits and pushes changes in a working tree.
type GitClient interface {
	Add(ctx context.Context, dir string, files ...string) error
	Commit(ctx context.Context, dir, message string) (string, error)
	Push(ctx context.Context, dir, remote, branch, token string) error
}

// ExecGit implements GitClient by shelling out to the git binary.
type ExecGit struct {
	Binary string
}

var _ GitClient = (*ExecGit)(nil)

// NewExecGit creates a git client using the git binary from PATH.
func NewExecGit() *ExecGit {
	return &ExecGit{Binary: "git"}
}

// Add stages files.
func (g *ExecGit) Add(ctx context.Context, dir string, files ...string) error {
	if len(files) == 0 {
		return errors.New("no files to stage")
	}
	args := append([]string{"add", "--"}, files...)
	_, err := g.run(ctx, dir, args...)
	return err
}

// Commit records the staged changes and returns the new commit SHA.
func (g *ExecGit) Commit(ctx context.Context, dir, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("commit message cannot be empty")
	}
	if _, err := g.run(ctx, dir, "commit", "-m", message); err != nil {
		return "", err
	}
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes branch to remote, authenticating with token when set.
func (g *ExecGit) Push(ctx context.Context, dir, remote, branch, token string) error {
	var args []string
	if token != "" {
		basic := base64.StdEncoding.EncodeToString([]byte("x-access-token:" + token))
		args = append(args, "-c", "http.extraHeader=Authorization: Basic "+basic)
	}
	args = append(args, "push", remote)
	if branch != "" {
		args = append(args, "HEAD:"+branch)
	}
	_, err := g.run(ctx, dir, args...)
	return err
}

func (g *ExecGit) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	osutil.KillProcessGroupOnCancel(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.G(ctx).WithField("dir", dir).WithField("subcommand", firstNonFlag(args)).Debug("running git")
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "git %s failed: %s", firstNonFlag(args), strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// firstNonFlag returns the git subcommand, skipping -c key=value pairs so
// tokens never reach logs.
func firstNonFlag(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}
