package builtin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// CommitterInput is the input of mock_committer. ValidatedFiles is
// normally inherited from a preceding mock_validator step.
type CommitterInput struct {
	Message        string   `mapstructure:"message" json:"message" jsonschema:"required,description=Commit message"`
	Author         string   `mapstructure:"author" json:"author,omitempty" jsonschema:"description=Commit author"`
	ValidatedFiles []string `mapstructure:"validated_files" json:"validated_files,omitempty" jsonschema:"description=Files to include in the commit"`
}

// CommitterOutput is the output of mock_committer.
type CommitterOutput struct {
	Committed      bool     `mapstructure:"committed"`
	CommitID       string   `mapstructure:"commit_id"`
	Message        string   `mapstructure:"message"`
	Author         string   `mapstructure:"author"`
	FilesCommitted int      `mapstructure:"files_committed"`
	Files          []string `mapstructure:"files"`
}

// Commit simulates a commit and derives a deterministic commit ID.
func Commit(_ context.Context, in CommitterInput) (CommitterOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return CommitterOutput{}, errors.New("commit message is required")
	}
	author := in.Author
	if author == "" {
		author = "unknown"
	}

	h := sha256.New()
	h.Write([]byte(message))
	h.Write([]byte{0})
	h.Write([]byte(author))
	for _, f := range in.ValidatedFiles {
		h.Write([]byte{0})
		h.Write([]byte(f))
	}

	files := in.ValidatedFiles
	if files == nil {
		files = []string{}
	}

	return CommitterOutput{
		Committed:      true,
		CommitID:       hex.EncodeToString(h.Sum(nil))[:12],
		Message:        message,
		Author:         author,
		FilesCommitted: len(files),
		Files:          files,
	}, nil
}
