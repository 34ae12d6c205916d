package orchestrator

import (
	"bytes"
	"os"
	"strings"

	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Step is one entry of a workflow: a skill name and its explicit input.
type Step struct {
	Skill string             `yaml:"skill" json:"skill"`
	Input skilltypes.Payload `yaml:"input,omitempty" json:"input,omitempty"`
}

// Workflow is a named, ordered list of steps as stored in a workflow file.
type Workflow struct {
	Name           string `yaml:"name" json:"name"`
	AbortOnFailure *bool  `yaml:"abort_on_failure,omitempty" json:"abort_on_failure,omitempty"`
	Steps          []Step `yaml:"steps" json:"steps"`
}

// ParseWorkflow decodes a workflow definition from YAML. Unknown fields
// are rejected.
func ParseWorkflow(data []byte) (*Workflow, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var wf Workflow
	if err := dec.Decode(&wf); err != nil {
		return nil, errors.Wrap(err, "failed to parse workflow")
	}

	if len(wf.Steps) == 0 {
		return nil, errors.New("workflow has no steps")
	}
	for i, step := range wf.Steps {
		if strings.TrimSpace(step.Skill) == "" {
			return nil, errors.Errorf("step %d has no skill", i+1)
		}
	}
	return &wf, nil
}

// LoadWorkflow reads and parses a workflow file.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read workflow %s", path)
	}

	wf, err := ParseWorkflow(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid workflow %s", path)
	}
	return wf, nil
}
