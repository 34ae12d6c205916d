package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/orchestrator"
	"github.com/jingkaihe/skillctl/pkg/presenter"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RunConfig holds the options of the run command.
type RunConfig struct {
	Input       string
	InputFile   string
	Timeout     time.Duration
	FailOnError bool
}

// NewRunConfig creates a RunConfig with default values
func NewRunConfig() *RunConfig {
	return &RunConfig{
		Timeout: -1,
	}
}

var runCmd = &cobra.Command{
	Use:   "run <skill>",
	Short: "Run a single skill",
	Long: `Run a single skill with a JSON input payload.

Examples:
  skillctl run mock_validator --input '{"files": ["src/main.py", "config/.env"]}'
  skillctl run fetch_markdown --input-file input.yaml --timeout 30s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		return runSkill(cmd.Context(), cfg, args[0], getRunConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewRunConfig()
	runCmd.Flags().StringP("input", "i", defaults.Input, "Input payload as a JSON object")
	runCmd.Flags().StringP("input-file", "f", defaults.InputFile, "Read the input payload from a JSON or YAML file")
	runCmd.Flags().Duration("timeout", 0, "Per-invocation timeout (overrides skill_timeout, 0 disables)")
	runCmd.Flags().Bool("fail-on-error", defaults.FailOnError, "Exit with status 2 when the skill fails")
	rootCmd.AddCommand(withTracing(runCmd))
}

func getRunConfigFromFlags(cmd *cobra.Command) *RunConfig {
	rc := NewRunConfig()
	if input, err := cmd.Flags().GetString("input"); err == nil {
		rc.Input = input
	}
	if inputFile, err := cmd.Flags().GetString("input-file"); err == nil {
		rc.InputFile = inputFile
	}
	if cmd.Flags().Changed("timeout") {
		if timeout, err := cmd.Flags().GetDuration("timeout"); err == nil {
			rc.Timeout = timeout
		}
	}
	if failOnError, err := cmd.Flags().GetBool("fail-on-error"); err == nil {
		rc.FailOnError = failOnError
	}
	return rc
}

// parseInput builds the payload from the inline flag or the input file.
func parseInput(rc *RunConfig) (skilltypes.Payload, error) {
	if rc.Input != "" && rc.InputFile != "" {
		return nil, errors.New("--input and --input-file are mutually exclusive")
	}

	input := skilltypes.Payload{}
	switch {
	case strings.TrimSpace(rc.Input) != "":
		if err := json.Unmarshal([]byte(rc.Input), &input); err != nil {
			return nil, errors.Wrap(err, "input must be a JSON object")
		}
	case rc.InputFile != "":
		data, err := os.ReadFile(rc.InputFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read input file")
		}
		if err := yaml.Unmarshal(data, &input); err != nil {
			return nil, errors.Wrap(err, "input file must hold a mapping")
		}
	}
	if input == nil {
		input = skilltypes.Payload{}
	}
	return input, nil
}

func runSkill(ctx context.Context, cfg config.Config, name string, rc *RunConfig) error {
	input, err := parseInput(rc)
	if err != nil {
		return err
	}

	units, err := loadSkills(ctx, cfg)
	if err != nil {
		return err
	}

	timeout := cfg.SkillTimeout
	if rc.Timeout >= 0 {
		timeout = rc.Timeout
	}
	o := orchestrator.New(units, orchestrator.WithTimeout(timeout))

	if _, ok := o.Skill(name); !ok {
		return errors.Errorf("skill not found: %s", name)
	}

	result := o.RunSkill(ctx, name, input)
	if jsonOutput() {
		if err := presenter.JSON(result); err != nil {
			return err
		}
	} else {
		presenter.Result(result)
	}

	if !result.Succeeded() && rc.FailOnError {
		return withExitCode(exitSkillFailed, errors.New(result.Error))
	}
	return nil
}
