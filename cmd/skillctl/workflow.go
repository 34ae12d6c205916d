package main

import (
	"context"
	"fmt"

	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/orchestrator"
	"github.com/jingkaihe/skillctl/pkg/presenter"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// WorkflowRunConfig holds the options of the workflow run command.
type WorkflowRunConfig struct {
	// AbortOnFailure overrides the workflow file and configuration when set.
	AbortOnFailure *bool
	FailOnError    bool
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run multi-step skill workflows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var workflowRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the steps of a workflow file in order",
	Long: `Run the steps of a workflow file in order. The output of every successful
step is available to the steps after it; explicit step input wins.

Example workflow file:
  name: validate-and-commit
  steps:
    - skill: mock_validator
      input: {files: [a.py, b.py, .env]}
    - skill: mock_committer
      input: {message: m, author: agent}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		return runWorkflow(cmd.Context(), cfg, args[0], getWorkflowRunConfigFromFlags(cmd))
	},
}

func init() {
	workflowRunCmd.Flags().Bool("abort-on-failure", false, "Skip the remaining steps after the first failure")
	workflowRunCmd.Flags().Bool("fail-on-error", false, "Exit with status 2 when any step fails")
	workflowCmd.AddCommand(withTracing(workflowRunCmd))
	rootCmd.AddCommand(workflowCmd)
}

func getWorkflowRunConfigFromFlags(cmd *cobra.Command) *WorkflowRunConfig {
	wc := &WorkflowRunConfig{}
	if cmd.Flags().Changed("abort-on-failure") {
		if abort, err := cmd.Flags().GetBool("abort-on-failure"); err == nil {
			wc.AbortOnFailure = &abort
		}
	}
	if failOnError, err := cmd.Flags().GetBool("fail-on-error"); err == nil {
		wc.FailOnError = failOnError
	}
	return wc
}

type workflowOutput struct {
	Name    string               `json:"name"`
	Results []skilltypes.Result  `json:"results"`
	Summary orchestrator.Summary `json:"summary"`
}

func runWorkflow(ctx context.Context, cfg config.Config, path string, wc *WorkflowRunConfig) error {
	wf, err := orchestrator.LoadWorkflow(path)
	if err != nil {
		return err
	}
	if wc.AbortOnFailure != nil {
		wf.AbortOnFailure = wc.AbortOnFailure
	}

	units, err := loadSkills(ctx, cfg)
	if err != nil {
		return err
	}

	o := orchestrator.New(units,
		orchestrator.WithTimeout(cfg.SkillTimeout),
		orchestrator.WithAbortOnFailure(cfg.Workflow.AbortOnFailure),
	)
	results := o.RunWorkflowFile(ctx, wf)
	summary := orchestrator.Summarize(results)

	if jsonOutput() {
		if err := presenter.JSON(workflowOutput{Name: wf.Name, Results: results, Summary: summary}); err != nil {
			return err
		}
	} else {
		if wf.Name != "" {
			presenter.Section(wf.Name)
		}
		for i, r := range results {
			presenter.Info(fmt.Sprintf("[%d/%d]", i+1, len(results)))
			presenter.Result(r)
		}
		presenter.Separator()
		msg := fmt.Sprintf("%d/%d steps succeeded", summary.Succeeded, summary.Total)
		if summary.OK() {
			presenter.Success(msg)
		} else {
			presenter.Warning(msg)
		}
	}

	if !summary.OK() && wc.FailOnError {
		return withExitCode(exitSkillFailed, errors.Errorf("%d of %d steps failed", summary.Failed, summary.Total))
	}
	return nil
}
