package main

import (
	"context"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/presenter"
	"github.com/jingkaihe/skillctl/pkg/skills"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect discovered skills",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the skills found in the skills directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		return listSkills(cmd.Context(), cfg)
	},
}

var skillsDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show the metadata and input schema of a skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		return describeSkill(cmd.Context(), cfg, args[0])
	},
}

func init() {
	skillsCmd.AddCommand(withTracing(skillsListCmd))
	skillsCmd.AddCommand(withTracing(skillsDescribeCmd))
	rootCmd.AddCommand(skillsCmd)
}

// skillView is the serialised form of a loaded unit.
type skillView struct {
	Name        string                `json:"name"`
	Version     string                `json:"version"`
	Status      skilltypes.UnitStatus `json:"status"`
	Description string                `json:"description"`
	Interface   string                `json:"interface"`
	File        string                `json:"file"`
	Fingerprint string                `json:"fingerprint"`
	Summary     string                `json:"summary,omitempty"`
	InputSchema *jsonschema.Schema    `json:"input_schema,omitempty"`
}

func viewOf(unit *skills.Unit) skillView {
	v := skillView{
		Name:        unit.Name,
		Version:     unit.Version,
		Status:      unit.Status,
		Description: unit.Description,
		Interface:   unit.Interface,
		File:        unit.File,
		Fingerprint: unit.Fingerprint,
	}
	if d, ok := unit.Skill.(skilltypes.Describer); ok {
		v.Summary = d.Description()
		v.InputSchema = d.InputSchema()
	}
	return v
}

func listSkills(ctx context.Context, cfg config.Config) error {
	units, err := loadSkills(ctx, cfg)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	if jsonOutput() {
		views := make([]skillView, 0, len(names))
		for _, name := range names {
			v := viewOf(units[name])
			v.InputSchema = nil
			views = append(views, v)
		}
		return presenter.JSON(views)
	}

	if len(names) == 0 {
		presenter.Info("No skills found in " + cfg.SkillsDir)
		return nil
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		u := units[name]
		rows = append(rows, []string{u.Name, u.Version, string(u.Status), truncate(u.Description, 60)})
	}
	presenter.Table([]string{"NAME", "VERSION", "STATUS", "DESCRIPTION"}, rows)
	return nil
}

func describeSkill(ctx context.Context, cfg config.Config, name string) error {
	discovery, err := newDiscovery(cfg)
	if err != nil {
		return err
	}

	unit, err := discovery.GetSkill(ctx, name)
	if err != nil {
		return errors.Wrap(err, "failed to describe skill")
	}

	view := viewOf(unit)
	if jsonOutput() {
		return presenter.JSON(view)
	}

	presenter.Section(view.Name)
	presenter.Table([]string{"FIELD", "VALUE"}, [][]string{
		{"version", view.Version},
		{"status", string(view.Status)},
		{"description", view.Description},
		{"interface", view.Interface},
		{"file", view.File},
		{"fingerprint", view.Fingerprint},
	})
	if view.InputSchema != nil {
		presenter.Info("")
		presenter.Section("Input schema")
		return presenter.JSON(view.InputSchema)
	}
	return nil
}
