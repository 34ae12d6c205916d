package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/presenter"
	"github.com/jingkaihe/skillctl/pkg/registry"
	"github.com/spf13/cobra"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Build and verify the skill registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var registryBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the registry from the skills directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		return buildRegistry(cmd.Context(), cfg)
	},
}

var registryVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report drift between the registry and the skills directory",
	Long: `Report skill names present in only one of the registry and the skills
directory. Drift is reported but never corrected; run "skillctl registry build"
to rebuild.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")
		return verifyRegistry(cmd.Context(), cfg, strict)
	},
}

var registryWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the registry whenever a skill file changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")
		return watchRegistry(cmd.Context(), cfg, debounce)
	},
}

func init() {
	registryVerifyCmd.Flags().Bool("strict", false, "Exit with status 3 when drift is detected")
	registryWatchCmd.Flags().Duration("debounce", registry.DefaultDebounce, "Quiet period after the last change before rebuilding")

	registryCmd.AddCommand(withTracing(registryBuildCmd))
	registryCmd.AddCommand(withTracing(registryVerifyCmd))
	registryCmd.AddCommand(registryWatchCmd)
	rootCmd.AddCommand(registryCmd)
}

func newBuilder(cfg config.Config) (*registry.Builder, error) {
	discovery, err := newDiscovery(cfg)
	if err != nil {
		return nil, err
	}
	return registry.NewBuilder(discovery, newStore(cfg)), nil
}

func buildRegistry(ctx context.Context, cfg config.Config) error {
	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	doc, report, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	reportDiscovery(ctx, report)

	if jsonOutput() {
		return presenter.JSON(doc.Metadata)
	}
	presenter.Success(fmt.Sprintf("Registry written to %s: %d skills (%d ready, %d discovered)",
		cfg.RegistryPath, doc.Metadata.TotalSkills, doc.Metadata.ReadySkills, doc.Metadata.DiscoveredSkills))
	return nil
}

func verifyRegistry(ctx context.Context, cfg config.Config, strict bool) error {
	discovery, err := newDiscovery(cfg)
	if err != nil {
		return err
	}

	drift, err := registry.NewVerifier(discovery, newStore(cfg)).Verify(ctx)
	if err != nil {
		return err
	}

	if jsonOutput() {
		if err := presenter.JSON(drift); err != nil {
			return err
		}
	} else {
		for _, w := range drift.Warnings {
			presenter.Warning(w.Error())
		}
		if drift.InSync() {
			presenter.Success(fmt.Sprintf("Registry in sync: %d skills", drift.Registered))
		} else {
			if len(drift.Missing) > 0 {
				presenter.Warning("Missing from registry: " + strings.Join(drift.Missing, ", "))
			}
			if len(drift.Extra) > 0 {
				presenter.Warning("Registered but not on disk: " + strings.Join(drift.Extra, ", "))
			}
			presenter.Info(`Run "skillctl registry build" to rebuild the registry.`)
		}
	}

	if strict && !drift.InSync() {
		return withExitCode(exitDrift, drift.Err())
	}
	return nil
}

func watchRegistry(ctx context.Context, cfg config.Config, debounce time.Duration) error {
	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	w := registry.NewWatcher(builder, debounce)
	w.OnRebuild = func(doc *registry.Document, err error) {
		if err != nil {
			presenter.Error(err, "Registry rebuild failed")
			return
		}
		presenter.Success(fmt.Sprintf("Registry rebuilt: %d skills", doc.Metadata.TotalSkills))
	}

	presenter.Info(fmt.Sprintf("Watching %s (press Ctrl+C to stop)", cfg.SkillsDir))
	return w.Run(ctx)
}
