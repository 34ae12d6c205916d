package main

import (
	"github.com/jingkaihe/skillctl/pkg/presenter"
	"github.com/jingkaihe/skillctl/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	RunE: func(_ *cobra.Command, _ []string) error {
		info := version.Get()
		if jsonOutput() {
			return presenter.JSON(info)
		}
		presenter.Info(info.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
