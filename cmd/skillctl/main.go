package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jingkaihe/skillctl/pkg/config"
	"github.com/jingkaihe/skillctl/pkg/logger"
	"github.com/jingkaihe/skillctl/pkg/presenter"
	"github.com/jingkaihe/skillctl/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes beyond the generic failure of 1.
const (
	exitSkillFailed = 2
	exitDrift       = 3
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func init() {
	viper.SetEnvPrefix("SKILLCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillctl")
	viper.AddConfigPath(".")

	config.SetDefaults(viper.GetViper())
	viper.SetDefault("output", "text")

	// A missing config file is not an error.
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillctl",
	Short: "Discover, run and catalog skills",
	Long: `skillctl discovers skills in a directory, runs them alone or chained into
workflows, and maintains a registry of skill metadata that can be verified
against the directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		switch viper.GetString("output") {
		case "text", "json":
		default:
			return errors.Errorf("unsupported output format %q", viper.GetString("output"))
		}
		presenter.SetQuiet(viper.GetBool("quiet"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialize tracing")
			return nil
		}
		tracingShutdown = shutdown
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("skills-dir", config.Default().SkillsDir, "Directory containing skill source files")
	flags.String("registry", config.Default().RegistryPath, "Path of the registry file")
	flags.String("log-level", config.Default().LogLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", config.Default().LogFormat, "Log format (fmt, json)")
	flags.StringP("output", "o", "text", "Output format (text, json)")
	flags.BoolP("quiet", "q", false, "Only print errors and JSON documents")

	viper.BindPFlag("skills_dir", flags.Lookup("skills-dir"))
	viper.BindPFlag("registry_path", flags.Lookup("registry"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("quiet", flags.Lookup("quiet"))
}

var tracingShutdown telemetry.Shutdown

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if tracingShutdown == nil {
			return
		}
		if err := tracingShutdown(context.Background()); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to shut down tracing")
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Commands returning an exit code have already reported the outcome.
		var ee *exitError
		if !errors.As(err, &ee) {
			presenter.Error(err, "")
		}
		return exitCode(err)
	}
	return 0
}

func main() {
	os.Exit(run())
}
