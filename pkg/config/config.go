// Package config loads skillctl configuration from viper: config files,
// SKILLCTL_* environment variables and bound command line flags.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	SkillsDir    string         `mapstructure:"skills_dir" json:"skills_dir" yaml:"skills_dir"`
	RegistryPath string         `mapstructure:"registry_path" json:"registry_path" yaml:"registry_path"`
	SkillTimeout time.Duration  `mapstructure:"skill_timeout" json:"skill_timeout" yaml:"skill_timeout"`
	LogLevel     string         `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	LogFormat    string         `mapstructure:"log_format" json:"log_format" yaml:"log_format"`
	Skills       SkillsConfig   `mapstructure:"skills" json:"skills" yaml:"skills"`
	Workflow     WorkflowConfig `mapstructure:"workflow" json:"workflow" yaml:"workflow"`
	Credentials  CredConfig     `mapstructure:"credentials" json:"credentials" yaml:"credentials"`
	Fetch        FetchConfig    `mapstructure:"fetch" json:"fetch" yaml:"fetch"`
	Tracing      TracingConfig  `mapstructure:"tracing" json:"tracing" yaml:"tracing"`
}

// SkillsConfig controls discovery and binding.
type SkillsConfig struct {
	Interpret bool     `mapstructure:"interpret" json:"interpret" yaml:"interpret"`
	Allowed   []string `mapstructure:"allowed" json:"allowed" yaml:"allowed"`
}

// WorkflowConfig controls workflow execution.
type WorkflowConfig struct {
	AbortOnFailure bool `mapstructure:"abort_on_failure" json:"abort_on_failure" yaml:"abort_on_failure"`
}

// CredConfig lists the environment variables consulted for a push token, in order.
type CredConfig struct {
	TokenEnv []string `mapstructure:"token_env" json:"token_env" yaml:"token_env"`
}

// FetchConfig controls the markdown fetcher.
type FetchConfig struct {
	RetryAttempts uint          `mapstructure:"retry_attempts" json:"retry_attempts" yaml:"retry_attempts"`
	Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	// AllowedDomains limits fetched hosts; empty allows all.
	AllowedDomains []string `mapstructure:"allowed_domains" json:"allowed_domains" yaml:"allowed_domains"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool    `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Sampler string  `mapstructure:"sampler" json:"sampler" yaml:"sampler"`
	Ratio   float64 `mapstructure:"ratio" json:"ratio" yaml:"ratio"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		SkillsDir:    "./skills",
		RegistryPath: "./.skillctl/registry.yaml",
		SkillTimeout: 5 * time.Minute,
		LogLevel:     "info",
		LogFormat:    "fmt",
		Skills: SkillsConfig{
			Interpret: true,
		},
		Credentials: CredConfig{
			TokenEnv: []string{"SKILLCTL_GIT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"},
		},
		Fetch: FetchConfig{
			RetryAttempts: 3,
			Timeout:       30 * time.Second,
		},
		Tracing: TracingConfig{
			Sampler: "always",
			Ratio:   1.0,
		},
	}
}

// SetDefaults registers the defaults with v so that unset keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("skills_dir", d.SkillsDir)
	v.SetDefault("registry_path", d.RegistryPath)
	v.SetDefault("skill_timeout", d.SkillTimeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("skills.interpret", d.Skills.Interpret)
	v.SetDefault("workflow.abort_on_failure", d.Workflow.AbortOnFailure)
	v.SetDefault("credentials.token_env", d.Credentials.TokenEnv)
	v.SetDefault("fetch.retry_attempts", d.Fetch.RetryAttempts)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.sampler", d.Tracing.Sampler)
	v.SetDefault("tracing.ratio", d.Tracing.Ratio)
}

// Load unmarshals the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to load configuration")
	}
	if cfg.SkillsDir == "" {
		return cfg, errors.New("skills_dir cannot be empty")
	}
	if cfg.RegistryPath == "" {
		return cfg, errors.New("registry_path cannot be empty")
	}
	if cfg.SkillTimeout < 0 {
		return cfg, errors.Errorf("skill_timeout cannot be negative: %s", cfg.SkillTimeout)
	}
	return cfg, nil
}

// FromViper loads the configuration held by the global viper instance.
func FromViper() (Config, error) {
	return Load(viper.GetViper())
}
