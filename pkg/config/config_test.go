package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.SkillsDir, cfg.SkillsDir)
	assert.Equal(t, d.RegistryPath, cfg.RegistryPath)
	assert.Equal(t, 5*time.Minute, cfg.SkillTimeout)
	assert.True(t, cfg.Skills.Interpret)
	assert.Empty(t, cfg.Skills.Allowed)
	assert.False(t, cfg.Workflow.AbortOnFailure)
	assert.Equal(t, d.Credentials.TokenEnv, cfg.Credentials.TokenEnv)
	assert.Equal(t, "always", cfg.Tracing.Sampler)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `skills_dir: /srv/skills
registry_path: /srv/registry.yaml
skill_timeout: 30s
skills:
  interpret: false
  allowed: ["mock_*"]
workflow:
  abort_on_failure: true
credentials:
  token_env: [MY_TOKEN]
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/srv/skills", cfg.SkillsDir)
	assert.Equal(t, "/srv/registry.yaml", cfg.RegistryPath)
	assert.Equal(t, 30*time.Second, cfg.SkillTimeout)
	assert.False(t, cfg.Skills.Interpret)
	assert.Equal(t, []string{"mock_*"}, cfg.Skills.Allowed)
	assert.True(t, cfg.Workflow.AbortOnFailure)
	assert.Equal(t, []string{"MY_TOKEN"}, cfg.Credentials.TokenEnv)
	assert.Equal(t, uint(3), cfg.Fetch.RetryAttempts)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{name: "empty skills dir", key: "skills_dir", val: "", want: "skills_dir"},
		{name: "empty registry path", key: "registry_path", val: "", want: "registry_path"},
		{name: "negative timeout", key: "skill_timeout", val: "-1s", want: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
