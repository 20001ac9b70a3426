package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "ollama", cfg.Model.Provider)
	require.Equal(t, "qwen2.5-coder:32b", cfg.Model.Name)
	require.Equal(t, "http://localhost:11434", cfg.Model.BaseURL)
	require.Equal(t, 0, cfg.Model.MaxRetries)
	require.Equal(t, 50, cfg.Run.MaxRounds)
	require.Equal(t, 200, cfg.Run.MaxToolCalls)
	require.Equal(t, 16384, cfg.Run.MaxResultBytes)
	require.Equal(t, 100, cfg.Scan.MaxFiles)
	require.Equal(t, "code_audit_report.md", cfg.Output.Path)
	require.Equal(t, "markdown", cfg.Output.Format)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "connect", cfg.Server.Transport)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  provider: openai
  name: gpt-4o
  base_url: https://api.openai.com
run:
  max_rounds: 12
scan:
  extensions: ["go", "py"]
output:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Model.Provider)
	require.Equal(t, "gpt-4o", cfg.Model.Name)
	require.Equal(t, 12, cfg.Run.MaxRounds)
	require.Equal(t, []string{"go", "py"}, cfg.Scan.Extensions)
	require.Equal(t, "json", cfg.Output.Format)
	// Unset values keep defaults.
	require.Equal(t, 200, cfg.Run.MaxToolCalls)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CODE_AUDITOR_MODEL_NAME", "llama3.1:70b")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "llama3.1:70b", cfg.Model.Name)
}

func TestLoadFromRepo(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadFromRepo(root)
	require.NoError(t, err)
	require.Nil(t, cfg, "no override file means nil config")

	require.NoError(t, os.WriteFile(filepath.Join(root, RepoConfigName), []byte(`
run:
  max_rounds: 5
`), 0o644))

	cfg, err = LoadFromRepo(root)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, 5, cfg.Run.MaxRounds)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.Model.Provider = "anthropic" }},
		{"empty model", func(c *Config) { c.Model.Name = "" }},
		{"bad base url", func(c *Config) { c.Model.BaseURL = "localhost:11434" }},
		{"temperature out of range", func(c *Config) { c.Model.Temperature = 1.5 }},
		{"zero timeout", func(c *Config) { c.Model.TimeoutSeconds = 0 }},
		{"negative retries", func(c *Config) { c.Model.MaxRetries = -1 }},
		{"zero rounds", func(c *Config) { c.Run.MaxRounds = 0 }},
		{"zero tool calls", func(c *Config) { c.Run.MaxToolCalls = 0 }},
		{"zero result bytes", func(c *Config) { c.Run.MaxResultBytes = 0 }},
		{"zero max files", func(c *Config) { c.Scan.MaxFiles = 0 }},
		{"bad format", func(c *Config) { c.Output.Format = "pdf" }},
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
		{"bad transport", func(c *Config) { c.Server.Transport = "grpc" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		require.Error(t, cfg.Validate(), tc.name)
	}
}

func TestEffectiveScanSettings(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, DefaultExtensions, cfg.EffectiveExtensions())
	require.Equal(t, DefaultExcludes, cfg.EffectiveExcludes())

	cfg.Scan.Extensions = []string{"go"}
	cfg.Scan.Excludes = []string{"testdata"}
	require.Equal(t, []string{"go"}, cfg.EffectiveExtensions())
	require.Equal(t, []string{"testdata"}, cfg.EffectiveExcludes())
}
