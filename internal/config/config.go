package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RepoConfigName is the per-repository override file looked up inside the
// analyzed tree.
const RepoConfigName = ".code-auditor.yaml"

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Run     RunConfig     `mapstructure:"run"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

// ModelConfig selects the analysis backend and its request parameters.
type ModelConfig struct {
	Provider       string  `mapstructure:"provider"`        // ollama or openai
	Name           string  `mapstructure:"name"`            // model identifier
	BaseURL        string  `mapstructure:"base_url"`        // backend API base URL
	APIKey         string  `mapstructure:"api_key"`         // optional bearer key
	Temperature    float64 `mapstructure:"temperature"`     // sampling temperature
	TimeoutSeconds int     `mapstructure:"timeout_seconds"` // per-request timeout
	MaxRetries     int     `mapstructure:"max_retries"`     // same-request retries on retryable failures
}

// RunConfig bounds a single analysis run.
type RunConfig struct {
	MaxRounds      int `mapstructure:"max_rounds"`
	MaxToolCalls   int `mapstructure:"max_tool_calls"`
	MaxResultBytes int `mapstructure:"max_result_bytes"`
}

// ScanConfig controls which files of the working tree are surfaced to the agent.
type ScanConfig struct {
	MaxFiles   int      `mapstructure:"max_files"`
	Extensions []string `mapstructure:"extensions"`
	Excludes   []string `mapstructure:"excludes"`
}

// OutputConfig controls report destination and rendering.
type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // markdown or json
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes serve-mode settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Transport      string `mapstructure:"transport"` // connect or ndjson
}

// DefaultExtensions is the allowlist applied when scan.extensions is empty.
var DefaultExtensions = []string{
	"rs", "py", "js", "ts", "jsx", "tsx", "go", "java", "c", "cpp", "h", "hpp",
	"cs", "rb", "php", "swift", "kt", "scala", "vue", "svelte",
}

// DefaultExcludes is the exclusion set applied when scan.excludes is empty.
var DefaultExcludes = []string{
	".git", "target", "node_modules", "vendor", "dist", "build", "__pycache__",
	".venv", "venv", ".idea", ".vscode", "*.min.js", "*.min.css",
	"package-lock.json", "Cargo.lock", "yarn.lock",
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: CODE_AUDITOR, dots replaced
// with underscores). A missing file falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CODE_AUDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromRepo reads a repo-local override file rooted at the analyzed tree.
// Returns (nil, nil) when the tree carries no override.
func LoadFromRepo(root string) (*Config, error) {
	repoPath := filepath.Join(root, RepoConfigName)
	if _, err := os.Stat(repoPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat repo config: %w", err)
	}
	return Load(repoPath)
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", "ollama")
	v.SetDefault("model.name", "qwen2.5-coder:32b")
	v.SetDefault("model.base_url", "http://localhost:11434")
	v.SetDefault("model.temperature", 0.1)
	v.SetDefault("model.timeout_seconds", 120)
	v.SetDefault("model.max_retries", 0)

	v.SetDefault("run.max_rounds", 50)
	v.SetDefault("run.max_tool_calls", 200)
	v.SetDefault("run.max_result_bytes", 16384)

	v.SetDefault("scan.max_files", 100)
	v.SetDefault("scan.extensions", []string{})
	v.SetDefault("scan.excludes", []string{})

	v.SetDefault("output.path", "code_audit_report.md")
	v.SetDefault("output.format", "markdown")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.transport", "connect")
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Model.Provider)) {
	case "ollama", "openai":
	default:
		return fmt.Errorf("model.provider must be one of ollama or openai, got %q", c.Model.Provider)
	}

	if strings.TrimSpace(c.Model.Name) == "" {
		return errors.New("model.name must be set")
	}

	if !strings.HasPrefix(c.Model.BaseURL, "http://") && !strings.HasPrefix(c.Model.BaseURL, "https://") {
		return fmt.Errorf("model.base_url must start with http:// or https://, got %q", c.Model.BaseURL)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return errors.New("model.temperature must be within [0,1]")
	}

	if c.Model.TimeoutSeconds <= 0 {
		return errors.New("model.timeout_seconds must be > 0")
	}

	if c.Model.MaxRetries < 0 {
		return errors.New("model.max_retries must be >= 0")
	}

	if c.Run.MaxRounds <= 0 {
		return errors.New("run.max_rounds must be > 0")
	}

	if c.Run.MaxToolCalls <= 0 {
		return errors.New("run.max_tool_calls must be > 0")
	}

	if c.Run.MaxResultBytes <= 0 {
		return errors.New("run.max_result_bytes must be > 0")
	}

	if c.Scan.MaxFiles <= 0 {
		return errors.New("scan.max_files must be > 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Output.Format)) {
	case "markdown", "json":
	default:
		return fmt.Errorf("output.format must be one of markdown or json, got %q", c.Output.Format)
	}

	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New("output.path must be set")
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "connect", "ndjson":
	default:
		return fmt.Errorf("server.transport must be one of connect or ndjson, got %q", c.Server.Transport)
	}

	return nil
}

// EffectiveExtensions returns the extension allowlist, falling back to the default set.
func (c *Config) EffectiveExtensions() []string {
	if len(c.Scan.Extensions) > 0 {
		return c.Scan.Extensions
	}
	return DefaultExtensions
}

// EffectiveExcludes returns the exclusion patterns, falling back to the default set.
func (c *Config) EffectiveExcludes() []string {
	if len(c.Scan.Excludes) > 0 {
		return c.Scan.Excludes
	}
	return DefaultExcludes
}
