package configbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/kayneai/code-auditor/internal/config"
	"github.com/kayneai/code-auditor/internal/llm"
	"github.com/kayneai/code-auditor/internal/llm/providers/ollama"
	"github.com/kayneai/code-auditor/internal/llm/providers/openai"
)

// BuildProvider instantiates the chat provider selected by model config.
func BuildProvider(cfg config.ModelConfig) (llm.Provider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "ollama":
		return ollama.NewProvider("ollama", cfg.BaseURL, timeout), nil
	case "openai":
		return openai.NewProvider("openai", cfg.BaseURL, cfg.APIKey, timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Provider)
	}
}

// BuildRetryPolicy derives the retry policy from model config.
func BuildRetryPolicy(cfg config.ModelConfig) llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	policy.MaxRetries = cfg.MaxRetries
	return policy
}
