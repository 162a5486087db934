// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9000"
  shutdown_timeout: "5s"

provider:
  name: "anthropic"
  model: "claude-3-5-sonnet-20241022"
  api_key: "test-key"
  temperature: 0.3
  max_tokens: 2048

agents:
  default: "orchestrator"
  max_turns: 6
  instructions:
    research: "Cite everything."

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("unexpected http_addr %q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("unexpected shutdown timeout %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Provider.Name != "anthropic" || cfg.Provider.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("unexpected provider %+v", cfg.Provider)
	}
	if cfg.Provider.Temperature != 0.3 || cfg.Provider.MaxTokens != 2048 {
		t.Errorf("unexpected provider tuning %+v", cfg.Provider)
	}
	if cfg.Agents.Default != "orchestrator" || cfg.Agents.MaxTurns != 6 {
		t.Errorf("unexpected agents config %+v", cfg.Agents)
	}
	if cfg.Agents.Instructions["research"] != "Cite everything." {
		t.Errorf("instruction override not parsed: %+v", cfg.Agents.Instructions)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: "mock"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.HTTPAddr != "0.0.0.0:8000" {
		t.Errorf("expected default http_addr, got %q", cfg.Server.HTTPAddr)
	}
	if cfg.Provider.Temperature != 0.7 || cfg.Provider.MaxTokens != 4096 {
		t.Errorf("expected default provider tuning, got %+v", cfg.Provider)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("expected default metrics config, got %+v", cfg.Metrics)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TROUPE_TEST_KEY", "sk-from-env")

	path := writeConfig(t, `
provider:
  name: "openai"
  api_key: "${TROUPE_TEST_KEY}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("expected expanded api key, got %q", cfg.Provider.APIKey)
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: "openai"
  api_key: "${TROUPE_DEFINITELY_UNSET_VAR}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Provider.APIKey != "" {
		t.Errorf("unset env var should expand to empty string, got %q", cfg.Provider.APIKey)
	}
}

func TestLoad_InvalidProvider(t *testing.T) {
	path := writeConfig(t, `
provider:
  name: "cohere"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for unsupported provider")
	}
	if !strings.Contains(err.Error(), "provider.name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8000"
  shutdown_timeout: "soon"
provider:
  name: "mock"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected duration parse error")
	}
	if !strings.Contains(err.Error(), "shutdown_timeout") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_Ranges(t *testing.T) {
	cfg := Default()
	cfg.Provider.Temperature = 3.0
	if err := cfg.Validate(); err == nil {
		t.Error("temperature above 2 should fail validation")
	}

	cfg = Default()
	cfg.Provider.MaxTokens = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero max_tokens should fail validation")
	}

	cfg = Default()
	cfg.Agents.MaxTurns = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative max_turns should fail validation")
	}

	cfg = Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}
