// ABOUTME: Entry point for the troupe-gateway chat server
// ABOUTME: Serves the multi-agent HTTP API and operator subcommands

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/troupehq/troupe-gateway/internal/config"
	"github.com/troupehq/troupe-gateway/internal/gateway"
	"github.com/troupehq/troupe-gateway/internal/llm"
	"github.com/troupehq/troupe-gateway/internal/registry"
	"github.com/troupehq/troupe-gateway/internal/runner"
	"github.com/troupehq/troupe-gateway/internal/session"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _
| |_ _ __ ___  _   _ _ __   ___
| __| '__/ _ \| | | | '_ \ / _ \
| |_| | | (_) | |_| | |_) |  __/
 \__|_|  \___/ \__,_| .__/ \___|
                    |_|  gateway
`

// getConfigPath returns the path to the gateway config file.
// Priority: TROUPE_CONFIG env var > XDG_CONFIG_HOME/troupe/gateway.yaml > ~/.config/troupe/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("TROUPE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "troupe", "gateway.yaml")
}

// loadConfig loads the config file, falling back to defaults when no file
// exists so the gateway can run from environment variables alone.
func loadConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), false, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: troupe-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the gateway server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check gateway health")
		fmt.Println("  agents   List available agents")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "agents":
		err = runAgents(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, fromFile, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	if fromFile {
		fmt.Printf("Config:    %s\n", configPath)
	} else {
		fmt.Printf("Config:    defaults (no file at %s)\n", configPath)
	}
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Provider:  ")
	cyan.Print(cfg.Provider.Name)
	if cfg.Provider.Model != "" {
		gray.Printf(" (%s)", cfg.Provider.Model)
	}
	fmt.Println()
	fmt.Println()

	logger.Info("starting troupe-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"provider", cfg.Provider.Name,
	)

	// Build the agent roster
	reg := registry.Default(registry.Overrides(cfg.Agents.Instructions))
	if cfg.Agents.Default != "" {
		if _, ok := reg.Lookup(cfg.Agents.Default); !ok {
			return fmt.Errorf("agents.default %q is not a roster agent", cfg.Agents.Default)
		}
		reg = registry.Roster(cfg.Agents.Default, registry.Overrides(cfg.Agents.Instructions))
	}

	// Build the model and runner
	model, err := llm.New(cfg.Provider.Name, cfg.Provider.Model, cfg.Provider.APIKey,
		cfg.Provider.Temperature, cfg.Provider.MaxTokens)
	if err != nil {
		return fmt.Errorf("creating model: %w", err)
	}

	var runnerOpts []runner.Option
	if cfg.Agents.MaxTurns > 0 {
		runnerOpts = append(runnerOpts, runner.WithMaxTurns(cfg.Agents.MaxTurns))
	}
	eng := runner.New(reg, model, logger, runnerOpts...)

	// Create and run gateway
	gw, err := gateway.New(cfg, reg, session.NewStore(), eng, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runAgents(ctx context.Context) error {
	cfg, _, err := loadConfig(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/api/agents", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("agents request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agents request failed: status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		Agents map[string]string `json:"agents"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	names := make([]string, 0, len(parsed.Agents))
	for name := range parsed.Agents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-14s %s\n", name, parsed.Agents[name])
	}
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("troupe-gateway configuration setup")
	fmt.Println("==================================")
	fmt.Println()

	defaultConfigPath := getConfigPath()

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "0.0.0.0:8000")

	// Provider
	fmt.Println("\n--- Model Provider ---")
	provider := prompt(reader, "Provider (openai/anthropic/mock)", "openai")
	var defaultModel, keyVar string
	switch provider {
	case "anthropic":
		defaultModel = "claude-3-5-sonnet-20241022"
		keyVar = "ANTHROPIC_API_KEY"
	case "mock":
		defaultModel = ""
		keyVar = ""
	default:
		defaultModel = "gpt-4o-mini"
		keyVar = "OPENAI_API_KEY"
	}
	model := prompt(reader, "Model id", defaultModel)

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# troupe-gateway configuration\n")
	cfg.WriteString("# Generated by troupe-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("  shutdown_timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("provider:\n")
	cfg.WriteString(fmt.Sprintf("  name: \"%s\"\n", provider))
	if model != "" {
		cfg.WriteString(fmt.Sprintf("  model: \"%s\"\n", model))
	}
	if keyVar != "" {
		cfg.WriteString(fmt.Sprintf("  api_key: \"${%s}\"\n", keyVar))
	}
	cfg.WriteString("  temperature: 0.7\n")
	cfg.WriteString("  max_tokens: 4096\n")
	cfg.WriteString("\n")

	cfg.WriteString("agents:\n")
	cfg.WriteString("  default: \"triage\"\n")
	cfg.WriteString("  max_turns: 10\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: true\n")
	cfg.WriteString("  path: \"/metrics\"\n")

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	if keyVar != "" {
		fmt.Printf("Remember to export %s before starting.\n", keyVar)
	}
	fmt.Println("\nTo start the server:")
	fmt.Printf("  troupe-gateway serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
