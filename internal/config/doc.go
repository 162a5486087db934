// ABOUTME: Package documentation for the config package
// ABOUTME: Describes YAML loading, env expansion, and validation

// Package config handles configuration loading for troupe-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults; a nil
// config file is not an error path the gateway supports, but Default()
// returns a runnable configuration.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	provider:
//	  api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8000"
//	  shutdown_timeout: "10s"
//
// Model provider:
//
//	provider:
//	  name: "openai"          # openai, anthropic, mock
//	  model: "gpt-4o-mini"
//	  api_key: "${OPENAI_API_KEY}"
//	  temperature: 0.7
//	  max_tokens: 4096
//
// Agent roster:
//
//	agents:
//	  default: "triage"
//	  max_turns: 10
//	  instructions:
//	    research: "Custom research instructions"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Validation
//
// Load() validates:
//
//   - Provider name against the supported set
//   - Temperature range and token limits
//   - Duration format validity
package config
