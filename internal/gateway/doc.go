// ABOUTME: Package documentation for the gateway package
// ABOUTME: Describes the HTTP API surface and SSE contract

// Package gateway orchestrates the troupe-gateway server components.
//
// # Overview
//
// The gateway package is the HTTP façade of troupe-gateway. It owns the HTTP
// server and wires the agent registry, the in-memory session store, and the
// engine runner behind a small JSON API.
//
// # HTTP API
//
// Endpoints in api.go:
//
//   - GET /api/agents - List available agents with descriptions
//   - POST /api/chat - Run an agent to completion, return the final response
//   - POST /api/chat/stream - Run an agent, streaming output via SSE
//   - GET /api/sessions/{id} - Return a session's stored transcript
//   - DELETE /api/sessions/{id} - Clear a session
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check
//   - GET /metrics - Prometheus metrics (configurable path)
//
// # SSE Streaming
//
// Streaming responses are data-only Server-Sent Events carrying JSON records:
//
//	data: {"type": "session", "session_id": "..."}
//
//	data: {"type": "delta", "content": "Hel"}
//
//	data: {"type": "done", "agent": "research"}
//
// The session event always comes first. Zero or more delta events follow in
// emission order, then exactly one done or error event. A failed run never
// emits done and never mutates the session.
//
// # Sessions
//
// Sessions are in-memory only. A request without a session_id mints a fresh
// uuid; a request carrying an unknown id adopts it. The stored history is
// replaced wholesale with the engine's updated transcript after each
// successful run, alongside the name of the agent that produced the output.
package gateway
