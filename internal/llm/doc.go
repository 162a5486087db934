// ABOUTME: Package documentation for the llm package
// ABOUTME: Describes the provider adapters and their shared contract

// Package llm normalizes chat model providers behind a single interface.
//
// Every adapter turns a Request (instructions, conversation turns, tool
// definitions) into provider messages, runs a completion, and emits Response
// values on a channel: zero or more partial text deltas followed by exactly
// one final response carrying the complete text and any tool calls. Errors
// arrive on a separate channel; both channels close when generation ends.
//
// Adapters exist for OpenAI chat completions (true token streaming) and the
// Anthropic Messages API (stream requests are served non-streaming with the
// text surfaced as a single delta). A scripted Mock serves tests.
package llm
