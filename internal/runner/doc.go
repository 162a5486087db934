// ABOUTME: Package documentation for the runner package
// ABOUTME: Describes the agent execution loop and its tool conventions

// Package runner executes registry agents against a language model.
//
// A run starts with a named agent and a conversation transcript. Each turn
// the runner sends the agent's instructions, the transcript, and the agent's
// tools to the model. Plain text output ends the run. Tool calls are
// executed and fed back: transfer_to_<name> tools hand the conversation to
// another agent, which continues with the full transcript; agent tools run
// the target agent synchronously on just the request text and return its
// answer as the tool output - the calling agent stays in control.
//
// A turn guard aborts runs that keep calling tools without converging.
package runner
