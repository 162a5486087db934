// Package engine defines the contract the gateway consumes from the agent
// orchestration engine: conversation turns, run results, streaming, and the
// Runner interface. The gateway never reaches past this boundary; the concrete
// loop lives in internal/runner and model providers in internal/llm.
//
// A run takes an agent name and an input transcript and yields a Result whose
// Transcript is the full updated conversation (input plus new items) and whose
// AgentName is whichever agent actually produced the final output: under a
// handoff that is not the agent the caller named.
package engine
