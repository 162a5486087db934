// Package registry holds the fixed mapping from agent name to agent
// definition: instruction text plus the two delegation patterns an agent may
// use: handoffs (control of the conversation transfers entirely) and agent
// tools (the caller invokes another agent as a synchronous sub-call and keeps
// control). Construction is static; there is no dynamic registration.
//
// Resolve never fails: unknown or empty names silently degrade to the default
// triage agent so a misaddressed request still gets routed somewhere useful.
package registry
