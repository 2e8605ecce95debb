// Package agenterror names the error taxonomy of spec §7 so call sites
// can branch on error kind with errors.As/Is instead of matching on
// message text, the way the rest of this repo (and the teacher) prefers
// sentinel errors plus %w-wrapping over bare strings.
package agenterror

import "fmt"

// ConfigError is fatal at process startup (invalid max_iterations,
// missing required credentials for a non-local endpoint).
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Detail }

// TransportError is fatal to the current task (network failure, non-2xx
// HTTP, malformed LLM response). It aborts execute_task with
// {success:false, response: error-description}; it never sets
// force-complex-model (see SPEC_FULL.md Open Question 2).
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ToolArgumentError covers an unknown tool name or malformed arguments.
// Rendered as a tool-result string (✗/❌); the loop continues.
type ToolArgumentError struct {
	ToolName string
	Detail   string
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("tool argument error in %s: %s", e.ToolName, e.Detail)
}

// ToolPolicyRejection covers a policy-level refusal (write to an
// existing divergent file, dangerous shell command, unbackgrounded
// long-running command). Its string form begins with the blocking
// sentinel or ⚠️ and is the Agent Loop's auto-replan trigger.
type ToolPolicyRejection struct {
	ToolName string
	Detail   string
}

func (e *ToolPolicyRejection) Error() string {
	return fmt.Sprintf("policy rejection in %s: %s", e.ToolName, e.Detail)
}

// ToolRuntimeError covers I/O failure, subprocess exception, timeout.
// Rendered as "❌ ERROR ..."; the loop continues.
type ToolRuntimeError struct {
	ToolName string
	Err      error
}

func (e *ToolRuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s: %v", e.ToolName, e.Err)
}

func (e *ToolRuntimeError) Unwrap() error { return e.Err }

// ValidationFailure wraps a non-"passed" verdict from the validation
// phase. Surfaced in the returned TaskResult; never triggers an
// automatic retry.
type ValidationFailure struct {
	Verdict   string // "failed" | "partial"
	Reasoning string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation %s: %s", e.Verdict, e.Reasoning)
}

// IterationCapExhausted is returned when execute_task hits its
// iteration cap without a final assistant response.
type IterationCapExhausted struct {
	Cap int
}

func (e *IterationCapExhausted) Error() string {
	return fmt.Sprintf("iteration limit reached (cap=%d)", e.Cap)
}
