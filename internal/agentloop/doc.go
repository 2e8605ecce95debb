// Package agentloop implements the Agent Loop (C1): the ReAct-style
// driver that bootstraps a git session, optionally plans, repeatedly
// calls the LLM Transport and dispatches tool calls through the Tool
// Registry, detects and breaks deadlocks, optionally validates its own
// final answer, and attaches a git review to the result.
//
// Grounded on the teacher's internal/session/loop.go for the overall
// shape of a streaming agentic driver (build-request / send / append /
// branch-on-tool-calls / iterate) and internal/permission/doom_loop.go
// for the idea of a call-signature hash feeding a repeat detector — the
// detector's actual trigger threshold is spec-literal (repeat count
// reaching 1, i.e. an immediate repeat) rather than the teacher's
// 3-in-a-row DoomLoopThreshold, since spec §4.1 names that exact
// number and the teacher's choice of 3 is not grounded in anything this
// spec says. See DESIGN.md.
package agentloop
