// Package introspect is the optional, read-only HTTP surface SPEC_FULL.md's
// DOMAIN STACK table commits this runtime to: a minimal `/healthz` and
// `/status` endpoint for operators. It never accepts a task or drives the
// Agent Loop — the CLI remains the only way to start one — it only reports
// what the loop has already recorded, plus live branch state when the
// workspace is a git repo.
package introspect
