// Package router implements the Model Router (C3): the per-turn
// simple/complex endpoint selection policy of spec §4.3.
//
// Grounded on original_source/src/super_prompt/modern_ai_agent.py's
// _select_model_for_tools (the has-complex-tool → complex else simple
// ancestor of rules 4/5 below); rules 1-3 (force-flag, cognitive-stub
// names, per-tool overrides) are additions the distilled spec names
// that the original did not implement as a priority chain.
package router
