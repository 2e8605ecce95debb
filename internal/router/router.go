package router

import "github.com/relaycode/codeagent/pkg/types"

// cognitiveStubTools is the spec §4.2 fixed four-tool set: naming any
// of these in the previous turn forces the complex endpoint (rule 2),
// independent of each tool's own Complexity tag.
var cognitiveStubTools = map[string]bool{
	"analyze_error":       true,
	"replan_approach":     true,
	"validate_result":     true,
	"progress_checkpoint": true,
}

// ComplexityLookup reports a tool's Model Router complexity tag
// ("simple" or "complex"); the Agent Loop (C1) passes in the Tool
// Registry's Complexity method so this package does not depend on
// internal/tool.
type ComplexityLookup func(toolName string) (complexity string, ok bool)

// Select implements the spec §4.3 5-rule priority chain for a single
// turn.
//
//   1. forceComplex set -> complex endpoint (caller clears the flag).
//   2. any previous tool call names one of the four cognitive stubs -> complex.
//   3. any previous tool name is a key in cfg.ToolOverrides -> that override
//      (first match, in prevToolCalls order, wins).
//   4. any previous tool is tagged complex (via complexity) -> complex.
//   5. otherwise -> simple.
func Select(
	cfg types.ModelProviderConfig,
	prevToolCalls []types.ToolCall,
	complexity ComplexityLookup,
	forceComplex bool,
) types.Endpoint {
	if forceComplex {
		return cfg.Complex
	}

	for _, call := range prevToolCalls {
		if cognitiveStubTools[call.Name] {
			return cfg.Complex
		}
	}

	if len(cfg.ToolOverrides) > 0 {
		for _, call := range prevToolCalls {
			if endpoint, ok := cfg.ToolOverrides[call.Name]; ok {
				return endpoint
			}
		}
	}

	if complexity != nil {
		for _, call := range prevToolCalls {
			if tag, ok := complexity(call.Name); ok && tag == "complex" {
				return cfg.Complex
			}
		}
	}

	return cfg.Simple
}
