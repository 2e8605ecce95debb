package agentloop

import (
	"fmt"
	"strings"

	"github.com/relaycode/codeagent/pkg/types"
)

const tracePreviewLen = 100

// truncate shortens s to n runes, appending an ellipsis marker when it
// had to cut, matching the "<...-truncated-to-100>" shape spec §4.1
// names for the action trace.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// formatAction renders one Action trace entry: spec §4.1's exact
// "[<tool-name>] <args-truncated-to-100> → <result-truncated-to-100>".
func formatAction(toolName, args, result string) string {
	return fmt.Sprintf("[%s] %s → %s", toolName, truncate(args, tracePreviewLen), truncate(result, tracePreviewLen))
}

// planningSystemDirective is sent, tools disabled, to the complex
// endpoint before the execution loop when planning is enabled (spec
// §4.1 phase 2).
const planningSystemDirective = `You are planning, not yet acting. Before any tool use, propose:
1. The objective, restated precisely.
2. An ordered list of concrete steps to reach it.
3. The risks or obstacles most likely to derail the plan.
4. The criteria that will tell you the task succeeded.
Do not call any tool in this response — only produce the plan.`

// postPlanInstruction is appended after the plan to hand control back
// to normal step-by-step execution.
const postPlanInstruction = `Proceed with the plan above, one step at a time, using the available tools. Re-plan if a step reveals the plan was wrong.`

// buildPlanningTranscript constructs the single-shot planning request
// transcript (spec §4.1 phase 2).
func buildPlanningTranscript(task string) types.Transcript {
	return types.Transcript{
		{Role: types.RoleSystem, Content: planningSystemDirective},
		{Role: types.RoleUser, Content: task},
	}
}

// appendPlan returns the base transcript the execution loop will run
// with, after a successful planning call: the original system
// directive (if any), the task, the model's plan, and the
// step-by-step execution instruction.
func appendPlan(base types.Transcript, plan string) types.Transcript {
	out := append(types.Transcript{}, base...)
	out = append(out,
		types.Turn{Role: types.RoleAssistant, Content: plan},
		types.Turn{Role: types.RoleUser, Content: postPlanInstruction},
	)
	return out
}

// remedialToolsText is the fixed enumeration spec §4.1 names for the
// deadlock remediation message: "read-then-edit, insert,
// search-and-replace, overwrite-with-reason".
const remedialToolsText = `- read_file then update_file or edit_lines (read-then-edit)
- insert_lines (insert without disturbing existing content)
- search_replace (search-and-replace a known substring)
- force_write_file with an explicit reason (overwrite-with-reason, last resort)`

// buildRemediationMessage is the synthesized user turn appended to the
// transcript when the deadlock detector fires (spec §4.1): offending
// tool, verbatim blocking result, last five actions, remedial-tool
// enumeration, and an explicit instruction not to repeat the call.
func buildRemediationMessage(offendingTool, verbatimResult string, lastFive []string, repeated bool) string {
	reason := "that call produced a blocking result"
	if repeated {
		reason = "you repeated the exact same call"
	}

	var recent strings.Builder
	if len(lastFive) == 0 {
		recent.WriteString("(no prior actions recorded)")
	} else {
		for _, a := range lastFive {
			recent.WriteString("- ")
			recent.WriteString(a)
			recent.WriteString("\n")
		}
	}

	return fmt.Sprintf(`⚠️ STOP: %s.

Offending tool: %s
Result: %s

Last actions:
%s
Do not repeat that exact call. Choose a different approach — for example:
%s`,
		reason, offendingTool, verbatimResult, recent.String(), remedialToolsText)
}

// validatorDirective asks the complex endpoint for a verdict on the
// task's final response (spec §4.1 phase 4).
const validatorDirective = `Compare the task, the recorded actions, and the final response below. Decide whether the task was actually accomplished.
Respond with a verdict on its own line in the exact form "VERDICT: passed", "VERDICT: failed", or "VERDICT: partial", followed by your reasoning.`

// buildValidationTranscript builds the fresh, tools-disabled transcript
// sent to the validator (spec §4.1 phase 4): the original task, a
// summary of the last <=20 recorded actions, and the final response.
func buildValidationTranscript(task string, lastActions []string, finalResponse string) types.Transcript {
	var actions strings.Builder
	if len(lastActions) == 0 {
		actions.WriteString("(no actions recorded)\n")
	} else {
		for _, a := range lastActions {
			actions.WriteString("- ")
			actions.WriteString(a)
			actions.WriteString("\n")
		}
	}

	content := fmt.Sprintf(`Task: %s

Recorded actions:
%s
Final response: %s`, task, actions.String(), finalResponse)

	return types.Transcript{
		{Role: types.RoleSystem, Content: validatorDirective},
		{Role: types.RoleUser, Content: content},
	}
}

// parseVerdict extracts the validator's verdict line; an unparseable
// reply degrades to "partial" rather than panicking the loop, since a
// failed parse is not grounds to treat a successful task as a failure.
func parseVerdict(reply string) string {
	lower := strings.ToLower(reply)
	idx := strings.Index(lower, "verdict:")
	if idx == -1 {
		return "partial"
	}
	rest := strings.TrimSpace(lower[idx+len("verdict:"):])
	switch {
	case strings.HasPrefix(rest, "passed"):
		return "passed"
	case strings.HasPrefix(rest, "failed"):
		return "failed"
	case strings.HasPrefix(rest, "partial"):
		return "partial"
	default:
		return "partial"
	}
}

// lastN returns at most the last n elements of s, preserving order.
func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
