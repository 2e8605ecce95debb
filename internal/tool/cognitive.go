package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
)

// The four cognitive stub tools (spec §4.2 "Cognitive stub tools").
// None of them compute anything substantive: each restates its inputs
// into a structured prompt template and returns it verbatim. Their
// only real effect is on the Model Router (C3) — naming one of these
// four tools in the previous turn forces the complex endpoint on the
// next call, so the model reasons about the situation with its
// stronger weights. Grounded on original_source/tools/cognitive.py,
// translated to English; structure (restate-inputs, then a fixed
// "INSTRUCTIONS FOR THE AGENT" bullet list) kept unchanged.

// --- analyze_error ---------------------------------------------------

const analyzeErrorDescription = `🧠 ERROR ANALYSIS - use when a tool fails or returns an unexpected result. Returns a structured analysis: likely cause, impact on the current plan, suggested corrective actions (complexity: complex).`

type AnalyzeErrorTool struct{}

func NewAnalyzeErrorTool() *AnalyzeErrorTool { return &AnalyzeErrorTool{} }

func (t *AnalyzeErrorTool) ID() string          { return "analyze_error" }
func (t *AnalyzeErrorTool) Description() string { return analyzeErrorDescription }
func (t *AnalyzeErrorTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"error_message": {"type": "string", "description": "The error message or unexpected result"},
			"tool_name": {"type": "string", "description": "Name of the tool that failed"},
			"tool_args": {"type": "string", "description": "Arguments used for the tool (JSON string)"},
			"context": {"type": "string", "description": "Context of the current task and what was being attempted"}
		},
		"required": ["error_message", "tool_name", "context"]
	}`)
}

type analyzeErrorInput struct {
	ErrorMessage string `json:"error_message"`
	ToolName     string `json:"tool_name"`
	ToolArgs     string `json:"tool_args,omitempty"`
	Context      string `json:"context"`
}

func (t *AnalyzeErrorTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p analyzeErrorInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	if p.ToolArgs == "" {
		p.ToolArgs = "{}"
	}

	output := fmt.Sprintf(`🔍 ERROR ANALYSIS REQUESTED

📛 Tool: %s
📋 Arguments: %s
❌ Error: %s
📝 Context: %s

⚠️ INSTRUCTIONS FOR THE AGENT:
1. Analyze the root cause of this error
2. Check whether the arguments were correct
3. Consider whether an alternative approach exists
4. If necessary, use 'replan_approach' to adjust your strategy

COMMON LIKELY CAUSES:
- File does not exist → use list_files to check
- Permission denied → verify the path
- Invalid syntax → review the code/arguments
- Missing dependency → install it with run_command`,
		p.ToolName, p.ToolArgs, p.ErrorMessage, p.Context)

	return &Result{Title: "analyze_error", Output: output}, nil
}

func (t *AnalyzeErrorTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *AnalyzeErrorTool) Complexity() string { return ComplexityComplex }

// --- replan_approach -----------------------------------------------

const replanApproachDescription = `🔄 RE-PLANNING - use when you need to change strategy after an error or obstacle. Returns a restated goal/situation/obstacles plus a fixed instruction checklist (complexity: complex).`

type ReplanApproachTool struct{}

func NewReplanApproachTool() *ReplanApproachTool { return &ReplanApproachTool{} }

func (t *ReplanApproachTool) ID() string          { return "replan_approach" }
func (t *ReplanApproachTool) Description() string { return replanApproachDescription }
func (t *ReplanApproachTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"original_goal": {"type": "string", "description": "The task's original goal"},
			"current_situation": {"type": "string", "description": "Current situation: what was done and what failed"},
			"obstacles": {"type": "string", "description": "List of obstacles encountered"},
			"new_information": {"type": "string", "description": "New information discovered during execution"}
		},
		"required": ["original_goal", "current_situation", "obstacles"]
	}`)
}

type replanApproachInput struct {
	OriginalGoal     string `json:"original_goal"`
	CurrentSituation string `json:"current_situation"`
	Obstacles        string `json:"obstacles"`
	NewInformation   string `json:"new_information,omitempty"`
}

func (t *ReplanApproachTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p replanApproachInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	newInfo := p.NewInformation
	if newInfo == "" {
		newInfo = "None"
	}

	output := fmt.Sprintf(`🔄 RE-PLANNING REQUESTED

🎯 Original Goal: %s

📍 Current Situation:
%s

🚧 Obstacles Encountered:
%s

💡 New Information:
%s

⚠️ INSTRUCTIONS FOR THE AGENT:
1. Revise your strategy taking the obstacles into account
2. Identify an alternative approach
3. Build a new step-by-step plan
4. Execute the new plan

RE-PLANNING HINTS:
- If a file does not exist, create it
- If the structure differs, adapt to it
- If a dependency is missing, install it first
- If permission is denied, try an alternative path`,
		p.OriginalGoal, p.CurrentSituation, p.Obstacles, newInfo)

	return &Result{Title: "replan_approach", Output: output}, nil
}

func (t *ReplanApproachTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ReplanApproachTool) Complexity() string { return ComplexityComplex }

// --- validate_result --------------------------------------------------

const validateResultDescription = `✅ RESULT VALIDATION - use to check whether an action actually succeeded. Runs a cheap, non-authoritative keyword scan over the actual result alongside the restated inputs (complexity: complex).`

type ValidateResultTool struct{}

func NewValidateResultTool() *ValidateResultTool { return &ValidateResultTool{} }

func (t *ValidateResultTool) ID() string          { return "validate_result" }
func (t *ValidateResultTool) Description() string { return validateResultDescription }
func (t *ValidateResultTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action_taken": {"type": "string", "description": "Description of the action that was executed"},
			"expected_result": {"type": "string", "description": "What you expected to happen"},
			"actual_result": {"type": "string", "description": "What actually happened (the tool's result)"},
			"verification_method": {"type": "string", "description": "How to verify it worked, e.g. 'read_file', 'run_command ls'"}
		},
		"required": ["action_taken", "expected_result", "actual_result"]
	}`)
}

type validateResultInput struct {
	ActionTaken        string `json:"action_taken"`
	ExpectedResult     string `json:"expected_result"`
	ActualResult       string `json:"actual_result"`
	VerificationMethod string `json:"verification_method,omitempty"`
}

var (
	successIndicators = []string{"✓", "success", "completed", "created", "edited", "ok"}
	failureIndicators = []string{"✗", "error", "failed", "not found"}
)

func (t *ValidateResultTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p validateResultInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}

	lower := strings.ToLower(p.ActualResult)
	likelySuccess := containsAny(lower, successIndicators)
	likelyFailure := containsAny(lower, failureIndicators)

	status := "⚠️ UNCERTAIN"
	switch {
	case likelyFailure:
		status = "❌ LIKELY FAILURE"
	case likelySuccess:
		status = "✅ LIKELY SUCCESS"
	}

	verification := p.VerificationMethod
	if verification == "" {
		verification = "Use read_file or list_files to confirm"
	}

	output := fmt.Sprintf(`✅ RESULT VALIDATION

📋 Action Taken: %s
🎯 Expected Result: %s
📊 Actual Result: %s

%s

🔍 Suggested Verification Method: %s

⚠️ INSTRUCTIONS FOR THE AGENT:
1. Compare the expected result with the actual one
2. If uncertain, run the suggested verification
3. If it failed, use 'analyze_error' to understand the problem
4. If it succeeded, proceed to the next step`,
		p.ActionTaken, p.ExpectedResult, p.ActualResult, status, verification)

	return &Result{Title: "validate_result", Output: output}, nil
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func (t *ValidateResultTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ValidateResultTool) Complexity() string { return ComplexityComplex }

// --- progress_checkpoint -----------------------------------------------

const progressCheckpointDescription = `📊 PROGRESS CHECKPOINT - use periodically on long tasks to record and assess progress. Restates the task/steps and a confidence level alongside a fixed instruction checklist (complexity: complex).`

type ProgressCheckpointTool struct{}

func NewProgressCheckpointTool() *ProgressCheckpointTool { return &ProgressCheckpointTool{} }

func (t *ProgressCheckpointTool) ID() string          { return "progress_checkpoint" }
func (t *ProgressCheckpointTool) Description() string { return progressCheckpointDescription }
func (t *ProgressCheckpointTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"task_description": {"type": "string", "description": "Description of the main task"},
			"steps_completed": {"type": "string", "description": "List of steps already completed"},
			"steps_remaining": {"type": "string", "description": "List of steps still remaining"},
			"confidence_level": {"type": "string", "description": "Confidence level: 'high', 'medium', 'low'"}
		},
		"required": ["task_description", "steps_completed", "steps_remaining"]
	}`)
}

type progressCheckpointInput struct {
	TaskDescription string `json:"task_description"`
	StepsCompleted  string `json:"steps_completed"`
	StepsRemaining  string `json:"steps_remaining"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
}

func (t *ProgressCheckpointTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p progressCheckpointInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	confidence := p.ConfidenceLevel
	if confidence == "" {
		confidence = "medium"
	}

	output := fmt.Sprintf(`📊 PROGRESS CHECKPOINT

🎯 Task: %s

✅ Steps Completed:
%s

⏳ Steps Remaining:
%s

📈 Confidence Level: %s

⚠️ INSTRUCTIONS FOR THE AGENT:
1. Assess whether the completed steps actually succeeded
2. Check whether the remaining steps still make sense
3. If confidence is low, consider using 'replan_approach'
4. Continue with the next step in the list`,
		p.TaskDescription, p.StepsCompleted, p.StepsRemaining, strings.ToUpper(confidence))

	return &Result{Title: "progress_checkpoint", Output: output}, nil
}

func (t *ProgressCheckpointTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ProgressCheckpointTool) Complexity() string { return ComplexityComplex }
