package types

import "time"

// ActionRecord is one entry of the Agent Loop's action trace (spec §4.1
// "Action trace"): "[<tool-name>] <args-truncated> → <result-truncated>".
type ActionRecord struct {
	ToolName     string    `json:"tool_name"`
	ArgsPreview  string    `json:"args_preview"`
	ResultPreview string   `json:"result_preview"`
	ModelUsed    string    `json:"model_used"`
	At           time.Time `json:"at"`
}

// TaskSummary is the Task summary (S) of spec §3. Full summaries are
// retained for the last MaxHistoryTasks tasks; older tasks collapse to
// a TaskDigest (spec §3 "a compact digest is retained for all prior
// tasks in the same process" — see SPEC_FULL.md "Supplemented features").
type TaskSummary struct {
	TaskID        int            `json:"task_id"`
	Text          string         `json:"text"`
	Iterations    int            `json:"iterations"`
	ToolCallCount int            `json:"tool_call_count"`
	Actions       []ActionRecord `json:"actions"`
	FinalResponse string         `json:"final_response"` // truncated
	Success       bool           `json:"success"`
	Timestamp     time.Time      `json:"timestamp"`
}

// TaskDigest is the compact form a TaskSummary degrades to once it ages
// out of the full-retention window.
type TaskDigest struct {
	TaskID    int       `json:"task_id"`
	Text      string    `json:"text"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// Digest collapses a full summary down to its compact form.
func (s TaskSummary) Digest() TaskDigest {
	return TaskDigest{TaskID: s.TaskID, Text: s.Text, Success: s.Success, Timestamp: s.Timestamp}
}

// TaskResult is execute_task's return value (spec §4.1 public contract).
type TaskResult struct {
	Success        bool   `json:"success"`
	Response       string `json:"response"`
	ActionsCount   int    `json:"actions_count"`
	Iterations     int    `json:"iterations"`
	ValidationNote string `json:"validation_report,omitempty"`
	GitReview      string `json:"git_review,omitempty"`
}
