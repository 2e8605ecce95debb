package event

import "github.com/relaycode/codeagent/pkg/types"

// TaskStartedData is the data for task.started events.
type TaskStartedData struct {
	TaskID int    `json:"task_id"`
	Text   string `json:"text"`
}

// TaskCompletedData is the data for task.completed events.
type TaskCompletedData struct {
	TaskID int               `json:"task_id"`
	Result types.TaskResult  `json:"result"`
	Digest types.TaskDigest  `json:"digest"`
}

// FileEditedData is the data for file.edited events.
type FileEditedData struct {
	Path      string `json:"path"`
	ToolName  string `json:"tool_name"`
	BackupAt  string `json:"backup_at,omitempty"`
}

// CheckpointCreatedData is the data for checkpoint.created events.
type CheckpointCreatedData struct {
	Message string `json:"message"`
	Commit  string `json:"commit"`
}

// SessionBranchCreatedData is the data for session_branch.created events.
type SessionBranchCreatedData struct {
	Branch string `json:"branch"`
	Base   string `json:"base"`
}

// ReplanTriggeredData is the data for replan.triggered events.
type ReplanTriggeredData struct {
	TaskID int    `json:"task_id"`
	Reason string `json:"reason"`
}

// VcsBranchUpdatedData is the data for vcs_branch.updated events.
type VcsBranchUpdatedData struct {
	Branch string `json:"branch"`
}
