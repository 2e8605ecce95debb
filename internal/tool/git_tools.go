package tool

import (
	"context"
	"encoding/json"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/relaycode/codeagent/internal/vcs"
)

// --- session_start ---------------------------------------------------

const sessionStartDescription = `Starts an isolated git session branch for this run, initializing the repository if needed (simple complexity). Refuses while the working tree is dirty.`

type SessionStartTool struct{ mgr *vcs.Manager }

func NewSessionStartTool(mgr *vcs.Manager) *SessionStartTool { return &SessionStartTool{mgr: mgr} }

func (t *SessionStartTool) ID() string          { return "session_start" }
func (t *SessionStartTool) Description() string { return sessionStartDescription }
func (t *SessionStartTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"description": {"type": "string", "description": "Short description of the task, slugified into the branch name"}},
		"required": ["description"]
	}`)
}

type sessionStartInput struct {
	Description string `json:"description"`
}

func (t *SessionStartTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p sessionStartInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := t.mgr.SessionStart(p.Description)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "session_start", Output: out}, nil
}

func (t *SessionStartTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *SessionStartTool) Complexity() string               { return ComplexitySimple }

// --- session_end -------------------------------------------------------

const sessionEndDescription = `Reports the session's commits ahead of a target branch, changed files, and three ready-to-copy merge/squash/discard commands (simple complexity). Never merges automatically.`

type SessionEndTool struct{ mgr *vcs.Manager }

func NewSessionEndTool(mgr *vcs.Manager) *SessionEndTool { return &SessionEndTool{mgr: mgr} }

func (t *SessionEndTool) ID() string          { return "session_end" }
func (t *SessionEndTool) Description() string { return sessionEndDescription }
func (t *SessionEndTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"target_branch": {"type": "string", "description": "Branch to compare against, default 'master'"}},
		"required": []
	}`)
}

type sessionEndInput struct {
	TargetBranch string `json:"target_branch,omitempty"`
}

func (t *SessionEndTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p sessionEndInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
		}
	}
	out, err := t.mgr.SessionEnd(p.TargetBranch)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "session_end", Output: out}, nil
}

func (t *SessionEndTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *SessionEndTool) Complexity() string               { return ComplexitySimple }

// --- checkpoint ----------------------------------------------------

const checkpointDescription = `Stages all changes and commits with a 🔖 [CHECKPOINT] message, returning the short hash (simple complexity).`

type CheckpointTool struct{ mgr *vcs.Manager }

func NewCheckpointTool(mgr *vcs.Manager) *CheckpointTool { return &CheckpointTool{mgr: mgr} }

func (t *CheckpointTool) ID() string          { return "checkpoint" }
func (t *CheckpointTool) Description() string { return checkpointDescription }
func (t *CheckpointTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"message": {"type": "string", "description": "Checkpoint message"}},
		"required": ["message"]
	}`)
}

type checkpointInput struct {
	Message string `json:"message"`
}

func (t *CheckpointTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p checkpointInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := t.mgr.Checkpoint(p.Message)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "checkpoint", Output: out}, nil
}

func (t *CheckpointTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *CheckpointTool) Complexity() string               { return ComplexitySimple }

// --- rollback --------------------------------------------------------

const rollbackDescription = `Resets the working tree to ref, or restores specific files from ref (simple complexity). Soft mode auto-stashes current changes first; hard mode discards them.`

type RollbackTool struct{ mgr *vcs.Manager }

func NewRollbackTool(mgr *vcs.Manager) *RollbackTool { return &RollbackTool{mgr: mgr} }

func (t *RollbackTool) ID() string          { return "rollback" }
func (t *RollbackTool) Description() string { return rollbackDescription }
func (t *RollbackTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"ref": {"type": "string", "description": "Commit-ish to roll back to"},
			"hard": {"type": "boolean", "description": "Hard reset instead of soft, default false"},
			"files": {"type": "array", "items": {"type": "string"}, "description": "Optional: restore only these paths from ref"}
		},
		"required": ["ref"]
	}`)
}

type rollbackInput struct {
	Ref   string   `json:"ref"`
	Hard  bool     `json:"hard,omitempty"`
	Files []string `json:"files,omitempty"`
}

func (t *RollbackTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p rollbackInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := t.mgr.Rollback(p.Ref, p.Hard, p.Files)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "rollback", Output: out}, nil
}

func (t *RollbackTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *RollbackTool) Complexity() string               { return ComplexitySimple }

// --- history / status / review (reporting-only) -----------------------

const historyDescription = `Reports recent commit history (simple complexity).`

type HistoryTool struct{ mgr *vcs.Manager }

func NewHistoryTool(mgr *vcs.Manager) *HistoryTool { return &HistoryTool{mgr: mgr} }

func (t *HistoryTool) ID() string          { return "history" }
func (t *HistoryTool) Description() string { return historyDescription }
func (t *HistoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"limit": {"type": "integer", "description": "Max commits to show, default 10"},
			"oneline": {"type": "boolean", "description": "One-line-per-commit format, default false"}
		},
		"required": []
	}`)
}

type historyInput struct {
	Limit   int  `json:"limit,omitempty"`
	Oneline bool `json:"oneline,omitempty"`
}

func (t *HistoryTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p historyInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
		}
	}
	out, err := t.mgr.History(p.Limit, p.Oneline)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "history", Output: out}, nil
}

func (t *HistoryTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *HistoryTool) Complexity() string               { return ComplexitySimple }

const statusDescription = `Reports the current branch and working tree status (simple complexity).`

type StatusTool struct{ mgr *vcs.Manager }

func NewStatusTool(mgr *vcs.Manager) *StatusTool { return &StatusTool{mgr: mgr} }

func (t *StatusTool) ID() string          { return "status" }
func (t *StatusTool) Description() string { return statusDescription }
func (t *StatusTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}, "required": []}`)
}

func (t *StatusTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	out, err := t.mgr.Status()
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "status", Output: out}, nil
}

func (t *StatusTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *StatusTool) Complexity() string               { return ComplexitySimple }

const reviewDescription = `Reports uncommitted changes with per-file before/after diffs (simple complexity).`

type ReviewTool struct{ mgr *vcs.Manager }

func NewReviewTool(mgr *vcs.Manager) *ReviewTool { return &ReviewTool{mgr: mgr} }

func (t *ReviewTool) ID() string          { return "review" }
func (t *ReviewTool) Description() string { return reviewDescription }
func (t *ReviewTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}, "required": []}`)
}

func (t *ReviewTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	out, err := t.mgr.Review()
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "review", Output: out}, nil
}

func (t *ReviewTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ReviewTool) Complexity() string               { return ComplexitySimple }

// --- stash -------------------------------------------------------------

const stashSaveDescription = `Stashes the working tree under an optional name (simple complexity). Refuses when the working tree is clean.`

type StashSaveTool struct{ mgr *vcs.Manager }

func NewStashSaveTool(mgr *vcs.Manager) *StashSaveTool { return &StashSaveTool{mgr: mgr} }

func (t *StashSaveTool) ID() string          { return "stash_save" }
func (t *StashSaveTool) Description() string { return stashSaveDescription }
func (t *StashSaveTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Optional stash message"},
			"include_untracked": {"type": "boolean", "description": "Include untracked files, default true"}
		},
		"required": []
	}`)
}

type stashSaveInput struct {
	Name             string `json:"name,omitempty"`
	IncludeUntracked *bool  `json:"include_untracked,omitempty"`
}

func (t *StashSaveTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p stashSaveInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
		}
	}
	includeUntracked := true
	if p.IncludeUntracked != nil {
		includeUntracked = *p.IncludeUntracked
	}
	out, err := t.mgr.StashSave(p.Name, includeUntracked)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "stash_save", Output: out}, nil
}

func (t *StashSaveTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *StashSaveTool) Complexity() string               { return ComplexitySimple }

const stashApplyDescription = `Applies a stash entry, defaulting to the newest, optionally dropping it after (simple complexity).`

type StashApplyTool struct{ mgr *vcs.Manager }

func NewStashApplyTool(mgr *vcs.Manager) *StashApplyTool { return &StashApplyTool{mgr: mgr} }

func (t *StashApplyTool) ID() string          { return "stash_apply" }
func (t *StashApplyTool) Description() string { return stashApplyDescription }
func (t *StashApplyTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"ref": {"type": "string", "description": "Stash ref, default 'stash@{0}' (newest)"},
			"drop": {"type": "boolean", "description": "Drop the stash entry after applying, default true"}
		},
		"required": []
	}`)
}

type stashApplyInput struct {
	Ref  string `json:"ref,omitempty"`
	Drop *bool  `json:"drop,omitempty"`
}

func (t *StashApplyTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p stashApplyInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
		}
	}
	drop := true
	if p.Drop != nil {
		drop = *p.Drop
	}
	out, err := t.mgr.StashApply(p.Ref, drop)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "stash_apply", Output: out}, nil
}

func (t *StashApplyTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *StashApplyTool) Complexity() string               { return ComplexitySimple }

const stashListDescription = `Lists stash entries (simple complexity).`

type StashListTool struct{ mgr *vcs.Manager }

func NewStashListTool(mgr *vcs.Manager) *StashListTool { return &StashListTool{mgr: mgr} }

func (t *StashListTool) ID() string          { return "stash_list" }
func (t *StashListTool) Description() string { return stashListDescription }
func (t *StashListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}, "required": []}`)
}

func (t *StashListTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	out, err := t.mgr.StashList()
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "stash_list", Output: out}, nil
}

func (t *StashListTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *StashListTool) Complexity() string               { return ComplexitySimple }

// --- branch --------------------------------------------------------

const branchCreateDescription = `Creates a new branch, optionally checking it out (simple complexity).`

type BranchCreateTool struct{ mgr *vcs.Manager }

func NewBranchCreateTool(mgr *vcs.Manager) *BranchCreateTool { return &BranchCreateTool{mgr: mgr} }

func (t *BranchCreateTool) ID() string          { return "branch_create" }
func (t *BranchCreateTool) Description() string { return branchCreateDescription }
func (t *BranchCreateTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "New branch name"},
			"checkout": {"type": "boolean", "description": "Check it out immediately, default true"}
		},
		"required": ["name"]
	}`)
}

type branchCreateInput struct {
	Name     string `json:"name"`
	Checkout *bool  `json:"checkout,omitempty"`
}

func (t *BranchCreateTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p branchCreateInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	checkout := true
	if p.Checkout != nil {
		checkout = *p.Checkout
	}
	out, err := t.mgr.BranchCreate(p.Name, checkout)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "branch_create", Output: out}, nil
}

func (t *BranchCreateTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *BranchCreateTool) Complexity() string               { return ComplexitySimple }

const branchSwitchDescription = `Switches to an existing branch, optionally creating it first (simple complexity). Refuses with uncommitted changes present.`

type BranchSwitchTool struct{ mgr *vcs.Manager }

func NewBranchSwitchTool(mgr *vcs.Manager) *BranchSwitchTool { return &BranchSwitchTool{mgr: mgr} }

func (t *BranchSwitchTool) ID() string          { return "branch_switch" }
func (t *BranchSwitchTool) Description() string { return branchSwitchDescription }
func (t *BranchSwitchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Branch name to switch to"},
			"create_if_missing": {"type": "boolean", "description": "Create the branch if it doesn't exist, default false"}
		},
		"required": ["name"]
	}`)
}

type branchSwitchInput struct {
	Name            string `json:"name"`
	CreateIfMissing bool   `json:"create_if_missing,omitempty"`
}

func (t *BranchSwitchTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p branchSwitchInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := t.mgr.BranchSwitch(p.Name, p.CreateIfMissing)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "branch_switch", Output: out}, nil
}

func (t *BranchSwitchTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *BranchSwitchTool) Complexity() string               { return ComplexitySimple }

const branchListDescription = `Lists local branches, optionally including remotes (simple complexity).`

type BranchListTool struct{ mgr *vcs.Manager }

func NewBranchListTool(mgr *vcs.Manager) *BranchListTool { return &BranchListTool{mgr: mgr} }

func (t *BranchListTool) ID() string          { return "branch_list" }
func (t *BranchListTool) Description() string { return branchListDescription }
func (t *BranchListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"show_remote": {"type": "boolean", "description": "Include remote-tracking branches, default false"}},
		"required": []
	}`)
}

type branchListInput struct {
	ShowRemote bool `json:"show_remote,omitempty"`
}

func (t *BranchListTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p branchListInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
		}
	}
	out, err := t.mgr.BranchList(p.ShowRemote)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "branch_list", Output: out}, nil
}

func (t *BranchListTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *BranchListTool) Complexity() string               { return ComplexitySimple }

// --- git_init --------------------------------------------------------

const gitInitDescription = `Initializes a git repository in the workspace if one doesn't already exist, writing a .gitignore and an initial commit (simple complexity).`

type GitInitTool struct{ mgr *vcs.Manager }

func NewGitInitTool(mgr *vcs.Manager) *GitInitTool { return &GitInitTool{mgr: mgr} }

func (t *GitInitTool) ID() string          { return "git_init" }
func (t *GitInitTool) Description() string { return gitInitDescription }
func (t *GitInitTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}, "required": []}`)
}

func (t *GitInitTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	out, err := t.mgr.GitInit()
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "git_init", Output: out}, nil
}

func (t *GitInitTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *GitInitTool) Complexity() string               { return ComplexitySimple }
