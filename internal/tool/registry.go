package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/relaycode/codeagent/internal/logging"
	"github.com/relaycode/codeagent/internal/storage"
	"github.com/relaycode/codeagent/internal/vcs"
	"github.com/relaycode/codeagent/pkg/types"
)

// Registry manages tool registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	workDir string
	storage *storage.Storage
	vcs     *vcs.Manager
}

// NewRegistry creates a new tool registry.
func NewRegistry(workDir string, store *storage.Storage) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		workDir: workDir,
		storage: store,
		vcs:     vcs.NewManager(workDir),
	}
}

// Storage returns the storage instance, used by the Agent Loop (C1)
// for task summary retention.
func (r *Registry) Storage() *storage.Storage {
	return r.storage
}

// VCS returns the Git Session Manager instance backing this
// registry's git_* tools. The Agent Loop (C1) bootstraps the session
// branch through it and wires its Checkpoint method into each tool
// call's Context.
func (r *Registry) VCS() *vcs.Manager {
	return r.vcs
}

// WorkDir returns the workspace root this registry's tools default to.
func (r *Registry) WorkDir() string {
	return r.workDir
}

// Register adds a tool to the registry. Tools are declared once, at
// process start (spec §4.2); a duplicate ID is a startup error, so it
// panics rather than silently shadowing the earlier registration —
// the same posture Go's own stdlib takes for fixed, compile-time
// registries (http.ServeMux.Handle, sql.Register).
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.ID()]; exists {
		panic(fmt.Sprintf("tool: duplicate registration for %q", tool.ID()))
	}
	r.tools[tool.ID()] = tool
}

// Get retrieves a tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[id]
	return tool, ok
}

// Complexity reports the complexity tag of a registered tool, for the
// Model Router (C3)'s ComplexityLookup.
func (r *Registry) Complexity(id string) (string, bool) {
	t, ok := r.Get(id)
	if !ok {
		return "", false
	}
	return t.Complexity(), true
}

// Dispatch implements the spec §4.2 "Invocation" steps for one
// tool-call request: look up the handler, execute it, and normalize
// every failure mode into the tool-result string the Agent Loop
// appends to the transcript. Never panics past this call — a handler
// panic is recovered and converted to the same "❌ ERROR" shape as a
// returned error, matching the Failure model of spec §4.1.
func (r *Registry) Dispatch(ctx context.Context, call types.ToolCall, toolCtx *Context) (output string) {
	t, ok := r.Get(call.Name)
	if !ok {
		return fmt.Sprintf("✗ tool '%s' not found", call.Name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			output = fmt.Sprintf("❌ ERROR: tool '%s' panicked: %v", call.Name, rec)
		}
	}()

	result, err := t.Execute(ctx, json.RawMessage(call.Arguments), toolCtx)
	if err != nil {
		return fmt.Sprintf("❌ ERROR: %v", err)
	}
	return result.Output
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// IDs returns all tool IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	return ids
}

// EinoTools returns Eino-compatible tools.
func (r *Registry) EinoTools() []einotool.BaseTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]einotool.BaseTool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t.EinoTool())
	}
	return tools
}

// ToolInfos returns Eino tool infos for all tools.
func (r *Registry) ToolInfos() ([]*schema.ToolInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		params := parseJSONSchemaToParams(t.Parameters())
		infos = append(infos, &schema.ToolInfo{
			Name:        t.ID(),
			Desc:        t.Description(),
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos, nil
}

// DefaultRegistry creates a registry with all built-in tools: the
// Safe File Editor (C5) operations, shell execution, the cognitive
// stub tools, and the bonus web-fetch tool.
func DefaultRegistry(workDir string, store *storage.Storage) *Registry {
	r := NewRegistry(workDir, store)

	r.Register(NewReadFileTool(workDir))
	r.Register(NewListFilesTool(workDir))
	r.Register(NewShowFileTool(workDir))
	r.Register(NewWriteFileTool(workDir))
	r.Register(NewForceWriteFileTool(workDir))
	r.Register(NewUpdateFileTool(workDir))
	r.Register(NewEnsureLinesTool(workDir))
	r.Register(NewSearchReplaceTool(workDir))
	r.Register(NewEditLinesTool(workDir))
	r.Register(NewInsertLinesTool(workDir))
	r.Register(NewDeleteLinesTool(workDir))
	r.Register(NewBatchEditLinesTool(workDir))

	r.Register(NewBashTool(workDir))
	r.Register(NewRunScriptTool(workDir))
	r.Register(NewStopBackgroundProcessTool())

	r.Register(NewSessionStartTool(r.vcs))
	r.Register(NewSessionEndTool(r.vcs))
	r.Register(NewCheckpointTool(r.vcs))
	r.Register(NewRollbackTool(r.vcs))
	r.Register(NewHistoryTool(r.vcs))
	r.Register(NewStatusTool(r.vcs))
	r.Register(NewReviewTool(r.vcs))
	r.Register(NewStashSaveTool(r.vcs))
	r.Register(NewStashApplyTool(r.vcs))
	r.Register(NewStashListTool(r.vcs))
	r.Register(NewBranchCreateTool(r.vcs))
	r.Register(NewBranchSwitchTool(r.vcs))
	r.Register(NewBranchListTool(r.vcs))
	r.Register(NewGitInitTool(r.vcs))

	r.Register(NewAnalyzeErrorTool())
	r.Register(NewReplanApproachTool())
	r.Register(NewValidateResultTool())
	r.Register(NewProgressCheckpointTool())

	r.Register(NewWebFetchTool(workDir))

	logging.Logger.Debug().Int("count", len(r.tools)).Strs("tools", r.IDs()).Msg("registered default tools")
	return r
}
