package tool

import (
	"context"
	"encoding/json"
	"fmt"

	einotool "github.com/cloudwego/eino/components/tool"

	"github.com/relaycode/codeagent/internal/editor"
	"github.com/relaycode/codeagent/internal/event"
)

// editorFor returns the Editor rooted at the call's effective
// workspace, honoring a per-call WorkDir override over the tool's
// construction-time default.
func editorFor(defaultWorkDir string, toolCtx *Context) *editor.Editor {
	workDir := defaultWorkDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		workDir = toolCtx.WorkDir
	}
	return editor.New(workDir)
}

// maybeCheckpoint honors the optional integrated-checkpoint argument
// shared by every mutation tool (spec §4.5).
func maybeCheckpoint(toolCtx *Context, checkpointArg, toolName, path string) {
	if toolCtx == nil || toolCtx.Checkpoint == nil || checkpointArg == "" {
		return
	}
	message := checkpointArg
	if message == "true" {
		message = fmt.Sprintf("auto-checkpoint: %s %s", toolName, path)
	}
	toolCtx.Checkpoint(message)
}

func publishFileEdited(toolCtx *Context, toolName, path string) {
	event.Publish(event.Event{
		Type: event.FileEdited,
		Data: event.FileEditedData{Path: path, ToolName: toolName},
	})
	_ = toolCtx
}

// --- read_file -------------------------------------------------------

const readFileDescription = `Reads a file's full UTF-8 contents (simple complexity).`

type ReadFileTool struct{ workDir string }

func NewReadFileTool(workDir string) *ReadFileTool { return &ReadFileTool{workDir: workDir} }

func (t *ReadFileTool) ID() string          { return "read_file" }
func (t *ReadFileTool) Description() string { return readFileDescription }
func (t *ReadFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"path": {"type": "string", "description": "Path relative to the workspace root"}},
		"required": ["path"]
	}`)
}

type readFileInput struct {
	Path string `json:"path"`
}

func (t *ReadFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p readFileInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).ReadFile(p.Path)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "read_file", Output: out}, nil
}

func (t *ReadFileTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ReadFileTool) Complexity() string { return ComplexitySimple }

// --- list_files --------------------------------------------------------

const listFilesDescription = `Lists files under the workspace matching a glob pattern (simple complexity), default "*", "**" for recursion.`

type ListFilesTool struct{ workDir string }

func NewListFilesTool(workDir string) *ListFilesTool { return &ListFilesTool{workDir: workDir} }

func (t *ListFilesTool) ID() string          { return "list_files" }
func (t *ListFilesTool) Description() string { return listFilesDescription }
func (t *ListFilesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"pattern": {"type": "string", "description": "Glob pattern, default '*'"}},
		"required": []
	}`)
}

type listFilesInput struct {
	Pattern string `json:"pattern,omitempty"`
}

func (t *ListFilesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p listFilesInput
	if len(input) > 0 {
		if err := json.Unmarshal(input, &p); err != nil {
			return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
		}
	}
	out, err := editorFor(t.workDir, toolCtx).ListFiles(p.Pattern)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "list_files", Output: out}, nil
}

func (t *ListFilesTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ListFilesTool) Complexity() string { return ComplexitySimple }

// --- show_file -----------------------------------------------------

const showFileDescription = `Shows a 30-line preview of a file with 1-indexed line numbers (simple complexity).`

type ShowFileTool struct{ workDir string }

func NewShowFileTool(workDir string) *ShowFileTool { return &ShowFileTool{workDir: workDir} }

func (t *ShowFileTool) ID() string          { return "show_file" }
func (t *ShowFileTool) Description() string { return showFileDescription }
func (t *ShowFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"path": {"type": "string", "description": "Path relative to the workspace root"}},
		"required": ["path"]
	}`)
}

func (t *ShowFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p readFileInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).ShowFile(p.Path)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	return &Result{Title: "show_file", Output: out}, nil
}

func (t *ShowFileTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ShowFileTool) Complexity() string { return ComplexitySimple }

// --- write_file (protected create) ----------------------------------

const writeFileDescription = `Protected-create write. If the file is absent, creates it. If it exists with byte-identical content, no-ops. If the new content extends the existing content, appends the delta. Otherwise blocks with a ` + "`🚫 BLOCK:`" + ` sentinel naming the remediation tools (complexity: simple).`

type WriteFileTool struct{ workDir string }

func NewWriteFileTool(workDir string) *WriteFileTool { return &WriteFileTool{workDir: workDir} }

func (t *WriteFileTool) ID() string          { return "write_file" }
func (t *WriteFileTool) Description() string { return writeFileDescription }
func (t *WriteFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Path relative to the workspace root"},
			"content": {"type": "string", "description": "Full desired file content"},
			"checkpoint": {"type": "string", "description": "Optional checkpoint message; 'true' for an auto-generated one"}
		},
		"required": ["path", "content"]
	}`)
}

type writeFileInput struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

func (t *WriteFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p writeFileInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).WriteFile(p.Path, p.Content)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "write_file", Output: out}, nil
}

func (t *WriteFileTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *WriteFileTool) Complexity() string { return ComplexitySimple }

// --- force_write_file -------------------------------------------------

const forceWriteFileDescription = `Unconditionally overwrites an existing file (refuses if absent — use write_file to create). Requires a reason (complexity: simple).`

type ForceWriteFileTool struct{ workDir string }

func NewForceWriteFileTool(workDir string) *ForceWriteFileTool {
	return &ForceWriteFileTool{workDir: workDir}
}

func (t *ForceWriteFileTool) ID() string          { return "force_write_file" }
func (t *ForceWriteFileTool) Description() string { return forceWriteFileDescription }
func (t *ForceWriteFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"content": {"type": "string"},
			"reason": {"type": "string", "description": "Why this unconditional overwrite is necessary"},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "content", "reason"]
	}`)
}

type forceWriteFileInput struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	Reason     string `json:"reason"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

func (t *ForceWriteFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p forceWriteFileInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).ForceWriteFile(p.Path, p.Content, p.Reason)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "force_write_file", Output: out}, nil
}

func (t *ForceWriteFileTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *ForceWriteFileTool) Complexity() string { return ComplexitySimple }

// --- update_file -------------------------------------------------------

const updateFileDescription = `Atomically replaces an existing file's entire content, reporting a before/after diff (refuses if absent). Requires a reason (complexity: simple).`

type UpdateFileTool struct{ workDir string }

func NewUpdateFileTool(workDir string) *UpdateFileTool { return &UpdateFileTool{workDir: workDir} }

func (t *UpdateFileTool) ID() string          { return "update_file" }
func (t *UpdateFileTool) Description() string { return updateFileDescription }
func (t *UpdateFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"content": {"type": "string"},
			"reason": {"type": "string"},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "content", "reason"]
	}`)
}

func (t *UpdateFileTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p forceWriteFileInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).UpdateFile(p.Path, p.Content, p.Reason)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "update_file", Output: out}, nil
}

func (t *UpdateFileTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *UpdateFileTool) Complexity() string { return ComplexitySimple }

// --- ensure_lines -----------------------------------------------------

const ensureLinesDescription = `Idempotent line-set union: appends any given line not already present in the file, creating it if absent (complexity: simple).`

type EnsureLinesTool struct{ workDir string }

func NewEnsureLinesTool(workDir string) *EnsureLinesTool { return &EnsureLinesTool{workDir: workDir} }

func (t *EnsureLinesTool) ID() string          { return "ensure_lines" }
func (t *EnsureLinesTool) Description() string { return ensureLinesDescription }
func (t *EnsureLinesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"lines": {"type": "array", "items": {"type": "string"}},
			"reason": {"type": "string"},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "lines", "reason"]
	}`)
}

type ensureLinesInput struct {
	Path       string   `json:"path"`
	Lines      []string `json:"lines"`
	Reason     string   `json:"reason"`
	Checkpoint string   `json:"checkpoint,omitempty"`
}

func (t *EnsureLinesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p ensureLinesInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).EnsureLines(p.Path, p.Lines, p.Reason)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "ensure_lines", Output: out}, nil
}

func (t *EnsureLinesTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *EnsureLinesTool) Complexity() string { return ComplexitySimple }

// --- search_replace -----------------------------------------------------

const searchReplaceDescription = `Literal, non-regex substring replacement across the whole file; all occurrences are replaced (complexity: simple).`

type SearchReplaceTool struct{ workDir string }

func NewSearchReplaceTool(workDir string) *SearchReplaceTool {
	return &SearchReplaceTool{workDir: workDir}
}

func (t *SearchReplaceTool) ID() string          { return "search_replace" }
func (t *SearchReplaceTool) Description() string { return searchReplaceDescription }
func (t *SearchReplaceTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"search": {"type": "string"},
			"replace": {"type": "string"},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "search", "replace"]
	}`)
}

type searchReplaceInput struct {
	Path       string `json:"path"`
	Search     string `json:"search"`
	Replace    string `json:"replace"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

func (t *SearchReplaceTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p searchReplaceInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).SearchReplace(p.Path, p.Search, p.Replace)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "search_replace", Output: out}, nil
}

func (t *SearchReplaceTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *SearchReplaceTool) Complexity() string { return ComplexitySimple }

// --- edit_lines -----------------------------------------------------

const editLinesDescription = `1-indexed inclusive line-range replacement; start=line-count+1 permits a pure append (complexity: simple).`

type EditLinesTool struct{ workDir string }

func NewEditLinesTool(workDir string) *EditLinesTool { return &EditLinesTool{workDir: workDir} }

func (t *EditLinesTool) ID() string          { return "edit_lines" }
func (t *EditLinesTool) Description() string { return editLinesDescription }
func (t *EditLinesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"start_line": {"type": "integer"},
			"end_line": {"type": "integer"},
			"new_content": {"type": "string"},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "start_line", "end_line", "new_content"]
	}`)
}

type editLinesInput struct {
	Path       string `json:"path"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	NewContent string `json:"new_content"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

func (t *EditLinesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p editLinesInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).EditLines(p.Path, p.StartLine, p.EndLine, p.NewContent)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "edit_lines", Output: out}, nil
}

func (t *EditLinesTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *EditLinesTool) Complexity() string { return ComplexitySimple }

// --- insert_lines -----------------------------------------------------

const insertLinesDescription = `Inserts content between after_line and after_line+1 without removing or replacing any existing line; after_line=0 prepends (complexity: simple).`

type InsertLinesTool struct{ workDir string }

func NewInsertLinesTool(workDir string) *InsertLinesTool { return &InsertLinesTool{workDir: workDir} }

func (t *InsertLinesTool) ID() string          { return "insert_lines" }
func (t *InsertLinesTool) Description() string { return insertLinesDescription }
func (t *InsertLinesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"after_line": {"type": "integer"},
			"content": {"type": "string"},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "after_line", "content"]
	}`)
}

type insertLinesInput struct {
	Path       string `json:"path"`
	AfterLine  int    `json:"after_line"`
	Content    string `json:"content"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

func (t *InsertLinesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p insertLinesInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).InsertLines(p.Path, p.AfterLine, p.Content)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "insert_lines", Output: out}, nil
}

func (t *InsertLinesTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *InsertLinesTool) Complexity() string { return ComplexitySimple }

// --- delete_lines -----------------------------------------------------

const deleteLinesDescription = `Removes lines by a {start_line, end_line} range OR an explicit 0-indexed index_list (never both); index_list removal proceeds in descending order (complexity: simple).`

type DeleteLinesTool struct{ workDir string }

func NewDeleteLinesTool(workDir string) *DeleteLinesTool { return &DeleteLinesTool{workDir: workDir} }

func (t *DeleteLinesTool) ID() string          { return "delete_lines" }
func (t *DeleteLinesTool) Description() string { return deleteLinesDescription }
func (t *DeleteLinesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"start_line": {"type": "integer"},
			"end_line": {"type": "integer"},
			"index_list": {"type": "array", "items": {"type": "integer"}},
			"checkpoint": {"type": "string"}
		},
		"required": ["path"]
	}`)
}

type deleteLinesInput struct {
	Path       string `json:"path"`
	StartLine  int    `json:"start_line,omitempty"`
	EndLine    int    `json:"end_line,omitempty"`
	IndexList  []int  `json:"index_list,omitempty"`
	Checkpoint string `json:"checkpoint,omitempty"`
}

func (t *DeleteLinesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p deleteLinesInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	out, err := editorFor(t.workDir, toolCtx).DeleteLines(p.Path, p.StartLine, p.EndLine, p.IndexList)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "delete_lines", Output: out}, nil
}

func (t *DeleteLinesTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *DeleteLinesTool) Complexity() string { return ComplexitySimple }

// --- batch_edit_lines (multi-edit protocol) -----------------------

const batchEditLinesDescription = `Applies multiple {start_line, end_line, new_content} edits to one file. All edits are validated against the original file before any is applied; they are applied sorted by start_line descending so earlier edits' line-number shifts never invalidate later ones (complexity: simple).`

type BatchEditLinesTool struct{ workDir string }

func NewBatchEditLinesTool(workDir string) *BatchEditLinesTool {
	return &BatchEditLinesTool{workDir: workDir}
}

func (t *BatchEditLinesTool) ID() string          { return "batch_edit_lines" }
func (t *BatchEditLinesTool) Description() string { return batchEditLinesDescription }
func (t *BatchEditLinesTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string"},
			"edits": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"start_line": {"type": "integer"},
						"end_line": {"type": "integer"},
						"new_content": {"type": "string"}
					},
					"required": ["start_line", "end_line", "new_content"]
				}
			},
			"checkpoint": {"type": "string"}
		},
		"required": ["path", "edits"]
	}`)
}

type batchEditRecord struct {
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	NewContent string `json:"new_content"`
}

type batchEditLinesInput struct {
	Path       string            `json:"path"`
	Edits      []batchEditRecord `json:"edits"`
	Checkpoint string            `json:"checkpoint,omitempty"`
}

func (t *BatchEditLinesTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p batchEditLinesInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}
	edits := make([]editor.LineEdit, len(p.Edits))
	for i, e := range p.Edits {
		edits[i] = editor.LineEdit{StartLine: e.StartLine, EndLine: e.EndLine, NewContent: e.NewContent}
	}
	out, err := editorFor(t.workDir, toolCtx).ApplyMultiEdit(p.Path, edits)
	if err != nil {
		return &Result{Output: err.Error()}, nil
	}
	publishFileEdited(toolCtx, t.ID(), p.Path)
	maybeCheckpoint(toolCtx, p.Checkpoint, t.ID(), p.Path)
	return &Result{Title: "batch_edit_lines", Output: out}, nil
}

func (t *BatchEditLinesTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *BatchEditLinesTool) Complexity() string { return ComplexitySimple }
