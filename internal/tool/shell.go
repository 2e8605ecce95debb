package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	einotool "github.com/cloudwego/eino/components/tool"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/relaycode/codeagent/internal/permission"
)

// Timeouts and output bound for the shell tools (spec §4.6 "External
// process lifecycle"): 30s per command, 60s per script.
const (
	CommandTimeout  = 30 * time.Second
	ScriptTimeout   = 60 * time.Second
	MaxOutputLength = 30000
	sigkillGrace    = 3 * time.Second
)

func detectShell() string {
	if s := os.Getenv("SHELL"); s != "" && s != "/bin/fish" && s != "/usr/bin/fish" {
		return s
	}
	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}
	return "/bin/sh"
}

func truncateOutput(s string) string {
	if len(s) > MaxOutputLength {
		return s[:MaxOutputLength] + "\n\n(output truncated)"
	}
	return s
}

// --- run_command ---------------------------------------------------

const runCommandDescription = `Runs a single shell command to completion and returns its combined stdout/stderr. Commands matching the destructive denylist are rejected outright; commands that look like they start a long-running server are rejected unless already backgrounded with a PID file (use run_command with nohup ... & plus echo $! > a .pid file, then stop_background_process to end it). Default timeout 30s (complexity: simple).`

// RunCommandTool executes a single shell command.
type RunCommandTool struct {
	workDir string
	shell   string
}

func NewBashTool(workDir string) *RunCommandTool {
	return &RunCommandTool{workDir: workDir, shell: detectShell()}
}

func (t *RunCommandTool) ID() string          { return "run_command" }
func (t *RunCommandTool) Description() string { return runCommandDescription }

func (t *RunCommandTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "The shell command to execute"},
			"timeout": {"type": "integer", "description": "Optional timeout in milliseconds, capped at 30000"}
		},
		"required": ["command"]
	}`)
}

type runCommandInput struct {
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

func (t *RunCommandTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p runCommandInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}

	if permission.IsDangerous(p.Command) {
		return &Result{Output: fmt.Sprintf("❌ command matches a denylisted destructive pattern: %s", p.Command)}, nil
	}
	if permission.LooksBlocking(p.Command) && !permission.HasBackgroundForm(p.Command) {
		return &Result{Output: "🚫 BLOCK: this command looks like it starts a long-running server and will hang the agent. " +
			"Re-run it backgrounded: wrap it with nohup, end it with '&', and capture its PID, e.g. " +
			"`nohup " + p.Command + " > out.log 2>&1 & echo $! > server.pid`, then use stop_background_process to end it."}, nil
	}

	workDir := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		workDir = toolCtx.WorkDir
	}

	timeout := CommandTimeout
	if p.Timeout > 0 {
		d := time.Duration(p.Timeout) * time.Millisecond
		if d < timeout {
			timeout = d
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, t.shell, "/c", p.Command)
	} else {
		cmd = exec.CommandContext(cmdCtx, t.shell, "-c", p.Command)
	}
	cmd.Dir = workDir
	cmd.Env = os.Environ()
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	output, err := cmd.CombinedOutput()
	timedOut := cmdCtx.Err() == context.DeadlineExceeded

	result := truncateOutput(string(output))
	if timedOut {
		result += fmt.Sprintf("\n\n❌ command timed out after %v and was killed", timeout)
	} else if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			result += fmt.Sprintf("\n\n❌ %v", err)
		}
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	return &Result{
		Title:    "run_command",
		Output:   result,
		Metadata: map[string]any{"exit": exitCode, "timed_out": timedOut},
	}, nil
}

func (t *RunCommandTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *RunCommandTool) Complexity() string { return ComplexitySimple }

// --- run_script -----------------------------------------------------

const runScriptDescription = `Parses and runs a multi-line POSIX shell script through an embedded interpreter rather than shelling out to bash -c, so the destructive/blocking-pattern scan walks the parsed command AST as well as matching the raw script text. Default timeout 60s (complexity: simple).`

// RunScriptTool executes a multi-line script via mvdan.cc/sh/v3/interp.
type RunScriptTool struct {
	workDir string
}

func NewRunScriptTool(workDir string) *RunScriptTool { return &RunScriptTool{workDir: workDir} }

func (t *RunScriptTool) ID() string          { return "run_script" }
func (t *RunScriptTool) Description() string { return runScriptDescription }

func (t *RunScriptTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"script": {"type": "string", "description": "Multi-line POSIX shell script source"},
			"timeout": {"type": "integer", "description": "Optional timeout in milliseconds, capped at 60000"}
		},
		"required": ["script"]
	}`)
}

type runScriptInput struct {
	Script  string `json:"script"`
	Timeout int    `json:"timeout,omitempty"`
}

// scanScript walks the parsed AST's simple commands, printing each
// back to text and running it through the same denylist/blocking
// checks run_command applies to a literal string.
func scanScript(file *syntax.File) (dangerous, blocking string) {
	printer := syntax.NewPrinter()
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || dangerous != "" {
			return true
		}
		var buf bytes.Buffer
		if err := printer.Print(&buf, call); err != nil {
			return true
		}
		text := buf.String()
		if permission.IsDangerous(text) {
			dangerous = text
		} else if permission.LooksBlocking(text) && blocking == "" {
			blocking = text
		}
		return true
	})
	return dangerous, blocking
}

func (t *RunScriptTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p runScriptInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}

	if permission.IsDangerous(p.Script) {
		return &Result{Output: "❌ script matches a denylisted destructive pattern"}, nil
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(p.Script), "")
	if err != nil {
		return &Result{Output: fmt.Sprintf("❌ script parse error: %v", err)}, nil
	}

	if dangerous, blocking := scanScript(file); dangerous != "" {
		return &Result{Output: fmt.Sprintf("❌ script contains a denylisted destructive command: %s", dangerous)}, nil
	} else if blocking != "" && !permission.HasBackgroundForm(p.Script) {
		return &Result{Output: fmt.Sprintf("🚫 BLOCK: script contains a command that looks like it starts a long-running server (%s) without being backgrounded with a PID file. "+
			"Background it explicitly (nohup ... & plus echo $! > *.pid) or split it out of this script.", blocking)}, nil
	}

	workDir := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		workDir = toolCtx.WorkDir
	}

	timeout := ScriptTimeout
	if p.Timeout > 0 {
		d := time.Duration(p.Timeout) * time.Millisecond
		if d < timeout {
			timeout = d
		}
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.StdIO(nil, &stdout, &stderr),
		interp.Dir(workDir),
	)
	if err != nil {
		return &Result{Output: fmt.Sprintf("❌ failed to initialize script runner: %v", err)}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runErr := runner.Run(runCtx, file)
	timedOut := runCtx.Err() == context.DeadlineExceeded

	combined := truncateOutput(stdout.String() + stderr.String())
	if timedOut {
		combined += fmt.Sprintf("\n\n❌ script timed out after %v and was killed", timeout)
	} else if runErr != nil {
		if exitStatus, ok := runErr.(interp.ExitStatus); ok {
			combined += fmt.Sprintf("\n\n(exit status %d)", exitStatus)
		} else {
			combined += fmt.Sprintf("\n\n❌ %v", runErr)
		}
	}

	return &Result{Title: "run_script", Output: combined}, nil
}

func (t *RunScriptTool) EinoTool() einotool.InvokableTool { return &einoToolWrapper{tool: t} }
func (t *RunScriptTool) Complexity() string { return ComplexitySimple }

// --- stop_background_process ----------------------------------------

const stopBackgroundProcessDescription = `Reads the PID recorded by a backgrounded run_command/run_script invocation's .pid file, sends SIGTERM, waits briefly, escalates to SIGKILL if still alive, then removes the PID file (complexity: simple).`

// StopBackgroundProcessTool terminates a process started in background
// form and recorded to a PID file.
type StopBackgroundProcessTool struct{}

func NewStopBackgroundProcessTool() *StopBackgroundProcessTool {
	return &StopBackgroundProcessTool{}
}

func (t *StopBackgroundProcessTool) ID() string { return "stop_background_process" }
func (t *StopBackgroundProcessTool) Description() string {
	return stopBackgroundProcessDescription
}

func (t *StopBackgroundProcessTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pid_file": {"type": "string", "description": "Path to the .pid file recorded when the process was backgrounded"}
		},
		"required": ["pid_file"]
	}`)
}

type stopBackgroundProcessInput struct {
	PIDFile string `json:"pid_file"`
}

func (t *StopBackgroundProcessTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var p stopBackgroundProcessInput
	if err := json.Unmarshal(input, &p); err != nil {
		return &Result{Output: fmt.Sprintf("❌ invalid arguments: %v", err)}, nil
	}

	workDir := ""
	if toolCtx != nil {
		workDir = toolCtx.WorkDir
	}
	resolved, within := permission.ResolveWorkspacePath(workDir, p.PIDFile)
	if !within {
		return &Result{Output: fmt.Sprintf("❌ path escapes workspace: %s", p.PIDFile)}, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return &Result{Output: fmt.Sprintf("❌ failed to read PID file %s: %v", p.PIDFile, err)}, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return &Result{Output: fmt.Sprintf("❌ PID file %s does not contain a valid integer: %v", p.PIDFile, err)}, nil
	}

	if runtime.GOOS == "windows" {
		_ = exec.Command("taskkill", "/pid", strconv.Itoa(pid), "/f", "/t").Run()
	} else {
		_ = syscall.Kill(-pid, syscall.SIGTERM)
		time.Sleep(sigkillGrace)
		if err := syscall.Kill(pid, 0); err == nil {
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		}
	}

	_ = os.Remove(resolved)

	return &Result{
		Title:  "stop_background_process",
		Output: fmt.Sprintf("✓ stopped process %d recorded in %s", pid, p.PIDFile),
	}, nil
}

func (t *StopBackgroundProcessTool) EinoTool() einotool.InvokableTool {
	return &einoToolWrapper{tool: t}
}
func (t *StopBackgroundProcessTool) Complexity() string { return ComplexitySimple }
