package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/relaycode/codeagent/internal/permission"
)

// backupDirName is the subdirectory under the workspace that holds
// pre-mutation backups (spec §4.5).
const backupDirName = ".code_agent_backups"

const (
	listFilesLimit  = 50
	showFilePreview = 30
)

// Editor is the Safe File Editor (C5) of spec §4.5: all paths it
// touches are interpreted relative to a single workspace root W.
type Editor struct {
	workDir string
}

// New creates an Editor rooted at workDir.
func New(workDir string) *Editor {
	return &Editor{workDir: workDir}
}

// WorkDir returns the workspace root.
func (e *Editor) WorkDir() string { return e.workDir }

func (e *Editor) backupDir() string {
	return filepath.Join(e.workDir, backupDirName)
}

// resolve maps a caller-supplied path onto the filesystem, rejecting
// anything that escapes W or lands inside the backups directory.
func (e *Editor) resolve(path string) (string, error) {
	resolved, within := permission.ResolveWorkspacePath(e.workDir, path)
	if !within {
		return "", fmt.Errorf("❌ path escapes workspace: %s", path)
	}
	if resolved == e.backupDir() || permission.IsWithinDir(resolved, e.backupDir()) {
		return "", fmt.Errorf("❌ path resolves into the backups directory: %s", path)
	}
	return resolved, nil
}

// ReadFile returns the full contents of path.
func (e *Editor) ReadFile(path string) (string, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("❌ file not found: %s", path)
		}
		return "", fmt.Errorf("❌ %v", err)
	}

	return fmt.Sprintf("✓ read %s (%d bytes)\n%s", path, len(data), string(data)), nil
}

// ListFiles returns a bounded listing of files under W matching
// pattern, excluding the backups subdirectory.
func (e *Editor) ListFiles(pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = "*"
	}

	fsys := os.DirFS(e.workDir)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return "", fmt.Errorf("❌ invalid glob pattern %q: %v", pattern, err)
	}
	sort.Strings(matches)

	var kept []string
	for _, m := range matches {
		if m == backupDirName || strings.HasPrefix(m, backupDirName+"/") {
			continue
		}
		kept = append(kept, m)
	}

	total := len(kept)
	truncated := false
	if total > listFilesLimit {
		kept = kept[:listFilesLimit]
		truncated = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ %d file(s) matching %q\n", total, pattern)
	for _, k := range kept {
		sb.WriteString(k)
		sb.WriteString("\n")
	}
	if truncated {
		fmt.Fprintf(&sb, "... (truncated to %d entries)\n", listFilesLimit)
	}

	return sb.String(), nil
}

// ShowFile returns a preview of the first showFilePreview lines of
// path, 1-indexed, plus a remaining-count suffix.
func (e *Editor) ShowFile(path string) (string, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("❌ file not found: %s", path)
		}
		return "", fmt.Errorf("❌ %v", err)
	}

	lines := splitLines(string(data))
	total := len(lines)
	preview := lines
	remaining := 0
	if total > showFilePreview {
		preview = lines[:showFilePreview]
		remaining = total - showFilePreview
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ preview of %s (%d lines total)\n", path, total)
	for i, l := range preview {
		fmt.Fprintf(&sb, "%d| %s\n", i+1, l)
	}
	if remaining > 0 {
		fmt.Fprintf(&sb, "... (%d more line(s))\n", remaining)
	}

	return sb.String(), nil
}

// splitLines splits content on "\n" without producing a trailing empty
// element for a final-newline-terminated file.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinLines is splitLines's inverse, always newline-terminated.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
