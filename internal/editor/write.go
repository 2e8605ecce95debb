package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// BlockSentinel is the literal prefix the Agent Loop's deadlock
// detector scans for (spec §4.1 "blocking markers", §4.5 write_file).
const BlockSentinel = "🚫 BLOCK:"

// normalizeForCompare collapses line-ending and trailing-whitespace
// differences for the write_file extension check (SPEC_FULL.md Open
// Question 1: whitespace/line-ending tolerant, byte-exact otherwise).
func normalizeForCompare(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

// isExtension reports whether normalized new-content is current-content
// plus an appended delta: normalized-current is a strict prefix of
// normalized-new.
func isExtension(current, newContent string) bool {
	nc := normalizeForCompare(current)
	nn := normalizeForCompare(newContent)
	return nc != nn && strings.HasPrefix(nn, nc)
}

// WriteFile implements the protected-create write_file(path, content)
// contract (spec §4.5).
func (e *Editor) WriteFile(path, content string) (string, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return "", err
	}

	existing, err := os.ReadFile(resolved)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("❌ %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
			return "", fmt.Errorf("❌ failed to create directory: %v", err)
		}
		if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("❌ failed to write file: %v", err)
		}
		return fmt.Sprintf("✓ created %s (%d bytes)", path, len(content)), nil
	}

	if string(existing) == content {
		return fmt.Sprintf("ℹ %s already matches the requested content, no-op", path), nil
	}

	if isExtension(string(existing), content) {
		if _, err := e.backup(resolved); err != nil {
			return "", err
		}
		if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("❌ failed to write file: %v", err)
		}
		return fmt.Sprintf("✓ adapted %s: appended %d byte(s)", path, len(content)-len(existing)), nil
	}

	return fmt.Sprintf(
		"%s %s already exists with different content.\nUse update_file to replace it, ensure_lines to union in new lines, edit_lines/insert_lines for targeted ranges, search_replace for literal substitutions, or force_write_file(reason) to overwrite unconditionally.",
		BlockSentinel, path,
	), nil
}

// ForceWriteFile implements force_write_file(path, content, reason):
// unconditional overwrite of an existing file only.
func (e *Editor) ForceWriteFile(path, content, reason string) (string, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("❌ %s does not exist; use write_file to create it", path)
		}
		return "", fmt.Errorf("❌ %v", err)
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf("✓ force-wrote %s (%d bytes). reason: %s", path, len(content), reason), nil
}

// UpdateFile implements update_file(path, new-content, reason): atomic
// replace of an existing file with a before/after diff preview.
func (e *Editor) UpdateFile(path, newContent, reason string) (string, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return "", err
	}

	before, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("❌ %s does not exist; use write_file to create it", path)
		}
		return "", fmt.Errorf("❌ %v", err)
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(newContent), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	beforeLines := splitLines(string(before))
	afterLines := splitLines(newContent)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(before), newContent, false)

	return fmt.Sprintf(
		"✓ updated %s. reason: %s\nbefore: %d line(s), first 5:\n%s\nafter: %d line(s), first 5:\n%s\ndiff:\n%s",
		path, reason,
		len(beforeLines), previewLines(beforeLines, 5),
		len(afterLines), previewLines(afterLines, 5),
		dmp.DiffPrettyText(diffs),
	), nil
}

func previewLines(lines []string, n int) string {
	if len(lines) < n {
		n = len(lines)
	}
	return strings.Join(lines[:n], "\n")
}
