package editor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// EnsureLines implements ensure_lines(path, lines, reason): an
// idempotent line-set union. Creates the file if absent; otherwise
// appends any input line not already present among the file's
// non-empty trimmed lines.
func (e *Editor) EnsureLines(path string, lines []string, reason string) (string, error) {
	resolved, err := e.resolve(path)
	if err != nil {
		return "", err
	}

	existing, err := os.ReadFile(resolved)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("❌ %v", err)
		}
		content := joinLines(lines)
		if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("❌ failed to write file: %v", err)
		}
		return fmt.Sprintf("✓ created %s with %d line(s). reason: %s", path, len(lines), reason), nil
	}

	present := make(map[string]bool)
	for _, l := range splitLines(string(existing)) {
		t := strings.TrimSpace(l)
		if t != "" {
			present[t] = true
		}
	}

	var added, alreadyPresent []string
	fileLines := splitLines(string(existing))
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		if present[t] {
			alreadyPresent = append(alreadyPresent, l)
			continue
		}
		fileLines = append(fileLines, l)
		present[t] = true
		added = append(added, l)
	}

	if len(added) == 0 {
		return fmt.Sprintf("ℹ all %d requested line(s) already present in %s, no-op", len(lines), path), nil
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(joinLines(fileLines)), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf(
		"✓ ensured lines in %s. reason: %s\nadded: %v\nalready present: %v",
		path, reason, added, alreadyPresent,
	), nil
}

// SearchReplace implements search_replace(path, search, replace):
// literal, non-regex substring replacement across the entire file.
// When search is absent, a levenshtein-based "did you mean" suggestion
// is offered as a diagnostic only — the replace itself never fuzzy-matches.
func (e *Editor) SearchReplace(path, search, replace string) (string, error) {
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

	text := string(data)
	count := strings.Count(text, search)
	if count == 0 {
		suggestion := suggestClosestLine(text, search)
		if suggestion != "" {
			return "", fmt.Errorf("❌ search string not found in %s. Closest line: %q", path, suggestion)
		}
		return "", fmt.Errorf("❌ search string not found in %s", path)
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}

	newText := strings.ReplaceAll(text, search, replace)
	if err := os.WriteFile(resolved, []byte(newText), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf("✓ replaced %d occurrence(s) in %s", count, path), nil
}

// suggestClosestLine returns the line of text most similar to needle,
// purely as a diagnostic hint (non-authoritative).
func suggestClosestLine(text, needle string) string {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return ""
	}
	best := ""
	bestDist := -1
	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		d := levenshtein.ComputeDistance(t, needle)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = t
		}
	}
	maxLen := len(needle)
	if len(best) > maxLen {
		maxLen = len(best)
	}
	if maxLen == 0 || bestDist > maxLen/2 {
		return ""
	}
	return best
}

// validateRange checks a 1-indexed inclusive [start, end] range against
// lineCount, permitting start == lineCount+1 only when end < start
// (pure append).
func validateRange(start, end, lineCount int) error {
	if start < 1 {
		return fmt.Errorf("❌ start-line must be >= 1, got %d", start)
	}
	if end < start {
		if start == lineCount+1 {
			return nil
		}
		return fmt.Errorf("❌ end-line %d must be >= start-line %d", end, start)
	}
	if start > lineCount+1 {
		return fmt.Errorf("❌ start-line %d exceeds file length %d", start, lineCount)
	}
	if end > lineCount {
		return fmt.Errorf("❌ end-line %d exceeds file length %d", end, lineCount)
	}
	return nil
}

// EditLines implements edit_lines(path, start, end, new-content):
// 1-indexed inclusive range replacement.
func (e *Editor) EditLines(path string, start, end int, newContent string) (string, error) {
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
	if err := validateRange(start, end, len(lines)); err != nil {
		return "", err
	}

	if newContent != "" && !strings.HasSuffix(newContent, "\n") {
		newContent += "\n"
	}
	replacement := splitLines(newContent)

	var result []string
	result = append(result, lines[:start-1]...)
	result = append(result, replacement...)
	if end < len(lines) {
		result = append(result, lines[end:]...)
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(joinLines(result)), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf("✓ replaced lines %d-%d of %s with %d line(s)", start, end, path, len(replacement)), nil
}

// InsertLines implements insert_lines(path, after-line, content):
// inserts content between after-line and after-line+1 without removing
// or replacing anything. after-line=0 prepends; after-line=line-count
// appends.
func (e *Editor) InsertLines(path string, afterLine int, content string) (string, error) {
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
	if afterLine < 0 || afterLine > len(lines) {
		return "", fmt.Errorf("❌ after-line %d out of range for %d-line file", afterLine, len(lines))
	}

	inserted := splitLines(content)

	var result []string
	result = append(result, lines[:afterLine]...)
	result = append(result, inserted...)
	result = append(result, lines[afterLine:]...)

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(joinLines(result)), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf("✓ inserted %d line(s) into %s after line %d", len(inserted), path, afterLine), nil
}

// DeleteLines implements delete_lines. Exactly one of (start, end) or
// indexList must be provided; indexList is 0-indexed and removed in
// descending order so earlier indices remain valid.
func (e *Editor) DeleteLines(path string, start, end int, indexList []int) (string, error) {
	rangeGiven := start > 0 || end > 0
	listGiven := len(indexList) > 0
	if rangeGiven == listGiven {
		return "", fmt.Errorf("❌ delete_lines requires exactly one of a start/end range or an index list")
	}

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

	var removed int
	if rangeGiven {
		if err := validateRangeStrict(start, end, len(lines)); err != nil {
			return "", err
		}
		removed = end - start + 1
		lines = append(lines[:start-1], lines[end:]...)
	} else {
		sorted := append([]int(nil), indexList...)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		for _, idx := range sorted {
			if idx < 0 || idx >= len(lines) {
				return "", fmt.Errorf("❌ index %d out of range for %d-line file", idx, len(lines))
			}
			lines = append(lines[:idx], lines[idx+1:]...)
			removed++
		}
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(joinLines(lines)), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf("✓ deleted %d line(s) from %s", removed, path), nil
}

// validateRangeStrict requires both bounds to exist in the file
// (used by delete_lines, which cannot append).
func validateRangeStrict(start, end, lineCount int) error {
	if start < 1 || end < start {
		return fmt.Errorf("❌ invalid range %d-%d", start, end)
	}
	if end > lineCount {
		return fmt.Errorf("❌ end-line %d exceeds file length %d", end, lineCount)
	}
	return nil
}

// LineEdit is one record of a multi-edit batch against a single file
// (spec §4.5 "Multi-edit protocol").
type LineEdit struct {
	StartLine  int
	EndLine    int
	NewContent string
}

// ApplyMultiEdit validates every edit against the original file
// snapshot, then applies them sorted by start-line descending so
// earlier edits' index shifts never invalidate later ones.
func (e *Editor) ApplyMultiEdit(path string, edits []LineEdit) (string, error) {
	if len(edits) == 0 {
		return "", fmt.Errorf("❌ no edits provided")
	}

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

	original := splitLines(string(data))
	lineCount := len(original)

	for _, ed := range edits {
		if err := validateRange(ed.StartLine, ed.EndLine, lineCount); err != nil {
			return "", fmt.Errorf("❌ batch validation failed for range %d-%d: %w", ed.StartLine, ed.EndLine, err)
		}
	}

	sorted := append([]LineEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartLine > sorted[j].StartLine })

	lines := append([]string(nil), original...)
	for _, ed := range sorted {
		newContent := ed.NewContent
		if newContent != "" && !strings.HasSuffix(newContent, "\n") {
			newContent += "\n"
		}
		replacement := splitLines(newContent)

		var next []string
		next = append(next, lines[:ed.StartLine-1]...)
		next = append(next, replacement...)
		if ed.EndLine < len(lines) {
			next = append(next, lines[ed.EndLine:]...)
		}
		lines = next
	}

	if _, err := e.backup(resolved); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(joinLines(lines)), 0644); err != nil {
		return "", fmt.Errorf("❌ failed to write file: %v", err)
	}

	return fmt.Sprintf("✓ applied %d edit(s) to %s", len(edits), path), nil
}
