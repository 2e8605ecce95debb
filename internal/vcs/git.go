package vcs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/relaycode/codeagent/internal/event"
	"github.com/relaycode/codeagent/internal/permission"
)

// defaultGitignore is written by GitInit when the workspace has no
// .gitignore of its own, per spec §6 persistent-state-layout.
const defaultGitignore = `.code_agent_backups/
*.pyc
__pycache__/
.DS_Store
node_modules/
*.log
.env
`

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lower-cases s, collapses runs of non-alphanumerics to a
// single hyphen, trims leading/trailing hyphens, and truncates to
// maxLen runes.
func slugify(s string, maxLen int) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugNonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = s[:maxLen]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		s = "task"
	}
	return s
}

// Manager is the Git Session Manager (C6) of spec §4.6: session
// branch lifecycle, checkpoints, rollback, stash, and branch
// operations, all shelled out to a git binary via os/exec. Operations
// are no-ops returning a friendly message when the workspace is not a
// repository, except GitInit.
type Manager struct {
	workDir        string
	sessionStarted bool
	sessionBranch  string
}

// NewManager creates a Git Session Manager rooted at workDir.
func NewManager(workDir string) *Manager {
	return &Manager{workDir: workDir}
}

// run executes git with args inside workDir, returning combined
// stdout+stderr with trailing whitespace trimmed.
func (m *Manager) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = m.workDir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return strings.TrimSpace(buf.String()), err
}

// IsRepo reports whether the workspace is (inside) a git repository.
func (m *Manager) IsRepo() bool {
	_, err := m.run("rev-parse", "--git-dir")
	return err == nil
}

func (m *Manager) currentBranch() (string, error) {
	return m.run("rev-parse", "--abbrev-ref", "HEAD")
}

// CurrentBranch exposes the checked-out branch name, used by the Agent
// Loop's git-session bootstrap (spec §4.1 phase 1) to decide whether
// the workspace is already sitting on a session branch before creating
// a new one.
func (m *Manager) CurrentBranch() (string, error) {
	return m.currentBranch()
}

// hasUncommittedChanges reports whether the working tree has staged
// or unstaged modifications (porcelain status is non-empty).
func (m *Manager) hasUncommittedChanges() (bool, error) {
	out, err := m.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func notRepoMessage(op string) string {
	return fmt.Sprintf("✓ %s: workspace is not a git repository (no-op); run git_init first", op)
}

// GitInit initializes a git repository in the workspace (if one does
// not already exist), writes a .gitignore pre-populated with common
// patterns (including the backups directory) if absent, and creates
// an initial commit of existing files.
func (m *Manager) GitInit() (string, error) {
	if m.IsRepo() {
		return "✓ git_init: workspace is already a git repository", nil
	}

	if _, err := m.run("init"); err != nil {
		return "", fmt.Errorf("❌ git init failed: %v", err)
	}

	gitignorePath := filepath.Join(m.workDir, ".gitignore")
	wroteGitignore := false
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		if err := os.WriteFile(gitignorePath, []byte(defaultGitignore), 0644); err != nil {
			return "", fmt.Errorf("❌ failed to write .gitignore: %v", err)
		}
		wroteGitignore = true
	}

	if _, err := m.run("add", "-A"); err != nil {
		return "", fmt.Errorf("❌ git add failed: %v", err)
	}
	if _, err := m.run("commit", "-m", "Initial commit"); err != nil {
		// An empty workspace produces "nothing to commit"; that is not
		// a failure of git_init itself.
		out, _ := m.run("status", "--porcelain")
		if strings.TrimSpace(out) != "" {
			return "", fmt.Errorf("❌ initial commit failed: %v", err)
		}
	}

	msg := "✓ initialized git repository and created initial commit"
	if wroteGitignore {
		msg += " (.gitignore created)"
	}
	return msg, nil
}

// SessionStart implements session_start(description): initializes the
// repository if needed, refuses while the working tree is dirty, and
// checks out a new session/<YYYYMMDD-HHMM>-<slug> branch. Idempotent
// within a process: once a session branch has been created, later
// calls report the existing branch instead of creating a new one, per
// spec §4.1's "never re-run for subsequent tasks in the same process".
func (m *Manager) SessionStart(description string) (string, error) {
	if m.sessionStarted {
		return fmt.Sprintf("✓ session already started on branch %s", m.sessionBranch), nil
	}

	if !m.IsRepo() {
		if _, err := m.GitInit(); err != nil {
			return "", err
		}
	}

	dirty, err := m.hasUncommittedChanges()
	if err != nil {
		return "", fmt.Errorf("❌ failed to check working tree status: %v", err)
	}
	if dirty {
		return "", fmt.Errorf("❌ cannot start a session with uncommitted changes; checkpoint, stash, or discard them first")
	}

	branch := fmt.Sprintf("session/%s-%s", time.Now().Format("20060102-1504"), slugify(description, 30))
	if _, err := m.run("checkout", "-b", branch); err != nil {
		return "", fmt.Errorf("❌ failed to create session branch %s: %v", branch, err)
	}

	m.sessionStarted = true
	m.sessionBranch = branch

	event.PublishSync(event.Event{
		Type: event.SessionBranchCreated,
		Data: event.SessionBranchCreatedData{Branch: branch, Base: ""},
	})

	return fmt.Sprintf("✓ started session branch %s", branch), nil
}

// SessionEnd implements session_end(target-branch): reports commits
// ahead of target, the changed files, and three ready-to-copy commands
// the human can run to merge, squash-merge, or discard the session.
// It never merges on its own.
func (m *Manager) SessionEnd(targetBranch string) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("session_end"), nil
	}
	if targetBranch == "" {
		targetBranch = "master"
	}

	current, err := m.currentBranch()
	if err != nil {
		return "", fmt.Errorf("❌ failed to resolve current branch: %v", err)
	}

	countOut, err := m.run("rev-list", "--count", targetBranch+".."+current)
	if err != nil {
		return "", fmt.Errorf("❌ failed to count commits ahead of %s: %v", targetBranch, err)
	}
	count, _ := strconv.Atoi(countOut)

	commits, _ := m.run("log", "--oneline", targetBranch+".."+current)
	changedFiles, _ := m.run("diff", "--name-status", targetBranch+"..."+current)

	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ session_end: %s is %d commit(s) ahead of %s\n", current, count, targetBranch)
	if commits != "" {
		sb.WriteString("commits:\n")
		sb.WriteString(commits)
		sb.WriteString("\n")
	}
	if changedFiles != "" {
		sb.WriteString("changed files:\n")
		sb.WriteString(changedFiles)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nready-to-copy commands (none run automatically):\n")
	fmt.Fprintf(&sb, "  merge:        git checkout %s && git merge %s\n", targetBranch, current)
	fmt.Fprintf(&sb, "  squash-merge: git checkout %s && git merge --squash %s && git commit\n", targetBranch, current)
	fmt.Fprintf(&sb, "  discard:      git checkout %s && git branch -D %s\n", targetBranch, current)

	return sb.String(), nil
}

// Checkpoint implements checkpoint(message): stages all changes and
// commits with the fixed 🔖 [CHECKPOINT] message form, returning the
// short commit hash. Publishes CheckpointCreated.
func (m *Manager) Checkpoint(message string) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("checkpoint"), nil
	}

	dirty, err := m.hasUncommittedChanges()
	if err != nil {
		return "", fmt.Errorf("❌ failed to check working tree status: %v", err)
	}
	if !dirty {
		return "✓ checkpoint: no changes to commit", nil
	}

	if _, err := m.run("add", "-A"); err != nil {
		return "", fmt.Errorf("❌ git add failed: %v", err)
	}

	commitMsg := fmt.Sprintf("🔖 [CHECKPOINT] %s (%s)", message, time.Now().Format(time.RFC3339))
	if _, err := m.run("commit", "-m", commitMsg); err != nil {
		return "", fmt.Errorf("❌ checkpoint commit failed: %v", err)
	}

	hash, err := m.run("rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("❌ failed to resolve checkpoint hash: %v", err)
	}

	event.PublishSync(event.Event{
		Type: event.CheckpointCreated,
		Data: event.CheckpointCreatedData{Message: message, Commit: hash},
	})

	return fmt.Sprintf("✓ checkpoint %s: %s", hash, message), nil
}

// Rollback implements rollback(ref, hard, files). When files is
// non-empty, only those paths are restored from ref via per-file
// checkout. Otherwise, in soft mode the current working tree is
// auto-stashed before the reset (hard mode skips the auto-stash, since
// the reset itself discards the changes).
func (m *Manager) Rollback(ref string, hard bool, files []string) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("rollback"), nil
	}
	if ref == "" {
		return "", fmt.Errorf("❌ rollback requires a ref")
	}

	if len(files) > 0 {
		args := append([]string{"checkout", ref, "--"}, files...)
		if _, err := m.run(args...); err != nil {
			return "", fmt.Errorf("❌ per-file rollback to %s failed: %v", ref, err)
		}
		return fmt.Sprintf("✓ restored %d file(s) from %s", len(files), ref), nil
	}

	var stashNote string
	if !hard {
		dirty, err := m.hasUncommittedChanges()
		if err != nil {
			return "", fmt.Errorf("❌ failed to check working tree status: %v", err)
		}
		if dirty {
			if _, err := m.run("stash", "push", "-u", "-m", "auto-stash before rollback"); err != nil {
				return "", fmt.Errorf("❌ auto-stash before rollback failed: %v", err)
			}
			stashNote = " (current changes were auto-stashed)"
		}
	}

	mode := "--soft"
	if hard {
		mode = "--hard"
	}
	if _, err := m.run("reset", mode, ref); err != nil {
		return "", fmt.Errorf("❌ rollback to %s failed: %v", ref, err)
	}

	return fmt.Sprintf("✓ rolled back to %s (%s)%s", ref, strings.TrimPrefix(mode, "--"), stashNote), nil
}

// History implements history(limit, oneline): reporting-only commit
// log.
func (m *Manager) History(limit int, oneline bool) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("history"), nil
	}
	if limit <= 0 {
		limit = 10
	}

	args := []string{"log", "-n", strconv.Itoa(limit)}
	if oneline {
		args = append(args, "--oneline")
	} else {
		args = append(args, "--format=%h %ad %s", "--date=short")
	}

	out, err := m.run(args...)
	if err != nil {
		return "", fmt.Errorf("❌ git log failed: %v", err)
	}
	if out == "" {
		return "✓ history: no commits yet", nil
	}
	return "✓ history:\n" + out, nil
}

// Status implements status(): reporting-only working tree status.
func (m *Manager) Status() (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("status"), nil
	}

	branch, err := m.currentBranch()
	if err != nil {
		return "", fmt.Errorf("❌ failed to resolve current branch: %v", err)
	}
	out, err := m.run("status", "--short")
	if err != nil {
		return "", fmt.Errorf("❌ git status failed: %v", err)
	}

	if out == "" {
		return fmt.Sprintf("✓ status: on branch %s, working tree clean", branch), nil
	}
	return fmt.Sprintf("✓ status: on branch %s\n%s", branch, out), nil
}

// Review implements review(): reporting-only summary of uncommitted
// changes, with a per-file before/after diff for modified tracked
// files.
func (m *Manager) Review() (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("review"), nil
	}

	statOut, err := m.run("diff", "--stat", "HEAD")
	if err != nil {
		return "", fmt.Errorf("❌ git diff --stat failed: %v", err)
	}
	if statOut == "" {
		return "✓ review: no uncommitted changes", nil
	}

	nameOut, err := m.run("diff", "--name-only", "HEAD")
	if err != nil {
		return "", fmt.Errorf("❌ git diff --name-only failed: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("✓ review: uncommitted changes\n")
	sb.WriteString(statOut)
	sb.WriteString("\n\n")

	dmp := diffmatchpatch.New()
	for _, name := range strings.Split(nameOut, "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		before, _ := m.run("show", "HEAD:"+name)
		resolved, within := permission.ResolveWorkspacePath(m.workDir, name)
		if !within {
			continue
		}
		afterBytes, readErr := os.ReadFile(resolved)
		if readErr != nil {
			continue
		}
		diffs := dmp.DiffMain(before, string(afterBytes), false)
		fmt.Fprintf(&sb, "--- %s ---\n%s\n", name, dmp.DiffPrettyText(diffs))
	}

	return sb.String(), nil
}

// StashSave implements stash_save(name, include-untracked). Refuses
// when the working tree is clean.
func (m *Manager) StashSave(name string, includeUntracked bool) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("stash_save"), nil
	}

	dirty, err := m.hasUncommittedChanges()
	if err != nil {
		return "", fmt.Errorf("❌ failed to check working tree status: %v", err)
	}
	if !dirty {
		return "", fmt.Errorf("❌ nothing to stash: working tree is clean")
	}

	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "-u")
	}
	if name != "" {
		args = append(args, "-m", name)
	}

	if _, err := m.run(args...); err != nil {
		return "", fmt.Errorf("❌ stash_save failed: %v", err)
	}
	return fmt.Sprintf("✓ stashed working tree as %q", name), nil
}

// StashApply implements stash_apply(ref, drop). ref defaults to the
// newest stash entry.
func (m *Manager) StashApply(ref string, drop bool) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("stash_apply"), nil
	}
	if ref == "" {
		ref = "stash@{0}"
	}

	verb := "apply"
	if drop {
		verb = "pop"
	}
	if _, err := m.run("stash", verb, ref); err != nil {
		return "", fmt.Errorf("❌ stash_apply failed: %v", err)
	}
	return fmt.Sprintf("✓ applied %s (%s)", ref, verb), nil
}

// StashList implements stash_list(): reporting-only.
func (m *Manager) StashList() (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("stash_list"), nil
	}
	out, err := m.run("stash", "list")
	if err != nil {
		return "", fmt.Errorf("❌ stash_list failed: %v", err)
	}
	if out == "" {
		return "✓ stash_list: no stashed changes", nil
	}
	return "✓ stash_list:\n" + out, nil
}

// BranchCreate implements branch_create(name, checkout).
func (m *Manager) BranchCreate(name string, checkout bool) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("branch_create"), nil
	}
	if name == "" {
		return "", fmt.Errorf("❌ branch_create requires a name")
	}

	if checkout {
		if _, err := m.run("checkout", "-b", name); err != nil {
			return "", fmt.Errorf("❌ branch_create failed: %v", err)
		}
		return fmt.Sprintf("✓ created and checked out branch %s", name), nil
	}

	if _, err := m.run("branch", name); err != nil {
		return "", fmt.Errorf("❌ branch_create failed: %v", err)
	}
	return fmt.Sprintf("✓ created branch %s", name), nil
}

// BranchSwitch implements branch_switch(name, create-if-missing).
// Refuses when uncommitted changes are present.
func (m *Manager) BranchSwitch(name string, createIfMissing bool) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("branch_switch"), nil
	}
	if name == "" {
		return "", fmt.Errorf("❌ branch_switch requires a name")
	}

	dirty, err := m.hasUncommittedChanges()
	if err != nil {
		return "", fmt.Errorf("❌ failed to check working tree status: %v", err)
	}
	if dirty {
		return "", fmt.Errorf("❌ cannot switch branches with uncommitted changes; checkpoint, stash, or discard them first")
	}

	if _, err := m.run("checkout", name); err != nil {
		if !createIfMissing {
			return "", fmt.Errorf("❌ branch_switch to %s failed: %v", name, err)
		}
		if _, err := m.run("checkout", "-b", name); err != nil {
			return "", fmt.Errorf("❌ branch_switch failed to create %s: %v", name, err)
		}
		return fmt.Sprintf("✓ created and switched to branch %s", name), nil
	}

	return fmt.Sprintf("✓ switched to branch %s", name), nil
}

// BranchList implements branch_list(show-remote).
func (m *Manager) BranchList(showRemote bool) (string, error) {
	if !m.IsRepo() {
		return notRepoMessage("branch_list"), nil
	}

	args := []string{"branch"}
	if showRemote {
		args = append(args, "-a")
	}
	out, err := m.run(args...)
	if err != nil {
		return "", fmt.Errorf("❌ branch_list failed: %v", err)
	}
	return "✓ branches:\n" + out, nil
}

// SessionBranch returns the session branch created by SessionStart, or
// "" if no session has been started yet in this process.
func (m *Manager) SessionBranch() string {
	return m.sessionBranch
}
