package vcs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitInit_NewWorkspace(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "vcs-git-init-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("hello\n"), 0644))

	mgr := NewManager(tmpDir)
	require.False(t, mgr.IsRepo())

	out, err := mgr.GitInit()
	require.NoError(t, err)
	assert.Contains(t, out, "initialized")
	assert.True(t, mgr.IsRepo())

	_, statErr := os.Stat(filepath.Join(tmpDir, ".gitignore"))
	assert.NoError(t, statErr, "git_init should write a .gitignore")

	out2, err := mgr.GitInit()
	require.NoError(t, err)
	assert.Contains(t, out2, "already a git repository")
}

func TestSessionStart_RefusesWhenDirty(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dirty.txt"), []byte("x"), 0644))

	mgr := NewManager(tmpDir)
	_, err := mgr.SessionStart("add dirty feature")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted changes")
}

func TestSessionStart_CreatesSlugifiedBranch(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	out, err := mgr.SessionStart("Fix the Login Bug!!")
	require.NoError(t, err)
	assert.Contains(t, out, "session/")
	assert.Contains(t, out, "fix-the-login-bug")

	branch, err := mgr.currentBranch()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(branch, "session/"))
	assert.Equal(t, branch, mgr.SessionBranch())
}

func TestSessionStart_IdempotentWithinProcess(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	_, err := mgr.SessionStart("first task")
	require.NoError(t, err)
	firstBranch := mgr.SessionBranch()

	out, err := mgr.SessionStart("a different task entirely")
	require.NoError(t, err)
	assert.Contains(t, out, "already started")
	assert.Equal(t, firstBranch, mgr.SessionBranch())
}

func TestCheckpoint_CommitsAndReturnsHash(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("changed\n"), 0644))

	out, err := mgr.Checkpoint("fixed the thing")
	require.NoError(t, err)
	assert.Contains(t, out, "checkpoint")
	assert.Contains(t, out, "fixed the thing")

	log, err := mgr.History(1, false)
	require.NoError(t, err)
	assert.Contains(t, log, "🔖 [CHECKPOINT] fixed the thing")

	dirty, err := mgr.hasUncommittedChanges()
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestCheckpoint_NoOpWhenClean(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	out, err := mgr.Checkpoint("nothing changed")
	require.NoError(t, err)
	assert.Contains(t, out, "no changes to commit")
}

func TestRollback_SoftAutoStashesDirtyChanges(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	base, err := mgr.run("rev-parse", "HEAD")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "b.txt"), []byte("b\n"), 0644))
	_, err = mgr.Checkpoint("add b")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("dirty\n"), 0644))

	out, err := mgr.Rollback(base, false, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "auto-stashed")

	stashOut, err := mgr.StashList()
	require.NoError(t, err)
	assert.NotContains(t, stashOut, "no stashed changes")
}

func TestRollback_PerFileRestore(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	original, err := os.ReadFile(filepath.Join(tmpDir, "README.md"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("mutated\n"), 0644))
	_, err = mgr.Checkpoint("mutate readme")
	require.NoError(t, err)

	out, err := mgr.Rollback("HEAD~1", false, []string{"README.md"})
	require.NoError(t, err)
	assert.Contains(t, out, "restored 1 file")

	restored, err := os.ReadFile(filepath.Join(tmpDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, string(original), string(restored))
}

func TestStashSave_RefusesWhenClean(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	_, err := mgr.StashSave("nothing to do", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clean")
}

func TestStashSaveAndApply(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("stashed content\n"), 0644))

	_, err := mgr.StashSave("wip", true)
	require.NoError(t, err)

	dirty, err := mgr.hasUncommittedChanges()
	require.NoError(t, err)
	assert.False(t, dirty, "working tree should be clean after stash")

	out, err := mgr.StashApply("", true)
	require.NoError(t, err)
	assert.Contains(t, out, "pop")

	content, err := os.ReadFile(filepath.Join(tmpDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "stashed content\n", string(content))
}

func TestBranchCreateSwitchList(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)

	_, err := mgr.BranchCreate("feature/x", false)
	require.NoError(t, err)

	list, err := mgr.BranchList(false)
	require.NoError(t, err)
	assert.Contains(t, list, "feature/x")

	out, err := mgr.BranchSwitch("feature/x", false)
	require.NoError(t, err)
	assert.Contains(t, out, "feature/x")

	branch, err := mgr.currentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature/x", branch)
}

func TestBranchSwitch_RefusesWhenDirty(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	_, err := mgr.BranchCreate("feature/y", false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "a.txt"), []byte("dirty\n"), 0644))

	_, err = mgr.BranchSwitch("feature/y", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted changes")
}

func TestBranchSwitch_CreateIfMissing(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	out, err := mgr.BranchSwitch("brand-new", true)
	require.NoError(t, err)
	assert.Contains(t, out, "created and switched")
}

func TestHistoryStatusReview_NonRepoIsNoOp(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "vcs-non-repo-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)

	out, err := mgr.Status()
	require.NoError(t, err)
	assert.Contains(t, out, "not a git repository")

	out, err = mgr.History(10, true)
	require.NoError(t, err)
	assert.Contains(t, out, "not a git repository")

	out, err = mgr.Review()
	require.NoError(t, err)
	assert.Contains(t, out, "not a git repository")
}

func TestReview_ReportsNoChangesWhenClean(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	out, err := mgr.Review()
	require.NoError(t, err)
	assert.Contains(t, out, "no uncommitted changes")
}

func TestSessionEnd_ReportsAheadCountAndCommands(t *testing.T) {
	tmpDir := createTempGitRepo(t)
	defer os.RemoveAll(tmpDir)

	mgr := NewManager(tmpDir)
	_, err := mgr.SessionStart("add a widget")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "widget.txt"), []byte("widget\n"), 0644))
	_, err = mgr.Checkpoint("implement widget")
	require.NoError(t, err)

	out, err := mgr.SessionEnd("main")
	require.NoError(t, err)
	assert.Contains(t, out, "1 commit(s) ahead of main")
	assert.Contains(t, out, "merge:")
	assert.Contains(t, out, "squash-merge:")
	assert.Contains(t, out, "discard:")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fix-the-login-bug", slugify("Fix the Login Bug!!", 30))
	assert.Equal(t, "task", slugify("   ", 30))
	assert.Equal(t, "a-very-long-task-descriptio", slugify("a very long task description that overflows thirty", 27))
}
