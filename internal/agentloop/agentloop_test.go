package agentloop

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/relaycode/codeagent/internal/storage"
	"github.com/relaycode/codeagent/internal/tool"
	"github.com/relaycode/codeagent/pkg/types"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func createTempGitRepo(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "agentloop-git-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", "initial")
	return dir
}

func newTestLoop(t *testing.T, workDir string) *Loop {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "storage"))
	registry := tool.NewRegistry(workDir, store)
	cfg := &types.Config{
		Workspace:       workDir,
		MaxIterations:   30,
		MaxHistoryTasks: 2,
	}
	return New(cfg, registry, nil)
}

func TestNextTaskIDValue_Monotonic(t *testing.T) {
	l := newTestLoop(t, t.TempDir())

	first := l.nextTaskIDValue()
	second := l.nextTaskIDValue()
	third := l.nextTaskIDValue()

	if first != 1 || second != 2 || third != 3 {
		t.Fatalf("expected 1,2,3, got %d,%d,%d", first, second, third)
	}
}

func TestRecordSummary_RetentionKeepsLastNAndDigestsOlder(t *testing.T) {
	l := newTestLoop(t, t.TempDir()) // MaxHistoryTasks = 2

	for i := 1; i <= 4; i++ {
		l.recordSummary(types.TaskSummary{TaskID: i, Text: "task"})
	}

	summaries := l.TaskSummaries()
	if len(summaries) != 2 {
		t.Fatalf("expected 2 retained full summaries, got %d", len(summaries))
	}
	if summaries[0].TaskID != 3 || summaries[1].TaskID != 4 {
		t.Fatalf("expected the last 2 tasks retained in full, got ids %d,%d", summaries[0].TaskID, summaries[1].TaskID)
	}

	digests := l.TaskDigests()
	if len(digests) != 2 {
		t.Fatalf("expected 2 digests for the aged-out tasks, got %d", len(digests))
	}
	if digests[0].TaskID != 1 || digests[1].TaskID != 2 {
		t.Fatalf("expected digests for tasks 1,2, got ids %d,%d", digests[0].TaskID, digests[1].TaskID)
	}
}

func TestRetention_PersistsAndReloadsAcrossLoopInstances(t *testing.T) {
	storagePath := filepath.Join(t.TempDir(), "storage")
	workDir := t.TempDir()

	store := storage.New(storagePath)
	registry := tool.NewRegistry(workDir, store)
	cfg := &types.Config{Workspace: workDir, MaxIterations: 30, MaxHistoryTasks: 3}

	l1 := New(cfg, registry, nil)
	l1.recordSummary(types.TaskSummary{TaskID: l1.nextTaskIDValue(), Text: "first task"})

	store2 := storage.New(storagePath)
	registry2 := tool.NewRegistry(workDir, store2)
	l2 := New(cfg, registry2, nil)

	if got := l2.nextTaskIDValue(); got != 2 {
		t.Fatalf("expected the reloaded loop to resume the task-id counter at 2, got %d", got)
	}
	summaries := l2.TaskSummaries()
	if len(summaries) != 1 || summaries[0].Text != "first task" {
		t.Fatalf("expected the reloaded loop to recover the persisted summary, got %+v", summaries)
	}
}

func TestBootstrapGitSession_CreatesBranchOnceFirstTask(t *testing.T) {
	dir := createTempGitRepo(t)
	l := newTestLoop(t, dir)

	l.bootstrapGitSession("fix the login bug")

	branch := l.registry.VCS().SessionBranch()
	if branch == "" {
		t.Fatalf("expected a session branch to be created")
	}

	// A second call in the same process must not re-run bootstrap even
	// if called directly again.
	before := branch
	l.bootstrapGitSession("an unrelated second task")
	if l.registry.VCS().SessionBranch() != before {
		t.Fatalf("expected bootstrap to be a process-lifetime no-op on the second call")
	}
}

func TestBootstrapGitSession_SkipsWhenAlreadyOnASessionBranch(t *testing.T) {
	dir := createTempGitRepo(t)
	runGit(t, dir, "checkout", "-b", "session/20200101-0000-preexisting")

	l := newTestLoop(t, dir)
	l.bootstrapGitSession("do something")

	if l.registry.VCS().SessionBranch() != "" {
		t.Fatalf("expected no new session branch to be created when already on one, got %q", l.registry.VCS().SessionBranch())
	}
}

func TestBootstrapGitSession_NoOpWhenNotARepo(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoop(t, dir)

	l.bootstrapGitSession("do something")

	if l.registry.VCS().IsRepo() {
		t.Fatalf("expected bootstrap to never git-init a workspace on the Agent Loop's behalf")
	}
}

func TestInitialTranscript_DefaultDirectiveWhenPlanningDisabled(t *testing.T) {
	l := newTestLoop(t, t.TempDir())
	l.cfg.UseMultiModel = false

	tr := l.initialTranscript(nil, "fix the bug", Options{})
	if len(tr) != 2 {
		t.Fatalf("expected a 2-turn transcript, got %d", len(tr))
	}
	if tr[0].Role != types.RoleSystem || tr[0].Content != defaultSystemDirective {
		t.Fatalf("expected the default system directive, got %+v", tr[0])
	}
	if tr[1].Content != "fix the bug" {
		t.Fatalf("expected the task text verbatim, got %q", tr[1].Content)
	}
}

func TestInitialTranscript_SystemDirectiveOverride(t *testing.T) {
	l := newTestLoop(t, t.TempDir())
	l.cfg.UseMultiModel = false

	tr := l.initialTranscript(nil, "fix the bug", Options{SystemDirective: "custom directive"})
	if tr[0].Content != "custom directive" {
		t.Fatalf("expected the override directive, got %q", tr[0].Content)
	}
}
