package agentloop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/oklog/ulid/v2"

	"github.com/relaycode/codeagent/internal/agenterror"
	"github.com/relaycode/codeagent/internal/event"
	"github.com/relaycode/codeagent/internal/logging"
	"github.com/relaycode/codeagent/internal/provider"
	"github.com/relaycode/codeagent/internal/router"
	"github.com/relaycode/codeagent/internal/tool"
	"github.com/relaycode/codeagent/pkg/types"
)

// defaultSystemDirective seeds the transcript when planning is
// disabled, skipped, or failed and the caller supplied no override.
// Grounded on the teacher's default coding-agent prompt
// (internal/session/agent.go's "You are an expert software engineer
// helping with coding tasks."), trimmed to this runtime's tool set.
const defaultSystemDirective = `You are an autonomous coding agent. Use the available tools to read, understand, and modify the workspace until the task is done, then reply with no tool calls to report the final result.`

var retentionPath = []string{"agentloop", "retention"}

// sendFunc is the LLM Transport (C4) seam: every call the loop makes
// to a model goes through a field of this type rather than the
// package-level provider.Send directly, so tests can substitute a
// scripted transport and exercise ExecuteTask end-to-end (spec §8
// scenarios A/D/F) without a live provider.
type sendFunc func(ctx context.Context, registry *provider.Registry, endpoint types.Endpoint, transcript types.Transcript, tools []*schema.ToolInfo) (types.AssistantMessage, error)

// Options carries execute_task's optional parameters (spec §4.1 Public
// contract): a system-directive override, a per-task iteration cap,
// and flags to skip planning or validation regardless of
// use-multi-model.
type Options struct {
	SystemDirective string
	MaxIterations   int
	SkipPlanning    bool
	SkipValidation  bool
}

// retentionState is the on-disk shape of the Task summary (S)
// retention window, persisted through the Tool Registry's Storage so
// a restarted process resumes its task-id counter and history instead
// of silently reusing ids — an enrichment spec §3 does not require
// (S is scoped "in the same process") but the teacher's storage layer
// is otherwise unwired; see DESIGN.md.
type retentionState struct {
	NextTaskID int                 `json:"next_task_id"`
	Summaries  []types.TaskSummary `json:"summaries"`
	Digests    []types.TaskDigest  `json:"digests"`
}

// Loop is the Agent Loop (C1): it owns the task transcript, agent
// configuration, git session state, and task-summary retention (spec
// §3 "Ownership").
type Loop struct {
	cfg       *types.Config
	registry  *tool.Registry
	providers *provider.Registry
	send      sendFunc

	mu              sync.Mutex
	gitBootstrapped bool
	nextTaskID      int
	summaries       []types.TaskSummary
	digests         []types.TaskDigest
}

// New constructs a Loop. providers may be nil when every configured
// endpoint sets BaseURL (the direct-transport branch never consults
// it).
func New(cfg *types.Config, registry *tool.Registry, providers *provider.Registry) *Loop {
	if cfg.ModelProviderConfig == nil {
		cfg.ModelProviderConfig = &types.ModelProviderConfig{}
	}
	l := &Loop{
		cfg:        cfg,
		registry:   registry,
		providers:  providers,
		send:       provider.Send,
		nextTaskID: 1,
	}
	l.loadRetention()
	return l
}

// newForTest builds a Loop with an injected transport, bypassing the
// provider registry entirely. Used by e2e_test.go's end-to-end
// scenarios to script LLM replies without a live provider.
func newForTest(cfg *types.Config, registry *tool.Registry, send sendFunc) *Loop {
	l := New(cfg, registry, nil)
	l.send = send
	return l
}

// ExecuteTask implements the spec §4.1 public contract.
func (l *Loop) ExecuteTask(ctx context.Context, task string, opts Options) (*types.TaskResult, error) {
	l.bootstrapGitSession(task)

	taskID := l.nextTaskIDValue()
	event.PublishSync(event.Event{Type: event.TaskStarted, Data: event.TaskStartedData{TaskID: taskID, Text: task}})

	maxIter := l.cfg.MaxIterations
	if opts.MaxIterations > 0 {
		maxIter = opts.MaxIterations
	}
	if maxIter <= 0 {
		maxIter = 30
	}

	transcript := l.initialTranscript(ctx, task, opts)

	toolInfos, err := l.registry.ToolInfos()
	if err != nil {
		return nil, fmt.Errorf("agentloop: building tool schema: %w", err)
	}

	sessionID := ulid.Make().String()
	detector := newDeadlockDetector()
	complexityLookup := router.ComplexityLookup(l.registry.Complexity)

	var (
		actions       []string
		actionRecords []types.ActionRecord
		prevToolCalls []types.ToolCall
		forceComplex  bool
		finalResponse string
		success       bool
	)

	iterations := 0
	for {
		iterations++
		if iterations > maxIter {
			iterations--
			break
		}

		routedCalls := prevToolCalls
		if !l.cfg.UseMultiModel {
			routedCalls = nil
		}
		endpoint := router.Select(*l.cfg.ModelProviderConfig, routedCalls, complexityLookup, forceComplex)
		forceComplex = false

		reply, sendErr := l.send(ctx, l.providers, endpoint, transcript, toolInfos)
		if sendErr != nil {
			terr := &agenterror.TransportError{Endpoint: endpoint.ModelName, Err: sendErr}
			return &types.TaskResult{
				Success:      false,
				Response:     terr.Error(),
				Iterations:   iterations,
				ActionsCount: len(actionRecords),
			}, nil
		}

		for i := range reply.ToolCalls {
			if reply.ToolCalls[i].ID == "" {
				reply.ToolCalls[i].ID = ulid.Make().String()
			}
		}

		transcript = append(transcript, types.Turn{
			Role:      types.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		if !reply.HasToolCalls() {
			finalResponse = reply.Content
			success = true
			break
		}

		prevToolCalls = reply.ToolCalls
		for _, call := range reply.ToolCalls {
			toolCtx := &tool.Context{
				SessionID: sessionID,
				CallID:    call.ID,
				WorkDir:   l.registry.WorkDir(),
				Checkpoint: func(message string) (string, error) {
					return l.registry.VCS().Checkpoint(message)
				},
			}

			result := l.registry.Dispatch(ctx, call, toolCtx)
			transcript = append(transcript, types.Turn{
				Role:       types.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})

			entry := formatAction(call.Name, call.Arguments, result)
			actions = append(actions, entry)
			actionRecords = append(actionRecords, types.ActionRecord{
				ToolName:      call.Name,
				ArgsPreview:   truncate(call.Arguments, tracePreviewLen),
				ResultPreview: truncate(result, tracePreviewLen),
				ModelUsed:     endpoint.ModelName,
				At:            time.Now(),
			})

			obs := detector.observe(call.Name, call.Arguments, result)
			if obs.forceComplex {
				forceComplex = true
				reason := obs.marker
				if reason == "" {
					reason = "repeated identical call"
				}
				event.PublishSync(event.Event{Type: event.ReplanTriggered, Data: event.ReplanTriggeredData{TaskID: taskID, Reason: reason}})
				transcript = append(transcript, types.Turn{
					Role:    types.RoleUser,
					Content: buildRemediationMessage(call.Name, result, lastN(actions, 5), obs.repeated),
				})
			}
		}
	}

	if !success {
		finalResponse = (&agenterror.IterationCapExhausted{Cap: maxIter}).Error()
	}

	validationNote := ""
	if success && l.cfg.UseMultiModel && !opts.SkipValidation {
		validationNote = l.validate(ctx, task, actions, finalResponse)
	}

	gitReview := ""
	if l.registry.VCS().IsRepo() {
		if review, reviewErr := l.registry.VCS().SessionEnd(""); reviewErr == nil {
			gitReview = review
		}
	}

	result := &types.TaskResult{
		Success:        success,
		Response:       finalResponse,
		ActionsCount:   len(actionRecords),
		Iterations:     iterations,
		ValidationNote: validationNote,
		GitReview:      gitReview,
	}

	summary := types.TaskSummary{
		TaskID:        taskID,
		Text:          task,
		Iterations:    iterations,
		ToolCallCount: len(actionRecords),
		Actions:       actionRecords,
		FinalResponse: truncate(finalResponse, 500),
		Success:       success,
		Timestamp:     time.Now(),
	}
	l.recordSummary(summary)

	event.PublishSync(event.Event{Type: event.TaskCompleted, Data: event.TaskCompletedData{TaskID: taskID, Result: *result, Digest: summary.Digest()}})

	return result, nil
}

// initialTranscript runs phase 2 (optional planning) and returns the
// transcript the execution loop starts from.
func (l *Loop) initialTranscript(ctx context.Context, task string, opts Options) types.Transcript {
	if l.cfg.UseMultiModel && !opts.SkipPlanning {
		base := buildPlanningTranscript(task)
		reply, err := l.send(ctx, l.providers, l.cfg.ModelProviderConfig.Complex, base, nil)
		if err != nil {
			logging.Logger.Warn().Err(err).Msg("planning call failed; falling back to unplanned transcript")
		} else {
			return appendPlan(base, reply.Content)
		}
	}

	sysDirective := opts.SystemDirective
	if sysDirective == "" {
		sysDirective = defaultSystemDirective
	}
	return types.Transcript{
		{Role: types.RoleSystem, Content: sysDirective},
		{Role: types.RoleUser, Content: task},
	}
}

// validate runs phase 4: a non-retrying verdict call against the
// complex endpoint, tools disabled.
func (l *Loop) validate(ctx context.Context, task string, actions []string, finalResponse string) string {
	vt := buildValidationTranscript(task, lastN(actions, 20), finalResponse)
	reply, err := l.send(ctx, l.providers, l.cfg.ModelProviderConfig.Complex, vt, nil)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("validation call failed")
		return ""
	}
	return fmt.Sprintf("%s: %s", parseVerdict(reply.Content), reply.Content)
}

// bootstrapGitSession implements spec §4.1 phase 1: runs at most once
// per process.
func (l *Loop) bootstrapGitSession(task string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gitBootstrapped {
		return
	}
	l.gitBootstrapped = true

	mgr := l.registry.VCS()
	if !mgr.IsRepo() {
		return
	}
	if branch, err := mgr.CurrentBranch(); err == nil && strings.HasPrefix(branch, "session/") {
		return
	}
	if _, err := mgr.SessionStart(task); err != nil {
		logging.Logger.Warn().Err(err).Msg("git session bootstrap failed")
	}
}

func (l *Loop) nextTaskIDValue() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextTaskID
	l.nextTaskID++
	return id
}

// recordSummary implements the Task summary (S) retention policy of
// spec §3: the last max-history-tasks summaries are kept in full,
// older ones collapse to a TaskDigest.
func (l *Loop) recordSummary(s types.TaskSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.summaries = append(l.summaries, s)
	max := l.cfg.MaxHistoryTasks
	if max <= 0 {
		max = 3
	}
	for len(l.summaries) > max {
		l.digests = append(l.digests, l.summaries[0].Digest())
		l.summaries = l.summaries[1:]
	}
	l.persistRetentionLocked()
}

// TaskSummaries returns the currently retained full task summaries.
func (l *Loop) TaskSummaries() []types.TaskSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.TaskSummary, len(l.summaries))
	copy(out, l.summaries)
	return out
}

// TaskDigests returns the compact digests of every task that has aged
// out of the full-retention window.
func (l *Loop) TaskDigests() []types.TaskDigest {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.TaskDigest, len(l.digests))
	copy(out, l.digests)
	return out
}

func (l *Loop) loadRetention() {
	store := l.registry.Storage()
	if store == nil {
		return
	}
	var st retentionState
	if err := store.Get(context.Background(), retentionPath, &st); err != nil {
		return
	}
	if st.NextTaskID > 0 {
		l.nextTaskID = st.NextTaskID
	}
	l.summaries = st.Summaries
	l.digests = st.Digests
}

// persistRetentionLocked must be called with l.mu held.
func (l *Loop) persistRetentionLocked() {
	store := l.registry.Storage()
	if store == nil {
		return
	}
	st := retentionState{NextTaskID: l.nextTaskID, Summaries: l.summaries, Digests: l.digests}
	if err := store.Put(context.Background(), retentionPath, st); err != nil {
		logging.Logger.Warn().Err(err).Msg("failed to persist task retention state")
	}
}
