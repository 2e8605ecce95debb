package introspect

import (
	"encoding/json"
	"net/http"
	"time"
)

// healthzResponse is deliberately tiny: a liveness probe has no business
// returning the full retention payload.
type healthzResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// statusResponse reports the Agent Loop's in-memory task retention (S) and,
// when available, the branch the Git Session Manager currently has checked
// out — never the transcript or task text beyond the digest/summary shapes
// TaskSummary/TaskDigest already expose.
type statusResponse struct {
	Uptime    string            `json:"uptime"`
	Branch    string            `json:"branch,omitempty"`
	Summaries []taskSummaryView `json:"recent_tasks"`
	Digests   []taskDigestView  `json:"older_tasks"`
}

type taskSummaryView struct {
	TaskID        int       `json:"task_id"`
	Text          string    `json:"text"`
	Iterations    int       `json:"iterations"`
	ToolCallCount int       `json:"tool_call_count"`
	Success       bool      `json:"success"`
	Timestamp     time.Time `json:"timestamp"`
}

type taskDigestView struct {
	TaskID    int       `json:"task_id"`
	Text      string    `json:"text"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthzResponse{
		Status: "ok",
		Uptime: time.Since(s.started).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Uptime: time.Since(s.started).String()}

	if s.watcher != nil {
		resp.Branch = s.watcher.CurrentBranch()
	}

	if s.loop != nil {
		for _, sum := range s.loop.TaskSummaries() {
			resp.Summaries = append(resp.Summaries, taskSummaryView{
				TaskID:        sum.TaskID,
				Text:          sum.Text,
				Iterations:    sum.Iterations,
				ToolCallCount: sum.ToolCallCount,
				Success:       sum.Success,
				Timestamp:     sum.Timestamp,
			})
		}
		for _, dig := range s.loop.TaskDigests() {
			resp.Digests = append(resp.Digests, taskDigestView{
				TaskID:    dig.TaskID,
				Text:      dig.Text,
				Success:   dig.Success,
				Timestamp: dig.Timestamp,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
