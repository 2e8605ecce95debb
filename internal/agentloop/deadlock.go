package agentloop

import (
	"encoding/json"
	"strings"
)

// blockingMarkers are the fixed sentinels spec §4.1 names: any one of
// these appearing in a tool result means the action was refused or
// requires a change of strategy, independent of whether the call was a
// literal repeat.
var blockingMarkers = []string{
	"🚫 BLOCK:",
	"already exists with different content",
	"action blocked",
	"replan required",
	"command may hang the process",
}

// matchBlockingMarker reports the first blocking marker found in
// result, if any.
func matchBlockingMarker(result string) (marker string, found bool) {
	for _, m := range blockingMarkers {
		if strings.Contains(result, m) {
			return m, true
		}
	}
	return "", false
}

// callSignature canonicalizes a tool call's (name, args) pair so two
// calls with differently-ordered-but-equal JSON object keys compare
// equal. Arguments that fail to parse as JSON fall back to their raw
// text, still prefixed by tool name, so a malformed repeat is still
// detected as a repeat.
func callSignature(toolName, argsJSON string) string {
	var v any
	if err := json.Unmarshal([]byte(argsJSON), &v); err != nil {
		return toolName + "\x00" + argsJSON
	}
	canon, err := json.Marshal(v)
	if err != nil {
		return toolName + "\x00" + argsJSON
	}
	return toolName + "\x00" + string(canon)
}

// deadlockDetector implements spec §4.1's "Deadlock / loop detection
// and auto-replan". Grounded on the teacher's DoomLoopDetector
// (internal/permission/doom_loop.go) for the call-signature-hash idea,
// but the trigger condition is spec-literal: a repeat counter reaching
// 1 (an immediate repeat of the previous call) or any blocking marker,
// not the teacher's 3-in-a-row DoomLoopThreshold. One detector instance
// is scoped to a single task; it does not persist across tasks.
type deadlockDetector struct {
	prevSignature string
	repeatCount   int
	blockingCount int
}

func newDeadlockDetector() *deadlockDetector {
	return &deadlockDetector{}
}

// observation is what a single tool result implies for the next turn.
type observation struct {
	forceComplex bool
	marker       string
	repeated     bool
}

// observe processes one completed tool call's result.
func (d *deadlockDetector) observe(toolName, argsJSON, result string) observation {
	sig := callSignature(toolName, argsJSON)
	if sig == d.prevSignature {
		d.repeatCount++
	} else {
		d.repeatCount = 0
	}
	d.prevSignature = sig

	marker, hasMarker := matchBlockingMarker(result)
	repeated := d.repeatCount >= 1

	if repeated || hasMarker {
		d.blockingCount++
		d.repeatCount = 0
		return observation{forceComplex: true, marker: marker, repeated: repeated}
	}

	d.blockingCount = 0
	return observation{}
}
