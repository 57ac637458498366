package domain

import (
	"strings"
	"time"
)

// Run states reported by the backend.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// BotStatus is the payload of GET /api/status.
type BotStatus struct {
	Status       string               `json:"status"`
	Balance      int64                `json:"balance"`
	LatestResult string               `json:"latest_result,omitempty"`
	LastRun      *time.Time           `json:"last_run,omitempty"`
	NextRuns     map[string]time.Time `json:"next_runs,omitempty"`
}

// Running reports whether the bot process is up.
func (s BotStatus) Running() bool { return s.Status == StatusRunning }

// ResultTone classifies a latest-result text for display.
type ResultTone int

const (
	ToneNeutral ResultTone = iota
	ToneWin
	ToneLose
)

// Words the worker uses in result lines.
const (
	resultWin  = "당첨"
	resultLose = "낙첨"
)

// ClassifyResult maps a result line to its tone. A line that mentions a
// win is a win even if it also mentions a loss.
func ClassifyResult(text string) ResultTone {
	switch {
	case strings.Contains(text, resultWin):
		return ToneWin
	case strings.Contains(text, resultLose):
		return ToneLose
	}
	return ToneNeutral
}

func (t ResultTone) String() string {
	switch t {
	case ToneWin:
		return "win"
	case ToneLose:
		return "lose"
	}
	return "neutral"
}

// ActionResult is the reply of the bot control and probe endpoints. A
// failed probe is still a successful HTTP exchange with Status "error".
type ActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the action succeeded.
func (r ActionResult) OK() bool { return r.Status == "success" }

// LogTail is the payload of GET /api/logs. Each poll replaces the
// previous tail.
type LogTail struct {
	Logs []string `json:"logs"`
}

// StatusPatch is a partial status update from the bot worker. Nil fields
// are left as stored.
type StatusPatch struct {
	Balance      *int64     `json:"balance,omitempty"`
	LatestResult *string    `json:"latest_result,omitempty"`
	LastRun      *time.Time `json:"last_run,omitempty"`
}

// Empty reports whether p changes nothing.
func (p StatusPatch) Empty() bool {
	return p.Balance == nil && p.LatestResult == nil && p.LastRun == nil
}
