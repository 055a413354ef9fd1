package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityStatus is the outcome recorded in the activity log.
type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailure ActivityStatus = "failure"
)

// ActivityEntry is one record of the activity log.
type ActivityEntry struct {
	Time       time.Time      `json:"time"`
	RunID      string         `json:"run_id"`
	Status     ActivityStatus `json:"status"`
	Repository string         `json:"repository"`
	Base       string         `json:"base,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	PRNumber   int            `json:"pr_number,omitempty"`
	PRTitle    string         `json:"pr_title,omitempty"`
	PRURL      string         `json:"pr_url,omitempty"`
	MergeSHA   string         `json:"merge_sha,omitempty"`
	Revision   string         `json:"revision,omitempty"`
	FailedStep StepType       `json:"failed_step,omitempty"`
	Error      string         `json:"error,omitempty"`
	DryRun     bool           `json:"dry_run,omitempty"`
}

// NewActivityEntry summarizes the run state at time now.
func NewActivityEntry(state *RunState, now time.Time) ActivityEntry {
	status := ActivityStatusSuccess
	if state.Status == RunStatusFailed {
		status = ActivityStatusFailure
	}
	return ActivityEntry{
		Time:       now.UTC(),
		RunID:      state.RunID,
		Status:     status,
		Repository: state.FullName(),
		Base:       state.BaseBranch,
		Branch:     state.Branch,
		PRNumber:   state.PRNumber,
		PRTitle:    state.PRTitle,
		PRURL:      state.PRURL,
		MergeSHA:   state.MergeSHA,
		Revision:   state.Revision,
		FailedStep: state.FailedStep,
		Error:      state.Error,
		DryRun:     state.DryRun,
	}
}

// Summary is the one-line message for the repository log.
func (e ActivityEntry) Summary() string {
	if e.Status == ActivityStatusFailure {
		msg := "Failed to complete automation"
		if e.FailedStep != "" {
			msg += " at " + string(e.FailedStep)
		}
		return msg + ": " + firstLine(e.Error)
	}
	return fmt.Sprintf("Successfully merged PR #%d ('%s') from '%s'.", e.PRNumber, e.PRTitle, e.Branch)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
