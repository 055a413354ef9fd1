package domain

import "time"

// RunReport is the user-facing summary of a run.
type RunReport struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Status     RunStatus     `json:"status" yaml:"status"`
	Repository string        `json:"repository" yaml:"repository"`
	Base       string        `json:"base,omitempty" yaml:"base,omitempty"`
	Branch     string        `json:"branch,omitempty" yaml:"branch,omitempty"`
	Revision   string        `json:"revision,omitempty" yaml:"revision,omitempty"`
	PRNumber   int           `json:"pr_number,omitempty" yaml:"pr_number,omitempty"`
	PRURL      string        `json:"pr_url,omitempty" yaml:"pr_url,omitempty"`
	MergeSHA   string        `json:"merge_sha,omitempty" yaml:"merge_sha,omitempty"`
	Created    bool          `json:"repository_created,omitempty" yaml:"repository_created,omitempty"`
	DryRun     bool          `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Steps      []StepRecord  `json:"steps" yaml:"steps"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRunReport builds a report from the run state.
func NewRunReport(state *RunState) *RunReport {
	steps := make([]StepRecord, len(state.Steps))
	copy(steps, state.Steps)
	return &RunReport{
		RunID:      state.RunID,
		Status:     state.Status,
		Repository: state.FullName(),
		Base:       state.BaseBranch,
		Branch:     state.Branch,
		Revision:   state.Revision,
		PRNumber:   state.PRNumber,
		PRURL:      state.PRURL,
		MergeSHA:   state.MergeSHA,
		Created:    state.RepoCreated,
		DryRun:     state.DryRun,
		Duration:   state.Duration(),
		Steps:      steps,
		Error:      state.Error,
	}
}
