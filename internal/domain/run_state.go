package domain

import (
	"time"
)

// RunStatus represents the overall status of a PR cycle run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StepStatus represents the status of an individual step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepType identifies a step of the PR cycle
type StepType string

const (
	StepEnsureRepository StepType = "ensure_repository"
	StepResolveBase      StepType = "resolve_base"
	StepCreateBranch     StepType = "create_branch"
	StepCommitFile       StepType = "commit_file"
	StepOpenPullRequest  StepType = "open_pull_request"
	StepMergePullRequest StepType = "merge_pull_request"
	StepAppendLog        StepType = "append_log"
	StepDeleteBranch     StepType = "delete_branch"
)

// RunState tracks one PR cycle from repository check to branch deletion.
type RunState struct {
	RunID       string       `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"updated_at"`
	Owner       string       `json:"owner" yaml:"owner"`
	Repo        string       `json:"repo" yaml:"repo"`
	BaseBranch  string       `json:"base_branch,omitempty" yaml:"base_branch,omitempty"`
	BaseSHA     string       `json:"base_sha,omitempty" yaml:"base_sha,omitempty"`
	Branch      string       `json:"branch,omitempty" yaml:"branch,omitempty"`
	Revision    string       `json:"revision,omitempty" yaml:"revision,omitempty"`
	CommitSHA   string       `json:"commit_sha,omitempty" yaml:"commit_sha,omitempty"`
	PRNumber    int          `json:"pr_number,omitempty" yaml:"pr_number,omitempty"`
	PRTitle     string       `json:"pr_title,omitempty" yaml:"pr_title,omitempty"`
	PRURL       string       `json:"pr_url,omitempty" yaml:"pr_url,omitempty"`
	MergeSHA    string       `json:"merge_sha,omitempty" yaml:"merge_sha,omitempty"`
	RepoCreated bool         `json:"repo_created,omitempty" yaml:"repo_created,omitempty"`
	DryRun      bool         `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Steps       []StepRecord `json:"steps" yaml:"steps"`
	Status      RunStatus    `json:"status" yaml:"status"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
	FailedStep  StepType     `json:"failed_step,omitempty" yaml:"failed_step,omitempty"`
}

// StepRecord represents a single step in the run
type StepRecord struct {
	Type        StepType          `json:"type" yaml:"type"`
	Status      StepStatus        `json:"status" yaml:"status"`
	StartedAt   *time.Time        `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Details     map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewRunState creates a pending run state
func NewRunState(runID, owner, repo string, now time.Time) *RunState {
	return &RunState{
		RunID:     runID,
		StartedAt: now,
		UpdatedAt: now,
		Owner:     owner,
		Repo:      repo,
		Steps:     []StepRecord{},
		Status:    RunStatusPending,
	}
}

// FullName returns owner/repo.
func (rs *RunState) FullName() string {
	return rs.Owner + "/" + rs.Repo
}

// AddStep appends a pending step record
func (rs *RunState) AddStep(stepType StepType, now time.Time) *StepRecord {
	rs.Steps = append(rs.Steps, StepRecord{
		Type:   stepType,
		Status: StepStatusPending,
	})
	rs.UpdatedAt = now
	return &rs.Steps[len(rs.Steps)-1]
}

// Step returns the record for stepType, or nil.
func (rs *RunState) Step(stepType StepType) *StepRecord {
	for i := range rs.Steps {
		if rs.Steps[i].Type == stepType {
			return &rs.Steps[i]
		}
	}
	return nil
}

// MarkRunning flips the run out of pending.
func (rs *RunState) MarkRunning(now time.Time) {
	rs.Status = RunStatusRunning
	rs.UpdatedAt = now
}

// MarkStepStarted marks a pending step as running
func (rs *RunState) MarkStepStarted(stepType StepType, now time.Time) {
	if step := rs.Step(stepType); step != nil && step.Status == StepStatusPending {
		step.Status = StepStatusRunning
		step.StartedAt = &now
		rs.UpdatedAt = now
	}
}

// MarkStepCompleted marks a running step as completed with its details
func (rs *RunState) MarkStepCompleted(stepType StepType, details map[string]string, now time.Time) {
	if step := rs.Step(stepType); step != nil && step.Status == StepStatusRunning {
		step.Status = StepStatusCompleted
		step.CompletedAt = &now
		step.Details = details
		rs.UpdatedAt = now
	}
}

// MarkStepSkipped marks a pending step as skipped
func (rs *RunState) MarkStepSkipped(stepType StepType, reason string, now time.Time) {
	if step := rs.Step(stepType); step != nil && step.Status == StepStatusPending {
		step.Status = StepStatusSkipped
		step.CompletedAt = &now
		if reason != "" {
			step.Details = map[string]string{"reason": reason}
		}
		rs.UpdatedAt = now
	}
}

// MarkStepFailed marks a step as failed and fails the run
func (rs *RunState) MarkStepFailed(stepType StepType, err error, now time.Time) {
	if step := rs.Step(stepType); step != nil && step.Status == StepStatusRunning {
		step.Status = StepStatusFailed
		step.CompletedAt = &now
		step.Error = err.Error()
	}
	rs.Status = RunStatusFailed
	rs.Error = err.Error()
	rs.FailedStep = stepType
	rs.UpdatedAt = now
}

// MarkCompleted completes the run
func (rs *RunState) MarkCompleted(now time.Time) {
	rs.Status = RunStatusCompleted
	rs.UpdatedAt = now
}

// CompletedSteps returns the completed steps in execution order
func (rs *RunState) CompletedSteps() []StepRecord {
	var completed []StepRecord
	for _, step := range rs.Steps {
		if step.Status == StepStatusCompleted {
			completed = append(completed, step)
		}
	}
	return completed
}

// Duration is the elapsed time between start and the last update.
func (rs *RunState) Duration() time.Duration {
	return rs.UpdatedAt.Sub(rs.StartedAt)
}
