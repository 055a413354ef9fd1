package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewActivityEntry(t *testing.T) {
	t.Run("Should summarize a successful run", func(t *testing.T) {
		state := NewRunState("run-7", "octo", "widgets", testNow)
		state.BaseBranch = "main"
		state.Branch = "pull-shark/20250504-abcd"
		state.PRNumber = 12
		state.PRTitle = "Automated update v0.0.3"
		state.MergeSHA = "deadbeef"
		state.Revision = "v0.0.3"
		state.MarkCompleted(testNow.Add(time.Minute))
		entry := NewActivityEntry(state, testNow.Add(time.Minute))
		assert.Equal(t, ActivityStatusSuccess, entry.Status)
		assert.Equal(t, "octo/widgets", entry.Repository)
		assert.Equal(t, 12, entry.PRNumber)
		assert.Equal(t, "Automated update v0.0.3", entry.PRTitle)
		assert.Equal(t, "deadbeef", entry.MergeSHA)
		assert.Empty(t, entry.Error)
	})
	t.Run("Should carry the failing step and error", func(t *testing.T) {
		state := NewRunState("run-8", "octo", "widgets", testNow)
		state.AddStep(StepMergePullRequest, testNow)
		state.MarkStepStarted(StepMergePullRequest, testNow)
		state.MarkStepFailed(StepMergePullRequest, errors.New("conflict"), testNow)
		entry := NewActivityEntry(state, testNow)
		assert.Equal(t, ActivityStatusFailure, entry.Status)
		assert.Equal(t, StepMergePullRequest, entry.FailedStep)
		assert.Equal(t, "conflict", entry.Error)
	})
}

func TestActivityEntry_Summary(t *testing.T) {
	t.Run("Should describe the merged pull request", func(t *testing.T) {
		entry := ActivityEntry{
			Status:   ActivityStatusSuccess,
			PRNumber: 12,
			PRTitle:  "Automated update v0.0.3",
			Branch:   "pull-shark/20250504-abcd",
		}
		assert.Equal(t,
			"Successfully merged PR #12 ('Automated update v0.0.3') from 'pull-shark/20250504-abcd'.",
			entry.Summary())
	})
	t.Run("Should name the failed step and keep only the first error line", func(t *testing.T) {
		entry := ActivityEntry{
			Status:     ActivityStatusFailure,
			FailedStep: StepMergePullRequest,
			Error:      "conflict\nHead branch was modified",
		}
		assert.Equal(t, "Failed to complete automation at merge_pull_request: conflict", entry.Summary())
	})
}

func TestNewRunReport(t *testing.T) {
	t.Run("Should copy run details and steps", func(t *testing.T) {
		state := NewRunState("run-9", "octo", "widgets", testNow)
		state.AddStep(StepEnsureRepository, testNow)
		state.RepoCreated = true
		state.MarkCompleted(testNow.Add(90 * time.Second))
		report := NewRunReport(state)
		assert.Equal(t, "run-9", report.RunID)
		assert.True(t, report.Created)
		assert.Equal(t, 90*time.Second, report.Duration)
		assert.Len(t, report.Steps, 1)
		state.Steps[0].Status = StepStatusFailed
		assert.Equal(t, StepStatusPending, report.Steps[0].Status)
	})
}
