package orchestrator

import (
	"context"
	"fmt"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/clock"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"go.uber.org/zap"
)

// Step represents a single step in the PR cycle
type Step struct {
	Name    string
	Type    domain.StepType
	Execute func(ctx context.Context) (details map[string]string, err error)
	// Skip, when set and returning true, records the step as skipped with the given reason.
	Skip func() (bool, string)
}

// StepRunner executes steps in order and records their progress in a RunState.
// It stops at the first failing step; completed steps are not undone.
type StepRunner struct {
	state  *domain.RunState
	steps  []Step
	clock  clock.Clock
	logger *zap.Logger
}

// NewStepRunner creates a runner that records into state
func NewStepRunner(state *domain.RunState, clk clock.Clock, logger *zap.Logger) *StepRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepRunner{
		state:  state,
		steps:  []Step{},
		clock:  clk,
		logger: logger,
	}
}

// AddStep adds a step to the run
func (s *StepRunner) AddStep(step Step) {
	s.steps = append(s.steps, step)
	s.state.AddStep(step.Type, s.clock.Now())
}

// Execute runs every step in order
func (s *StepRunner) Execute(ctx context.Context) error {
	s.state.MarkRunning(s.clock.Now())
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			s.state.MarkStepStarted(step.Type, s.clock.Now())
			s.state.MarkStepFailed(step.Type, err, s.clock.Now())
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
		if step.Skip != nil {
			if skip, reason := step.Skip(); skip {
				s.logger.Info("step skipped", zap.String("step", step.Name), zap.String("reason", reason))
				s.state.MarkStepSkipped(step.Type, reason, s.clock.Now())
				continue
			}
		}
		if err := s.executeStep(ctx, step); err != nil {
			s.state.MarkStepFailed(step.Type, err, s.clock.Now())
			s.logger.Error("step failed", zap.String("step", step.Name), zap.Error(err))
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
	}
	s.state.MarkCompleted(s.clock.Now())
	return nil
}

// executeStep executes a single step and records its details
func (s *StepRunner) executeStep(ctx context.Context, step Step) error {
	s.state.MarkStepStarted(step.Type, s.clock.Now())
	s.logger.Info("step started", zap.String("step", step.Name))
	details, err := step.Execute(ctx)
	if err != nil {
		return err
	}
	s.state.MarkStepCompleted(step.Type, details, s.clock.Now())
	s.logger.Info("step completed", zap.String("step", step.Name), zap.Any("details", details))
	return nil
}

// State returns the current run state
func (s *StepRunner) State() *domain.RunState {
	return s.state
}
