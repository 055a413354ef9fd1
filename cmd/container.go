package cmd

import (
	"fmt"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/clock"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/config"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/executor"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/logger"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/orchestrator"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/repository"
	"github.com/kenil-gopani/automated-pull-shark-repo/pkg/version"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// container holds all the dependencies for one run.
type container struct {
	logger  *zap.Logger
	prCycle *orchestrator.PRCycleOrchestrator
}

// newContainer wires config, logger, executor, repositories and orchestrator.
// In dry-run mode no executor is built and GitHub calls are only logged. The
// activity log lives in the repository; local_log_file adds a JSON lines
// mirror on fs.
func newContainer(cfg *config.Config, fs afero.Fs, clk clock.Clock, dryRun bool) (*container, error) {
	log, err := logger.NewFactory().Create(logger.Level(cfg.LogLevel), logger.Format(cfg.LogFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var githubRepo repository.GithubRepository
	if dryRun {
		githubRepo = repository.NewGithubDryRunRepository(cfg.GithubOwner, cfg.GithubRepo, log)
	} else {
		exec, err := executor.New(executor.Options{
			Token:     cfg.GithubToken,
			BaseURL:   cfg.APIBaseURL,
			Policy:    retryPolicy(cfg.Retry),
			Clock:     clk,
			Logger:    log,
			UserAgent: "pull-shark/" + version.Summary(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create executor: %w", err)
		}
		githubRepo, err = repository.NewGithubRepository(exec, cfg.GithubOwner, cfg.GithubRepo, log)
		if err != nil {
			return nil, err
		}
	}

	var mirror repository.ActivityLog
	if cfg.LocalLogFile != "" {
		mirror = repository.NewActivityLog(fs, cfg.LocalLogFile)
	}
	activity := repository.NewMirroredActivityLog(
		repository.NewGithubActivityLog(githubRepo, cfg.LogFile, cfg.GithubRepo), mirror, log)
	return &container{
		logger:  log,
		prCycle: orchestrator.NewPRCycleOrchestrator(githubRepo, activity, clk, log, cfg),
	}, nil
}

func retryPolicy(r config.RetryConfig) executor.Policy {
	return executor.Policy{
		MaxAttempts:          r.MaxAttempts,
		BackoffUnit:          r.BackoffUnit,
		RateLimitFloor:       r.RateLimitFloor,
		RateLimitPadding:     r.RateLimitPadding,
		RateLimitDefaultWait: r.RateLimitDefaultWait,
	}
}

// close flushes the logger.
func (c *container) close() {
	_ = logger.Sync(c.logger)
}
