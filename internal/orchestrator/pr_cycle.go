package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/clock"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/config"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/executor"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/repository"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/usecase"
	"go.uber.org/zap"
)

// ErrNotMergeable is returned when GitHub reports the pull request cannot be merged.
var ErrNotMergeable = errors.New("pull request is not mergeable")

// PRCycleOptions tunes a single run.
type PRCycleOptions struct {
	// DryRun marks the run as a rehearsal: no delete delay and no activity entry.
	DryRun bool
	// KeepBranch skips branch deletion after the merge.
	KeepBranch bool
}

// PRCycleOrchestrator runs one create-branch, commit, PR, merge, delete cycle.
type PRCycleOrchestrator struct {
	githubRepo repository.GithubRepository
	activity   repository.ActivityLog
	clock      clock.Clock
	logger     *zap.Logger
	cfg        *config.Config
	render     *usecase.RenderContentUseCase
	prepare    *usecase.PrepareFileContentUseCase
	newRunID   func() string
}

// NewPRCycleOrchestrator creates a new PR cycle orchestrator.
func NewPRCycleOrchestrator(
	githubRepo repository.GithubRepository,
	activity repository.ActivityLog,
	clk clock.Clock,
	logger *zap.Logger,
	cfg *config.Config,
) *PRCycleOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PRCycleOrchestrator{
		githubRepo: githubRepo,
		activity:   activity,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
		render:     &usecase.RenderContentUseCase{},
		prepare:    &usecase.PrepareFileContentUseCase{},
		newRunID:   func() string { return uuid.New().String() },
	}
}

// Execute runs the workflow. The returned report is never nil; on failure
// it describes how far the run got, and one failure entry has been
// attempted in the activity log.
func (o *PRCycleOrchestrator) Execute(ctx context.Context, opts PRCycleOptions) (*domain.RunReport, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultWorkflowTimeout)
	defer cancel()

	state := domain.NewRunState(o.newRunID(), o.cfg.GithubOwner, o.cfg.GithubRepo, o.clock.Now())
	state.DryRun = opts.DryRun
	logger := o.logger.With(zap.String("run_id", state.RunID), zap.String("repository", state.FullName()))
	logger.Info("starting pull request cycle", zap.Bool("dry_run", opts.DryRun))

	run := &prCycleRun{
		o:      o,
		state:  state,
		opts:   opts,
		logger: logger,
		waiter: newWaiter(o.clock, o.cfg.Wait.PollAttempts, o.cfg.Wait.PollInterval, logger),
	}
	runner := NewStepRunner(state, o.clock, logger)
	runner.AddStep(Step{Name: "ensure repository", Type: domain.StepEnsureRepository, Execute: run.ensureRepository})
	runner.AddStep(Step{Name: "resolve base branch", Type: domain.StepResolveBase, Execute: run.resolveBase})
	runner.AddStep(Step{Name: "create branch", Type: domain.StepCreateBranch, Execute: run.createBranch})
	runner.AddStep(Step{Name: "commit file", Type: domain.StepCommitFile, Execute: run.commitFile})
	runner.AddStep(Step{Name: "open pull request", Type: domain.StepOpenPullRequest, Execute: run.openPullRequest})
	runner.AddStep(Step{Name: "merge pull request", Type: domain.StepMergePullRequest, Execute: run.mergePullRequest})
	runner.AddStep(Step{
		Name:    "append log",
		Type:    domain.StepAppendLog,
		Execute: run.appendLog,
		Skip:    run.skipAppendLog,
	})
	runner.AddStep(Step{
		Name:    "delete branch",
		Type:    domain.StepDeleteBranch,
		Execute: run.deleteBranch,
		Skip:    run.skipDelete,
	})

	if err := runner.Execute(ctx); err != nil {
		o.recordFailure(ctx, state, logger)
		return domain.NewRunReport(state), err
	}
	logger.Info("pull request cycle completed",
		zap.Int("pr_number", state.PRNumber),
		zap.String("merge_sha", state.MergeSHA),
		zap.Duration("duration", state.Duration()))
	return domain.NewRunReport(state), nil
}

// recordFailure writes one failure entry. Its own failure is logged and dropped.
func (o *PRCycleOrchestrator) recordFailure(ctx context.Context, state *domain.RunState, logger *zap.Logger) {
	if state.DryRun {
		return
	}
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FailureLogTimeout)
	defer cancel()
	entry := domain.NewActivityEntry(state, o.clock.Now())
	if err := o.activity.Append(logCtx, entry); err != nil {
		logger.Error("failed to record failure in activity log", zap.Error(err))
	}
}

// prCycleRun carries the per-run state shared by the step functions.
type prCycleRun struct {
	o      *PRCycleOrchestrator
	state  *domain.RunState
	opts   PRCycleOptions
	logger *zap.Logger
	waiter *waiter
}

func (r *prCycleRun) templateData() usecase.TemplateData {
	return usecase.TemplateData{
		RunID:    r.state.RunID,
		Owner:    r.state.Owner,
		Repo:     r.state.Repo,
		Prefix:   r.o.cfg.Content.BranchPrefix,
		Branch:   r.state.Branch,
		Base:     r.state.BaseBranch,
		Revision: r.state.Revision,
		PRNumber: r.state.PRNumber,
		Time:     r.state.StartedAt,
	}
}

func (r *prCycleRun) ensureRepository(ctx context.Context) (map[string]string, error) {
	exists, err := r.o.githubRepo.RepositoryExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return map[string]string{"created": "false"}, nil
	}
	r.logger.Info("repository not found, creating it")
	if err := r.o.githubRepo.CreateRepository(ctx, r.o.cfg.Content.RepoDescription); err != nil {
		return nil, err
	}
	r.state.RepoCreated = true
	return map[string]string{"created": "true"}, nil
}

// resolveBase polls for the initial commit only in a repository this run
// created. An existing repository gets one lookup.
func (r *prCycleRun) resolveBase(ctx context.Context) (map[string]string, error) {
	resolve := func(ctx context.Context) error {
		name, sha, err := r.o.githubRepo.ResolveBaseBranch(ctx)
		if err != nil {
			return err
		}
		r.state.BaseBranch = name
		r.state.BaseSHA = sha
		return nil
	}
	var err error
	if r.state.RepoCreated {
		err = r.waiter.until(ctx, "base branch", func(ctx context.Context) (bool, error) {
			err := resolve(ctx)
			if errors.Is(err, repository.ErrBaseBranchNotFound) || executor.IsNotFound(err) {
				return false, nil
			}
			return err == nil, err
		})
	} else {
		err = resolve(ctx)
	}
	if err != nil {
		return nil, err
	}
	return map[string]string{"base": r.state.BaseBranch, "sha": r.state.BaseSHA}, nil
}

func (r *prCycleRun) createBranch(ctx context.Context) (map[string]string, error) {
	name, err := r.o.render.BranchName(r.o.cfg.Content.BranchTemplate, r.templateData())
	if err != nil {
		return nil, err
	}
	if err := ValidateBranchName(name); err != nil {
		return nil, fmt.Errorf("invalid branch name: %w", err)
	}
	if err := r.o.githubRepo.CreateBranch(ctx, name, r.state.BaseSHA); err != nil {
		return nil, err
	}
	r.state.Branch = name
	err = r.waiter.until(ctx, "branch "+name, func(ctx context.Context) (bool, error) {
		_, err := r.o.githubRepo.BranchSHA(ctx, name)
		if err != nil {
			if executor.IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"branch": name}, nil
}

func (r *prCycleRun) commitFile(ctx context.Context) (map[string]string, error) {
	path, err := r.o.render.Execute(r.o.cfg.Content.FilePath, r.templateData())
	if err != nil {
		return nil, err
	}
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	var existing, blobSHA string
	file, err := r.o.githubRepo.GetFile(ctx, path, r.state.Branch)
	switch {
	case err == nil:
		existing, blobSHA = file.Content, file.SHA
	case errors.Is(err, repository.ErrFileNotFound):
		r.logger.Debug("tracked file does not exist yet", zap.String("path", path))
	default:
		return nil, err
	}
	result, err := r.o.prepare.Execute(existing, r.state.RunID, r.state.Branch, r.o.clock.Now())
	if err != nil {
		return nil, err
	}
	r.state.Revision = result.Revision.String()
	message, err := r.o.render.Execute(r.o.cfg.Content.CommitMessage, r.templateData())
	if err != nil {
		return nil, err
	}
	commitSHA, err := r.o.githubRepo.PutFile(ctx, repository.FileUpdate{
		Path:    path,
		Branch:  r.state.Branch,
		Message: message,
		Content: result.Content,
		SHA:     blobSHA,
	})
	if err != nil {
		return nil, err
	}
	r.state.CommitSHA = commitSHA
	return map[string]string{"path": path, "revision": r.state.Revision, "commit": commitSHA}, nil
}

func (r *prCycleRun) openPullRequest(ctx context.Context) (map[string]string, error) {
	data := r.templateData()
	title, err := r.o.render.Execute(r.o.cfg.Content.PRTitle, data)
	if err != nil {
		return nil, err
	}
	body, err := r.o.render.Execute(r.o.cfg.Content.PRBody, data)
	if err != nil {
		return nil, err
	}
	pr, err := r.o.githubRepo.CreatePullRequest(ctx, title, body, r.state.Branch, r.state.BaseBranch)
	if err != nil {
		return nil, err
	}
	r.state.PRNumber = pr.Number
	r.state.PRTitle = title
	r.state.PRURL = pr.URL
	if err := r.waitForMergeability(ctx, pr.Number); err != nil {
		return nil, err
	}
	return map[string]string{"number": strconv.Itoa(pr.Number), "url": pr.URL}, nil
}

// waitForMergeability polls until GitHub has computed mergeability. Running
// out of polls with mergeability still unknown is not fatal; the merge call
// decides.
func (r *prCycleRun) waitForMergeability(ctx context.Context, number int) error {
	var last *repository.PullRequestInfo
	err := r.waiter.until(ctx, fmt.Sprintf("pull request #%d", number), func(ctx context.Context) (bool, error) {
		pr, err := r.o.githubRepo.GetPullRequest(ctx, number)
		if err != nil {
			if executor.IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		last = pr
		return pr.MergeabilityKnown(), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNotReady) && last != nil:
		r.logger.Warn("mergeability still unknown, merging anyway", zap.Int("pr_number", number))
		return nil
	default:
		return err
	}
	if !*last.Mergeable {
		return fmt.Errorf("%w: #%d is %s", ErrNotMergeable, number, last.MergeableState)
	}
	return nil
}

func (r *prCycleRun) mergePullRequest(ctx context.Context) (map[string]string, error) {
	data := r.templateData()
	title, err := r.o.render.Execute(r.o.cfg.Content.MergeTitle, data)
	if err != nil {
		return nil, err
	}
	message, err := r.o.render.Execute(r.o.cfg.Content.MergeMessage, data)
	if err != nil {
		return nil, err
	}
	sha, err := r.o.githubRepo.MergePullRequest(ctx, r.state.PRNumber, title, message)
	if err != nil {
		return nil, err
	}
	r.state.MergeSHA = sha
	return map[string]string{"sha": sha}, nil
}

func (r *prCycleRun) skipAppendLog() (bool, string) {
	if r.opts.DryRun {
		return true, "dry run"
	}
	return false, ""
}

// appendLog records the merged pull request before the branch is deleted.
func (r *prCycleRun) appendLog(ctx context.Context) (map[string]string, error) {
	entry := domain.NewActivityEntry(r.state, r.o.clock.Now())
	if err := r.o.activity.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append activity entry: %w", err)
	}
	return map[string]string{"status": string(entry.Status)}, nil
}

func (r *prCycleRun) skipDelete() (bool, string) {
	if r.opts.KeepBranch {
		return true, "keep branch requested"
	}
	if !r.o.cfg.DeleteBranch {
		return true, "branch deletion disabled"
	}
	return false, ""
}

func (r *prCycleRun) deleteBranch(ctx context.Context) (map[string]string, error) {
	if delay := r.o.cfg.Wait.BranchDeleteDelay; delay > 0 && !r.opts.DryRun {
		r.logger.Debug("waiting before branch deletion", zap.Duration("delay", delay))
		if err := r.o.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	if err := r.o.githubRepo.DeleteBranch(ctx, r.state.Branch); err != nil {
		return nil, err
	}
	return map[string]string{"branch": r.state.Branch}, nil
}
