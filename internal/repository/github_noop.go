package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
)

// githubDryRunRepository logs each GitHub call instead of sending it and
// returns synthetic values so the whole cycle can be rehearsed offline.
type githubDryRunRepository struct {
	owner  string
	repo   string
	logger *zap.Logger
	nextPR int
}

// NewGithubDryRunRepository returns a GithubRepository that performs no network calls.
func NewGithubDryRunRepository(owner, repo string, logger *zap.Logger) GithubRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &githubDryRunRepository{
		owner:  owner,
		repo:   repo,
		logger: logger.With(zap.String("repository", owner+"/"+repo), zap.Bool("dry_run", true)),
		nextPR: 1,
	}
}

func (r *githubDryRunRepository) FullName() string {
	return r.owner + "/" + r.repo
}

func (r *githubDryRunRepository) RepositoryExists(_ context.Context) (bool, error) {
	r.logger.Info("would check repository")
	return true, nil
}

func (r *githubDryRunRepository) CreateRepository(_ context.Context, description string) error {
	r.logger.Info("would create repository", zap.String("description", description))
	return nil
}

func (r *githubDryRunRepository) BranchSHA(_ context.Context, branch string) (string, error) {
	return fakeSHA("branch", branch), nil
}

func (r *githubDryRunRepository) ResolveBaseBranch(ctx context.Context) (string, string, error) {
	base := BaseBranchCandidates[0]
	sha, err := r.BranchSHA(ctx, base)
	return base, sha, err
}

func (r *githubDryRunRepository) CreateBranch(_ context.Context, name, sha string) error {
	r.logger.Info("would create branch", zap.String("branch", name), zap.String("sha", sha))
	return nil
}

func (r *githubDryRunRepository) GetFile(_ context.Context, path, branch string) (*FileContent, error) {
	return nil, fmt.Errorf("%w: %s on %s", ErrFileNotFound, path, branch)
}

func (r *githubDryRunRepository) PutFile(_ context.Context, update FileUpdate) (string, error) {
	r.logger.Info("would commit file",
		zap.String("path", update.Path),
		zap.String("branch", update.Branch),
		zap.String("message", update.Message),
		zap.Int("bytes", len(update.Content)))
	return fakeSHA("commit", update.Branch, update.Content), nil
}

func (r *githubDryRunRepository) CreatePullRequest(_ context.Context, title, _, head, base string) (*PullRequestInfo, error) {
	number := r.nextPR
	r.nextPR++
	r.logger.Info("would open pull request",
		zap.String("title", title), zap.String("head", head), zap.String("base", base))
	mergeable := true
	return &PullRequestInfo{Number: number, State: "open", Mergeable: &mergeable}, nil
}

func (r *githubDryRunRepository) GetPullRequest(_ context.Context, number int) (*PullRequestInfo, error) {
	mergeable := true
	return &PullRequestInfo{Number: number, State: "open", Mergeable: &mergeable, MergeableState: "clean"}, nil
}

func (r *githubDryRunRepository) MergePullRequest(_ context.Context, number int, title, _ string) (string, error) {
	r.logger.Info("would merge pull request", zap.Int("number", number), zap.String("title", title))
	return fakeSHA("merge", fmt.Sprint(number)), nil
}

func (r *githubDryRunRepository) DeleteBranch(_ context.Context, name string) error {
	r.logger.Info("would delete branch", zap.String("branch", name))
	return nil
}

func fakeSHA(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
