package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/go-github/v74/github"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/config"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/executor"
	"go.uber.org/zap"
)

// githubRepository is the implementation of the GithubRepository interface.
type githubRepository struct {
	exec   Executor
	owner  string
	repo   string
	logger *zap.Logger
}

type refRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type mergeRequest struct {
	CommitTitle   string `json:"commit_title,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	MergeMethod   string `json:"merge_method"`
}

// NewGithubRepository creates a new GithubRepository with validation.
func NewGithubRepository(exec Executor, owner, repo string, logger *zap.Logger) (GithubRepository, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &githubRepository{
		exec:   exec,
		owner:  owner,
		repo:   repo,
		logger: logger.With(zap.String("repository", owner+"/"+repo)),
	}, nil
}

func (r *githubRepository) FullName() string {
	return r.owner + "/" + r.repo
}

func (r *githubRepository) repoPath(parts ...string) string {
	p := "/repos/" + r.owner + "/" + r.repo
	if len(parts) > 0 {
		p += "/" + strings.Join(parts, "/")
	}
	return p
}

// refPath turns a branch into the git/refs path segment, e.g. git/refs/heads/main.
func refPath(branch string) string {
	return "git/" + plumbing.NewBranchReferenceName(branch).String()
}

// RepositoryExists reports whether the configured repository is visible to the token.
func (r *githubRepository) RepositoryExists(ctx context.Context) (bool, error) {
	_, err := r.exec.Do(ctx, executor.Request{Method: http.MethodGet, Path: r.repoPath()})
	if err != nil {
		if executor.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check repository %s: %w", r.FullName(), err)
	}
	return true, nil
}

// CreateRepository creates a private, auto-initialized repository for the authenticated user.
func (r *githubRepository) CreateRepository(ctx context.Context, description string) error {
	body := &github.Repository{
		Name:        github.Ptr(r.repo),
		Description: github.Ptr(description),
		Private:     github.Ptr(true),
		AutoInit:    github.Ptr(true),
	}
	resp, err := r.exec.Do(ctx, executor.Request{Method: http.MethodPost, Path: "/user/repos", Body: body})
	if err != nil {
		return fmt.Errorf("failed to create repository %s: %w", r.repo, err)
	}
	var created github.Repository
	if err := resp.Decode(&created); err == nil {
		r.logger.Info("repository created", zap.String("url", created.GetHTMLURL()))
	}
	return nil
}

// BranchSHA returns the head commit SHA of branch.
func (r *githubRepository) BranchSHA(ctx context.Context, branch string) (string, error) {
	resp, err := r.exec.Do(ctx, executor.Request{Method: http.MethodGet, Path: r.repoPath(refPath(branch))})
	if err != nil {
		return "", fmt.Errorf("failed to get branch %s: %w", branch, err)
	}
	want := plumbing.NewBranchReferenceName(branch).String()
	var ref github.Reference
	if err := resp.Decode(&ref); err == nil {
		if ref.GetRef() == want && ref.GetObject().GetSHA() != "" {
			return ref.GetObject().GetSHA(), nil
		}
	}
	// A missing ref that prefixes other refs comes back as a list of matches.
	var refs []*github.Reference
	if err := resp.Decode(&refs); err == nil {
		for _, candidate := range refs {
			if candidate.GetRef() == want {
				return candidate.GetObject().GetSHA(), nil
			}
		}
	}
	return "", fmt.Errorf("failed to get branch %s: %w", branch, executor.ErrNotFound)
}

// ResolveBaseBranch returns the first of main or master that exists.
func (r *githubRepository) ResolveBaseBranch(ctx context.Context) (string, string, error) {
	for _, candidate := range BaseBranchCandidates {
		sha, err := r.BranchSHA(ctx, candidate)
		if err == nil {
			return candidate, sha, nil
		}
		if !executor.IsNotFound(err) {
			return "", "", err
		}
		r.logger.Debug("base branch candidate not found", zap.String("branch", candidate))
	}
	return "", "", fmt.Errorf("%w: tried %s", ErrBaseBranchNotFound, strings.Join(BaseBranchCandidates, ", "))
}

// CreateBranch creates refs/heads/name pointing at sha.
func (r *githubRepository) CreateBranch(ctx context.Context, name, sha string) error {
	body := refRequest{Ref: plumbing.NewBranchReferenceName(name).String(), SHA: sha}
	_, err := r.exec.Do(ctx, executor.Request{Method: http.MethodPost, Path: r.repoPath("git", "refs"), Body: body})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// GetFile reads and decodes path on branch. A missing file yields ErrFileNotFound.
func (r *githubRepository) GetFile(ctx context.Context, path, branch string) (*FileContent, error) {
	resp, err := r.exec.Do(ctx, executor.Request{
		Method: http.MethodGet,
		Path:   r.repoPath("contents", strings.TrimPrefix(path, "/")),
		Query:  url.Values{"ref": []string{branch}},
	})
	if err != nil {
		if executor.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s on %s", ErrFileNotFound, path, branch)
		}
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	var content github.RepositoryContent
	if err := resp.Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", path, err)
	}
	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode file %s: %w", path, err)
	}
	return &FileContent{Path: content.GetPath(), SHA: content.GetSHA(), Content: decoded}, nil
}

// PutFile commits update to its branch and returns the commit SHA.
func (r *githubRepository) PutFile(ctx context.Context, update FileUpdate) (string, error) {
	body := &github.RepositoryContentFileOptions{
		Message: github.Ptr(update.Message),
		Content: []byte(update.Content),
		Branch:  github.Ptr(update.Branch),
	}
	if update.SHA != "" {
		body.SHA = github.Ptr(update.SHA)
	}
	resp, err := r.exec.Do(ctx, executor.Request{
		Method: http.MethodPut,
		Path:   r.repoPath("contents", strings.TrimPrefix(update.Path, "/")),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", update.Path, err)
	}
	var result github.RepositoryContentResponse
	if err := resp.Decode(&result); err != nil {
		return "", fmt.Errorf("failed to commit %s: %w", update.Path, err)
	}
	return result.Commit.GetSHA(), nil
}

// CreatePullRequest opens a pull request from head into base.
func (r *githubRepository) CreatePullRequest(ctx context.Context, title, body, head, base string) (*PullRequestInfo, error) {
	req := &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
		Head:  github.Ptr(head),
		Base:  github.Ptr(base),
	}
	resp, err := r.exec.Do(ctx, executor.Request{Method: http.MethodPost, Path: r.repoPath("pulls"), Body: req})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return decodePullRequest(resp)
}

// GetPullRequest fetches pull request number.
func (r *githubRepository) GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error) {
	resp, err := r.exec.Do(ctx, executor.Request{
		Method: http.MethodGet,
		Path:   r.repoPath("pulls", fmt.Sprint(number)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get PR #%d: %w", number, err)
	}
	return decodePullRequest(resp)
}

// MergePullRequest merges pull request number with a merge commit.
func (r *githubRepository) MergePullRequest(ctx context.Context, number int, title, message string) (string, error) {
	body := mergeRequest{CommitTitle: title, CommitMessage: message, MergeMethod: "merge"}
	resp, err := r.exec.Do(ctx, executor.Request{
		Method: http.MethodPut,
		Path:   r.repoPath("pulls", fmt.Sprint(number), "merge"),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to merge PR #%d: %w", number, err)
	}
	var result github.PullRequestMergeResult
	if err := resp.Decode(&result); err != nil {
		return "", fmt.Errorf("failed to merge PR #%d: %w", number, err)
	}
	if !result.GetMerged() {
		return "", fmt.Errorf("PR #%d was not merged: %s", number, result.GetMessage())
	}
	return result.GetSHA(), nil
}

// DeleteBranch removes refs/heads/name. GitHub answers 422 when the ref is
// already gone or protected; that case is logged and ignored.
func (r *githubRepository) DeleteBranch(ctx context.Context, name string) error {
	_, err := r.exec.Do(ctx, executor.Request{Method: http.MethodDelete, Path: r.repoPath(refPath(name))})
	if err != nil {
		if isUnprocessable(err) {
			r.logger.Warn("could not delete branch", zap.String("branch", name), zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

func decodePullRequest(resp *executor.Response) (*PullRequestInfo, error) {
	var pr github.PullRequest
	if err := resp.Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode pull request: %w", err)
	}
	return &PullRequestInfo{
		Number:         pr.GetNumber(),
		URL:            pr.GetHTMLURL(),
		State:          pr.GetState(),
		Merged:         pr.GetMerged(),
		Mergeable:      pr.Mergeable,
		MergeableState: pr.GetMergeableState(),
		HeadSHA:        pr.GetHead().GetSHA(),
	}, nil
}
