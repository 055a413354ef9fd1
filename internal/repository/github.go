package repository

import (
	"context"
	"errors"
	"net/http"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/executor"
)

var (
	// ErrFileNotFound is returned by GetFile when the path does not exist on the branch.
	ErrFileNotFound = errors.New("file not found")
	// ErrBaseBranchNotFound is returned when neither main nor master exists yet.
	ErrBaseBranchNotFound = errors.New("base branch not found")
)

// BaseBranchCandidates are tried in order when resolving the default branch.
var BaseBranchCandidates = []string{"main", "master"}

// Executor performs a single GitHub REST call with retries.
type Executor interface {
	Do(ctx context.Context, req executor.Request) (*executor.Response, error)
}

// FileContent is a decoded file from the contents API.
type FileContent struct {
	Path    string
	SHA     string
	Content string
}

// FileUpdate describes a create-or-update commit of a single file. SHA must
// be the current blob SHA when the file already exists.
type FileUpdate struct {
	Path    string
	Branch  string
	Message string
	Content string
	SHA     string
}

// PullRequestInfo is the subset of a pull request the workflow needs.
type PullRequestInfo struct {
	Number         int
	URL            string
	State          string
	Merged         bool
	Mergeable      *bool
	MergeableState string
	HeadSHA        string
}

// MergeabilityKnown reports whether GitHub has finished computing mergeability.
func (p *PullRequestInfo) MergeabilityKnown() bool {
	return p.Mergeable != nil
}

// GithubRepository defines the GitHub operations of one PR cycle.
type GithubRepository interface {
	FullName() string
	RepositoryExists(ctx context.Context) (bool, error)
	CreateRepository(ctx context.Context, description string) error
	BranchSHA(ctx context.Context, branch string) (string, error)
	ResolveBaseBranch(ctx context.Context) (name string, sha string, err error)
	CreateBranch(ctx context.Context, name, sha string) error
	GetFile(ctx context.Context, path, branch string) (*FileContent, error)
	PutFile(ctx context.Context, update FileUpdate) (commitSHA string, err error)
	CreatePullRequest(ctx context.Context, title, body, head, base string) (*PullRequestInfo, error)
	GetPullRequest(ctx context.Context, number int) (*PullRequestInfo, error)
	MergePullRequest(ctx context.Context, number int, title, message string) (mergeSHA string, err error)
	DeleteBranch(ctx context.Context, name string) error
}

// isUnprocessable reports a final 422, which GitHub returns for refs it
// cannot delete.
func isUnprocessable(err error) bool {
	return executor.StatusCode(err) == http.StatusUnprocessableEntity
}
