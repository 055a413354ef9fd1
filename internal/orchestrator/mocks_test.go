package orchestrator

import (
	"context"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for GithubRepository
type mockGithubRepository struct{ mock.Mock }

func (m *mockGithubRepository) FullName() string {
	return "octo/widgets"
}
func (m *mockGithubRepository) RepositoryExists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *mockGithubRepository) CreateRepository(ctx context.Context, description string) error {
	args := m.Called(ctx, description)
	return args.Error(0)
}
func (m *mockGithubRepository) BranchSHA(ctx context.Context, branch string) (string, error) {
	args := m.Called(ctx, branch)
	return args.String(0), args.Error(1)
}
func (m *mockGithubRepository) ResolveBaseBranch(ctx context.Context) (string, string, error) {
	args := m.Called(ctx)
	return args.String(0), args.String(1), args.Error(2)
}
func (m *mockGithubRepository) CreateBranch(ctx context.Context, name, sha string) error {
	args := m.Called(ctx, name, sha)
	return args.Error(0)
}
func (m *mockGithubRepository) GetFile(ctx context.Context, path, branch string) (*repository.FileContent, error) {
	args := m.Called(ctx, path, branch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.FileContent), args.Error(1)
}
func (m *mockGithubRepository) PutFile(ctx context.Context, update repository.FileUpdate) (string, error) {
	args := m.Called(ctx, update)
	return args.String(0), args.Error(1)
}
func (m *mockGithubRepository) CreatePullRequest(
	ctx context.Context,
	title, body, head, base string,
) (*repository.PullRequestInfo, error) {
	args := m.Called(ctx, title, body, head, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PullRequestInfo), args.Error(1)
}
func (m *mockGithubRepository) GetPullRequest(ctx context.Context, number int) (*repository.PullRequestInfo, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PullRequestInfo), args.Error(1)
}
func (m *mockGithubRepository) MergePullRequest(ctx context.Context, number int, title, message string) (string, error) {
	args := m.Called(ctx, number, title, message)
	return args.String(0), args.Error(1)
}
func (m *mockGithubRepository) DeleteBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Mock for ActivityLog
type mockActivityLog struct{ mock.Mock }

func (m *mockActivityLog) Append(ctx context.Context, entry domain.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
