package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"go.uber.org/zap"
)

const (
	// LogTimeFormat is the timestamp layout of repository log lines.
	LogTimeFormat = "2006-01-02 15:04:05 MST"
	// LogCommitPrefix starts the commit message of every log update.
	LogCommitPrefix = "Update automation log: "
)

// GithubActivityLog keeps a markdown log file in the repository itself and
// commits one line per entry to the base branch.
type GithubActivityLog struct {
	github GithubRepository
	path   string
	repo   string
}

// NewGithubActivityLog creates a log at path inside the repository named repo.
func NewGithubActivityLog(github GithubRepository, path, repo string) *GithubActivityLog {
	return &GithubActivityLog{github: github, path: strings.TrimPrefix(path, "/"), repo: repo}
}

// LogHeader is written once when the log file does not exist yet.
func LogHeader(repo string) string {
	return "# GitHub Automation Log for " + repo + "\n\n"
}

// FormatLogLine renders entry as a markdown list item.
func FormatLogLine(entry domain.ActivityEntry) string {
	return fmt.Sprintf("- %s: %s\n", entry.Time.UTC().Format(LogTimeFormat), entry.Summary())
}

// Append reads the current log from the entry's base branch, adds one line
// and commits the result. Entries without a base branch go to the first
// base candidate.
func (l *GithubActivityLog) Append(ctx context.Context, entry domain.ActivityEntry) error {
	branch := entry.Base
	if branch == "" {
		branch = BaseBranchCandidates[0]
	}
	var content, blobSHA string
	file, err := l.github.GetFile(ctx, l.path, branch)
	switch {
	case err == nil:
		content, blobSHA = file.Content, file.SHA
	case errors.Is(err, ErrFileNotFound):
	default:
		return fmt.Errorf("failed to read activity log: %w", err)
	}
	if content == "" {
		content = LogHeader(l.repo)
	} else if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += FormatLogLine(entry)
	_, err = l.github.PutFile(ctx, FileUpdate{
		Path:    l.path,
		Branch:  branch,
		Message: LogCommitPrefix + entry.Summary(),
		Content: content,
		SHA:     blobSHA,
	})
	if err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

// MirroredActivityLog writes every entry to a primary log and a mirror. Only
// primary failures are returned; mirror failures are logged.
type MirroredActivityLog struct {
	primary ActivityLog
	mirror  ActivityLog
	logger  *zap.Logger
}

// NewMirroredActivityLog returns primary alone when mirror is nil.
func NewMirroredActivityLog(primary, mirror ActivityLog, logger *zap.Logger) ActivityLog {
	if mirror == nil {
		return primary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MirroredActivityLog{primary: primary, mirror: mirror, logger: logger}
}

// Append writes to both logs, the mirror even when the primary fails.
func (m *MirroredActivityLog) Append(ctx context.Context, entry domain.ActivityEntry) error {
	err := m.primary.Append(ctx, entry)
	if mirrorErr := m.mirror.Append(ctx, entry); mirrorErr != nil {
		m.logger.Warn("failed to mirror activity entry", zap.String("run_id", entry.RunID), zap.Error(mirrorErr))
	}
	return err
}
