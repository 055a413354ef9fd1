package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
)

const activityFileTitle = "# Pull Shark Activity"

// FileContentResult is the next version of the tracked file.
type FileContentResult struct {
	Content  string
	Revision *domain.Revision
}

// PrepareFileContentUseCase bumps the revision marker of the tracked file and
// appends one entry line for the current run.
type PrepareFileContentUseCase struct{}

// Execute builds the new content from existing, which is empty when the file
// does not exist yet.
func (uc *PrepareFileContentUseCase) Execute(existing string, runID, branch string, now time.Time) (*FileContentResult, error) {
	current, err := domain.RevisionFromContent(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to read revision: %w", err)
	}
	next := current.BumpPatch()
	marker := domain.RevisionMarker(next)
	entry := fmt.Sprintf("- %s run %s on `%s` (%s)", now.UTC().Format(time.RFC3339), runID, branch, next)

	if strings.TrimSpace(existing) == "" {
		content := strings.Join([]string{activityFileTitle, marker, "", entry, ""}, "\n")
		return &FileContentResult{Content: content, Revision: next}, nil
	}

	lines := strings.Split(strings.TrimRight(existing, "\n"), "\n")
	replaced := false
	for i, line := range lines {
		if isMarkerLine(line) {
			lines[i] = marker
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append([]string{lines[0], marker}, lines[1:]...)
	}
	lines = append(lines, entry)
	return &FileContentResult{Content: strings.Join(lines, "\n") + "\n", Revision: next}, nil
}

func isMarkerLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "<!--") && strings.Contains(trimmed, "revision:")
}
