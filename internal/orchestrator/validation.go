package orchestrator

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// branchNameRegex matches valid git branch names
	branchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
)

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") || strings.Contains(branch, "//") {
		return fmt.Errorf("branch name cannot contain consecutive dots or slashes: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !branchNameRegex.MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	if err := plumbing.NewBranchReferenceName(branch).Validate(); err != nil {
		return fmt.Errorf("invalid branch name %s: %w", branch, err)
	}
	for _, base := range []string{"main", "master"} {
		if branch == base {
			return fmt.Errorf("branch name cannot be the base branch %s", base)
		}
	}
	return nil
}

// ValidateFilePath validates the repository-relative path of the tracked file.
func ValidateFilePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if path.IsAbs(p) {
		return fmt.Errorf("file path must be relative: %s", p)
	}
	clean := path.Clean(p)
	if clean != p || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("file path must be clean and inside the repository: %s", p)
	}
	if strings.HasPrefix(clean, ".git/") || clean == ".git" {
		return fmt.Errorf("file path cannot point into .git: %s", p)
	}
	return nil
}
