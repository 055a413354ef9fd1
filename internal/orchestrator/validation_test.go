package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBranchName(t *testing.T) {
	t.Run("Should accept generated branch names", func(t *testing.T) {
		assert.NoError(t, ValidateBranchName("pull-shark/20250601-abcdef12"))
		assert.NoError(t, ValidateBranchName("feature_1.2"))
	})
	t.Run("Should reject invalid branch names", func(t *testing.T) {
		for _, name := range []string{
			"",
			"/leading",
			"trailing/",
			"a..b",
			"a//b",
			"x.lock",
			"has space",
			"main",
			"master",
			strings.Repeat("a", 256),
		} {
			assert.Error(t, ValidateBranchName(name), name)
		}
	})
}

func TestValidateFilePath(t *testing.T) {
	t.Run("Should accept relative paths", func(t *testing.T) {
		assert.NoError(t, ValidateFilePath("PULL_SHARK.md"))
		assert.NoError(t, ValidateFilePath("docs/activity.md"))
	})
	t.Run("Should reject unsafe paths", func(t *testing.T) {
		for _, p := range []string{"", "/etc/passwd", "../outside.md", "docs/../x.md", ".git/config", "./a.md"} {
			assert.Error(t, ValidateFilePath(p), p)
		}
	})
}
