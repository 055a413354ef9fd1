package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(runID string, status domain.ActivityStatus) domain.ActivityEntry {
	return domain.ActivityEntry{
		Time:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RunID:      runID,
		Status:     status,
		Repository: "octo/widgets",
		Branch:     "pull-shark/20250601-abcd",
		PRNumber:   3,
	}
}

func TestJSONLActivityLog(t *testing.T) {
	ctx := context.Background()
	t.Run("Should create parent directories and append one line per entry", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		log := NewActivityLog(fs, "logs/activity.log")
		require.NoError(t, log.Append(ctx, sampleEntry("run-1", domain.ActivityStatusSuccess)))
		require.NoError(t, log.Append(ctx, sampleEntry("run-2", domain.ActivityStatusFailure)))
		data, err := afero.ReadFile(fs, "logs/activity.log")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"run_id":"run-1"`)
		assert.Contains(t, lines[1], `"status":"failure"`)
	})
	t.Run("Should read entries back in order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		log := NewActivityLog(fs, "activity.log")
		require.NoError(t, log.Append(ctx, sampleEntry("run-1", domain.ActivityStatusSuccess)))
		require.NoError(t, log.Append(ctx, sampleEntry("run-2", domain.ActivityStatusFailure)))
		entries, err := log.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "run-1", entries[0].RunID)
		assert.Equal(t, domain.ActivityStatusFailure, entries[1].Status)
		assert.Equal(t, 3, entries[1].PRNumber)
	})
	t.Run("Should return no entries for a missing file", func(t *testing.T) {
		log := NewActivityLog(afero.NewMemMapFs(), "missing.log")
		entries, err := log.Entries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
	t.Run("Should report a corrupt line", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "activity.log", []byte("{not json}\n"), 0o644))
		_, err := NewActivityLog(fs, "activity.log").Entries(ctx)
		assert.ErrorContains(t, err, "line 1")
	})
	t.Run("Should fail on a read-only filesystem", func(t *testing.T) {
		log := NewActivityLog(afero.NewReadOnlyFs(afero.NewMemMapFs()), "activity.log")
		assert.Error(t, log.Append(ctx, sampleEntry("run-1", domain.ActivityStatusSuccess)))
	})
	t.Run("Should lock around appends on the OS filesystem", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "activity.log")
		log := NewActivityLog(afero.NewOsFs(), path)
		require.NoError(t, log.Append(ctx, sampleEntry("run-1", domain.ActivityStatusSuccess)))
		entries, err := log.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.Mode().IsRegular())
		_, err = os.Stat(filepath.Join(dir, "nested", ".activity.log.lock"))
		assert.NoError(t, err)
	})
}
