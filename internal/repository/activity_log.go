package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/kenil-gopani/automated-pull-shark-repo/internal/domain"
	"github.com/spf13/afero"
)

const (
	// ActivityLogPermissions defines the permissions for the activity log
	ActivityLogPermissions = 0644
	// ActivityLogDirPermissions defines the permissions for the log directory
	ActivityLogDirPermissions = 0755
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// ActivityLog records run outcomes.
type ActivityLog interface {
	Append(ctx context.Context, entry domain.ActivityEntry) error
}

// JSONLActivityLog is the local mirror of the activity log: JSON lines in a
// file. On the OS filesystem appends are serialized across processes with a
// sibling .lock file.
type JSONLActivityLog struct {
	fs   afero.Fs
	path string
	lock bool
}

// NewActivityLog creates an activity log at path on fs.
func NewActivityLog(fs afero.Fs, path string) *JSONLActivityLog {
	_, onDisk := fs.(*afero.OsFs)
	return &JSONLActivityLog{fs: fs, path: path, lock: onDisk}
}

// Append writes entry as a single JSON line.
func (l *JSONLActivityLog) Append(ctx context.Context, entry domain.ActivityEntry) error {
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := l.fs.MkdirAll(dir, ActivityLogDirPermissions); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal activity entry: %w", err)
	}
	data = append(data, '\n')
	unlock, err := l.acquire(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()
	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, ActivityLogPermissions)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write activity entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close activity log: %w", err)
	}
	return nil
}

// Entries reads every entry in file order. A missing file yields no entries.
func (l *JSONLActivityLog) Entries(ctx context.Context) ([]domain.ActivityEntry, error) {
	unlock, err := l.acquire(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()
	f, err := l.fs.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}
	defer f.Close()
	var entries []domain.ActivityEntry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry domain.ActivityEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("invalid activity entry on line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activity log: %w", err)
	}
	return entries, nil
}

// acquire takes the file lock when locking is enabled and returns its release func.
func (l *JSONLActivityLog) acquire(ctx context.Context, shared bool) (func(), error) {
	if !l.lock {
		return func() {}, nil
	}
	if dir := filepath.Dir(l.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, ActivityLogDirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	lock := flock.New(l.lockPath())
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := acquireLockWithContext(lockCtx, lock, shared)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire lock within timeout")
	}
	return func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock activity log: %v\n", unlockErr)
		}
	}, nil
}

func (l *JSONLActivityLog) lockPath() string {
	return filepath.Join(filepath.Dir(l.path), "."+filepath.Base(l.path)+".lock")
}

// acquireLockWithContext polls for the lock until it is taken or ctx ends
func acquireLockWithContext(ctx context.Context, lock *flock.Flock, shared bool) (bool, error) {
	try := lock.TryLock
	if shared {
		try = lock.TryRLock
	}
	if locked, err := try(); err != nil || locked {
		return locked, err
	}
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
			locked, err := try()
			if err != nil {
				return false, err
			}
			if locked {
				return true, nil
			}
		}
	}
}
