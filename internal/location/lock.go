package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// ErrCacheLocked is returned when another process holds the cache lock for
// longer than lockTimeout.
var ErrCacheLocked = errors.New("location cache is locked")

var lockTimeout = 2 * time.Second

const lockRetryDelay = 10 * time.Millisecond

// Locker runs fn while holding a lock shared by every writer of a cache.
type Locker interface {
	WithLock(fn func() error) error
}

// processLock relies on the store's own mutex only.
type processLock struct{}

func (processLock) WithLock(fn func() error) error { return fn() }

// FileLock is an advisory lock on a ".lock" file next to the cache, so
// testwire processes sharing one cache append one at a time.
type FileLock struct {
	path string
}

// NewFileLock returns a FileLock for the cache at cachePath.
func NewFileLock(cachePath string) *FileLock {
	return &FileLock{path: cachePath + ".lock"}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// WithLock takes the exclusive lock and runs fn.
func (l *FileLock) WithLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	lock := flock.New(l.path)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if !locked {
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrCacheLocked, l.path)
		}
		return fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Debug("failed to unlock cache", "path", l.path, "error", err)
		}
	}()

	return fn()
}
