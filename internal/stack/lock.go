package stack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// A second should be enough to rewrite any compose document, but disks
// under load are slow; give a concurrent invocation reasonable time to
// finish before giving up.
var lockTimeout = 5 * time.Second

const lockRetryInterval = 50 * time.Millisecond

// withDocumentLock runs fn while holding an advisory lock scoped to the
// given document path. The lock covers the full load→mutate→save sequence
// and is released on every exit path. Two composify invocations, or an
// invocation racing a second one, therefore never interleave writes to the
// same document.
//
// The lock file lives beside the document; its parent directory must
// already exist. A missing parent means the target stack does not exist
// and surfaces as ErrNotFound without touching the filesystem.
func withDocumentLock(ctx context.Context, path string, logger *zap.Logger, fn func() error) error {
	lockPath := path + ".lock"
	fl := flock.New(lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil && lockCtx.Err() == nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("could not lock %s within %s (held by another composify run?)", path, lockTimeout)
	}
	logger.Debug("acquired document lock",
		zap.String("path", path),
		zap.String("owner", defaultLockOwner()))
	defer func() {
		if err := fl.Unlock(); err != nil {
			logger.Warn("release document lock", zap.String("path", path), zap.Error(err))
		}
	}()
	return fn()
}

func defaultLockOwner() string {
	host, _ := os.Hostname()
	host = strings.TrimSpace(host)
	if host == "" {
		host = "unknown-host"
	}
	pid := os.Getpid()

	u, _ := user.Current()
	if u != nil && strings.TrimSpace(u.Username) != "" {
		return strings.TrimSpace(u.Username) + "@" + host + ":" + strconv.Itoa(pid)
	}
	return host + ":" + strconv.Itoa(pid)
}
