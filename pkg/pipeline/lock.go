package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const lockFileName = ".mobup.lock"

// Lock is an exclusive marker under the toolchain root. Concurrent runs
// against the same root are unsupported; the lock turns them into a
// clean startup error instead of interleaved mutations.
type Lock struct {
	path  string
	token string
}

// AcquireLock creates the lock file under root, failing if another run
// holds it. The file records a token, the pid and the acquisition time
// so a stale lock is diagnosable by hand.
func AcquireLock(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create toolchain root: %w", err)
	}
	path := filepath.Join(root, lockFileName)
	token := uuid.NewString()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("another run appears to be active (remove %s if it is stale)", path)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	fmt.Fprintf(f, "%s\npid=%d\nacquired=%s\n", token, os.Getpid(), time.Now().Format(time.RFC3339))
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return &Lock{path: path, token: token}, nil
}

// Release removes the lock file if it still carries our token. A lock
// replaced by someone else is left alone.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("release lock: %w", err)
	}
	if !strings.HasPrefix(string(data), l.token) {
		return fmt.Errorf("release lock: %s is held by another run", l.path)
	}
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
