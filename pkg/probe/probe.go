// Package probe holds the side-effect-free oracles behind step idempotency
// predicates. A probe answers "is the desired effect already in place";
// not-found is the normal false case and never an error. Errors are reserved
// for genuinely indeterminate checks (permission failures, subprocess
// launch failures).
package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"os/user"
	"time"
)

// Func is a single idempotency predicate. Implementations must be free of
// side effects and safe to re-evaluate at any time.
type Func func(ctx context.Context) (bool, error)

// BinaryOnPath reports whether an executable with the given name resolves
// on the current process PATH.
func BinaryOnPath(name string) Func {
	return func(ctx context.Context) (bool, error) {
		_, err := exec.LookPath(name)
		if err == nil {
			return true, nil
		}
		return false, nil
	}
}

// FileExists reports whether a regular file exists at path.
func FileExists(path string) Func {
	return func(ctx context.Context) (bool, error) {
		info, err := os.Stat(path)
		if err == nil {
			return !info.IsDir(), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// DirExists reports whether a directory exists at path.
func DirExists(path string) Func {
	return func(ctx context.Context) (bool, error) {
		info, err := os.Stat(path)
		if err == nil {
			return info.IsDir(), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// DirNonEmpty reports whether a directory exists at path and contains at
// least one entry.
func DirNonEmpty(path string) Func {
	return func(ctx context.Context) (bool, error) {
		entries, err := os.ReadDir(path)
		if err == nil {
			return len(entries) > 0, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
}

// AllOf succeeds only when every probe succeeds. Evaluation stops at the
// first false or error.
func AllOf(probes ...Func) Func {
	return func(ctx context.Context) (bool, error) {
		for _, p := range probes {
			ok, err := p(ctx)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// UserInGroup reports whether the current user belongs to the named group.
// An unknown group is the normal false case.
func UserInGroup(group string) (bool, error) {
	u, err := user.Current()
	if err != nil {
		return false, fmt.Errorf("current user: %w", err)
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return false, nil
		}
		return false, fmt.Errorf("lookup group %q: %w", group, err)
	}
	ids, err := u.GroupIds()
	if err != nil {
		return false, fmt.Errorf("group ids for %s: %w", u.Username, err)
	}
	for _, id := range ids {
		if id == g.Gid {
			return true, nil
		}
	}
	return false, nil
}

// DeviceAccessible reports whether the device node exists and the current
// user may open it read/write. Missing node and denied access are both
// normal false cases.
func DeviceAccessible(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		f.Close()
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return false, nil
	}
	return false, fmt.Errorf("open %s: %w", path, err)
}

// Reachable issues a HEAD request against url and reports whether the
// transport round-trip succeeds. Any HTTP status counts as reachable; only
// DNS, TCP and TLS failures are reported.
func Reachable(ctx context.Context, url string, timeout time.Duration) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("build reachability request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("reach %s: %w", url, err)
	}
	resp.Body.Close()
	return nil
}
