//go:build !windows

package probe

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeDisk returns the bytes available to the current user on the volume
// holding path.
func FreeDisk(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}
