//go:build windows

package probe

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// FreeDisk returns the bytes available to the current user on the volume
// holding path.
func FreeDisk(path string) (uint64, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("encode path %s: %w", path, err)
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return 0, fmt.Errorf("disk free space %s: %w", path, err)
	}
	return free, nil
}
