//go:build !windows

package platform

import (
	"errors"

	"github.com/ormasoftchile/mobup/pkg/envpath"
)

// NewMutator returns the profile-file mutator.
func (a *LinuxAdapter) NewMutator() (envpath.Mutator, error) {
	return envpath.NewPosixMutator()
}

// NewMutator on a non-Windows build cannot reach the registry.
func (a *WindowsAdapter) NewMutator() (envpath.Mutator, error) {
	return nil, errors.New("windows environment persistence requires a windows build")
}
