//go:build windows

package platform

import (
	"errors"

	"github.com/ormasoftchile/mobup/pkg/envpath"
)

// NewMutator returns the registry mutator.
func (a *WindowsAdapter) NewMutator() (envpath.Mutator, error) {
	return &envpath.WindowsMutator{}, nil
}

// NewMutator on a Windows build cannot write POSIX profiles.
func (a *LinuxAdapter) NewMutator() (envpath.Mutator, error) {
	return nil, errors.New("profile-file persistence requires a unix build")
}
