// Package envpath persists environment variables and PATH-like list
// variables across user sessions and keeps the current process view in
// sync after every write. Persistence is per platform: a guarded block in
// shell profile files on POSIX, the registry on Windows.
// Implementations: PosixMutator, WindowsMutator, MemMutator.
package envpath

import (
	"errors"
	"strings"
)

// Scope selects where a variable is persisted.
type Scope int

const (
	// ScopeUser persists for the current user only.
	ScopeUser Scope = iota
	// ScopeSystem persists machine-wide. Requires elevation on Windows and
	// is unsupported by profile-file persistence.
	ScopeSystem
)

func (s Scope) String() string {
	if s == ScopeSystem {
		return "system"
	}
	return "user"
}

// ErrSystemScope is returned by stores that cannot persist machine-wide.
var ErrSystemScope = errors.New("system scope not supported by this environment store")

// Mutator applies durable environment changes. Both operations refresh the
// current process environment after persisting, so later pipeline steps see
// the new values without a session restart.
type Mutator interface {
	// SetVariable persists name=value in the given scope, overwriting any
	// previous value. Last writer wins.
	SetVariable(name, value string, scope Scope) error

	// AppendToPathLike appends segment to the delimiter-separated list
	// variable name unless an identical segment is already present.
	// Segments compare whole, delimiter-bounded; repeated calls are no-ops.
	AppendToPathLike(name, segment string, scope Scope) error
}

// SplitList splits a delimiter-separated list variable, dropping empty
// entries.
func SplitList(list, delim string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, delim)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasSegment reports whether list contains segment as a whole
// delimiter-bounded entry. fold enables case-insensitive comparison for
// platforms with case-insensitive paths.
func HasSegment(list, segment, delim string, fold bool) bool {
	for _, p := range SplitList(list, delim) {
		if p == segment || (fold && strings.EqualFold(p, segment)) {
			return true
		}
	}
	return false
}

// AppendSegment returns list with segment appended when absent. The second
// result reports whether an append happened.
func AppendSegment(list, segment, delim string, fold bool) (string, bool) {
	if HasSegment(list, segment, delim, fold) {
		return list, false
	}
	if list == "" {
		return segment, true
	}
	return strings.TrimRight(list, delim) + delim + segment, true
}

// JoinScopes composes a process-visible list from the system and user
// persisted lists, deduplicating delimiter-bounded segments in order.
func JoinScopes(system, user, delim string, fold bool) string {
	var out string
	for _, p := range append(SplitList(system, delim), SplitList(user, delim)...) {
		out, _ = AppendSegment(out, p, delim, fold)
	}
	return out
}
