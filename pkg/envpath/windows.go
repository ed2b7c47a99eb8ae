//go:build windows

package envpath

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const systemEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// WindowsMutator persists variables in the registry environment keys
// (HKCU\Environment, HKLM Session Manager) and recomposes the process view
// from both scopes after every write. System scope requires elevation.
type WindowsMutator struct{}

// SetVariable persists name=value and refreshes the process environment
// with the user-over-system composite.
func (w *WindowsMutator) SetVariable(name, value string, scope Scope) error {
	if err := writeScope(scope, name, value); err != nil {
		return err
	}
	broadcastChange()
	composite := value
	if v, ok := readScopeExpanded(ScopeUser, name); ok {
		composite = v
	} else if v, ok := readScopeExpanded(ScopeSystem, name); ok {
		composite = v
	}
	if err := os.Setenv(name, composite); err != nil {
		return fmt.Errorf("refresh process %s: %w", name, err)
	}
	return nil
}

// AppendToPathLike appends segment to the persisted list in scope when
// absent, then refreshes the process variable by rejoining both scopes.
// Comparison is case-insensitive, matching Windows path semantics.
func (w *WindowsMutator) AppendToPathLike(name, segment string, scope Scope) error {
	cur, _, err := readScope(scope, name)
	if err != nil {
		return err
	}
	next, appended := AppendSegment(cur, segment, ";", true)
	if appended {
		if err := writeScope(scope, name, next); err != nil {
			return err
		}
		broadcastChange()
	}
	system, _ := readScopeExpanded(ScopeSystem, name)
	user, _ := readScopeExpanded(ScopeUser, name)
	if err := os.Setenv(name, JoinScopes(system, user, ";", true)); err != nil {
		return fmt.Errorf("refresh process %s: %w", name, err)
	}
	return nil
}

func openScope(scope Scope, access uint32) (registry.Key, error) {
	if scope == ScopeSystem {
		k, err := registry.OpenKey(registry.LOCAL_MACHINE, systemEnvKey, access)
		if err != nil {
			return k, fmt.Errorf("open system environment key: %w", err)
		}
		return k, nil
	}
	k, err := registry.OpenKey(registry.CURRENT_USER, "Environment", access)
	if err != nil {
		return k, fmt.Errorf("open user environment key: %w", err)
	}
	return k, nil
}

func writeScope(scope Scope, name, value string) error {
	k, err := openScope(scope, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	// Values carrying references like %SystemRoot% must stay expandable.
	if strings.Contains(value, "%") || strings.EqualFold(name, "Path") {
		err = k.SetExpandStringValue(name, value)
	} else {
		err = k.SetStringValue(name, value)
	}
	if err != nil {
		return fmt.Errorf("write %s %s: %w", scope, name, err)
	}
	return nil
}

// readScope returns the raw persisted value, unexpanded.
func readScope(scope Scope, name string) (string, bool, error) {
	k, err := openScope(scope, registry.QUERY_VALUE)
	if err != nil {
		return "", false, err
	}
	defer k.Close()
	v, _, err := k.GetStringValue(name)
	if err == registry.ErrNotExist {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s %s: %w", scope, name, err)
	}
	return v, true, nil
}

// readScopeExpanded returns the persisted value with %VAR% references
// expanded, suitable for the process environment.
func readScopeExpanded(scope Scope, name string) (string, bool) {
	k, err := openScope(scope, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()
	v, typ, err := k.GetStringValue(name)
	if err != nil {
		return "", false
	}
	if typ == registry.EXPAND_SZ {
		if ev, err := registry.ExpandString(v); err == nil {
			v = ev
		}
	}
	return v, true
}

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSendMessageTimeout = user32.NewProc("SendMessageTimeoutW")
)

// broadcastChange tells running shells to re-read the environment.
// Best effort; a hung window must not stall the pipeline.
func broadcastChange() {
	const (
		hwndBroadcast   = 0xffff
		wmSettingChange = 0x001a
		smtoAbortIfHung = 0x0002
	)
	env, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return
	}
	procSendMessageTimeout.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(env)),
		uintptr(smtoAbortIfHung),
		uintptr(5000),
		0,
	)
}
