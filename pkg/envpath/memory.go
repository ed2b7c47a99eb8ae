package envpath

// MemMutator keeps mutations in memory only. It backs dry-run mode, where
// nothing may persist, and tests.
type MemMutator struct {
	// Delim is the list separator; defaults to ":" when empty.
	Delim string
	// Fold enables case-insensitive segment comparison.
	Fold bool

	vars map[Scope]map[string]string
}

func (m *MemMutator) scope(s Scope) map[string]string {
	if m.vars == nil {
		m.vars = make(map[Scope]map[string]string)
	}
	if m.vars[s] == nil {
		m.vars[s] = make(map[string]string)
	}
	return m.vars[s]
}

func (m *MemMutator) delim() string {
	if m.Delim == "" {
		return ":"
	}
	return m.Delim
}

// SetVariable records name=value in scope.
func (m *MemMutator) SetVariable(name, value string, scope Scope) error {
	m.scope(scope)[name] = value
	return nil
}

// AppendToPathLike appends segment to the recorded list when absent.
func (m *MemMutator) AppendToPathLike(name, segment string, scope Scope) error {
	vars := m.scope(scope)
	vars[name], _ = AppendSegment(vars[name], segment, m.delim(), m.Fold)
	return nil
}

// Get returns the recorded value for name in scope.
func (m *MemMutator) Get(scope Scope, name string) (string, bool) {
	v, ok := m.scope(scope)[name]
	return v, ok
}
