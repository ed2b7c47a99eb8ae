package envpath

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Markers delimit the single managed region mobup owns inside a profile
// file. Everything outside the markers is never touched.
const (
	blockBegin = "# >>> mobup environment >>>"
	blockEnd   = "# <<< mobup environment <<<"
)

// PosixMutator persists variables as export lines inside a guarded block in
// shell profile files, and mirrors every change into the process
// environment. Only user scope is supported.
type PosixMutator struct {
	// Profiles are the shell startup files carrying the managed block.
	Profiles []string
}

// NewPosixMutator returns a mutator over the standard profile files:
// ~/.profile and ~/.bashrc always, plus ~/.zshrc when it already exists.
func NewPosixMutator() (*PosixMutator, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	profiles := []string{
		filepath.Join(home, ".profile"),
		filepath.Join(home, ".bashrc"),
	}
	zshrc := filepath.Join(home, ".zshrc")
	if _, err := os.Stat(zshrc); err == nil {
		profiles = append(profiles, zshrc)
	}
	return &PosixMutator{Profiles: profiles}, nil
}

// SetVariable writes an export line for name into every profile's managed
// block, then sets the variable in the current process.
func (p *PosixMutator) SetVariable(name, value string, scope Scope) error {
	if scope == ScopeSystem {
		return ErrSystemScope
	}
	for _, profile := range p.Profiles {
		if err := updateProfile(profile, func(b *blockContent) {
			b.set(name, value)
		}); err != nil {
			return err
		}
	}
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("refresh process %s: %w", name, err)
	}
	return nil
}

// AppendToPathLike records segment in the block's self-referencing list
// export (PATH="$PATH:...") in every profile, then appends it to the
// process variable when absent. Both writes deduplicate whole segments.
func (p *PosixMutator) AppendToPathLike(name, segment string, scope Scope) error {
	if scope == ScopeSystem {
		return ErrSystemScope
	}
	for _, profile := range p.Profiles {
		if err := updateProfile(profile, func(b *blockContent) {
			b.appendPath(name, segment)
		}); err != nil {
			return err
		}
	}
	cur := os.Getenv(name)
	next, appended := AppendSegment(cur, segment, ":", false)
	if appended {
		if err := os.Setenv(name, next); err != nil {
			return fmt.Errorf("refresh process %s: %w", name, err)
		}
	}
	return nil
}

// ReadBlock returns the managed block content of a profile file, without
// the marker lines. ok is false when the file has no block.
func ReadBlock(path string) (content string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read profile %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")
	begin, end := findBlock(lines)
	if begin < 0 {
		return "", false, nil
	}
	return strings.Join(lines[begin+1:end], "\n"), true, nil
}

// blockLine is one line of the managed block. Lines that are not export
// statements are preserved verbatim.
type blockLine struct {
	raw      string
	name     string
	value    string
	pathlike bool
	segments []string
}

type blockContent struct {
	lines []blockLine
}

func (b *blockContent) set(name, value string) {
	for i := range b.lines {
		if b.lines[i].name == name && !b.lines[i].pathlike {
			b.lines[i].value = value
			return
		}
	}
	b.lines = append(b.lines, blockLine{name: name, value: value})
}

func (b *blockContent) appendPath(name, segment string) {
	for i := range b.lines {
		if b.lines[i].name == name && b.lines[i].pathlike {
			for _, s := range b.lines[i].segments {
				if s == segment {
					return
				}
			}
			b.lines[i].segments = append(b.lines[i].segments, segment)
			return
		}
	}
	b.lines = append(b.lines, blockLine{name: name, pathlike: true, segments: []string{segment}})
}

func (b *blockContent) render() []string {
	out := make([]string, 0, len(b.lines))
	for _, l := range b.lines {
		switch {
		case l.pathlike:
			out = append(out, fmt.Sprintf("export %s=\"$%s:%s\"", l.name, l.name, strings.Join(l.segments, ":")))
		case l.name != "":
			out = append(out, fmt.Sprintf("export %s=%q", l.name, l.value))
		default:
			out = append(out, l.raw)
		}
	}
	return out
}

// parseBlock reads previously rendered block lines back. Unrecognized lines
// survive round trips untouched.
func parseBlock(lines []string) *blockContent {
	b := &blockContent{}
	for _, line := range lines {
		name, value, ok := parseExport(line)
		if !ok {
			b.lines = append(b.lines, blockLine{raw: line})
			continue
		}
		selfRef := "$" + name
		if value == selfRef || strings.HasPrefix(value, selfRef+":") {
			b.lines = append(b.lines, blockLine{
				name:     name,
				pathlike: true,
				segments: SplitList(strings.TrimPrefix(value, selfRef), ":"),
			})
			continue
		}
		b.lines = append(b.lines, blockLine{name: name, value: value})
	}
	return b
}

func parseExport(line string) (name, value string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(line), "export ")
	if !found {
		return "", "", false
	}
	name, value, found = strings.Cut(rest, "=")
	if !found || name == "" {
		return "", "", false
	}
	value = strings.TrimSuffix(strings.TrimPrefix(value, "\""), "\"")
	return name, value, true
}

func findBlock(lines []string) (begin, end int) {
	begin, end = -1, -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case blockBegin:
			if begin < 0 {
				begin = i
			}
		case blockEnd:
			if begin >= 0 && end < 0 {
				end = i
			}
		}
	}
	if begin < 0 || end < 0 {
		return -1, -1
	}
	return begin, end
}

func updateProfile(path string, fn func(*blockContent)) error {
	perm := fs.FileMode(0o644)
	var lines []string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(path); statErr == nil {
			perm = info.Mode().Perm()
		}
		lines = strings.Split(string(data), "\n")
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create profile directory: %w", err)
		}
	default:
		return fmt.Errorf("read profile %s: %w", path, err)
	}

	begin, end := findBlock(lines)
	var content *blockContent
	if begin >= 0 {
		content = parseBlock(lines[begin+1 : end])
	} else {
		content = &blockContent{}
	}
	fn(content)

	block := append([]string{blockBegin}, content.render()...)
	block = append(block, blockEnd)

	var out []string
	if begin >= 0 {
		out = append(out, lines[:begin]...)
		out = append(out, block...)
		out = append(out, lines[end+1:]...)
	} else {
		out = lines
		// Trim trailing blank lines so the block lands after the content.
		for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
			out = out[:len(out)-1]
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, block...)
	}
	text := strings.Join(out, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := os.WriteFile(path, []byte(text), perm); err != nil {
		return fmt.Errorf("write profile %s: %w", path, err)
	}
	return nil
}
