package nml

import "regexp"

// stateDeclRegex matches `state <identifier> = <rest>`.
var stateDeclRegex = regexp.MustCompile(`^state\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)

// StateDeclaration is a named, mutable value tracked by the runtime. Init is the initializer
// expression exactly as written; it is never evaluated by the compiler.
type StateDeclaration struct {
	Name string
	Init string
	Pos  Pos
}

// StateTable holds state declarations in declaration order. A repeated name keeps the position
// of its first declaration and takes the initializer of the last one.
type StateTable struct {
	decls []StateDeclaration
	index map[string]int
}

func NewStateTable() *StateTable {
	return &StateTable{index: make(map[string]int)}
}

// Declare adds or replaces a declaration. It reports whether name was already declared.
func (t *StateTable) Declare(name, init string, pos Pos) (replaced bool) {
	d := StateDeclaration{Name: name, Init: init, Pos: pos}
	if i, ok := t.index[name]; ok {
		d.Pos = t.decls[i].Pos
		t.decls[i] = d
		return true
	}
	t.index[name] = len(t.decls)
	t.decls = append(t.decls, d)
	return false
}

// Lookup returns the declaration for name.
func (t *StateTable) Lookup(name string) (StateDeclaration, bool) {
	if t == nil {
		return StateDeclaration{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return StateDeclaration{}, false
	}
	return t.decls[i], true
}

// Has reports whether name is a declared state.
func (t *StateTable) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Declarations returns a copy of the declarations in order.
func (t *StateTable) Declarations() []StateDeclaration {
	if t == nil {
		return nil
	}
	out := make([]StateDeclaration, len(t.decls))
	copy(out, t.decls)
	return out
}

// Names returns the declared names in order.
func (t *StateTable) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.decls))
	for i, d := range t.decls {
		names[i] = d.Name
	}
	return names
}

func (t *StateTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.decls)
}

// parseStateDecl returns the name and initializer of a state declaration line.
func parseStateDecl(text string) (name, init string, ok bool) {
	m := stateDeclRegex.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
