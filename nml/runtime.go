package nml

import (
	"errors"
	"fmt"
	"maps"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrNoHandler is returned by Runtime.Dispatch when no compiled handler matches.
var ErrNoHandler = errors.New("no handler")

// Refresh records one refresh of the placeholders bound to a state.
type Refresh struct {
	Name         string
	Value        any
	Placeholders int
}

// Runtime mirrors the script emitted by Generate: a state record, an update operation that
// refreshes bound placeholders, and the compiled handlers keyed by their data-on id. It lets the
// event semantics be checked without a browser. Expressions are evaluated with the expr
// language, in which the script's expressions are also valid.
type Runtime struct {
	state    map[string]any
	markers  map[string]int
	handlers []handlerWiring
	programs map[string]*vm.Program
	vm       vm.VM

	// Refreshes lists every refresh performed so far, including the startup ones.
	Refreshes []Refresh
}

// NewRuntime evaluates the state initializers of t and performs the startup refresh. It fails if
// an initializer is not a valid expression.
func NewRuntime(t *Tree) (*Runtime, error) {
	_, sb := generate(t)

	r := &Runtime{
		state:    make(map[string]any, len(sb.states)),
		markers:  sb.markers,
		handlers: sb.handlers,
		programs: make(map[string]*vm.Program),
	}

	for _, d := range sb.states {
		v, err := r.eval(d.Init)
		if err != nil {
			return nil, fmt.Errorf("eval initializer of %q: %w", d.Name, err)
		}
		r.state[d.Name] = v
	}
	for _, d := range sb.states {
		r.refresh(d.Name)
	}

	return r, nil
}

// State returns a copy of the current state record.
func (r *Runtime) State() map[string]any {
	return maps.Clone(r.state)
}

// Placeholders returns the number of placeholders bound to name.
func (r *Runtime) Placeholders(name string) int {
	return r.markers[name]
}

// Update sets a state entry and refreshes its placeholders.
func (r *Runtime) Update(name string, value any) {
	r.state[name] = value
	r.refresh(name)
}

// Dispatch runs the compiled handlers registered for event on the element marked with
// data-on="id", in declaration order.
func (r *Runtime) Dispatch(id int, event string) error {
	found := false
	for _, h := range r.handlers {
		if h.id != id || h.event != event {
			continue
		}
		found = true
		if err := r.run(h.stmt); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("dispatch %s to %d: %w", event, id, ErrNoHandler)
	}
	return nil
}

// Fire runs the handler h. Raw handlers are not supported by the runtime.
func (r *Runtime) Fire(h *EventHandler) error {
	if !h.Compiled() {
		return fmt.Errorf("fire %s handler: %w", h.Event, ErrNoHandler)
	}
	return r.run(h.Stmt)
}

func (r *Runtime) run(s Statement) error {
	v, err := r.eval(s.ValueExpr())
	if err != nil {
		return fmt.Errorf("eval %s statement %q: %w", s.Kind, s.Raw, err)
	}
	r.Update(s.Target, v)
	return nil
}

func (r *Runtime) refresh(name string) {
	r.Refreshes = append(r.Refreshes, Refresh{
		Name:         name,
		Value:        r.state[name],
		Placeholders: r.markers[name],
	})
}

// eval evaluates code with the state record bound to the state variable.
func (r *Runtime) eval(code string) (any, error) {
	prog, ok := r.programs[code]
	if !ok {
		var err error
		prog, err = expr.Compile(code)
		if err != nil {
			return nil, err
		}
		r.programs[code] = prog
	}
	return r.vm.Run(prog, map[string]any{"state": r.state})
}
