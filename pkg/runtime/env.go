package runtime

import "github.com/burnlang/saplin/pkg/value"

// Env is one lexical scope frame, chained to its parent. Lookup walks
// the chain outward; a frame never mutates its parent's bindings.
type Env struct {
	values map[string]value.Value
	parent *Env
}

// NewEnv creates a frame with the given parent (nil for the global frame).
func NewEnv(parent *Env) *Env {
	return &Env{values: make(map[string]value.Value), parent: parent}
}

// Define binds name in this frame, shadowing any outer binding of the
// same name.
func (e *Env) Define(name string, v value.Value) {
	e.values[name] = v
}

// Get resolves name by walking the frame chain outward.
func (e *Env) Get(name string) (value.Value, bool) {
	for frame := e; frame != nil; frame = frame.parent {
		if v, ok := frame.values[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}
