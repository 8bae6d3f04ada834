// Package params defines the parameter-store abstraction the core consumes
// (§6) and a concrete struct-of-arrays implementation of it.
//
// The original system backs this with a hierarchical mutable tree and a
// per-field listener list. Per §9's design note, this reimplementation keeps
// the same observe-on-change surface (typed accessors plus an onChanged
// hook) but backs it with a plain struct-of-arrays per subsystem and a
// version counter per section: dirty detection becomes a version compare,
// not a listener fan-out.
package params

import (
	"sync"
	"sync/atomic"

	"github.com/san-kum/wfsrender/internal/model"
)

// Attribute identifies one addressable parameter, mirroring §6's
// (section, id, attribute) key.
type Attribute struct {
	Section string // "input" or "output"
	ID      int
	Name    string
}

// ChangeListener is notified after a value changes.
type ChangeListener func(a Attribute)

// Store is the read-only accessor contract the core consumes (§6). Inputs
// and Outputs return the typed scene structs; OnChanged registers a callback
// driven purely by the concrete store's own setters (the parameter store is
// the only writer).
type Store interface {
	Inputs() []model.Input
	Outputs() []model.Output
	InputsVersion() uint64
	OutputsVersion() uint64
	OnChanged(ChangeListener)
}

// SceneStore is the concrete struct-of-arrays parameter store: one section
// per subsystem (inputs, outputs), each with its own version counter
// incremented on every mutation, read with sync/atomic so the control
// thread's dirty check (§4.6: "set by the parameter store on any
// geometry/coefficient change") never takes a lock.
type SceneStore struct {
	mu      sync.RWMutex
	inputs  []model.Input
	outputs []model.Output

	inputsVersion  atomic.Uint64
	outputsVersion atomic.Uint64

	listenersMu sync.Mutex
	listeners   []ChangeListener
}

// NewSceneStore creates a store seeded with the given inputs/outputs.
func NewSceneStore(inputs []model.Input, outputs []model.Output) *SceneStore {
	s := &SceneStore{inputs: inputs, outputs: outputs}
	s.inputsVersion.Store(1)
	s.outputsVersion.Store(1)
	return s
}

// Inputs returns a snapshot copy of the current inputs.
func (s *SceneStore) Inputs() []model.Input {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Input, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// Outputs returns a snapshot copy of the current outputs.
func (s *SceneStore) Outputs() []model.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Output, len(s.outputs))
	copy(out, s.outputs)
	return out
}

// InputsVersion returns the current inputs-section version counter.
func (s *SceneStore) InputsVersion() uint64 { return s.inputsVersion.Load() }

// OutputsVersion returns the current outputs-section version counter.
func (s *SceneStore) OutputsVersion() uint64 { return s.outputsVersion.Load() }

// OnChanged registers a listener invoked after any SetInput/SetOutput call.
func (s *SceneStore) OnChanged(l ChangeListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetInput replaces input i and bumps the inputs version. Out-of-range
// fields are clamped per §7 before the value is stored.
func (s *SceneStore) SetInput(i int, in model.Input) {
	in.ClampInvariants()

	s.mu.Lock()
	if i < 0 || i >= len(s.inputs) {
		s.mu.Unlock()
		return
	}
	s.inputs[i] = in
	s.mu.Unlock()

	s.inputsVersion.Add(1)
	s.notify(Attribute{Section: "input", ID: i})
}

// SetOutput replaces output j and bumps the outputs version.
func (s *SceneStore) SetOutput(j int, out model.Output) {
	out.ClampInvariants()

	s.mu.Lock()
	if j < 0 || j >= len(s.outputs) {
		s.mu.Unlock()
		return
	}
	s.outputs[j] = out
	s.mu.Unlock()

	s.outputsVersion.Add(1)
	s.notify(Attribute{Section: "output", ID: j})
}

// MutateInput applies fn to a copy of input i, stores the result, and bumps
// the version, so a caller can update a field such as TargetPosition or
// Offset without reconstructing the struct.
func (s *SceneStore) MutateInput(i int, fn func(*model.Input)) {
	s.mu.Lock()
	if i < 0 || i >= len(s.inputs) {
		s.mu.Unlock()
		return
	}
	cp := s.inputs[i]
	fn(&cp)
	cp.ClampInvariants()
	s.inputs[i] = cp
	s.mu.Unlock()

	s.inputsVersion.Add(1)
	s.notify(Attribute{Section: "input", ID: i})
}

func (s *SceneStore) notify(a Attribute) {
	s.listenersMu.Lock()
	ls := make([]ChangeListener, len(s.listeners))
	copy(ls, s.listeners)
	s.listenersMu.Unlock()

	for _, l := range ls {
		l(a)
	}
}
