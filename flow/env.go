//  Copyright (c) 2025 the nullvet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flow

import (
	"strings"

	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/nullability"
	"github.com/nullvet/nullvet/util/orderedmap"
)

// entry pairs the live value of a location with the declared kind of the
// location's static type. The declared kind is what a merge falls back to
// when the other branch never touched the location.
type entry struct {
	val  Value
	decl nullability.Kind
}

// Env maps storage locations to their abstract values at one program point.
// Environments are transient: created at function entry, mutated by transfer
// functions, merged at join points and discarded when the function's
// analysis completes. Iteration order is insertion order so that merging and
// reporting stay deterministic.
type Env struct {
	m *orderedmap.OrderedMap[ir.Location, entry]
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{m: orderedmap.New[ir.Location, entry]()}
}

// Seed installs the declared annotation of a parameter or receiver as the
// location's initial state.
func (e *Env) Seed(v *ir.Var) {
	k := ir.DeclaredKind(v.T)
	e.m.Store(v, entry{val: FromKind(k), decl: k})
}

// Get returns the live value of a location, falling back to the declared
// kind of its static type when no flow fact has been recorded yet.
func (e *Env) Get(loc ir.Location, declared ir.Type) Value {
	if ent, ok := e.m.Load(loc); ok {
		return ent.val
	}
	return FromKind(ir.DeclaredKind(declared))
}

// Lookup returns the recorded value without any declared-type fallback.
func (e *Env) Lookup(loc ir.Location) (Value, bool) {
	ent, ok := e.m.Load(loc)
	return ent.val, ok
}

// Set records a new value for a location; declared is the declared kind of
// the location's static type, remembered for merge fallbacks.
func (e *Env) Set(loc ir.Location, v Value, declared nullability.Kind) {
	e.m.Store(loc, entry{val: v, decl: declared})
}

// Narrow installs a refined kind for a location after a boolean test. The
// refinement is a flow fact, so the origin becomes FromFlow.
func (e *Env) Narrow(loc ir.Location, k nullability.Kind, declared nullability.Kind) {
	if ent, ok := e.m.Load(loc); ok {
		declared = ent.decl
	}
	e.m.Store(loc, entry{val: Value{Kind: k, Origin: FromFlow}, decl: declared})
}

// Merge joins another environment into a copy of this one, location by
// location. A location recorded on only one side joins against its declared
// kind, since that is the state the untouched path carries implicitly.
func (e *Env) Merge(other *Env) *Env {
	out := NewEnv()
	for _, p := range e.m.Pairs {
		if theirs, ok := other.m.Load(p.Key); ok {
			out.m.Store(p.Key, entry{val: Merge(p.Value.val, theirs.val), decl: p.Value.decl})
		} else {
			out.m.Store(p.Key, entry{val: Merge(p.Value.val, FromKind(p.Value.decl)), decl: p.Value.decl})
		}
	}
	for _, p := range other.m.Pairs {
		if _, ok := e.m.Load(p.Key); ok {
			continue
		}
		out.m.Store(p.Key, entry{val: Merge(p.Value.val, FromKind(p.Value.decl)), decl: p.Value.decl})
	}
	return out
}

// Equal reports whether two environments record the same values for the
// same locations. Used as the fixpoint stabilization test.
func (e *Env) Equal(other *Env) bool {
	if e.m.Len() != other.m.Len() {
		return false
	}
	for _, p := range e.m.Pairs {
		ent, ok := other.m.Load(p.Key)
		if !ok || ent != p.Value {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the environment.
func (e *Env) Clone() *Env {
	return &Env{m: e.m.Clone()}
}

func (e *Env) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range e.m.Pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Key.String())
		sb.WriteString(": ")
		sb.WriteString(p.Value.val.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
