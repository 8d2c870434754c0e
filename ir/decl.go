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

package ir

// Var is a declared variable: parameter, local, temporary or the implicit
// receiver. Its pointer identity doubles as its storage-location identity,
// so two Vars are the same location iff they are the same object.
type Var struct {
	Name  string
	T     Type
	Param bool
	Recv  bool
}

func (*Var) isLocation() {}

func (v *Var) String() string { return v.Name }

// Location is the abstract identity of a place that can hold a pointer
// value. Locations are comparable and usable as map keys: a *Var for
// variables, or a chain of Field values rooted at one.
type Location interface {
	isLocation()
	String() string
}

// Field identifies a member sub-location of a tracked base location.
type Field struct {
	Base Location
	Name string
}

func (Field) isLocation() {}

func (f Field) String() string { return f.Base.String() + "." + f.Name }

// LocationOf resolves an expression to the storage location it denotes, if
// any. Only such expressions participate in flow narrowing and per-location
// tracking; arbitrary computed pointers do not. Casts are transparent: they
// change the view of a value, not where it is stored.
func LocationOf(e Expr) (Location, bool) {
	switch x := e.(type) {
	case *VarRef:
		return x.V, true
	case *Member:
		base, ok := LocationOf(x.X)
		if !ok {
			return nil, false
		}
		return Field{Base: base, Name: x.Name}, true
	case *Cast:
		return LocationOf(x.X)
	}
	return nil, false
}

// Variant distinguishes the callable forms, which differ slightly in their
// contracts: plain functions, methods with an implicit receiver, and
// constructors whose "result" is the object under construction.
type Variant uint8

// The callable variants.
const (
	FunctionVariant Variant = iota
	MethodVariant
	ConstructorVariant
)

// Callable is the declared contract of something that can be called: the
// declared parameter types, result type and receiver contract, with
// TypeParams counting the generic parameters that call sites must bind. The
// front end's resolver selects the Callable once per call site; the engine
// only substitutes type arguments into it.
type Callable struct {
	Name       string
	Variant    Variant
	Recv       Type
	Params     []Type
	Result     Type
	TypeParams int
}

// Function is one function body ready for analysis.
type Function struct {
	Name   string
	Recv   *Var
	Params []*Var
	Result Type
	Body   *Graph
	P      Pos
}
