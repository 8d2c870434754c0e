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

// Package ir defines the intermediate representation the checker consumes
// from a front end: resolved, fully-instantiated types carrying declared
// nullability annotations, expressions, statements, per-function control-flow
// graphs and callable contracts. The engine never mutates anything in this
// package; a front end builds the IR once per function and hands it over.
package ir

import (
	"fmt"
	"strings"

	"github.com/nullvet/nullvet/nullability"
)

// Type is a resolved type as supplied by the front end. All generic
// instantiation must already have happened, except inside declared callable
// signatures where TypeParam placeholders remain until the engine
// substitutes call-site type arguments.
type Type interface {
	isType()
	String() string
}

// Basic is a non-pointer scalar type (int, bool, float, ...). It contributes
// nothing to nullability vectors.
type Basic struct {
	Name string
}

// Pointer is a raw pointer type together with its declared nullability
// annotation. Kind is Unspecified when the declaration carries no
// annotation; Explicit records whether the annotation was actually written
// out, which matters for the cast rule where an explicitly annotated target
// wins outright while a defaulted one degrades precision.
type Pointer struct {
	Elem     Type
	Kind     nullability.Kind
	Explicit bool
}

// Generic is a generic/template instantiation. Only the type arguments
// matter to the vector model; member resolution is the front end's job.
type Generic struct {
	Name string
	Args []Type
}

// Struct is a nominal, non-generic aggregate. Its members are never expanded
// by Flatten: the vector model recurses only through pointer indirection and
// generic substitution.
type Struct struct {
	Name string
}

// Func is a function type. It contributes nothing to nullability vectors;
// pointers to functions contribute only their own pointer entry.
type Func struct {
	Params []Type
	Result Type
}

// TypeParam is a placeholder inside a declared callable signature, replaced
// via Substitute with the call site's actual type argument.
type TypeParam struct {
	Index int
	Name  string
}

func (*Basic) isType()     {}
func (*Pointer) isType()   {}
func (*Generic) isType()   {}
func (*Struct) isType()    {}
func (*Func) isType()      {}
func (*TypeParam) isType() {}

func (t *Basic) String() string { return t.Name }

func (t *Pointer) String() string {
	if t.Kind == nullability.Unspecified && !t.Explicit {
		return "*" + t.Elem.String()
	}
	return fmt.Sprintf("*%s %s", t.Kind, t.Elem)
}

func (t *Generic) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Name, strings.Join(args, ", "))
}

func (t *Struct) String() string { return t.Name }

func (t *Func) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	res := ""
	if t.Result != nil {
		res = " " + t.Result.String()
	}
	return fmt.Sprintf("func(%s)%s", strings.Join(params, ", "), res)
}

func (t *TypeParam) String() string { return t.Name }

// PtrTo builds an annotated pointer type. The annotation counts as explicit
// unless it is Unspecified.
func PtrTo(elem Type, kind nullability.Kind) *Pointer {
	return &Pointer{Elem: elem, Kind: kind, Explicit: kind != nullability.Unspecified}
}

// DeclaredKind returns the declared annotation of a type: the pointer's own
// kind for pointer types, Unspecified for everything else.
func DeclaredKind(t Type) nullability.Kind {
	if p, ok := t.(*Pointer); ok {
		return p.Kind
	}
	return nullability.Unspecified
}

// Identical reports structural equality of two types ignoring nullability
// annotations (and their explicitness). The cast carry-through rule uses
// this to detect casts that change nothing but qualifiers.
func Identical(a, b Type) bool {
	switch x := a.(type) {
	case *Basic:
		y, ok := b.(*Basic)
		return ok && x.Name == y.Name
	case *Pointer:
		y, ok := b.(*Pointer)
		return ok && Identical(x.Elem, y.Elem)
	case *Generic:
		y, ok := b.(*Generic)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Identical(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Struct:
		y, ok := b.(*Struct)
		return ok && x.Name == y.Name
	case *Func:
		y, ok := b.(*Func)
		if !ok || len(x.Params) != len(y.Params) || (x.Result == nil) != (y.Result == nil) {
			return false
		}
		for i := range x.Params {
			if !Identical(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return x.Result == nil || Identical(x.Result, y.Result)
	case *TypeParam:
		y, ok := b.(*TypeParam)
		return ok && x.Index == y.Index
	}
	panic(fmt.Sprintf("unknown type %T", a))
}

// Substitute replaces every TypeParam in t with the corresponding entry of
// args, returning a fully-instantiated type. It mirrors how the front end
// instantiates generics, applied here to declared callable signatures at
// call sites. A type-parameter index outside args indicates a malformed
// contract from the front end and panics.
func Substitute(t Type, args []Type) Type {
	switch x := t.(type) {
	case *Basic, *Struct:
		return t
	case *TypeParam:
		if x.Index < 0 || x.Index >= len(args) {
			panic(fmt.Sprintf("type parameter %s#%d outside %d call-site type arguments", x.Name, x.Index, len(args)))
		}
		return args[x.Index]
	case *Pointer:
		elem := Substitute(x.Elem, args)
		if elem == x.Elem {
			return x
		}
		return &Pointer{Elem: elem, Kind: x.Kind, Explicit: x.Explicit}
	case *Generic:
		changed := false
		sub := make([]Type, len(x.Args))
		for i, a := range x.Args {
			sub[i] = Substitute(a, args)
			changed = changed || sub[i] != a
		}
		if !changed {
			return x
		}
		return &Generic{Name: x.Name, Args: sub}
	case *Func:
		changed := false
		params := make([]Type, len(x.Params))
		for i, p := range x.Params {
			params[i] = Substitute(p, args)
			changed = changed || params[i] != p
		}
		var res Type
		if x.Result != nil {
			res = Substitute(x.Result, args)
			changed = changed || res != x.Result
		}
		if !changed {
			return x
		}
		return &Func{Params: params, Result: res}
	}
	panic(fmt.Sprintf("unknown type %T", t))
}
