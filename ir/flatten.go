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

import (
	"fmt"

	"github.com/nullvet/nullvet/nullability"
)

// DefaultMaxFlattenDepth bounds the recursion of Flatten. Well-formed input
// from a front end whose type system already bounds instantiation depth can
// never reach it; hitting the limit therefore means a malformed (cyclic)
// type and is an internal error, not a diagnostic.
const DefaultMaxFlattenDepth = 64

// Flatten computes the nullability vector of a type: a pre-order walk in
// which a pointer contributes one entry for its own declared kind before
// recursing into its pointee, and a generic instantiation contributes the
// entries of each type argument in declaration order. Nominal aggregates are
// not expanded, so the vector is scoped to the expression's nominal type
// exactly as the assertion construct is. The result depends only on the
// resolved type: two expressions of the same static type always flatten to
// vectors of identical shape. A type with zero pointer components yields a
// nil vector.
func Flatten(t Type) nullability.Vector {
	return FlattenDepth(t, DefaultMaxFlattenDepth)
}

// FlattenDepth is Flatten with a caller-supplied recursion bound.
func FlattenDepth(t Type, maxDepth int) nullability.Vector {
	var vec nullability.Vector
	return appendFlattened(vec, t, maxDepth)
}

func appendFlattened(vec nullability.Vector, t Type, depth int) nullability.Vector {
	if depth < 0 {
		panic(fmt.Sprintf("type flattening exceeded recursion bound on %s", t))
	}
	switch x := t.(type) {
	case *Basic, *Struct, *Func, *TypeParam:
		// No pointer components. Type parameters contribute nothing until
		// substituted; function types are opaque to the vector model.
		return vec
	case *Pointer:
		vec = append(vec, x.Kind)
		return appendFlattened(vec, x.Elem, depth-1)
	case *Generic:
		for _, a := range x.Args {
			vec = appendFlattened(vec, a, depth-1)
		}
		return vec
	}
	panic(fmt.Sprintf("unknown type %T", t))
}
