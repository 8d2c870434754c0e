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

// Package flow holds the per-function abstract state of the checker: the
// abstract pointer value tracked for each storage location and the
// environment mapping locations to values at each program point.
package flow

import (
	"fmt"

	"github.com/nullvet/nullvet/nullability"
)

// Origin records where an abstract value came from. It is distinct from the
// declared contract: the declared annotation seeds the initial state, and
// flow facts refine it along each path.
type Origin uint8

const (
	// FromAnnotation: the value carries the declared annotation of its type,
	// unrefined by any flow fact.
	FromAnnotation Origin = iota
	// FromNullLiteral: the value is a definite null literal.
	FromNullLiteral
	// FromAddressOf: the value is the result of an address-of expression and
	// therefore definitely non-null.
	FromAddressOf
	// FromFlow: the value is the product of a merge, a narrowing or a
	// precision-degrading cast.
	FromFlow
	// FromUnmodeled: the checker cannot track the value's provenance
	// (pointer arithmetic, chained access through unmodeled intermediates).
	// Contract checks treat unmodeled values as unsafe by policy, never as
	// silently safe.
	FromUnmodeled
)

func (o Origin) String() string {
	switch o {
	case FromAnnotation:
		return "annotation"
	case FromNullLiteral:
		return "null-literal"
	case FromAddressOf:
		return "address-of"
	case FromFlow:
		return "flow"
	case FromUnmodeled:
		return "unmodeled"
	}
	panic(fmt.Sprintf("invalid origin %d", uint8(o)))
}

// Value is the abstract nullability state of one pointer value.
type Value struct {
	Kind   nullability.Kind
	Origin Origin
}

// Unmodeled reports whether the value's provenance is untracked; checks
// classify such values as unsafe regardless of Kind.
func (v Value) Unmodeled() bool { return v.Origin == FromUnmodeled }

// Unsafe reports whether using the value where non-null is required must be
// flagged: it is possibly null, or it is unmodeled. Unspecified passes as
// the optimistic default for unannotated legacy code.
func (v Value) Unsafe() bool {
	return v.Kind == nullability.Nullable || v.Unmodeled()
}

// Merge joins two values flowing together at a control-flow merge point. The
// kind is the lattice join; differing origins degrade to FromFlow since the
// merged value has no single concrete provenance, and an unmodeled input
// keeps the merge unmodeled so conservatism survives merging.
func Merge(a, b Value) Value {
	if a.Unmodeled() || b.Unmodeled() {
		return Value{Kind: nullability.Join(a.Kind, b.Kind), Origin: FromUnmodeled}
	}
	origin := a.Origin
	if a.Origin != b.Origin {
		origin = FromFlow
	}
	return Value{Kind: nullability.Join(a.Kind, b.Kind), Origin: origin}
}

// FromKind builds a plain annotated value of the given kind.
func FromKind(k nullability.Kind) Value {
	return Value{Kind: k, Origin: FromAnnotation}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.Kind, v.Origin)
}
