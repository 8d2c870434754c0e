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

// Package nullability defines the three-valued nullability lattice and the
// nullability vector value type that the rest of the checker is built on.
//
// A single pointer carries one of three kinds: Nonnull, Nullable or
// Unspecified. The kinds form a flat lattice with Unspecified as the unique
// top element (least information); Nonnull and Nullable are mutually
// incomparable bottom elements. Unspecified is the default for pointer types
// lacking an explicit annotation and for any value whose provenance the
// engine cannot model precisely.
package nullability

import "fmt"

// Kind is the lattice element describing the nullability of one pointer.
type Kind uint8

const (
	// Unspecified is the top element: the pointer carries no annotation, or
	// the analysis has lost track of it. The zero value is deliberately the
	// top element so that forgotten initialization degrades precision rather
	// than soundness.
	Unspecified Kind = iota
	// Nonnull means the pointer is proven or declared to never be null.
	Nonnull
	// Nullable means the pointer is declared or proven possibly null.
	Nullable
)

// Join returns the least upper bound of two kinds: the kind itself when both
// agree, Unspecified otherwise. Join is commutative and idempotent.
func Join(a, b Kind) Kind {
	if a == b {
		return a
	}
	return Unspecified
}

// Meet returns the greatest lower bound of two kinds. The second return is
// false when the kinds are incomparable concrete kinds (Nonnull vs Nullable),
// which have no lower bound in the flat lattice.
func Meet(a, b Kind) (Kind, bool) {
	switch {
	case a == b:
		return a, true
	case a == Unspecified:
		return b, true
	case b == Unspecified:
		return a, true
	default:
		return Unspecified, false
	}
}

// Leq reports whether a is at or below b in the lattice partial order:
// Nonnull ≤ Unspecified and Nullable ≤ Unspecified, plus reflexivity.
func Leq(a, b Kind) bool {
	return a == b || b == Unspecified
}

// String returns the canonical lower-case spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Nonnull:
		return "nonnull"
	case Nullable:
		return "nullable"
	case Unspecified:
		return "unspecified"
	}
	panic(fmt.Sprintf("invalid nullability kind %d", uint8(k)))
}

// ParseKind converts a spelling back into a Kind. The accepted spellings are
// the canonical ones produced by String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "nonnull":
		return Nonnull, nil
	case "nullable":
		return Nullable, nil
	case "unspecified":
		return Unspecified, nil
	}
	return Unspecified, fmt.Errorf("unknown nullability kind %q", s)
}
