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

package nullability

import "strings"

// Vector is an ordered flattening of a type's pointer-bearing structure: one
// Kind per pointer component, in pre-order. Its length and element order are
// a pure function of the type that produced it, never of any runtime value,
// so two expressions of the same static type always produce vectors of
// identical shape. A type with no pointer components anywhere flattens to an
// empty (nil) vector.
type Vector []Kind

// Equal reports exact equality: same length and element-wise equal kinds.
// Truncated or padded vectors never compare equal.
func (v Vector) Equal(other Vector) bool {
	if len(v) != len(other) {
		return false
	}
	for i, k := range v {
		if k != other[i] {
			return false
		}
	}
	return true
}

// Join combines two vectors of identical shape element-wise. Vectors of
// differing lengths indicate a broken structural invariant upstream (the
// shape is a function of the static type), so the mismatch panics rather
// than producing a diagnostic.
func (v Vector) Join(other Vector) Vector {
	if len(v) != len(other) {
		panic("joining nullability vectors of different lengths")
	}
	out := make(Vector, len(v))
	for i := range v {
		out[i] = Join(v[i], other[i])
	}
	return out
}

// Clone returns a copy that does not share backing storage with v.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// String renders the vector as "[nonnull, nullable]" for diagnostics.
func (v Vector) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, k := range v {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
