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

package engine

import (
	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/flow"
	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/nullability"
)

// checkAssert evaluates the introspection construct: it compares the
// asserted vector against the live flow-sensitive vector of the operand at
// this program point. Exact comparison; truncated or padded expectations
// fail. The construct itself never changes analysis state.
func (a *analysis) checkAssert(env *flow.Env, x *ir.AssertExpr, col *diagnostic.Collector) {
	if col == nil {
		return
	}
	actual := a.liveVector(env, x.X)
	if x.Expected.Equal(actual) {
		return
	}
	col.Addf(diagnostic.AssertionMismatch, x.P,
		"nullability of `%s` is %s, asserted %s", x.X, actual, x.Expected)
}

// liveVector computes the flow-sensitive nullability vector of an
// expression: each element comes from the corresponding sub-location's
// current kind where the engine can resolve one, falling back to the
// declared kind from the type's flattening otherwise. Address-of and
// dereference adjust the vector structurally, mirroring how they adjust the
// static type.
func (a *analysis) liveVector(env *flow.Env, e ir.Expr) nullability.Vector {
	switch x := e.(type) {
	case *ir.AddrOf:
		inner := a.liveVector(env, x.X)
		out := make(nullability.Vector, 0, len(inner)+1)
		out = append(out, nullability.Nonnull)
		return append(out, inner...)

	case *ir.Deref:
		inner := a.liveVector(env, x.X)
		if len(inner) == 0 {
			panic("dereference of an expression with an empty nullability vector")
		}
		return inner[1:].Clone()

	default:
		t := e.Type()
		if t == nil {
			return nil
		}
		vec := ir.FlattenDepth(t, a.conf.MaxFlattenDepth)
		if len(vec) == 0 {
			return vec
		}
		if _, ok := t.(*ir.Pointer); ok {
			vec = vec.Clone()
			vec[0] = a.evalExpr(env, e, nil).Kind
		}
		return vec
	}
}
