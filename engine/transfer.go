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
	"fmt"

	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/flow"
	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/nullability"
)

// execStmt applies one statement's transfer function to env, reporting into
// col when non-nil.
func (a *analysis) execStmt(env *flow.Env, s ir.Stmt, col *diagnostic.Collector) {
	switch x := s.(type) {
	case *ir.VarDecl:
		declared := ir.DeclaredKind(x.V.T)
		if x.Init == nil {
			env.Set(x.V, flow.FromKind(declared), declared)
			return
		}
		v := a.evalExpr(env, x.Init, col)
		a.checkAssign(col, declared, v, x.Init, fmt.Sprintf("initializer of `%s`", x.V.Name))
		env.Set(x.V, v, declared)

	case *ir.Assign:
		v := a.evalExpr(env, x.Source, col)
		// Writing through a pointer or into a member dereferences the base;
		// evaluating the target surfaces those checks.
		a.evalExpr(env, x.Target, col)
		declared := ir.DeclaredKind(x.Target.Type())
		a.checkAssign(col, declared, v, x.Source, fmt.Sprintf("nonnull target `%s`", x.Target))
		if loc, ok := ir.LocationOf(x.Target); ok {
			env.Set(loc, v, declared)
		}

	case *ir.Return:
		if x.X == nil {
			return
		}
		v := a.evalExpr(env, x.X, col)
		a.checkAssign(col, ir.DeclaredKind(a.fn.Result), v, x.X, "nonnull result contract")

	case *ir.ExprStmt:
		a.evalExpr(env, x.X, col)

	default:
		panic(fmt.Sprintf("unknown statement %T", s))
	}
}

// checkAssign reports an unsafe-assignment when a possibly-null (or
// unmodeled) value flows into a nonnull-declared target. Unspecified sources
// pass as the optimistic default for unannotated code.
func (a *analysis) checkAssign(col *diagnostic.Collector, declared nullability.Kind, v flow.Value, src ir.Expr, target string) {
	if col == nil || declared != nullability.Nonnull || !v.Unsafe() {
		return
	}
	if v.Unmodeled() {
		col.Addf(diagnostic.UnsafeAssignment, src.Pos(),
			"`%s` has unmodeled provenance and flows into %s", src, target)
		return
	}
	col.Addf(diagnostic.UnsafeAssignment, src.Pos(),
		"`%s` may be null and flows into %s", src, target)
}

// checkDeref reports an unsafe-dereference of a possibly-null or unmodeled
// pointer value.
func (a *analysis) checkDeref(col *diagnostic.Collector, v flow.Value, operand ir.Expr, at ir.Pos) {
	if col == nil || !v.Unsafe() {
		return
	}
	if v.Unmodeled() {
		col.Addf(diagnostic.UnsafeDereference, at,
			"`%s` has unmodeled provenance and is dereferenced", operand)
		return
	}
	col.Addf(diagnostic.UnsafeDereference, at, "`%s` may be null when dereferenced", operand)
}

// evalExpr computes the abstract value of an expression and applies its
// checking side effects. The collector may be nil for effect-free
// re-evaluation (fixpoint iterations, assertion vectors).
func (a *analysis) evalExpr(env *flow.Env, e ir.Expr, col *diagnostic.Collector) flow.Value {
	switch x := e.(type) {
	case *ir.VarRef:
		return env.Get(x.V, x.V.T)

	case *ir.NullLit:
		return flow.Value{Kind: nullability.Nullable, Origin: flow.FromNullLiteral}

	case *ir.AddrOf:
		a.evalExpr(env, x.X, col)
		return flow.Value{Kind: nullability.Nonnull, Origin: flow.FromAddressOf}

	case *ir.Deref:
		v := a.evalExpr(env, x.X, col)
		a.checkDeref(col, v, x.X, x.P)
		if v.Unmodeled() {
			// Access chained through an unmodeled intermediate stays
			// unmodeled; conservatism must survive the chain.
			return flow.Value{Kind: ir.DeclaredKind(x.T), Origin: flow.FromUnmodeled}
		}
		return a.valueAt(env, e)

	case *ir.Member:
		v := a.evalExpr(env, x.X, col)
		if x.Through {
			a.checkDeref(col, v, x.X, x.P)
		}
		if v.Unmodeled() {
			return flow.Value{Kind: ir.DeclaredKind(x.T), Origin: flow.FromUnmodeled}
		}
		return a.valueAt(env, e)

	case *ir.Call:
		return a.evalCall(env, x, col)

	case *ir.Cast:
		v := a.evalExpr(env, x.X, col)
		if tp, ok := x.Target.(*ir.Pointer); ok {
			switch {
			case tp.Explicit:
				// An explicit annotation on the cast target wins outright,
				// even over a known-null source. The cast site itself is
				// never flagged; later uses proceed under the new contract.
				return flow.FromKind(tp.Kind)
			case ir.Identical(x.Target, x.X.Type()):
				// Qualifier-only cast: best-effort carry-through.
				return v
			default:
				// Casting is a precision boundary.
				return flow.Value{Kind: nullability.Unspecified, Origin: flow.FromFlow}
			}
		}
		if ir.Identical(x.Target, x.X.Type()) {
			return v
		}
		return flow.Value{Kind: nullability.Unspecified, Origin: flow.FromFlow}

	case *ir.Not:
		a.evalExpr(env, x.X, col)
		return flow.FromKind(nullability.Unspecified)

	case *ir.Compare:
		a.evalExpr(env, x.X, col)
		a.evalExpr(env, x.Y, col)
		return flow.FromKind(nullability.Unspecified)

	case *ir.PtrArith:
		a.evalExpr(env, x.X, col)
		// The result of pointer arithmetic is unmodeled and classified
		// unsafe for any input kind, nonnull included. Known
		// over-approximation kept as the regression baseline.
		return flow.Value{Kind: nullability.Nullable, Origin: flow.FromUnmodeled}

	case *ir.Opaque:
		return flow.FromKind(ir.DeclaredKind(x.T))

	case *ir.AssertExpr:
		v := a.evalExpr(env, x.X, col)
		a.checkAssert(env, x, col)
		return v

	default:
		panic(fmt.Sprintf("unknown expression %T", e))
	}
}

// valueAt returns the live value of an expression that may denote a tracked
// storage location, falling back to the declared kind of its static type.
func (a *analysis) valueAt(env *flow.Env, e ir.Expr) flow.Value {
	if loc, ok := ir.LocationOf(e); ok {
		return env.Get(loc, e.Type())
	}
	return flow.FromKind(ir.DeclaredKind(e.Type()))
}

// evalCall checks the call's arguments (and receiver) against the callee's
// declared contracts with the call site's type arguments substituted in, and
// produces the declared result value.
func (a *analysis) evalCall(env *flow.Env, c *ir.Call, col *diagnostic.Collector) flow.Value {
	callee := c.Callee
	if len(c.TypeArgs) < callee.TypeParams {
		panic(fmt.Sprintf("call to `%s` binds %d of %d type parameters", callee.Name, len(c.TypeArgs), callee.TypeParams))
	}

	if c.Recv != nil && callee.Recv != nil {
		v := a.evalExpr(env, c.Recv, col)
		declared := ir.DeclaredKind(ir.Substitute(callee.Recv, c.TypeArgs))
		a.checkAssign(col, declared, v, c.Recv, fmt.Sprintf("nonnull receiver of `%s`", callee.Name))
	} else if c.Recv != nil {
		a.evalExpr(env, c.Recv, col)
	}

	for i, arg := range c.Args {
		v := a.evalExpr(env, arg, col)
		if i >= len(callee.Params) {
			// Variadic tail or malformed contract; nothing to check against.
			continue
		}
		declared := ir.DeclaredKind(ir.Substitute(callee.Params[i], c.TypeArgs))
		a.checkAssign(col, declared, v, arg, fmt.Sprintf("nonnull parameter %d of `%s`", i, callee.Name))
	}

	if callee.Result == nil {
		return flow.FromKind(nullability.Unspecified)
	}
	return flow.FromKind(ir.DeclaredKind(ir.Substitute(callee.Result, c.TypeArgs)))
}

// narrowEdge refines env along one branch of a condition. Only tested
// expressions denoting a known storage location narrow anything; arbitrary
// computed pointers do not.
func (a *analysis) narrowEdge(env *flow.Env, cond ir.Expr, branch bool) {
	switch c := cond.(type) {
	case *ir.Not:
		a.narrowEdge(env, c.X, !branch)
	case *ir.Compare:
		x := c.X
		if _, ok := x.(*ir.NullLit); ok {
			x = c.Y
		} else if _, ok := c.Y.(*ir.NullLit); !ok {
			return
		}
		// `x != null` taken means nonnull; `x == null` taken means null.
		proven := branch
		if c.Op == ir.Eq {
			proven = !branch
		}
		a.narrowLocation(env, x, proven)
	default:
		if _, ok := cond.Type().(*ir.Pointer); ok {
			a.narrowLocation(env, cond, branch)
		}
	}
}

func (a *analysis) narrowLocation(env *flow.Env, e ir.Expr, nonnull bool) {
	loc, ok := ir.LocationOf(e)
	if !ok {
		return
	}
	if _, ok := e.Type().(*ir.Pointer); !ok {
		return
	}
	k := nullability.Nullable
	if nonnull {
		k = nullability.Nonnull
	}
	env.Narrow(loc, k, ir.DeclaredKind(e.Type()))
}
