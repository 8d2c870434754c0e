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

package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/engine"
	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/nullability"
	vt "github.com/nullvet/nullvet/verifytest"
)

func TestDeref(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name string
		kind nullability.Kind
		want []vt.Finding
	}{
		{name: "nullable param", kind: nullability.Nullable, want: []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 2}}},
		{name: "nonnull param", kind: nullability.Nonnull, want: nil},
		// The optimistic default: unannotated pointers dereference silently.
		{name: "unspecified param", kind: nullability.Unspecified, want: nil},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := vt.Param("p", vt.IntPtr(tc.kind))
			fn := &ir.Function{
				Name:   "deref",
				Params: []*ir.Var{p},
				Body: vt.Body(
					&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 2), vt.At(2)), P: vt.At(2)},
				),
			}
			vt.RunFunc(t, nil, fn, tc.want)
		})
	}
}

func TestDeref_NilCheckGuard(t *testing.T) {
	t.Parallel()

	// if p != nil { *p } else { *p }: only the else branch is unsafe.
	p := vt.Param("p", vt.IntPtr(nullability.Nullable))

	cond := &ir.Block{Cond: ir.NotNull(vt.Ref(p, 2), vt.At(2))}
	then := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 3), vt.At(3)), P: vt.At(3)},
	}}
	els := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 5), vt.At(5)), P: vt.At(5)},
	}}
	exit := &ir.Block{}
	cond.Succs = []*ir.Block{then, els}
	then.Succs = []*ir.Block{exit}
	els.Succs = []*ir.Block{exit}

	fn := &ir.Function{Name: "guarded", Params: []*ir.Var{p}, Body: ir.NewGraph(cond, then, els, exit)}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 5}})
}

func TestDeref_NegatedGuard(t *testing.T) {
	t.Parallel()

	// if !(p == nil) { *p }: negation flips the branch sense.
	p := vt.Param("p", vt.IntPtr(nullability.Nullable))

	cond := &ir.Block{Cond: &ir.Not{X: ir.IsNull(vt.Ref(p, 2), vt.At(2)), P: vt.At(2)}}
	then := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 3), vt.At(3)), P: vt.At(3)},
	}}
	exit := &ir.Block{}
	cond.Succs = []*ir.Block{then, exit}
	then.Succs = []*ir.Block{exit}

	fn := &ir.Function{Name: "negated", Params: []*ir.Var{p}, Body: ir.NewGraph(cond, then, exit)}
	vt.RunFunc(t, nil, fn, nil)
}

func TestDeref_MergeLosesNarrowing(t *testing.T) {
	t.Parallel()

	// After `if p != nil {}` the two edges carry nonnull and nullable; their
	// join is unspecified, so the post-merge dereference is neither proven
	// safe nor flagged.
	p := vt.Param("p", vt.IntPtr(nullability.Nullable))

	cond := &ir.Block{Cond: ir.NotNull(vt.Ref(p, 2), vt.At(2))}
	then := &ir.Block{}
	exit := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 6), vt.At(6)), P: vt.At(6)},
	}}
	cond.Succs = []*ir.Block{then, exit}
	then.Succs = []*ir.Block{exit}

	fn := &ir.Function{Name: "merge", Params: []*ir.Var{p}, Body: ir.NewGraph(cond, then, exit)}
	vt.RunFunc(t, nil, fn, nil)
}

func TestAssign(t *testing.T) {
	t.Parallel()

	x := vt.Local("x", &ir.Basic{Name: "int"})

	testcases := []struct {
		name string
		init ir.Expr
		want []vt.Finding
	}{
		{
			name: "null into nonnull",
			init: vt.Null(vt.IntPtr(nullability.Nullable), 3),
			want: []vt.Finding{{Kind: diagnostic.UnsafeAssignment, Line: 3}},
		},
		{
			name: "address-of into nonnull",
			init: ir.NewAddrOf(vt.Ref(x, 3), vt.At(3)),
			want: nil,
		},
		{
			// Unspecified sources pass: flagging them would drown legacy code.
			name: "unspecified into nonnull",
			init: &ir.Opaque{T: vt.IntPtr(nullability.Unspecified), P: vt.At(3)},
			want: nil,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			q := vt.Local("q", vt.IntPtr(nullability.Nonnull))
			fn := &ir.Function{
				Name: "assign",
				Body: vt.Body(
					&ir.VarDecl{V: x, P: vt.At(2)},
					&ir.VarDecl{V: q, Init: tc.init, P: vt.At(3)},
				),
			}
			vt.RunFunc(t, nil, fn, tc.want)
		})
	}
}

func TestAssign_FlowReachesLaterUse(t *testing.T) {
	t.Parallel()

	// p = nil; *p: the null flows through the assignment to the use.
	p := vt.Param("p", vt.IntPtr(nullability.Unspecified))
	fn := &ir.Function{
		Name:   "flows",
		Params: []*ir.Var{p},
		Body: vt.Body(
			&ir.Assign{Target: vt.Ref(p, 2), Source: vt.Null(p.T, 2), P: vt.At(2)},
			&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 3), vt.At(3)), P: vt.At(3)},
		),
	}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 3}})
}

func TestAssign_ThroughPointerTarget(t *testing.T) {
	t.Parallel()

	// *p = x writes through p and must dereference-check it.
	p := vt.Param("p", vt.IntPtr(nullability.Nullable))
	x := vt.Param("x", &ir.Basic{Name: "int"})
	fn := &ir.Function{
		Name:   "store",
		Params: []*ir.Var{p, x},
		Body: vt.Body(
			&ir.Assign{Target: ir.NewDeref(vt.Ref(p, 2), vt.At(2)), Source: vt.Ref(x, 2), P: vt.At(2)},
		),
	}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 2}})
}

func TestBranchMerge_Join(t *testing.T) {
	t.Parallel()

	// One branch proves nonnull, the other null: the merge is unspecified,
	// so the later dereference stays silent under the optimistic default.
	p := vt.Local("p", &ir.Pointer{Elem: &ir.Basic{Name: "int"}})
	x := vt.Local("x", &ir.Basic{Name: "int"})

	entry := &ir.Block{
		Stmts: []ir.Stmt{
			&ir.VarDecl{V: x, P: vt.At(2)},
			&ir.VarDecl{V: p, P: vt.At(3)},
		},
		Cond: &ir.Opaque{T: &ir.Basic{Name: "bool"}, P: vt.At(4)},
	}
	then := &ir.Block{Stmts: []ir.Stmt{
		&ir.Assign{Target: vt.Ref(p, 5), Source: ir.NewAddrOf(vt.Ref(x, 5), vt.At(5)), P: vt.At(5)},
	}}
	els := &ir.Block{Stmts: []ir.Stmt{
		&ir.Assign{Target: vt.Ref(p, 7), Source: vt.Null(p.T, 7), P: vt.At(7)},
	}}
	exit := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 9), vt.At(9)), P: vt.At(9)},
	}}
	entry.Succs = []*ir.Block{then, els}
	then.Succs = []*ir.Block{exit}
	els.Succs = []*ir.Block{exit}

	fn := &ir.Function{Name: "join", Body: ir.NewGraph(entry, then, els, exit)}
	vt.RunFunc(t, nil, fn, nil)
}

func TestBranchMerge_BothNull(t *testing.T) {
	t.Parallel()

	// Both branches leave p null: the merge keeps the definite nullability.
	p := vt.Local("p", &ir.Pointer{Elem: &ir.Basic{Name: "int"}})

	entry := &ir.Block{
		Stmts: []ir.Stmt{&ir.VarDecl{V: p, Init: vt.Null(p.T, 2), P: vt.At(2)}},
		Cond:  &ir.Opaque{T: &ir.Basic{Name: "bool"}, P: vt.At(3)},
	}
	then := &ir.Block{}
	els := &ir.Block{Stmts: []ir.Stmt{
		&ir.Assign{Target: vt.Ref(p, 5), Source: vt.Null(p.T, 5), P: vt.At(5)},
	}}
	exit := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 7), vt.At(7)), P: vt.At(7)},
	}}
	entry.Succs = []*ir.Block{then, els}
	then.Succs = []*ir.Block{exit}
	els.Succs = []*ir.Block{exit}

	fn := &ir.Function{Name: "bothnull", Body: ir.NewGraph(entry, then, els, exit)}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 7}})
}

func TestLoop_FixpointTerminates(t *testing.T) {
	t.Parallel()

	// p := nil; for cond { *p }: the cycle must stabilize and the body's
	// dereference be reported exactly once.
	p := vt.Local("p", &ir.Pointer{Elem: &ir.Basic{Name: "int"}})

	entry := &ir.Block{Stmts: []ir.Stmt{
		&ir.VarDecl{V: p, Init: vt.Null(p.T, 2), P: vt.At(2)},
	}}
	header := &ir.Block{Cond: &ir.Opaque{T: &ir.Basic{Name: "bool"}, P: vt.At(3)}}
	body := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, 4), vt.At(4)), P: vt.At(4)},
	}}
	exit := &ir.Block{}
	entry.Succs = []*ir.Block{header}
	header.Succs = []*ir.Block{body, exit}
	body.Succs = []*ir.Block{header}

	fn := &ir.Function{Name: "loop", Body: ir.NewGraph(entry, header, body, exit)}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 4}})
}

func TestReturnContract(t *testing.T) {
	t.Parallel()

	p := vt.Param("p", vt.IntPtr(nullability.Nullable))
	fn := &ir.Function{
		Name:   "ret",
		Params: []*ir.Var{p},
		Result: vt.IntPtr(nullability.Nonnull),
		Body: vt.Body(
			&ir.Return{X: vt.Ref(p, 2), P: vt.At(2)},
		),
	}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeAssignment, Line: 2}})
}

func TestReturnContract_GuardedPath(t *testing.T) {
	t.Parallel()

	// if p == nil { return &x }; return p: every return site checks
	// individually, and the fallthrough path has proven p nonnull.
	p := vt.Param("p", vt.IntPtr(nullability.Nullable))
	x := vt.Local("x", &ir.Basic{Name: "int"})

	entry := &ir.Block{
		Stmts: []ir.Stmt{&ir.VarDecl{V: x, P: vt.At(2)}},
		Cond:  ir.IsNull(vt.Ref(p, 3), vt.At(3)),
	}
	then := &ir.Block{Stmts: []ir.Stmt{
		&ir.Return{X: ir.NewAddrOf(vt.Ref(x, 4), vt.At(4)), P: vt.At(4)},
	}}
	rest := &ir.Block{Stmts: []ir.Stmt{
		&ir.Return{X: vt.Ref(p, 6), P: vt.At(6)},
	}}
	entry.Succs = []*ir.Block{then, rest}

	fn := &ir.Function{
		Name:   "guardedret",
		Params: []*ir.Var{p},
		Result: vt.IntPtr(nullability.Nonnull),
		Body:   ir.NewGraph(entry, then, rest),
	}
	vt.RunFunc(t, nil, fn, nil)
}

func TestPointerArithmetic_Unmodeled(t *testing.T) {
	t.Parallel()

	// Pointer arithmetic yields an unmodeled value that is unsafe for any
	// use, even when the input is provably nonnull. Deliberate
	// over-approximation, kept as the regression baseline.
	p := vt.Param("p", vt.IntPtr(nullability.Nonnull))
	q := vt.Local("q", vt.IntPtr(nullability.Unspecified))

	fn := &ir.Function{
		Name:   "arith",
		Params: []*ir.Var{p},
		Body: vt.Body(
			&ir.VarDecl{V: q, Init: &ir.PtrArith{Op: "+", X: vt.Ref(p, 2), P: vt.At(2)}, P: vt.At(2)},
			&ir.ExprStmt{X: ir.NewDeref(vt.Ref(q, 3), vt.At(3)), P: vt.At(3)},
		),
	}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 3}})
}

func TestPointerArithmetic_IntoNonnull(t *testing.T) {
	t.Parallel()

	p := vt.Param("p", vt.IntPtr(nullability.Nonnull))
	q := vt.Local("q", vt.IntPtr(nullability.Nonnull))

	fn := &ir.Function{
		Name:   "arithassign",
		Params: []*ir.Var{p},
		Body: vt.Body(
			&ir.VarDecl{V: q, Init: &ir.PtrArith{Op: "+", X: vt.Ref(p, 2), P: vt.At(2)}, P: vt.At(2)},
		),
	}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeAssignment, Line: 2}})
}

func TestCast(t *testing.T) {
	t.Parallel()

	intType := &ir.Basic{Name: "int"}

	testcases := []struct {
		name   string
		target ir.Type
		want   []vt.Finding
	}{
		{
			// An explicitly annotated target wins outright, even over a
			// nullable source; the cast site itself is never flagged.
			name:   "explicit annotation wins",
			target: ir.PtrTo(intType, nullability.Nonnull),
			want:   nil,
		},
		{
			// Identical modulo qualifiers: the source kind carries through.
			name:   "qualifier-only cast carries kind",
			target: &ir.Pointer{Elem: intType},
			want:   []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 3}},
		},
		{
			// A genuinely different target degrades to unspecified.
			name:   "precision boundary",
			target: &ir.Pointer{Elem: &ir.Basic{Name: "bool"}},
			want:   nil,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := vt.Param("p", vt.IntPtr(nullability.Nullable))
			cast := &ir.Cast{X: vt.Ref(p, 2), Target: tc.target, P: vt.At(2)}
			q := vt.Local("q", tc.target)
			fn := &ir.Function{
				Name:   "cast",
				Params: []*ir.Var{p},
				Body: vt.Body(
					&ir.VarDecl{V: q, Init: cast, P: vt.At(2)},
					&ir.ExprStmt{X: ir.NewDeref(vt.Ref(q, 3), vt.At(3)), P: vt.At(3)},
				),
			}
			vt.RunFunc(t, nil, fn, tc.want)
		})
	}
}

func TestMemberAccess(t *testing.T) {
	t.Parallel()

	sType := ir.PtrTo(&ir.Struct{Name: "S"}, nullability.Nullable)
	s := vt.Param("s", sType)

	// s->f through a nullable base is an unsafe dereference of s.
	member := &ir.Member{X: vt.Ref(s, 2), Name: "f", Through: true, T: vt.IntPtr(nullability.Unspecified), P: vt.At(2)}
	fn := &ir.Function{
		Name:   "member",
		Params: []*ir.Var{s},
		Body: vt.Body(
			&ir.ExprStmt{X: member, P: vt.At(2)},
		),
	}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 2}})
}

func TestMemberField_Narrowing(t *testing.T) {
	t.Parallel()

	// if s.f != nil { *s.f } else { *s.f }: member locations narrow like
	// variables, per edge. Only the false branch dereferences a proven-null
	// field; at the merge the narrowings join back to unspecified, so the
	// final dereference stays silent.
	sType := ir.PtrTo(&ir.Struct{Name: "S"}, nullability.Nonnull)
	s := vt.Param("s", sType)
	fieldT := vt.IntPtr(nullability.Nullable)

	memberAt := func(line int) *ir.Member {
		return &ir.Member{X: vt.Ref(s, line), Name: "f", Through: true, T: fieldT, P: vt.At(line)}
	}

	cond := &ir.Block{Cond: ir.NotNull(memberAt(2), vt.At(2))}
	then := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(memberAt(3), vt.At(3)), P: vt.At(3)},
	}}
	els := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(memberAt(5), vt.At(5)), P: vt.At(5)},
	}}
	exit := &ir.Block{Stmts: []ir.Stmt{
		&ir.ExprStmt{X: ir.NewDeref(memberAt(7), vt.At(7)), P: vt.At(7)},
	}}
	cond.Succs = []*ir.Block{then, els}
	then.Succs = []*ir.Block{exit}
	els.Succs = []*ir.Block{exit}

	fn := &ir.Function{Name: "field", Params: []*ir.Var{s}, Body: ir.NewGraph(cond, then, els, exit)}
	vt.RunFunc(t, nil, fn, []vt.Finding{{Kind: diagnostic.UnsafeDereference, Line: 5}})
}

func TestAnalyzeAll(t *testing.T) {
	t.Parallel()

	mkFn := func(name string, line int) *ir.Function {
		p := vt.Param("p", vt.IntPtr(nullability.Nullable))
		return &ir.Function{
			Name:   name,
			Params: []*ir.Var{p},
			Body: vt.Body(
				&ir.ExprStmt{X: ir.NewDeref(vt.Ref(p, line), vt.At(line)), P: vt.At(line)},
			),
		}
	}

	fns := []*ir.Function{mkFn("a", 30), mkFn("b", 20), mkFn("c", 10)}
	eng := engine.New(nil)

	// Results concatenate in input order, not completion order.
	for i := 0; i < 3; i++ {
		diags, err := eng.AnalyzeAll(context.Background(), fns)
		require.NoError(t, err)
		require.Len(t, diags, 3)
		require.Equal(t, []int{30, 20, 10}, []int{diags[0].Pos.Line, diags[1].Pos.Line, diags[2].Pos.Line})
	}
}

func TestAnalyzeAll_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.New(nil).AnalyzeAll(ctx, []*ir.Function{
		{Name: "f", Body: vt.Body()},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
