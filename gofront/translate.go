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

package gofront

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strconv"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/cfg"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/nullability"
)

// translator lowers one Go function into the engine IR. Go is already
// parsed, resolved and typed by the toolchain, so this is an adapter over
// resolved input, not a front end of its own: it recognizes the
// pointer-relevant subset (idents, derefs, address-of, nil, selectors,
// calls, nil comparisons, branching) and lowers everything else to opaque
// expressions that keep the unspecified default.
type translator struct {
	pass *analysis.Pass
	conf *config.Config
	cs   *contracts

	vars     map[types.Object]*ir.Var
	posIndex map[ir.Pos]token.Pos
}

// translateFunc lowers a function declaration with a body. The returned
// index maps IR positions back to token positions for reporting.
func translateFunc(pass *analysis.Pass, conf *config.Config, cs *contracts, fd *ast.FuncDecl) (fn *ir.Function, idx map[ir.Pos]token.Pos, err error) {
	tr := &translator{
		pass:     pass,
		conf:     conf,
		cs:       cs,
		vars:     make(map[types.Object]*ir.Var),
		posIndex: make(map[ir.Pos]token.Pos),
	}
	defer func() {
		if r := recover(); r != nil {
			if terr, ok := r.(translateError); ok {
				err = fmt.Errorf("translate `%s`: %w", fd.Name.Name, terr.err)
				return
			}
			panic(r)
		}
	}()

	fn = &ir.Function{Name: fd.Name.Name, P: tr.pos(fd)}

	if fd.Recv != nil && len(fd.Recv.List) > 0 && len(fd.Recv.List[0].Names) > 0 {
		if obj := pass.TypesInfo.Defs[fd.Recv.List[0].Names[0]]; obj != nil {
			fn.Recv = tr.recvVar(obj)
		}
	}
	if fd.Type.Params != nil {
		for _, field := range fd.Type.Params.List {
			for _, name := range field.Names {
				if obj := pass.TypesInfo.Defs[name]; obj != nil {
					fn.Params = append(fn.Params, tr.paramVar(obj))
				}
			}
		}
	}
	if results := fd.Type.Results; results != nil && results.NumFields() == 1 && len(results.List[0].Names) <= 1 {
		obj := pass.TypesInfo.Defs[fd.Name]
		fn.Result = applyKind(tr.goType(pass.TypesInfo.TypeOf(results.List[0].Type)), tr.cs.resultKindOf(obj))
	}

	fn.Body = tr.graph(cfg.New(fd.Body, func(*ast.CallExpr) bool { return true }))
	return fn, tr.posIndex, nil
}

// translateError carries a recoverable lowering failure up to translateFunc
// without threading errors through every visitor.
type translateError struct{ err error }

func (tr *translator) failf(format string, args ...any) {
	panic(translateError{err: fmt.Errorf(format, args...)})
}

func (tr *translator) graph(g *cfg.CFG) *ir.Graph {
	blocks := make([]*ir.Block, len(g.Blocks))
	for i := range g.Blocks {
		blocks[i] = &ir.Block{Index: i}
	}
	for i, b := range g.Blocks {
		out := blocks[i]
		nodes := b.Nodes
		// A two-successor block ends with its branch condition.
		if len(b.Succs) == 2 && len(nodes) > 0 {
			if condExpr, ok := nodes[len(nodes)-1].(ast.Expr); ok {
				out.Cond = tr.expr(condExpr)
				nodes = nodes[:len(nodes)-1]
			}
		}
		for _, n := range nodes {
			tr.stmt(n, &out.Stmts)
		}
		for _, s := range b.Succs {
			out.Succs = append(out.Succs, blocks[s.Index])
		}
	}
	return &ir.Graph{Entry: blocks[0], Blocks: blocks}
}

func (tr *translator) stmt(n ast.Node, out *[]ir.Stmt) {
	switch s := n.(type) {
	case *ast.AssignStmt:
		tr.assign(s, out)

	case *ast.DeclStmt:
		gd, ok := s.Decl.(*ast.GenDecl)
		if !ok {
			return
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				obj := tr.pass.TypesInfo.Defs[name]
				if obj == nil {
					continue
				}
				v := tr.declaredVar(obj)
				var init ir.Expr
				if i < len(vs.Values) && len(vs.Values) == len(vs.Names) {
					init = tr.expr(vs.Values[i])
				}
				*out = append(*out, &ir.VarDecl{V: v, Init: init, P: tr.pos(name)})
			}
		}

	case *ast.ReturnStmt:
		if len(s.Results) == 1 {
			*out = append(*out, &ir.Return{X: tr.expr(s.Results[0]), P: tr.pos(s)})
			return
		}
		// Multi-value returns are outside the checked subset; evaluate the
		// results for their own diagnostics only.
		for _, r := range s.Results {
			*out = append(*out, &ir.ExprStmt{X: tr.expr(r), P: tr.pos(r)})
		}
		if len(s.Results) == 0 {
			*out = append(*out, &ir.Return{P: tr.pos(s)})
		}

	case *ast.ExprStmt:
		*out = append(*out, &ir.ExprStmt{X: tr.expr(s.X), P: tr.pos(s)})

	case *ast.IncDecStmt:
		*out = append(*out, &ir.ExprStmt{X: tr.expr(s.X), P: tr.pos(s)})

	case ast.Stmt:
		// Other statement kinds neither produce nor move pointers in the
		// recognized subset.

	case ast.Expr:
		*out = append(*out, &ir.ExprStmt{X: tr.expr(s), P: tr.pos(s)})
	}
}

func (tr *translator) assign(s *ast.AssignStmt, out *[]ir.Stmt) {
	if len(s.Lhs) == len(s.Rhs) && (s.Tok == token.ASSIGN || s.Tok == token.DEFINE) {
		for i := range s.Lhs {
			lhs, rhs := s.Lhs[i], s.Rhs[i]
			if id, ok := lhs.(*ast.Ident); ok {
				if id.Name == "_" {
					*out = append(*out, &ir.ExprStmt{X: tr.expr(rhs), P: tr.pos(s)})
					continue
				}
				if obj := tr.pass.TypesInfo.Defs[id]; obj != nil && s.Tok == token.DEFINE {
					v := tr.declaredVar(obj)
					*out = append(*out, &ir.VarDecl{V: v, Init: tr.expr(rhs), P: tr.pos(s)})
					continue
				}
			}
			*out = append(*out, &ir.Assign{Target: tr.expr(lhs), Source: tr.expr(rhs), P: tr.pos(s)})
		}
		return
	}
	// Multi-value or op-assignments: effects only.
	for _, rhs := range s.Rhs {
		*out = append(*out, &ir.ExprStmt{X: tr.expr(rhs), P: tr.pos(s)})
	}
}

func (tr *translator) expr(e ast.Expr) ir.Expr {
	switch x := e.(type) {
	case *ast.ParenExpr:
		return tr.expr(x.X)

	case *ast.Ident:
		if x.Name == "nil" {
			return &ir.NullLit{T: &ir.Pointer{Elem: &ir.Basic{Name: "any"}, Kind: nullability.Nullable}, P: tr.pos(x)}
		}
		obj := tr.pass.TypesInfo.ObjectOf(x)
		if v, ok := obj.(*types.Var); ok {
			return &ir.VarRef{V: tr.declaredVar(v), P: tr.pos(x)}
		}
		return tr.opaque(e)

	case *ast.UnaryExpr:
		switch x.Op {
		case token.AND:
			return ir.NewAddrOf(tr.expr(x.X), tr.pos(x))
		case token.NOT:
			return &ir.Not{X: tr.expr(x.X), P: tr.pos(x)}
		}
		return tr.opaque(e)

	case *ast.StarExpr:
		operand := tr.expr(x.X)
		if _, ok := operand.Type().(*ir.Pointer); ok {
			return ir.NewDeref(operand, tr.pos(x))
		}
		return tr.opaque(e)

	case *ast.SelectorExpr:
		return tr.selector(x)

	case *ast.CallExpr:
		return tr.call(x)

	case *ast.BinaryExpr:
		if x.Op == token.EQL || x.Op == token.NEQ {
			if isNilIdent(x.X) || isNilIdent(x.Y) {
				op := ir.Eq
				if x.Op == token.NEQ {
					op = ir.Ne
				}
				return &ir.Compare{Op: op, X: tr.expr(x.X), Y: tr.expr(x.Y), P: tr.pos(x)}
			}
		}
		return tr.opaque(e)
	}
	return tr.opaque(e)
}

func (tr *translator) selector(sel *ast.SelectorExpr) ir.Expr {
	obj := tr.pass.TypesInfo.ObjectOf(sel.Sel)
	fieldVar, ok := obj.(*types.Var)
	if !ok || !fieldVar.IsField() {
		// Package-qualified idents and method values.
		if v, ok := obj.(*types.Var); ok {
			return &ir.VarRef{V: tr.declaredVar(v), P: tr.pos(sel)}
		}
		return tr.opaque(sel)
	}
	base := tr.expr(sel.X)
	_, through := base.Type().(*ir.Pointer)
	t := applyKind(tr.goType(tr.pass.TypesInfo.TypeOf(sel)), tr.cs.kindOf(fieldVar))
	return &ir.Member{X: base, Name: fieldVar.Name(), Through: through, T: t, P: tr.pos(sel)}
}

func (tr *translator) call(call *ast.CallExpr) ir.Expr {
	if tv, ok := tr.pass.TypesInfo.Types[call.Fun]; ok && tv.IsType() {
		// Type conversion: the cast rule applies. Go spells no annotations
		// in types, so explicit-annotation targets never arise here.
		if len(call.Args) != 1 {
			return tr.opaque(call)
		}
		return &ir.Cast{X: tr.expr(call.Args[0]), Target: tr.goType(tv.Type), P: tr.pos(call)}
	}

	if name, ok := calleeName(call.Fun); ok && name == tr.conf.AssertFuncName {
		return tr.assertCall(call)
	}

	sig, _ := tr.pass.TypesInfo.TypeOf(call.Fun).(*types.Signature)

	calleeObj := calleeObject(tr.pass, call.Fun)
	name := "func"
	if calleeObj != nil {
		name = calleeObj.Name()
		// A method call's expression type is the receiver-less method value
		// signature; the declared one on the callee carries the receiver.
		if osig, ok := calleeObj.Type().(*types.Signature); ok && osig.Recv() != nil {
			sig = osig
		}
	}
	if sig == nil {
		return tr.opaque(call)
	}

	callee := &ir.Callable{Name: name, Variant: ir.FunctionVariant}
	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)
		callee.Params = append(callee.Params, applyKind(tr.goType(p.Type()), tr.cs.kindOf(p)))
	}
	if sig.Results().Len() == 1 && calleeObj != nil {
		callee.Result = applyKind(tr.goType(sig.Results().At(0).Type()), tr.cs.resultKindOf(calleeObj))
	} else if sig.Results().Len() == 1 {
		callee.Result = tr.goType(sig.Results().At(0).Type())
	}

	out := &ir.Call{Callee: callee, P: tr.pos(call)}
	if recv := sig.Recv(); recv != nil {
		callee.Variant = ir.MethodVariant
		callee.Recv = applyKind(tr.goType(recv.Type()), tr.cs.kindOf(recv))
		if sel, ok := ast.Unparen(call.Fun).(*ast.SelectorExpr); ok {
			out.Recv = tr.expr(sel.X)
		}
	}
	for _, arg := range call.Args {
		out.Args = append(out.Args, tr.expr(arg))
	}
	return out
}

// assertCall lowers the recognized assertion construct:
//
//	AssertNullability(expr, "nonnull", "nullable")
//
// asserts that expr's live nullability vector is exactly the listed kinds.
func (tr *translator) assertCall(call *ast.CallExpr) ir.Expr {
	if len(call.Args) == 0 {
		tr.failf("%s requires the asserted expression as its first argument", tr.conf.AssertFuncName)
	}
	expected := nullability.Vector{}
	for _, arg := range call.Args[1:] {
		lit, ok := arg.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			tr.failf("%s expects string-literal kinds, got %s", tr.conf.AssertFuncName, types.ExprString(arg))
		}
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			tr.failf("%s: bad kind literal %s", tr.conf.AssertFuncName, lit.Value)
		}
		kind, err := parseSpelling(tr.conf, s)
		if err != nil {
			tr.failf("%s: %v", tr.conf.AssertFuncName, err)
		}
		expected = append(expected, kind)
	}
	return &ir.AssertExpr{Expected: expected, X: tr.expr(call.Args[0]), P: tr.pos(call)}
}

func (tr *translator) opaque(e ast.Expr) ir.Expr {
	return &ir.Opaque{T: tr.goType(tr.pass.TypesInfo.TypeOf(e)), P: tr.pos(e)}
}

// declaredVar returns the IR variable for an object, creating it with the
// annotated type on first use.
func (tr *translator) declaredVar(obj types.Object) *ir.Var {
	if v, ok := tr.vars[obj]; ok {
		return v
	}
	v := &ir.Var{
		Name: obj.Name(),
		T:    applyKind(tr.goType(obj.Type()), tr.cs.kindOf(obj)),
	}
	tr.vars[obj] = v
	return v
}

func (tr *translator) paramVar(obj types.Object) *ir.Var {
	v := tr.declaredVar(obj)
	v.Param = true
	return v
}

func (tr *translator) recvVar(obj types.Object) *ir.Var {
	v := tr.declaredVar(obj)
	v.Recv = true
	return v
}

// goType lowers a resolved Go type. Named types stop the recursion (the
// vector model never expands aggregate members), instantiated generics
// carry their type arguments, everything non-pointer irrelevant to the
// checker becomes a basic type.
func (tr *translator) goType(t types.Type) ir.Type {
	if t == nil {
		return &ir.Basic{Name: "invalid"}
	}
	switch t := t.(type) {
	case *types.Alias:
		return tr.goType(types.Unalias(t))
	case *types.Pointer:
		return &ir.Pointer{Elem: tr.goType(t.Elem())}
	case *types.Named:
		if ta := t.TypeArgs(); ta != nil && ta.Len() > 0 {
			args := make([]ir.Type, ta.Len())
			for i := range args {
				args[i] = tr.goType(ta.At(i))
			}
			return &ir.Generic{Name: t.Obj().Name(), Args: args}
		}
		return &ir.Struct{Name: t.Obj().Name()}
	case *types.Basic:
		return &ir.Basic{Name: t.Name()}
	case *types.Signature:
		params := make([]ir.Type, t.Params().Len())
		for i := range params {
			params[i] = tr.goType(t.Params().At(i).Type())
		}
		var res ir.Type
		if t.Results().Len() == 1 {
			res = tr.goType(t.Results().At(0).Type())
		}
		return &ir.Func{Params: params, Result: res}
	default:
		return &ir.Basic{Name: t.String()}
	}
}

func (tr *translator) pos(n ast.Node) ir.Pos {
	p := tr.pass.Fset.Position(n.Pos())
	out := ir.Pos{File: p.Filename, Line: p.Line, Col: p.Column}
	if _, ok := tr.posIndex[out]; !ok {
		tr.posIndex[out] = n.Pos()
	}
	return out
}

func applyKind(t ir.Type, k nullability.Kind) ir.Type {
	p, ok := t.(*ir.Pointer)
	if !ok || k == nullability.Unspecified {
		return t
	}
	return &ir.Pointer{Elem: p.Elem, Kind: k, Explicit: true}
}

func isNilIdent(e ast.Expr) bool {
	id, ok := ast.Unparen(e).(*ast.Ident)
	return ok && id.Name == "nil"
}

func calleeName(fun ast.Expr) (string, bool) {
	switch f := ast.Unparen(fun).(type) {
	case *ast.Ident:
		return f.Name, true
	case *ast.SelectorExpr:
		return f.Sel.Name, true
	}
	return "", false
}

func calleeObject(pass *analysis.Pass, fun ast.Expr) types.Object {
	switch f := ast.Unparen(fun).(type) {
	case *ast.Ident:
		return pass.TypesInfo.ObjectOf(f)
	case *ast.SelectorExpr:
		return pass.TypesInfo.ObjectOf(f.Sel)
	}
	return nil
}
