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

// Pos anchors a diagnostic to a source location supplied by the front end.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Expr is a resolved expression. Every expression carries its static type
// (nil for expressions of no interest to the checker, e.g. the assertion
// construct itself) and a position for anchoring diagnostics.
type Expr interface {
	isExpr()
	Type() Type
	Pos() Pos
	String() string
}

// VarRef references a declared variable: a parameter, local, temporary or
// the implicit receiver.
type VarRef struct {
	V *Var
	P Pos
}

// NullLit is the null pointer literal.
type NullLit struct {
	T Type
	P Pos
}

// AddrOf takes the address of its operand. Its value is always non-null no
// matter what the operand's own nullability is.
type AddrOf struct {
	X Expr
	T Type
	P Pos
}

// Deref dereferences a pointer (unary * or the implicit dereference in a
// through-pointer member access).
type Deref struct {
	X Expr
	T Type
	P Pos
}

// Member accesses a member of an aggregate. Through marks access through a
// pointer (arrow access), which dereferences the base first. T is the
// member's resolved, instantiated type as supplied by the front end.
type Member struct {
	X       Expr
	Name    string
	Through bool
	T       Type
	P       Pos
}

// Call invokes a callable contract, with explicit type arguments for generic
// callees. The engine substitutes TypeArgs into the callee's declared
// parameter and result types before checking anything at the call site.
type Call struct {
	Callee   *Callable
	Recv     Expr // non-nil for method calls
	TypeArgs []Type
	Args     []Expr
	P        Pos
}

// Cast converts the operand to Target. Casting is a precision boundary: an
// explicitly annotated target wins outright, a target identical to the
// source type modulo qualifiers carries the source kind through, and
// everything else degrades to unspecified.
type Cast struct {
	X      Expr
	Target Type
	P      Pos
}

// Not negates a boolean test.
type Not struct {
	X Expr
	P Pos
}

// CompareOp is the operator of a Compare expression.
type CompareOp uint8

// The two comparison operators the checker interprets.
const (
	Eq CompareOp = iota
	Ne
)

// Compare is an equality comparison, interesting to the checker only when
// one side is the null literal and the other denotes a storage location.
type Compare struct {
	Op   CompareOp
	X, Y Expr
	P    Pos
}

// PtrArith is pointer arithmetic (increment, decrement, unary plus). Its
// result is an unmodeled value: the checker cannot track its provenance and
// classifies any later use as unsafe, even for nonnull inputs.
type PtrArith struct {
	Op string
	X  Expr
	P  Pos
}

// Opaque stands in for an expression a front end chooses not to model. Its
// value is the declared kind of its static type: unannotated legacy
// constructs keep the optimistic unspecified default rather than drowning
// the report in noise.
type Opaque struct {
	T Type
	P Pos
}

// AssertExpr is the introspection construct: it asserts the exact live
// nullability vector of its operand at this program point. It has no runtime
// effect and exists to make the engine's internal state observable.
type AssertExpr struct {
	Expected nullability.Vector
	X        Expr
	P        Pos
}

func (*VarRef) isExpr()     {}
func (*NullLit) isExpr()    {}
func (*AddrOf) isExpr()     {}
func (*Deref) isExpr()      {}
func (*Member) isExpr()     {}
func (*Call) isExpr()       {}
func (*Cast) isExpr()       {}
func (*Not) isExpr()        {}
func (*Compare) isExpr()    {}
func (*PtrArith) isExpr()   {}
func (*Opaque) isExpr()     {}
func (*AssertExpr) isExpr() {}

// Type implementations. Booleans and the assertion construct report a shared
// basic type; the rest carry resolved types from construction.

var boolType = &Basic{Name: "bool"}

func (e *VarRef) Type() Type  { return e.V.T }
func (e *NullLit) Type() Type { return e.T }
func (e *AddrOf) Type() Type  { return e.T }
func (e *Deref) Type() Type   { return e.T }
func (e *Member) Type() Type  { return e.T }
func (e *Call) Type() Type {
	if e.Callee.Result == nil {
		return nil
	}
	return Substitute(e.Callee.Result, e.TypeArgs)
}
func (e *Cast) Type() Type       { return e.Target }
func (e *Not) Type() Type        { return boolType }
func (e *Compare) Type() Type    { return boolType }
func (e *PtrArith) Type() Type   { return e.X.Type() }
func (e *Opaque) Type() Type     { return e.T }
func (e *AssertExpr) Type() Type { return nil }

func (e *VarRef) Pos() Pos     { return e.P }
func (e *NullLit) Pos() Pos    { return e.P }
func (e *AddrOf) Pos() Pos     { return e.P }
func (e *Deref) Pos() Pos      { return e.P }
func (e *Member) Pos() Pos     { return e.P }
func (e *Call) Pos() Pos       { return e.P }
func (e *Cast) Pos() Pos       { return e.P }
func (e *Not) Pos() Pos        { return e.P }
func (e *Compare) Pos() Pos    { return e.P }
func (e *PtrArith) Pos() Pos   { return e.P }
func (e *Opaque) Pos() Pos     { return e.P }
func (e *AssertExpr) Pos() Pos { return e.P }

func (e *VarRef) String() string  { return e.V.Name }
func (e *NullLit) String() string { return "null" }
func (e *AddrOf) String() string  { return "&" + e.X.String() }
func (e *Deref) String() string   { return "*" + e.X.String() }
func (e *Member) String() string {
	sep := "."
	if e.Through {
		sep = "->"
	}
	return e.X.String() + sep + e.Name
}
func (e *Call) String() string { return e.Callee.Name + "(...)" }
func (e *Cast) String() string { return fmt.Sprintf("(%s)(%s)", e.Target, e.X) }
func (e *Not) String() string  { return "!" + e.X.String() }
func (e *Compare) String() string {
	op := "=="
	if e.Op == Ne {
		op = "!="
	}
	return fmt.Sprintf("%s %s %s", e.X, op, e.Y)
}
func (e *PtrArith) String() string   { return e.Op + e.X.String() }
func (e *Opaque) String() string     { return "<opaque>" }
func (e *AssertExpr) String() string { return fmt.Sprintf("assert_nullability%s(%s)", e.Expected, e.X) }

// NewAddrOf builds an address-of expression; the result type is a nonnull
// pointer to the operand's type.
func NewAddrOf(x Expr, pos Pos) *AddrOf {
	return &AddrOf{X: x, T: PtrTo(x.Type(), nullability.Nonnull), P: pos}
}

// NewDeref builds a dereference of a pointer-typed operand. The operand not
// being a pointer is a front-end bug and panics.
func NewDeref(x Expr, pos Pos) *Deref {
	p, ok := x.Type().(*Pointer)
	if !ok {
		panic(fmt.Sprintf("dereference of non-pointer expression %s of type %s", x, x.Type()))
	}
	return &Deref{X: x, T: p.Elem, P: pos}
}

// IsNull builds the `x == null` test and NotNull its negation, both against
// a null literal of x's own type.
func IsNull(x Expr, pos Pos) *Compare {
	return &Compare{Op: Eq, X: x, Y: &NullLit{T: x.Type(), P: pos}, P: pos}
}

// NotNull builds the `x != null` test.
func NotNull(x Expr, pos Pos) *Compare {
	return &Compare{Op: Ne, X: x, Y: &NullLit{T: x.Type(), P: pos}, P: pos}
}
