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

// Stmt is one statement inside a basic block.
type Stmt interface {
	isStmt()
	Pos() Pos
}

// Assign stores Source into the location denoted by Target. Initialization,
// member initializers and construction-argument binding are all expressed as
// assignments against the target's declared contract.
type Assign struct {
	Target Expr
	Source Expr
	P      Pos
}

// VarDecl introduces a variable, optionally with an initializer.
type VarDecl struct {
	V    *Var
	Init Expr
	P    Pos
}

// Return leaves the function; X is nil for void returns. Each return site is
// checked against the declared result contract individually.
type Return struct {
	X Expr
	P Pos
}

// ExprStmt evaluates an expression for its checking side effects
// (dereferences, calls, assertion constructs).
type ExprStmt struct {
	X Expr
	P Pos
}

func (*Assign) isStmt()   {}
func (*VarDecl) isStmt()  {}
func (*Return) isStmt()   {}
func (*ExprStmt) isStmt() {}

func (s *Assign) Pos() Pos   { return s.P }
func (s *VarDecl) Pos() Pos  { return s.P }
func (s *Return) Pos() Pos   { return s.P }
func (s *ExprStmt) Pos() Pos { return s.P }

// Block is a basic block. A block with a non-nil Cond has exactly two
// successors: Succs[0] on the condition being true, Succs[1] on false.
// Without a condition all successors are unconditional alternatives.
type Block struct {
	Index int
	Stmts []Stmt
	Cond  Expr
	Succs []*Block
}

// Graph is the control-flow graph of one function body, as supplied by the
// front end. Blocks are indexed densely from zero; Entry is Blocks[0] by
// convention but kept explicit.
type Graph struct {
	Entry  *Block
	Blocks []*Block
}

// NewGraph numbers the given blocks and returns the graph rooted at the
// first one. Intended for front ends and tests building CFGs by hand.
func NewGraph(blocks ...*Block) *Graph {
	for i, b := range blocks {
		b.Index = i
	}
	return &Graph{Entry: blocks[0], Blocks: blocks}
}
