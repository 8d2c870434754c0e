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
	"slices"

	"github.com/yourbasic/graph"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/flow"
	"github.com/nullvet/nullvet/ir"
)

// analysis is the per-function state of one run: the stabilizing per-block
// out-environments and the collected findings. It is discarded once the
// function's diagnostics have been extracted.
type analysis struct {
	conf  *config.Config
	fn    *ir.Function
	diags *diagnostic.Collector

	// outs[i] is the environment after executing block i's statements and
	// condition, before any branch narrowing. Narrowed variants are derived
	// per edge on demand.
	outs  []*flow.Env
	preds [][]edge
	order []int
}

// edge identifies an incoming CFG edge: the predecessor block and which of
// its successor slots leads here (slot 0 is the true branch of a condition).
type edge struct {
	from *ir.Block
	slot int
}

func newAnalysis(conf *config.Config, fn *ir.Function) *analysis {
	n := len(fn.Body.Blocks)
	a := &analysis{
		conf:  conf,
		fn:    fn,
		diags: diagnostic.NewCollector(),
		outs:  make([]*flow.Env, n),
		preds: make([][]edge, n),
	}
	for _, b := range fn.Body.Blocks {
		for slot, s := range b.Succs {
			a.preds[s.Index] = append(a.preds[s.Index], edge{from: b, slot: slot})
		}
	}
	a.order = iterationOrder(fn.Body)
	return a
}

// iterationOrder picks the order in which the worklist seeds and revisits
// blocks: topological when the graph is acyclic, otherwise grouped by
// strongly connected components. The order only affects how fast the
// fixpoint is reached, never what it is.
func iterationOrder(g *ir.Graph) []int {
	dg := graph.New(len(g.Blocks))
	for _, b := range g.Blocks {
		for _, s := range b.Succs {
			if b.Index != s.Index {
				dg.Add(b.Index, s.Index)
			}
		}
	}
	if order, ok := graph.TopSort(dg); ok {
		return order
	}

	components := graph.StrongComponents(dg)
	for _, c := range components {
		slices.Sort(c)
	}
	slices.SortFunc(components, func(a, b []int) int { return a[0] - b[0] })
	var order []int
	for _, c := range components {
		order = append(order, c...)
	}
	return order
}

// run drives the transfer functions to a fixed point and then performs one
// reporting pass over the stabilized states. Termination is guaranteed by
// the finite lattice height and the fixed per-function location domain.
func (a *analysis) run() {
	entry := flow.NewEnv()
	if a.fn.Recv != nil {
		entry.Seed(a.fn.Recv)
	}
	for _, p := range a.fn.Params {
		entry.Seed(p)
	}

	inQueue := make([]bool, len(a.outs))
	queue := slices.Clone(a.order)
	for i := range inQueue {
		inQueue[i] = true
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		inQueue[idx] = false

		b := a.fn.Body.Blocks[idx]
		out := a.transferBlock(b, a.inEnv(b, entry), nil)
		if a.outs[idx] != nil && a.outs[idx].Equal(out) {
			continue
		}
		a.outs[idx] = out
		for _, s := range b.Succs {
			if !inQueue[s.Index] {
				inQueue[s.Index] = true
				queue = append(queue, s.Index)
			}
		}
	}

	// Reporting pass: every block's in-state is now stable, so diagnostics
	// are emitted exactly once per offending expression.
	for _, idx := range a.order {
		b := a.fn.Body.Blocks[idx]
		a.transferBlock(b, a.inEnv(b, entry), a.diags)
	}
}

// inEnv computes a block's in-state: the merge over all incoming edges of
// the predecessor's out-state with the edge's branch narrowing applied. The
// entry block starts from the seeded parameter environment.
func (a *analysis) inEnv(b *ir.Block, entry *flow.Env) *flow.Env {
	var in *flow.Env
	if b == a.fn.Body.Entry {
		in = entry.Clone()
	}
	for _, e := range a.preds[b.Index] {
		out := a.outs[e.from.Index]
		if out == nil {
			// Predecessor not yet visited; its contribution joins in later.
			continue
		}
		edgeEnv := out
		if e.from.Cond != nil {
			edgeEnv = out.Clone()
			a.narrowEdge(edgeEnv, e.from.Cond, e.slot == 0)
		}
		if in == nil {
			in = edgeEnv.Clone()
		} else {
			in = in.Merge(edgeEnv)
		}
	}
	if in == nil {
		in = entry.Clone()
	}
	return in
}

// transferBlock executes a block's statements and condition over a copy of
// the in-state. With a nil collector it only computes state; the reporting
// pass passes the real one.
func (a *analysis) transferBlock(b *ir.Block, in *flow.Env, col *diagnostic.Collector) *flow.Env {
	env := in.Clone()
	for _, s := range b.Stmts {
		a.execStmt(env, s, col)
	}
	if b.Cond != nil {
		a.evalExpr(env, b.Cond, col)
	}
	return env
}
