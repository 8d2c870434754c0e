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

// Package engine implements the flow-sensitive nullability analysis: the
// per-construct transfer functions, the worklist fixpoint driver over a
// function's control-flow graph, and the assertion-hook evaluation.
//
// Analysis is single-function-scoped: each function's environment, flow
// conditions and diagnostics are private to its own run, so functions can be
// analyzed in parallel with no shared mutable state beyond the immutable
// configuration.
package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/ir"
)

// Engine analyzes functions against their declared nullability contracts.
// It is immutable and safe for concurrent use.
type Engine struct {
	conf *config.Config
}

// New creates an engine with the given configuration; nil means defaults.
func New(conf *config.Config) *Engine {
	if conf == nil {
		conf = config.Default()
	}
	return &Engine{conf: conf}
}

// AnalyzeFunction runs the dataflow analysis over one function body to a
// fixed point and returns the findings, sorted by position. The run either
// completes and yields the full diagnostic set or panics on an internal
// invariant violation; it never returns a partial result.
func (e *Engine) AnalyzeFunction(fn *ir.Function) []diagnostic.Diagnostic {
	a := newAnalysis(e.conf, fn)
	a.run()
	return a.diags.Diagnostics()
}

// AnalyzeAll analyzes the given functions, fanning out across workers. Each
// function is processed to completion by exactly one goroutine; results come
// back concatenated in input order so output stays deterministic. The
// context is only consulted between functions: a single function's analysis
// is bounded and never interrupted midway.
func (e *Engine) AnalyzeAll(ctx context.Context, fns []*ir.Function) ([]diagnostic.Diagnostic, error) {
	results := make([][]diagnostic.Diagnostic, len(fns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, fn := range fns {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			results[i] = e.AnalyzeFunction(fn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The group's derived context is canceled as soon as Wait returns; only
	// the caller's context tells an interrupted run from a finished one.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []diagnostic.Diagnostic
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
