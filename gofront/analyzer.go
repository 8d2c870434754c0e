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

// Package gofront is the Go front end: it reads nullability contracts from
// directive comments, lowers each function body into the engine IR over the
// toolchain's resolved ASTs, and maps the engine's findings back to token
// positions. The engine itself is front-end-agnostic; this package is the
// reference adapter for Go code.
package gofront

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"reflect"

	"golang.org/x/tools/go/analysis"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/engine"
	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/util/analysishelper"
)

// Result is the front end's output: the raw engine findings plus their
// rendering as driver diagnostics.
type Result struct {
	// Findings are the engine's diagnostics in engine position order.
	Findings []diagnostic.Diagnostic
	// Diagnostics are the same findings anchored to token positions, ready
	// for the driver to report.
	Diagnostics []analysis.Diagnostic
}

// Analyzer lowers the package's functions and runs the nullability engine
// over them.
var Analyzer = &analysis.Analyzer{
	Name:       "nullvet_gofront",
	Doc:        "Lower Go functions into the nullability IR and analyze them",
	Run:        analysishelper.WrapRun[*Result](run),
	ResultType: reflect.TypeOf((*analysishelper.Result[*Result])(nil)),
	Requires:   []*analysis.Analyzer{config.Analyzer},
}

func run(pass *analysis.Pass) (*Result, error) {
	conf := pass.ResultOf[config.Analyzer].(*config.Config)

	cs, err := newContracts(pass, conf)
	if err != nil {
		return nil, err
	}

	var (
		fns      []*ir.Function
		posIndex = make(map[ir.Pos]token.Pos)
	)
	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			fn, idx, err := translateFunc(pass, conf, cs, fd)
			if err != nil {
				return nil, err
			}
			fns = append(fns, fn)
			for p, tp := range idx {
				posIndex[p] = tp
			}
		}
	}

	// Functions are independent; fan them out. Findings come back in input
	// order, so the report stays deterministic.
	findings, err := engine.New(conf).AnalyzeAll(context.Background(), fns)
	if err != nil {
		return nil, err
	}

	out := &Result{Findings: findings}
	for _, d := range findings {
		pos, ok := posIndex[d.Pos]
		if !ok {
			pos = token.NoPos
		}
		out.Diagnostics = append(out.Diagnostics, analysis.Diagnostic{
			Pos:     pos,
			Message: fmt.Sprintf("%s: %s", d.Kind, d.Message),
		})
	}
	return out, nil
}
