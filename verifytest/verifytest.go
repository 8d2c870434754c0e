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

// Package verifytest implements utility functions for engine tests: compact
// IR builders and a finding-comparison harness.
package verifytest

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/engine"
	"github.com/nullvet/nullvet/ir"
	"github.com/nullvet/nullvet/nullability"
)

// Finding is the position-insensitive shape of a diagnostic: its kind and
// the line it is anchored to. Tests compare findings instead of full
// diagnostics so message wording can evolve without rewriting every case.
type Finding struct {
	Kind diagnostic.Kind
	Line int
}

// Findings projects full diagnostics down to comparable findings.
func Findings(diags []diagnostic.Diagnostic) []Finding {
	var out []Finding
	for _, d := range diags {
		out = append(out, Finding{Kind: d.Kind, Line: d.Pos.Line})
	}
	return out
}

// RunFunc analyzes fn under conf (nil for defaults) and requires exactly the
// wanted findings, in position order. The full diagnostics are dumped on
// mismatch.
func RunFunc(t *testing.T, conf *config.Config, fn *ir.Function, want []Finding) {
	t.Helper()
	diags := engine.New(conf).AnalyzeFunction(fn)
	require.Equal(t, want, Findings(diags), "diagnostics:\n%s", spew.Sdump(diags))
}

// At anchors an IR node to a line of the synthetic test file.
func At(line int) ir.Pos { return ir.Pos{File: "test.src", Line: line, Col: 1} }

// IntPtr is a pointer-to-int type with the given declared kind.
func IntPtr(kind nullability.Kind) *ir.Pointer {
	return ir.PtrTo(&ir.Basic{Name: "int"}, kind)
}

// Param declares a parameter variable.
func Param(name string, t ir.Type) *ir.Var {
	return &ir.Var{Name: name, T: t, Param: true}
}

// Local declares a local variable.
func Local(name string, t ir.Type) *ir.Var {
	return &ir.Var{Name: name, T: t}
}

// Ref references a variable at a line.
func Ref(v *ir.Var, line int) *ir.VarRef {
	return &ir.VarRef{V: v, P: At(line)}
}

// Null is a null literal of the given type at a line.
func Null(t ir.Type, line int) *ir.NullLit {
	return &ir.NullLit{T: t, P: At(line)}
}

// Body wraps straight-line statements into a single-block function body.
func Body(stmts ...ir.Stmt) *ir.Graph {
	return ir.NewGraph(&ir.Block{Stmts: stmts})
}
