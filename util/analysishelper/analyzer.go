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

// Package analysishelper adapts this module's typed sub-analyzers to the
// any-typed `go/analysis` driver contract.
package analysishelper

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/tools/go/analysis"
)

// Result is what a wrapped sub-analyzer hands to the driver: the typed output
// plus any failure. Failures ride inside the result instead of the driver's
// error slot, so one broken package degrades that package's report rather
// than aborting the whole run; the top-level analyzer decides what to do with
// Err.
type Result[T any] struct {
	Res T
	Err error
}

// Unwrap splits the result into a plain value-error pair.
func (r *Result[T]) Unwrap() (T, error) { return r.Res, r.Err }

// WrapRun adapts a typed run function to the `go/analysis` signature. Errors
// come back wrapped with the analyzer's name; a panic is recovered into an
// error carrying its stack trace.
func WrapRun[T any](f func(*analysis.Pass) (T, error)) func(*analysis.Pass) (any, error) {
	return func(pass *analysis.Pass) (result any, _ error) {
		res := &Result[T]{}
		// Bind the return value up front: a recovered panic must still hand
		// the driver this result, not a nil one.
		result = res

		name := "unknown"
		if pass != nil && pass.Analyzer != nil {
			name = pass.Analyzer.Name
		}
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("analyzer %s panicked: %v\n%s", name, r, debug.Stack())
			}
		}()

		res.Res, res.Err = f(pass)
		if res.Err != nil {
			res.Err = fmt.Errorf("%s: %w", name, res.Err)
		}
		return result, nil
	}
}
