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

// main package builds nullvet as a standalone checker that can be invoked
// directly against other packages.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/nullvet/nullvet"
	"github.com/nullvet/nullvet/config"
)

// Analyzer is identical to the top-level one except for its run function,
// which adds error filtering that the singlechecker driver does not support
// on its own.
var Analyzer = &analysis.Analyzer{
	Name:       nullvet.Analyzer.Name,
	Doc:        nullvet.Analyzer.Doc,
	Run:        run,
	FactTypes:  nullvet.Analyzer.FactTypes,
	ResultType: nullvet.Analyzer.ResultType,
	Requires:   nullvet.Analyzer.Requires,
}

var (
	// _includeErrorsInFiles lists file prefixes to report errors in.
	_includeErrorsInFiles string
	// _excludeErrorsInFiles lists file prefixes to suppress; it takes
	// precedence over the include list.
	_excludeErrorsInFiles string
)

func run(pass *analysis.Pass) (interface{}, error) {
	includes, err := parseFilePrefixes(_includeErrorsInFiles)
	if err != nil {
		return nil, fmt.Errorf("parse file prefixes for error inclusion: %w", err)
	}
	excludes, err := parseFilePrefixes(_excludeErrorsInFiles)
	if err != nil {
		return nil, fmt.Errorf("parse file prefixes for error exclusion: %w", err)
	}

	report := pass.Report
	pass.Report = func(d analysis.Diagnostic) {
		p := pass.Fset.File(d.Pos).Name()
		for _, e := range excludes {
			if strings.HasPrefix(p, e) {
				return
			}
		}
		for _, i := range includes {
			if strings.HasPrefix(p, i) {
				report(d)
				return
			}
		}
	}

	return nullvet.Analyzer.Run(pass)
}

// parseFilePrefixes parses a comma-separated list of file prefixes into
// absolute paths.
func parseFilePrefixes(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	list := strings.Split(s, ",")
	for i := range list {
		p, err := filepath.Abs(list[i])
		if err != nil {
			return nil, fmt.Errorf("convert %q to absolute path: %w", list[i], err)
		}
		list[i] = p
	}
	return list, nil
}

func main() {
	// Colored messages default to on only when stdout is a terminal; driver
	// output piped into editors and CI logs stays plain.
	if f := config.Analyzer.Flags.Lookup("pretty-print"); f != nil {
		_ = f.Value.Set(strconv.FormatBool(term.IsTerminal(int(os.Stdout.Fd()))))
	}

	// Lift the config analyzer's flags to the top level, so users write
	// `nullvet -flag <VALUE> ./...` rather than directing each flag at the
	// config analyzer by name.
	config.Analyzer.Flags.VisitAll(func(f *flag.Flag) { flag.Var(f.Value, f.Name, f.Usage) })

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get working directory: %v\n", err)
		os.Exit(1)
	}
	flag.StringVar(&_includeErrorsInFiles, "include-errors-in-files", wd, "A comma-separated list of file prefixes to report errors, default is current working directory.")
	flag.StringVar(&_excludeErrorsInFiles, "exclude-errors-in-files", "", "A comma-separated list of file prefixes to exclude from error reporting. This takes precedence over include-errors-in-files.")

	singlechecker.Main(Analyzer)
}
