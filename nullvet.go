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

// Package nullvet implements the top-level analyzer: it retrieves the
// findings from the front end, renders them, and optionally persists them as
// a compressed archive.
package nullvet

import (
	"fmt"
	"os"
	"regexp"

	"golang.org/x/tools/go/analysis"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/diagnostic"
	"github.com/nullvet/nullvet/gofront"
	"github.com/nullvet/nullvet/util/analysishelper"
)

const _doc = "Run nullvet on this package to verify pointer nullability contracts:" +
	" unsafe dereferences, unsafe assignments into nonnull targets, and nullability assertions"

// Analyzer is the top-level analyzer. It carries no analysis logic of its
// own; the engine's findings arrive through the front end's result.
var Analyzer = &analysis.Analyzer{
	Name:      "nullvet",
	Doc:       _doc,
	Run:       run,
	FactTypes: []analysis.Fact{},
	Requires:  []*analysis.Analyzer{config.Analyzer, gofront.Analyzer},
}

func run(pass *analysis.Pass) (interface{}, error) {
	conf := pass.ResultOf[config.Analyzer].(*config.Config)
	res, err := pass.ResultOf[gofront.Analyzer].(*analysishelper.Result[*gofront.Result]).Unwrap()
	if err != nil {
		return nil, err
	}

	for _, d := range res.Diagnostics {
		if conf.PrettyPrint {
			d.Message = prettyPrintMessage(d.Message)
		}
		pass.Report(d)
	}

	if conf.ReportFile != "" {
		b, err := diagnostic.Encode(&diagnostic.Archive{Diagnostics: res.Findings})
		if err != nil {
			return nil, fmt.Errorf("encode findings archive: %w", err)
		}
		if err := os.WriteFile(conf.ReportFile, b, 0o644); err != nil {
			return nil, fmt.Errorf("write findings archive: %w", err)
		}
	}

	return nil, nil
}

var (
	tagPattern  = regexp.MustCompile(`^(unsafe-dereference|unsafe-assignment|assertion-mismatch): `)
	codePattern = regexp.MustCompile("\\`(.*?)\\`")
	kindPattern = regexp.MustCompile(`\b(nonnull|nullable|unspecified|unmodeled)\b`)
)

// prettyPrintMessage colors a rendered finding: the kind tag red, code
// references magenta, nullability kinds bold.
func prettyPrintMessage(msg string) string {
	tagStr := fmt.Sprintf("\x1b[%dm%s\x1b[0m: ", 31, "${1}")
	codeStr := fmt.Sprintf("\x1b[%dm%s\x1b[0m", 95, "`${1}`")
	kindStr := fmt.Sprintf("\x1b[%dm%s\x1b[0m", 1, "${1}")

	msg = kindPattern.ReplaceAllString(msg, kindStr)
	msg = codePattern.ReplaceAllString(msg, codeStr)
	msg = tagPattern.ReplaceAllString(msg, tagStr)
	return msg
}
