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
	"go/types"
	"regexp"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/nullvet/nullvet/config"
	"github.com/nullvet/nullvet/nullability"
)

// contracts is the package's declared nullability annotations, read from
// directive comments before any function is analyzed.
//
// Functions declare contracts in their doc comment, one directive per line:
//
//	// nonnull(p, result)
//	// nullable(q)
//	func f(p, q *int) *int { ... }
//
// where "result" names the (single) result. Struct fields carry a bare
// spelling in their doc or line comment:
//
//	type node struct {
//		next *node // nullable
//	}
//
// Everything unannotated stays unspecified, the optimistic default for
// legacy code.
type contracts struct {
	// kinds maps parameter, receiver and field objects to their declared
	// annotation.
	kinds map[types.Object]nullability.Kind
	// results maps function objects to the declared annotation of their
	// single result.
	results map[types.Object]nullability.Kind
}

// directivePattern matches one annotation directive line, e.g.
// "nonnull(p, result)".
func directivePattern(conf *config.Config) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^\s*(%s|%s|%s)\((.*?)\)\s*$`,
		regexp.QuoteMeta(conf.Directives.Nonnull),
		regexp.QuoteMeta(conf.Directives.Nullable),
		regexp.QuoteMeta(conf.Directives.Unspecified)))
}

// newContracts scans every declaration in the package for directives.
func newContracts(pass *analysis.Pass, conf *config.Config) (*contracts, error) {
	cs := &contracts{
		kinds:   make(map[types.Object]nullability.Kind),
		results: make(map[types.Object]nullability.Kind),
	}
	pattern := directivePattern(conf)

	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if err := cs.readFuncDirectives(pass, conf, pattern, d); err != nil {
					return nil, err
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					st, ok := ts.Type.(*ast.StructType)
					if !ok {
						continue
					}
					cs.readFieldDirectives(pass, conf, st)
				}
			}
		}
	}
	return cs, nil
}

func (cs *contracts) readFuncDirectives(pass *analysis.Pass, conf *config.Config, pattern *regexp.Regexp, fd *ast.FuncDecl) error {
	if fd.Doc == nil {
		return nil
	}
	for _, line := range fd.Doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(line.Text, "//"))
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		kind, err := parseSpelling(conf, m[1])
		if err != nil {
			return err
		}
		for _, name := range strings.Split(m[2], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if name == "result" {
				obj := pass.TypesInfo.Defs[fd.Name]
				if obj == nil {
					return fmt.Errorf("no object for function `%s`", fd.Name.Name)
				}
				cs.results[obj] = kind
				continue
			}
			obj := lookupParam(pass, fd, name)
			if obj == nil {
				return fmt.Errorf("directive on `%s` names unknown parameter %q", fd.Name.Name, name)
			}
			cs.kinds[obj] = kind
		}
	}
	return nil
}

func (cs *contracts) readFieldDirectives(pass *analysis.Pass, conf *config.Config, st *ast.StructType) {
	for _, field := range st.Fields.List {
		kind, ok := fieldSpelling(conf, field)
		if !ok {
			continue
		}
		for _, name := range field.Names {
			if obj := pass.TypesInfo.Defs[name]; obj != nil {
				cs.kinds[obj] = kind
			}
		}
	}
}

// fieldSpelling extracts a bare annotation spelling from a field's doc or
// line comment.
func fieldSpelling(conf *config.Config, field *ast.Field) (nullability.Kind, bool) {
	for _, group := range []*ast.CommentGroup{field.Doc, field.Comment} {
		if group == nil {
			continue
		}
		for _, line := range group.List {
			text := strings.TrimSpace(strings.TrimPrefix(line.Text, "//"))
			if kind, err := parseSpelling(conf, text); err == nil {
				return kind, true
			}
		}
	}
	return nullability.Unspecified, false
}

func parseSpelling(conf *config.Config, s string) (nullability.Kind, error) {
	switch s {
	case conf.Directives.Nonnull:
		return nullability.Nonnull, nil
	case conf.Directives.Nullable:
		return nullability.Nullable, nil
	case conf.Directives.Unspecified:
		return nullability.Unspecified, nil
	}
	return nullability.Unspecified, fmt.Errorf("unknown nullability spelling %q", s)
}

// lookupParam finds the object of a named parameter or receiver.
func lookupParam(pass *analysis.Pass, fd *ast.FuncDecl, name string) types.Object {
	fields := []*ast.Field{}
	if fd.Recv != nil {
		fields = append(fields, fd.Recv.List...)
	}
	if fd.Type.Params != nil {
		fields = append(fields, fd.Type.Params.List...)
	}
	for _, f := range fields {
		for _, n := range f.Names {
			if n.Name == name {
				return pass.TypesInfo.Defs[n]
			}
		}
	}
	return nil
}

// kindOf returns the declared annotation of an object, unspecified when the
// object carries none.
func (cs *contracts) kindOf(obj types.Object) nullability.Kind {
	if k, ok := cs.kinds[obj]; ok {
		return k
	}
	return nullability.Unspecified
}

// resultKindOf returns the declared annotation of a function's result.
func (cs *contracts) resultKindOf(obj types.Object) nullability.Kind {
	if k, ok := cs.results[obj]; ok {
		return k
	}
	return nullability.Unspecified
}
