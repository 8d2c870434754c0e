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

// Package diagnostic defines the checker's findings and the collector that
// accumulates them during a run. All findings are advisory: the engine
// records them and keeps analyzing, so one function can yield many.
package diagnostic

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nullvet/nullvet/ir"
)

// Kind classifies a finding.
type Kind uint8

const (
	// UnsafeDereference: a pointer known to be possibly null is dereferenced
	// or accessed through.
	UnsafeDereference Kind = iota
	// UnsafeAssignment: a possibly-null value flows into a location,
	// parameter or return contractually required non-null.
	UnsafeAssignment
	// AssertionMismatch: the introspection construct's expected nullability
	// vector differs from the engine's computed vector. Used only for
	// self-verification, never as a production diagnostic.
	AssertionMismatch
)

func (k Kind) String() string {
	switch k {
	case UnsafeDereference:
		return "unsafe-dereference"
	case UnsafeAssignment:
		return "unsafe-assignment"
	case AssertionMismatch:
		return "assertion-mismatch"
	}
	panic(fmt.Sprintf("invalid diagnostic kind %d", uint8(k)))
}

// Diagnostic is one finding, anchored at the offending expression.
type Diagnostic struct {
	Kind    Kind
	Pos     ir.Pos
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Kind, d.Message)
}

// Collector accumulates diagnostics for one analysis run. It deduplicates
// exact repeats (the fixpoint driver may visit a block more than once) and
// hands back a deterministically sorted slice.
type Collector struct {
	diags []Diagnostic
	seen  map[Diagnostic]struct{}
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[Diagnostic]struct{})}
}

// Add records a finding unless an identical one is already present.
func (c *Collector) Add(d Diagnostic) {
	if _, ok := c.seen[d]; ok {
		return
	}
	c.seen[d] = struct{}{}
	c.diags = append(c.diags, d)
}

// Addf records a finding with a formatted message.
func (c *Collector) Addf(kind Kind, pos ir.Pos, format string, args ...any) {
	c.Add(Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns the findings sorted by file, line, column and kind.
func (c *Collector) Diagnostics() []Diagnostic {
	out := slices.Clone(c.diags)
	slices.SortFunc(out, func(a, b Diagnostic) int {
		if n := cmp.Compare(a.Pos.File, b.Pos.File); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Pos.Line, b.Pos.Line); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Pos.Col, b.Pos.Col); n != 0 {
			return n
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return out
}

// Len returns the number of distinct findings collected so far.
func (c *Collector) Len() int { return len(c.diags) }
