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

// Package config holds the engine-wide configuration: which constructs the
// checker recognizes and how its output is rendered. A Config is immutable
// once constructed, so concurrent per-function analyses share it without
// contention.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values for the configurable knobs.
const (
	// DefaultAssertFuncName is the name of the introspection construct that
	// asserts the exact nullability vector of an expression.
	DefaultAssertFuncName = "AssertNullability"
	// DefaultMaxFlattenDepth bounds type-flattening recursion; exceeding it
	// on well-formed front-end input is impossible, so hitting it is an
	// internal error.
	DefaultMaxFlattenDepth = 64
)

// Directives are the comment spellings the Go front end recognizes for
// declared nullability contracts.
type Directives struct {
	Nonnull     string `yaml:"nonnull"`
	Nullable    string `yaml:"nullable"`
	Unspecified string `yaml:"unspecified"`
}

// Config carries the immutable knobs of one checker instance.
type Config struct {
	// AssertFuncName is the recognized spelling of the assertion construct.
	AssertFuncName string `yaml:"assert-func"`
	// Directives are the annotation spellings.
	Directives Directives `yaml:"directives"`
	// MaxFlattenDepth bounds Flatten's recursion.
	MaxFlattenDepth int `yaml:"max-flatten-depth"`
	// PrettyPrint enables ANSI-colored messages in the report.
	PrettyPrint bool `yaml:"pretty-print"`
	// ReportFile, when non-empty, is where the compressed findings archive
	// is written in addition to the normal driver report.
	ReportFile string `yaml:"report-file"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		AssertFuncName: DefaultAssertFuncName,
		Directives: Directives{
			Nonnull:     "nonnull",
			Nullable:    "nullable",
			Unspecified: "unspecified",
		},
		MaxFlattenDepth: DefaultMaxFlattenDepth,
	}
}

// Load reads a YAML configuration file and applies it over the defaults.
func Load(path string) (*Config, error) {
	conf := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, conf); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return conf, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.AssertFuncName == "" {
		return fmt.Errorf("assert-func must not be empty")
	}
	if c.MaxFlattenDepth <= 0 {
		return fmt.Errorf("max-flatten-depth must be positive, got %d", c.MaxFlattenDepth)
	}
	if c.Directives.Nonnull == "" || c.Directives.Nullable == "" || c.Directives.Unspecified == "" {
		return fmt.Errorf("directive spellings must not be empty")
	}
	return nil
}
