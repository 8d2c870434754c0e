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

package config

import (
	"flag"
	"reflect"

	"golang.org/x/tools/go/analysis"
)

// Analyzer parses the driver flags into an immutable *Config shared by the
// downstream analyzers. Keeping configuration in its own analyzer (instead
// of package-level state) is what lets drivers run multiple analyses with
// different settings in one process.
var Analyzer = &analysis.Analyzer{
	Name:       "nullvet_config",
	Doc:        "Parse the flags and provide the configuration to the other analyzers",
	Run:        run,
	Flags:      newFlagSet(),
	ResultType: reflect.TypeOf((*Config)(nil)),
}

func newFlagSet() flag.FlagSet {
	fs := flag.NewFlagSet("nullvet_config", flag.ExitOnError)
	defaults := Default()
	fs.Bool("pretty-print", defaults.PrettyPrint, "Pretty print the error messages")
	fs.String("assert-func", defaults.AssertFuncName, "Name of the recognized nullability-assertion function")
	fs.Int("max-flatten-depth", defaults.MaxFlattenDepth, "Bound on type-flattening recursion depth")
	fs.String("report-file", defaults.ReportFile, "Also write the findings as a compressed archive to this file")
	fs.String("config-file", "", "Path to a YAML configuration file; flags override its values only when set explicitly")
	return *fs
}

func run(pass *analysis.Pass) (interface{}, error) {
	var conf *Config

	// A config file, when given, provides the base; explicitly-set flags win
	// over it below.
	if path := lookupString(&pass.Analyzer.Flags, "config-file"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		conf = loaded
	} else {
		conf = Default()
	}

	// Drivers lift these flags by sharing the flag.Value, bypassing this
	// FlagSet's bookkeeping of what was set. A flag deviating from its
	// default is the reliable signal that it should win over the file.
	pass.Analyzer.Flags.VisitAll(func(f *flag.Flag) {
		if f.Value.String() == f.DefValue {
			return
		}
		switch f.Name {
		case "pretty-print":
			conf.PrettyPrint = f.Value.String() == "true"
		case "assert-func":
			conf.AssertFuncName = f.Value.String()
		case "report-file":
			conf.ReportFile = f.Value.String()
		case "max-flatten-depth":
			if g, ok := f.Value.(flag.Getter); ok {
				if n, ok := g.Get().(int); ok {
					conf.MaxFlattenDepth = n
				}
			}
		}
	})

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func lookupString(fs *flag.FlagSet, name string) string {
	f := fs.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}
