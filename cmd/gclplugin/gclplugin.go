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

// Package gclplugin implements golangci-lint's module plugin interface so
// nullvet can run as a private linter inside golangci-lint. See
// https://golangci-lint.run/plugins/module-plugins/ for details.
package gclplugin

import (
	"fmt"

	"github.com/golangci/plugin-module-register/register"
	"golang.org/x/tools/go/analysis"

	"github.com/nullvet/nullvet"
	"github.com/nullvet/nullvet/config"
)

func init() {
	register.Plugin("nullvet", New)
}

// New returns the golangci-lint plugin wrapping the nullvet analyzer.
func New(settings any) (register.LinterPlugin, error) {
	// Settings arrive as a map of strings, mirroring the command line flags.
	s, ok := settings.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expect nullvet's configuration to be a map from string to "+
			"string (similar to command line flags), got %T", settings)
	}
	conf := make(map[string]string, len(s))
	for k, v := range s {
		vStr, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expect nullvet's configuration value for %q to be a string, got %T", k, v)
		}
		conf[k] = vStr
	}

	return &plugin{conf: conf}, nil
}

type plugin struct {
	conf map[string]string
}

// BuildAnalyzers applies the settings to the config analyzer and returns the
// top-level analyzer.
func (p *plugin) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	for k, v := range p.conf {
		if err := config.Analyzer.Flags.Set(k, v); err != nil {
			return nil, fmt.Errorf("set config flag %s with %s: %w", k, v, err)
		}
	}

	return []*analysis.Analyzer{nullvet.Analyzer}, nil
}

// GetLoadMode returns the plugin's load mode (types info is required).
func (p *plugin) GetLoadMode() string { return register.LoadModeTypesInfo }
