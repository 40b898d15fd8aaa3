// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the explainer and the call identifiers used to interpret calls in the program
// model. If some field is not defined in the config file, it keeps its default value from NewDefault.
// Private fields are not populated from a yaml file, but computed after initialization.
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// Allocators identify the callees that return freshly allocated memory (the result aliases nothing)
	Allocators []CallIdentifier `yaml:"allocators"`

	// Identities identify the callees whose result aliases their first argument
	Identities []CallIdentifier `yaml:"identities"`
}

// Options are the scalar settings of the analysis
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// MaxSteps bounds the number of block visits spent on one procedure. When the budget is exhausted, the
	// reports finished so far are kept and the procedure result is flagged incomplete.
	// If MaxSteps <= 0, it is ignored.
	MaxSteps int `yaml:"max-steps"`

	// ProcedureTimeout bounds the wall-clock time spent on one procedure. Zero means no timeout.
	ProcedureTimeout time.Duration `yaml:"procedure-timeout"`

	// NumWorkers is the number of procedures explained in parallel
	NumWorkers int `yaml:"num-workers"`

	// MaxLoopBlocks is the largest loop body, in blocks, that the loop simulation accepts. Larger loops are
	// treated as unavailable models.
	MaxLoopBlocks int `yaml:"max-loop-blocks"`

	// ReportUnimportant keeps declaration events in the trails
	ReportUnimportant bool `yaml:"report-unimportant"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Allocators: compileAll(defaultAllocators()),
		Identities: compileAll(defaultIdentities()),
		Options: Options{
			LogLevel:          int(InfoLevel),
			MaxSteps:          DefaultMaxSteps,
			ProcedureTimeout:  0,
			NumWorkers:        DefaultNumWorkers,
			MaxLoopBlocks:     DefaultMaxLoopBlocks,
			ReportUnimportant: false,
			SilenceWarn:       false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes reads a configuration from the content b of the file filename. The filename is only used to
// resolve relative paths.
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultNumWorkers
	}
	if cfg.MaxLoopBlocks <= 0 {
		cfg.MaxLoopBlocks = DefaultMaxLoopBlocks
	}
	if cfg.ProcedureTimeout < 0 {
		return nil, fmt.Errorf("negative procedure-timeout %s in %s", cfg.ProcedureTimeout, filename)
	}
	for _, group := range [][]CallIdentifier{cfg.Allocators, cfg.Identities} {
		for i := range group {
			cid, err := compileRegex(group[i])
			if err != nil {
				return nil, fmt.Errorf("invalid call identifier in %s: %w", filename, err)
			}
			group[i] = cid
		}
	}
	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// IsAllocator returns true if the callee matches one of the allocators of the config
func (c Config) IsAllocator(callee string) bool {
	return matchesAny(c.Allocators, callee)
}

// IsIdentity returns true if the callee matches one of the identity primitives of the config
func (c Config) IsIdentity(callee string) bool {
	return matchesAny(c.Identities, callee)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxSteps returns true if the number of steps exceeds the budget of the configuration.
// (if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxSteps(steps int) bool {
	if c.MaxSteps <= 0 {
		return false
	}
	return steps > c.MaxSteps
}
