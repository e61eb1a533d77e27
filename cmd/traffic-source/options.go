// Copyright 2025 EURECOM
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
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/simulator"
)

const defaultConfigPath = "config/traffic-source.yaml"

// Options holds the command line of the traffic source. Flags explicitly set
// take precedence over the config file.
type Options struct {
	ConfigPath   string
	LogVerbosity int
	Development  bool
	OamPort      int
	MetricsPort  int

	fs *pflag.FlagSet
}

func NewOptions() *Options {
	return &Options{
		ConfigPath:   defaultConfigPath,
		LogVerbosity: logging.DEFAULT,
		Development:  true,
	}
}

func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath,
		"Path of the yaml configuration file.")
	fs.IntVarP(&opts.LogVerbosity, "v", "v", opts.LogVerbosity,
		"Number for the log level verbosity.")
	fs.BoolVar(&opts.Development, "development", opts.Development,
		"Human readable development logs.")
	fs.IntVar(&opts.OamPort, "oam-port", opts.OamPort,
		"Port of the experiment api, overrides oamPort.")
	fs.IntVar(&opts.MetricsPort, "metrics-port", opts.MetricsPort,
		"Port of the prometheus metrics, overrides metricsPort.")
}

func (opts *Options) Validate() error {
	if opts.ConfigPath == "" {
		return fmt.Errorf("--config must not be empty")
	}
	if opts.LogVerbosity < 0 {
		return fmt.Errorf("invalid value %d for flag %q: must not be negative", opts.LogVerbosity, "v")
	}
	for _, pc := range []struct {
		name string
		port int
	}{
		{"oam-port", opts.OamPort},
		{"metrics-port", opts.MetricsPort},
	} {
		if pc.port < 0 || pc.port > 65535 {
			return fmt.Errorf("invalid value %d for flag %q: must be between 1 and 65535", pc.port, pc.name)
		}
	}
	return nil
}

// ApplyTo overrides cfg with the flags set on the command line.
func (opts *Options) ApplyTo(cfg *simulator.AppConfig) {
	if opts.changed("v") {
		cfg.LogVerbosity = opts.LogVerbosity
	}
	if opts.changed("development") {
		cfg.Development = opts.Development
	}
	if opts.changed("oam-port") {
		cfg.OamPort = uint16(opts.OamPort)
	}
	if opts.changed("metrics-port") {
		cfg.MetricsPort = uint16(opts.MetricsPort)
	}
}

func (opts *Options) changed(name string) bool {
	if opts.fs == nil {
		return false
	}
	f := opts.fs.Lookup(name)
	return f != nil && f.Changed
}
